// Package cleaner sweeps abandoned signaling entries out of a datastore.
//
// Stores already expire entries after their TTL; the sweep is a second,
// content-based pass over keys following the connection_/ice_ naming
// convention. It deletes entries whose embedded timestamp is older than
// MaxAge, and entries whose value is not valid JSON at all.
package cleaner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/UltraSive/p2p-signaling/internal/datastore"
)

// MaxAge is how old an embedded timestamp may be before the entry is stale.
const MaxAge = time.Hour

// Prefixes lists the key prefixes eligible for sweeping.
var Prefixes = []string{"connection_", "ice_"}

// Eligible reports whether key follows a sweepable naming convention.
func Eligible(key string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Result summarises one sweep.
type Result struct {
	Scanned int // eligible keys inspected
	Stale   int
	Corrupt int
	// Errors holds per-key store failures. The sweep carries on past them.
	Errors *multierror.Error
}

// Deleted is the number of entries actually removed.
func (r Result) Deleted() int {
	return r.Stale + r.Corrupt
}

// Sweep lists every key in ds and removes stale or corrupt eligible entries.
// Only a failure to list aborts the sweep; a failing get or delete for one
// key is recorded in Result.Errors and the next key is processed.
func Sweep(ctx context.Context, ds datastore.Datastore, now time.Time) (Result, error) {
	var res Result

	keys, err := ds.List(ctx)
	if err != nil {
		return res, err
	}

	nowMs := now.UnixMilli()
	for _, key := range keys {
		if !Eligible(key) {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Errors = multierror.Append(res.Errors, err)
			return res, nil
		}
		res.Scanned++

		raw, ok, err := ds.Get(ctx, key)
		if err != nil {
			res.Errors = multierror.Append(res.Errors, err)
			continue
		}
		if !ok {
			// Expired or deleted between List and Get.
			continue
		}

		rec := Classify(raw)
		if rec.Kind != Corrupt && !rec.Stale(nowMs) {
			continue
		}

		if err := ds.Delete(ctx, key); err != nil {
			res.Errors = multierror.Append(res.Errors, err)
			continue
		}
		if rec.Kind == Corrupt {
			res.Corrupt++
		} else {
			res.Stale++
		}
	}
	return res, nil
}

// Start runs Sweep every interval until ctx is cancelled.
func Start(ctx context.Context, ds datastore.Datastore, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				res, err := Sweep(ctx, ds, time.Now())
				if err != nil {
					log.Error("periodic sweep failed", "error", err)
					continue
				}
				if res.Errors != nil {
					log.Warn("periodic sweep had key errors", "error", res.Errors.ErrorOrNil())
				}
				log.Info("periodic sweep done",
					"scanned", res.Scanned,
					"stale", res.Stale,
					"corrupt", res.Corrupt,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
