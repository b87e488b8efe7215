package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/UltraSive/p2p-signaling/internal/cleaner"
	"github.com/UltraSive/p2p-signaling/internal/datastore"
	"github.com/UltraSive/p2p-signaling/internal/upstream"
)

const (
	// DefaultTTL applies to every write.
	DefaultTTL = 3600 * time.Second
	// DefaultMaxBody caps PUT bodies.
	DefaultMaxBody = 1 << 20

	// WorkerName is reported by /health.
	WorkerName = "p2p-signaling"

	kvPrefix = "/kv/"

	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

// healthResp is the /health body.
type healthResp struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Worker    string `json:"worker"`
}

type cleanupResp struct {
	Message string `json:"message"`
}

type Handler struct {
	DB       datastore.Datastore
	Upstream *upstream.Client // nil if none
	TTL      time.Duration
	MaxBody  int64
	Log      *slog.Logger

	// Now is the clock used by /health and /cleanup.
	Now func() time.Time
}

func New(db datastore.Datastore, up *upstream.Client, ttl time.Duration, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		DB:       db,
		Upstream: up,
		TTL:      ttl,
		MaxBody:  DefaultMaxBody,
		Log:      log,
		Now:      time.Now,
	}
}

// Key extracts the signaling key from a /kv/ request: everything after the
// literal prefix in the escaped path, unescaped once. Further slashes are
// part of the key.
func Key(r *http.Request) (string, error) {
	raw := strings.TrimPrefix(r.URL.EscapedPath(), kvPrefix)
	key, err := url.PathUnescape(raw)
	if err != nil {
		return "", errors.Wrap(err, "decode key")
	}
	return key, nil
}

// withKey resolves the key and answers 400 when it is empty.
func (h *Handler) withKey(fn func(w http.ResponseWriter, r *http.Request, key string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := Key(r)
		if err != nil {
			Fault(w, r, h.Log, err)
			return
		}
		if key == "" {
			respondText(w, http.StatusBadRequest, "Key required")
			return
		}
		fn(w, r, key)
	}
}

// HandleGet returns the stored value verbatim.
func (h *Handler) HandleGet() http.HandlerFunc {
	return h.withKey(func(w http.ResponseWriter, r *http.Request, key string) {
		val, ok, err := h.DB.Get(r.Context(), key)
		if err != nil {
			Fault(w, r, h.Log, err)
			return
		}
		if !ok {
			val, ok = h.fetchUpstream(r.Context(), key)
		}
		if !ok {
			respondText(w, http.StatusNotFound, "Key not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, val)
	})
}

// fetchUpstream reads through to the upstream proxy and caches a hit
// locally. Upstream failures count as a miss.
func (h *Handler) fetchUpstream(ctx context.Context, key string) (string, bool) {
	if h.Upstream == nil {
		return "", false
	}
	val, found, err := h.Upstream.Fetch(ctx, key)
	if err != nil {
		h.Log.Warn("upstream fetch failed", "key", key, "error", err)
		return "", false
	}
	if !found {
		return "", false
	}
	if err := h.DB.Put(ctx, key, val, h.TTL); err != nil {
		h.Log.Warn("caching upstream value failed", "key", key, "error", err)
	}
	return val, true
}

// HandlePut stores the raw body under key, refreshing its TTL.
func (h *Handler) HandlePut() http.HandlerFunc {
	return h.withKey(func(w http.ResponseWriter, r *http.Request, key string) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxBody))
		if err != nil {
			Fault(w, r, h.Log, errors.Wrap(err, "read body"))
			return
		}
		if err := h.DB.Put(r.Context(), key, string(body), h.TTL); err != nil {
			Fault(w, r, h.Log, err)
			return
		}
		respondText(w, http.StatusOK, "Stored")
	})
}

// HandleDelete removes key whether or not it exists.
func (h *Handler) HandleDelete() http.HandlerFunc {
	return h.withKey(func(w http.ResponseWriter, r *http.Request, key string) {
		if err := h.DB.Delete(r.Context(), key); err != nil {
			Fault(w, r, h.Log, err)
			return
		}
		respondText(w, http.StatusOK, "Deleted")
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResp{
		Status:    "ok",
		Timestamp: h.Now().UTC().Format(isoMillis),
		Worker:    WorkerName,
	})
}

// HandleCleanup runs one sweep. It is unauthenticated; the deployment's
// network exposure is the only boundary.
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	res, err := cleaner.Sweep(r.Context(), h.DB, h.Now())
	if err != nil {
		Fault(w, r, h.Log, err)
		return
	}
	if err := res.Errors.ErrorOrNil(); err != nil {
		h.Log.Warn("cleanup skipped keys", "error", err)
	}
	h.Log.Info("cleanup done",
		"scanned", res.Scanned,
		"stale", res.Stale,
		"corrupt", res.Corrupt,
	)
	respondJSON(w, http.StatusOK, cleanupResp{
		Message: fmt.Sprintf("Cleaned up %d expired entries", res.Deleted()),
	})
}

func (h *Handler) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	respondText(w, http.StatusOK, usage)
}

const usage = `P2P Signaling KV Proxy

Two peers exchange small signaling messages (offers, answers, ICE
candidates) by agreeing on a key out of band and reading/writing it here.

Endpoints:
  GET    /kv/{key}   fetch the value stored under key
  PUT    /kv/{key}   store the request body under key (expires after 1 hour)
  DELETE /kv/{key}   delete key
  GET    /health     service health
  GET    /cleanup    remove stale connection_* and ice_* entries

Keys are taken from the path and decoded once; %2F becomes a / in the key.
Keys must use valid percent-encoding: a malformed escape such as %zz is
rejected by the HTTP server itself with a bare 400, sent without CORS headers.

Values are stored as-is. Include a numeric "timestamp" field (epoch
milliseconds) in JSON values so /cleanup can expire them.

Example:
  curl -X PUT --data '{"type":"offer","sdp":"...","timestamp":1700000000000}' \
    http://localhost:8080/kv/connection_abc
  curl http://localhost:8080/kv/connection_abc
`
