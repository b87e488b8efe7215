// Package upstream reads through to another signaling proxy on a local miss.
package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config represents the upstream proxy config structure.
type Config struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type Client struct {
	URL    string
	Client *http.Client
}

// New returns nil when no upstream URL is configured.
func New(cfg Config) *Client {
	if cfg.URL == "" {
		return nil
	}
	return &Client{
		URL: strings.TrimRight(cfg.URL, "/"),
		Client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Fetch asks the upstream proxy for key. found is false on a 404 or any
// other non-200 answer.
func (c *Client) Fetch(ctx context.Context, key string) (string, bool, error) {
	if c == nil || c.URL == "" {
		return "", false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL+"/kv/"+url.PathEscape(key), nil)
	if err != nil {
		return "", false, errors.Wrap(err, "build upstream request")
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", false, errors.Wrap(err, "upstream fetch")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, errors.Wrap(err, "read upstream body")
	}
	return string(b), true, nil
}
