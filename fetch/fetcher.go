package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/dexfetch/dexfetch/iox"
	"github.com/dexfetch/dexfetch/types"
)

// DefaultEndpoint is the upstream API base. One record per named item
// lives at <endpoint>/<item>.
const DefaultEndpoint = "https://pokeapi.co/api/v2/pokemon"

// DefaultTimeout is the default total request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultConnectTimeout is the default connection establishment timeout.
const DefaultConnectTimeout = 5 * time.Second

// Config configures the fetch client.
type Config struct {
	// Endpoint is the base URL; records live at <Endpoint>/<item>.
	Endpoint string
	// Timeout bounds the whole request including body read (default 10s).
	Timeout time.Duration
	// ConnectTimeout bounds connection establishment (default 5s).
	ConnectTimeout time.Duration
	// TempDir receives per-attempt scratch files. Empty uses os.TempDir.
	TempDir string
}

// Client issues single GETs against the upstream API. It performs no
// retries; retry policy belongs to the runtime retry controller.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates a fetch client from the given config.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}

	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// Get issues exactly one GET for the item and writes the response body
// to a private temporary file, returning its path. The body is written
// unvalidated; callers must run Validate before trusting it and must
// remove the temp file when done with it.
//
// Failures are classified: HTTP 404 → ErrNotFound (the status code is
// inspected directly rather than inferred from a transport proxy),
// other non-2xx → ErrTransport, deadline → ErrTimeout.
func (c *Client) Get(ctx context.Context, item types.Item) (string, error) {
	url := fmt.Sprintf("%s/%s", c.config.Endpoint, item)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", NewFetchError(ErrTransport, "get", item, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", NewFetchError(classifyTransport(err), "get", item, err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		// Drain so the connection can be reused by a later item.
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", NewFetchError(ErrNotFound, "get", item, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", NewFetchError(ErrTransport, "get", item,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	tmp, err := os.CreateTemp(c.config.TempDir, fmt.Sprintf("%s-*.json.tmp", item))
	if err != nil {
		return "", NewFetchError(ErrTransport, "get", item, err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		name := tmp.Name()
		iox.DiscardClose(tmp)
		_ = os.Remove(name)
		return "", NewFetchError(classifyTransport(err), "get", item, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", NewFetchError(ErrTransport, "get", item, err)
	}

	return tmp.Name(), nil
}

// Validate parses and validates a fetched body against the requested
// item. Pure function over content: no network, no retries.
//
// Classification: unparseable → ErrMalformed, required fields absent →
// ErrMissingFields, identifying field ≠ requested item →
// ErrIdentityMismatch (upstream can silently serve a different
// canonical record than the alias requested).
func Validate(data []byte, item types.Item) (*types.Record, error) {
	rec, err := types.ParseRecord(data)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrMalformedRecord):
			return nil, NewFetchError(ErrMalformed, "validate", item, err)
		case errors.Is(err, types.ErrMissingFields):
			return nil, NewFetchError(ErrMissingFields, "validate", item, err)
		default:
			return nil, NewFetchError(ErrMalformed, "validate", item, err)
		}
	}

	if rec.Name != item.String() {
		return nil, NewFetchError(ErrIdentityMismatch, "validate", item,
			fmt.Errorf("requested %q, upstream returned %q", item, rec.Name))
	}

	return rec, nil
}

// ValidateFile reads a fetched body from disk and validates it,
// returning the record together with the raw bytes for committing.
func ValidateFile(path string, item types.Item) (*types.Record, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, NewFetchError(ErrMalformed, "validate", item, err)
	}
	rec, err := Validate(data, item)
	if err != nil {
		return nil, nil, err
	}
	return rec, data, nil
}
