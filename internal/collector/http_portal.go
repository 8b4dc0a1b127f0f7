package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPOptions tunes the portal transport.
type HTTPOptions struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// HTTPPortal talks to a JSON portal exposing
// GET /locations, GET /locations/{id}/programs and
// GET /locations/{id}/programs/{pid}/items?page=&pageSize=.
type HTTPPortal struct {
	id         string
	baseURL    string
	userAgent  string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewHTTPPortal builds a portal client for src. A per-source timeout overrides the default.
func NewHTTPPortal(src SourceConfig, opts HTTPOptions) *HTTPPortal {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = opts.Timeout
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPPortal{
		id:         src.ID,
		baseURL:    strings.TrimRight(src.BaseURL, "/"),
		userAgent:  src.UserAgent,
		client:     newHTTPClient(timeout),
		maxRetries: opts.MaxRetries,
		backoff:    defaultDuration(opts.Backoff, 500*time.Millisecond),
		maxBackoff: defaultDuration(opts.MaxBackoff, 5*time.Second),
	}
}

// ID identifies the source in natural keys and counts.
func (p *HTTPPortal) ID() string { return p.id }

// Locations lists the accounts visible on the portal.
func (p *HTTPPortal) Locations(ctx context.Context) ([]Location, error) {
	var out []Location
	if err := p.get(ctx, "/locations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Programs lists programs offered at a location.
func (p *HTTPPortal) Programs(ctx context.Context, locationID string) ([]Program, error) {
	var out []Program
	path := "/locations/" + url.PathEscape(locationID) + "/programs"
	if err := p.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Items fetches one page of a program's events. Pages are 1-based.
func (p *HTTPPortal) Items(ctx context.Context, locationID, programID string, page, pageSize int) ([]Item, error) {
	var out []Item
	path := "/locations/" + url.PathEscape(locationID) + "/programs/" + url.PathEscape(programID) + "/items"
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if err := p.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPPortal) get(ctx context.Context, path string, query url.Values, dest interface{}) error {
	endpoint := p.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body []byte
	err := retry(ctx, p.maxRetries+1, p.backoff, p.maxBackoff, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if p.userAgent != "" {
			req.Header.Set("User-Agent", p.userAgent)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			statusErr := fmt.Errorf("%s %s: status %d: %s", p.id, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				return statusErr
			}
			return permanent(statusErr)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return err
	}
	return decodeList(body, dest)
}

// decodeList accepts a bare JSON array or an object wrapping it under data or items.
func decodeList(body []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, dest)
	}
	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return fmt.Errorf("decode portal response: %w", err)
	}
	switch {
	case len(envelope.Data) > 0 && string(envelope.Data) != "null":
		return json.Unmarshal(envelope.Data, dest)
	case len(envelope.Items) > 0 && string(envelope.Items) != "null":
		return json.Unmarshal(envelope.Items, dest)
	default:
		return nil
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

// retry runs fn up to attempts times with exponential backoff capped at max. Permanent
// errors stop immediately.
func retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	delay := initial
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
			if delay < max {
				delay *= 2
				if delay > max {
					delay = max
				}
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
	}
	return err
}

func defaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
