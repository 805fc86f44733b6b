package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/construction-dashboard/internal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 1 << 20

var (
	ErrUnauthorized      = errors.New("backend: authentication rejected")
	ErrForbidden         = errors.New("backend: forbidden")
	ErrNotFound          = errors.New("backend: not found")
	ErrValidation        = errors.New("backend: request rejected")
	ErrNoToken           = errors.New("backend: no session token")
	ErrMalformedResponse = errors.New("backend: malformed response")
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	PageLimit int
	// Transport is the base round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// APIError is a non-2xx answer from the backend. Detail holds the message
// extracted from the payload, empty when the payload had none.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// requester is the shared request/response plumbing of AuthClient and Client.
type requester struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func newRequester(cfg Config, rt http.RoundTripper, logger *slog.Logger) requester {
	if logger == nil {
		logger = slog.Default()
	}
	return requester{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Transport: rt, Timeout: cfg.Timeout},
		logger:  logger,
	}
}

func baseTransport(cfg Config) http.RoundTripper {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return otelhttp.NewTransport(base)
}

func (r requester) endpoint(path string, query url.Values) string {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (r requester) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, header http.Header) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if traceID := internal.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(internal.TraceIDHeader, traceID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	r.logger.DebugContext(ctx, "backend request",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Detail:     ExtractDetail(raw),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read body: %w", method, path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		// acknowledgements may come back empty
		if _, ok := out.(*json.RawMessage); ok {
			return nil
		}
		return fmt.Errorf("%s %s: empty body: %w", method, path, ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, ErrMalformedResponse)
	}
	return nil
}

// ExtractDetail pulls a human-readable message out of an error payload.
// It understands {"detail": "..."}, {"detail": [{"msg": "..."}]},
// {"message": "..."} and {"error": "..."}; anything else yields "".
func ExtractDetail(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "message", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return ""
}

// Client calls the authenticated endpoints. Every request carries the
// session's bearer token and every 401 is reported to the policy.
type Client struct {
	requester
	pageLimit int
}

func NewClient(cfg Config, src TokenSource, policy UnauthorizedPolicy, logger *slog.Logger) *Client {
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	rt := authenticatedTransport(baseTransport(cfg), src, policy)
	return &Client{
		requester: newRequester(cfg, rt, logger),
		pageLimit: limit,
	}
}

// DefaultPageLimit matches the page size the web client requests.
const DefaultPageLimit = 100

func (c *Client) page(skip, limit int) url.Values {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = c.pageLimit
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func idPath(format string, ids ...int64) string {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}

// Ping checks that the backend answers HTTP at all. Any status counts as up.
func (r requester) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("/", nil), nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
