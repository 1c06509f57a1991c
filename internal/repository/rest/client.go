// Package rest implements the domain repositories against the marketplace API.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/logger"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const maxReadAttempts = 3

// Client talks to the marketplace API on behalf of the signed-in user.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    time.Duration

	onUnauthorized func(ctx context.Context, userID string)
}

// NewClient creates a client for baseURL. rps <= 0 disables pacing.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		backoff: 500 * time.Millisecond,
	}
}

// OnUnauthorized registers fn to run whenever the API answers 401.
func (c *Client) OnUnauthorized(fn func(ctx context.Context, userID string)) {
	c.onUnauthorized = fn
}

// apiError is the error body shape the API uses.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends one request and returns the response body with any {"data": ...}
// envelope removed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	raw, err := c.request(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	return unwrapData(raw), nil
}

// request returns the raw response body. Reads are retried on transport
// errors, 429 and 5xx; writes are sent once.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = maxReadAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, &domain.NetworkFailureError{Op: method + " " + path, Err: ctx.Err()}
			case <-time.After(time.Duration(i) * c.backoff):
			}
		}

		raw, status, err := c.send(ctx, method, path, target, payload)
		if err == nil {
			return bytes.TrimSpace(raw), nil
		}
		lastErr = err

		if !retryable(status, err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, path, target string, payload []byte) ([]byte, int, error) {
	op := method + " " + path
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &domain.NetworkFailureError{Op: op, Err: err}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	user, _ := ctx.Value(domain.UserContextKey).(*domain.User)
	if user != nil && user.Token != "" {
		req.Header.Set("Authorization", "Bearer "+user.Token)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = &domain.NetworkFailureError{Op: op, Err: err}
		logger.UpstreamCall(ctx, method, path, 0, time.Since(start), err)
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		err = &domain.NetworkFailureError{Op: op, Err: err}
		logger.UpstreamCall(ctx, method, path, resp.StatusCode, time.Since(start), err)
		return nil, resp.StatusCode, err
	}

	err = c.statusError(ctx, user, resp.StatusCode, raw)
	logger.UpstreamCall(ctx, method, path, resp.StatusCode, time.Since(start), err)
	return raw, resp.StatusCode, err
}

func (c *Client) statusError(ctx context.Context, user *domain.User, status int, raw []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}
	if status == http.StatusUnauthorized {
		if c.onUnauthorized != nil && user != nil {
			c.onUnauthorized(ctx, user.ID)
		}
		return domain.ErrUnauthorized
	}

	var body apiError
	_ = json.Unmarshal(raw, &body)
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	return &domain.ServerRejectedError{StatusCode: status, Message: msg}
}

func retryable(status int, err error) bool {
	var netErr *domain.NetworkFailureError
	if errors.As(err, &netErr) {
		return !errors.Is(netErr.Err, context.Canceled) && !errors.Is(netErr.Err, context.DeadlineExceeded)
	}
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// unwrapData strips a {"data": ...} envelope, leaving bare bodies alone.
func unwrapData(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return trimmed
	}
	return env.Data
}

// decodeOne decodes an entity body. An empty body yields nil.
func decodeOne[T any](raw []byte) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func decodeList[T any](raw []byte) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

// pagedList is the admin list shape: items plus a total under one of two names.
type pagedList[T any] struct {
	Data       []T   `json:"data"`
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Pagination struct {
		TotalItems int64 `json:"totalItems"`
	} `json:"pagination"`
}

// decodePage accepts a bare array or a paged object. It takes the raw body
// because the total sits beside "data".
func decodePage[T any](raw []byte) ([]T, int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		items, err := decodeList[T](trimmed)
		return items, int64(len(items)), err
	}
	var page pagedList[T]
	if len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, 0, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	items := page.Data
	if items == nil {
		items = page.Items
	}
	if items == nil {
		items = []T{}
	}
	total := page.Total
	if total == 0 {
		total = page.Pagination.TotalItems
	}
	if total == 0 {
		total = int64(len(items))
	}
	return items, total, nil
}

func pageQuery(page, limit int, status, search string) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if status != "" {
		q.Set("status", status)
	}
	if search != "" {
		q.Set("search", search)
	}
	return q
}

func pathID(s string) string {
	return url.PathEscape(s)
}
