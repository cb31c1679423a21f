package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
	requestIDHeader = "X-Request-Id"
)

// Client issues requests against a single backend origin.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient returns a client for baseURL with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP allows injecting a custom http.Client (used in tests).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     slog.Default(),
	}
}

// WithLogger sets the logger used for per-request debug lines.
func (c *Client) WithLogger(l *slog.Logger) *Client {
	if l != nil {
		c.logger = l
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// URL joins the base origin and a relative path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Do sends a request and decodes a successful JSON response into out.
// method defaults to GET. body may be a *Form (multipart), url.Values
// (url-encoded) or any JSON-serializable value; nil or zero values send no
// body. A non-empty token is attached as a bearer credential.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string, out any) error {
	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// The whole body must be one JSON document; trailing bytes are an error.
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Raw sends a GET and returns the undecoded body, for assets outside the JSON envelope.
func (c *Client) Raw(ctx context.Context, path, token string) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}

// send performs the round trip and converts non-2xx responses into *APIError.
// On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, path string, body any, token string) (*http.Response, error) {
	if method == "" {
		method = http.MethodGet
	}
	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(path), payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	reqID := uuid.NewString()
	httpReq.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnreachableError{Host: c.baseURL, Err: err}
	}
	c.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		if echoed := resp.Header.Get(requestIDHeader); echoed != "" {
			reqID = echoed
		}
		return nil, newAPIError(resp.StatusCode, b, reqID)
	}
	return resp, nil
}

// encodeBody picks the wire encoding from the body's kind, in order:
// multipart, url-encoded, JSON, none.
func encodeBody(body any) (io.Reader, string, error) {
	if isEmptyBody(body) {
		return nil, "", nil
	}
	switch b := body.(type) {
	case *Form:
		buf, ct, err := b.encode()
		if err != nil {
			return nil, "", fmt.Errorf("encode multipart: %w", err)
		}
		return buf, ct, nil
	case url.Values:
		return strings.NewReader(b.Encode()), contentTypeForm, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), contentTypeJSON, nil
}

// isEmptyBody reports nil, nil pointers/maps/slices, and zero scalars. A
// non-nil url.Values is never empty: an empty form is still a form.
func isEmptyBody(body any) bool {
	if body == nil {
		return true
	}
	if v, ok := body.(url.Values); ok {
		return v == nil
	}
	v := reflect.ValueOf(body)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.IsZero()
	}
	return false
}
