package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv, ln: ln}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	t.Cleanup(s.Close)
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

// captured is what the echo server saw for the last request.
type captured struct {
	method      string
	contentType string
	auth        string
	requestID   string
	body        string
}

func echoServer(t *testing.T, got *captured) *ipv4Server {
	t.Helper()
	return newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = captured{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			requestID:   r.Header.Get("X-Request-Id"),
			body:        string(b),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
}

func TestDoEncodesJSONBody(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)
	c := NewClient(srv.URL, 2*time.Second)

	body := map[string]string{"username": "alice", "password": "p1"}
	if err := c.Do(context.Background(), http.MethodPost, "/auth/register", body, "", nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.contentType != "application/json" {
		t.Fatalf("content-type = %q", got.contentType)
	}
	if got.body != `{"password":"p1","username":"alice"}` {
		t.Fatalf("body = %q", got.body)
	}
	if got.auth != "" {
		t.Fatalf("expected no auth header, got %q", got.auth)
	}
	if got.requestID == "" {
		t.Fatalf("expected request id header")
	}
}

func TestDoEncodesURLValues(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)
	c := NewClient(srv.URL, 2*time.Second)

	form := url.Values{"username": {"alice"}, "password": {"p1"}}
	if err := c.Do(context.Background(), http.MethodPost, "/auth/login", form, "", nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("content-type = %q", got.contentType)
	}
	if got.body != "password=p1&username=alice" {
		t.Fatalf("body = %q", got.body)
	}
}

func TestDoSendsMultipartUnmodified(t *testing.T) {
	var fileContent, fieldName, filename string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			http.Error(w, "bad content type "+r.Header.Get("Content-Type"), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		fileContent, fieldName, filename = string(b), "file", hdr.Filename
		_, _ = io.WriteString(w, `{}`)
	}))
	c := NewClient(srv.URL, 2*time.Second)

	form := NewForm().AddFile("file", "a.png", strings.NewReader("PNGDATA"))
	if err := c.Do(context.Background(), http.MethodPost, "/documents/upload", form, "tok", nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if fieldName != "file" || filename != "a.png" || fileContent != "PNGDATA" {
		t.Fatalf("unexpected part: field=%q filename=%q content=%q", fieldName, filename, fileContent)
	}
}

func TestDoEmptyBodiesSendNothing(t *testing.T) {
	var nilDoc *Document
	cases := []struct {
		name string
		body any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"nil pointer", nilDoc},
		{"false", false},
		{"zero", 0},
		{"nil url values", url.Values(nil)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			srv := echoServer(t, &got)
			c := NewClient(srv.URL, 2*time.Second)
			if err := c.Do(context.Background(), "", "/documents", tc.body, "", nil); err != nil {
				t.Fatalf("Do: %v", err)
			}
			if got.method != http.MethodGet {
				t.Fatalf("method = %q, want GET", got.method)
			}
			if got.body != "" || got.contentType != "" {
				t.Fatalf("expected no payload, got body=%q content-type=%q", got.body, got.contentType)
			}
		})
	}
}

func TestDoAttachesBearerToken(t *testing.T) {
	var got captured
	srv := echoServer(t, &got)
	c := NewClient(srv.URL, 2*time.Second)
	if err := c.Do(context.Background(), http.MethodGet, "/documents", nil, "tok123", nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got.auth != "Bearer tok123" {
		t.Fatalf("auth = %q", got.auth)
	}
}

func TestDoErrorUsesBodyText(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_abc")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Username already registered"}`)
	}))
	c := NewClient(srv.URL, 2*time.Second)

	err := c.Do(context.Background(), http.MethodPost, "/auth/register", map[string]string{"a": "b"}, "", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != `{"detail":"Username already registered"}` {
		t.Fatalf("message = %q", err.Error())
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Detail != "Username already registered" {
		t.Fatalf("unexpected error fields: %+v", apiErr)
	}
	if apiErr.RequestID != "req_abc" {
		t.Fatalf("request id = %q", apiErr.RequestID)
	}
}

func TestDoErrorFallsBackToStatus(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	c := NewClient(srv.URL, 2*time.Second)

	err := c.Do(context.Background(), http.MethodGet, "/documents/9/result", nil, "t", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status code in message, got %q", err.Error())
	}
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound")
	}
}

func TestDoErrorKeepsLongBodyWhole(t *testing.T) {
	long := strings.Repeat("x", 10000)
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, long)
	}))
	c := NewClient(srv.URL, 2*time.Second)

	err := c.Do(context.Background(), http.MethodGet, "/documents", nil, "t", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Error()) != len(long) || err.Error() != long {
		t.Fatalf("message length = %d, want %d", len(err.Error()), len(long))
	}
}

func TestDoTrailingDataIsDecodeError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "[] trailing garbage")
	}))
	c := NewClient(srv.URL, 2*time.Second)

	var out []Document
	err := c.Do(context.Background(), http.MethodGet, "/documents", nil, "t", &out)
	if err == nil {
		t.Fatal("expected decode error for trailing data")
	}
	if !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoMalformedJSONIsNotAPIError(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	c := NewClient(srv.URL, 2*time.Second)

	var out []Document
	err := c.Do(context.Background(), http.MethodGet, "/documents", nil, "t", &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("decode failure should not be an APIError")
	}
}

func TestDoUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot open listener: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient("http://"+addr, time.Second)
	err = c.Do(context.Background(), http.MethodGet, "/health", nil, "", nil)
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
}
