// Package apitest provides an in-memory DocBox backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const signingKey = "apitest-secret"

type user struct {
	id       int
	username string
	password string
}

type document struct {
	ID        int    `json:"id"`
	Filename  string `json:"filename"`
	OCRStatus string `json:"ocr_status"`
	owner     int
	content   []byte
	text      *string
}

// Backend mimics the routes the client consumes.
type Backend struct {
	URL string

	mu        sync.Mutex
	users     map[string]*user
	docs      []*document
	nextUser  int
	nextDoc   int
	requests  map[string]int
	failLists int

	srv *http.Server
}

// New starts a backend on a loopback listener and registers cleanup on t.
func New(t testing.TB) *Backend {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	b := &Backend{
		URL:      "http://" + ln.Addr().String(),
		users:    make(map[string]*user),
		requests: make(map[string]int),
		nextUser: 1,
		nextDoc:  1,
	}
	b.srv = &http.Server{Handler: b.router()}
	go func() { _ = b.srv.Serve(ln) }()
	t.Cleanup(func() { _ = b.srv.Close() })
	return b
}

func (b *Backend) router() http.Handler {
	r := mux.NewRouter()
	r.Use(b.count)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", b.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	r.HandleFunc("/users/me", b.authed(b.me)).Methods(http.MethodGet)
	r.HandleFunc("/documents", b.authed(b.list)).Methods(http.MethodGet)
	r.HandleFunc("/documents/upload", b.authed(b.upload)).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id:[0-9]+}/status", b.authed(b.status)).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id:[0-9]+}/result", b.authed(b.result)).Methods(http.MethodGet)
	r.HandleFunc("/storage/{filename}", b.asset).Methods(http.MethodGet)
	return r
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Requests returns how many times "METHOD /path" was hit.
func (b *Backend) Requests(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[key]
}

// FailNextLists makes the next n document list calls return 500.
func (b *Backend) FailNextLists(n int) {
	b.mu.Lock()
	b.failLists = n
	b.mu.Unlock()
}

// AddUser registers an account directly.
func (b *Backend) AddUser(username, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addUserLocked(username, password)
}

func (b *Backend) addUserLocked(username, password string) *user {
	u := &user{id: b.nextUser, username: username, password: password}
	b.nextUser++
	b.users[username] = u
	return u
}

// AddDocument stores a document for username. A non-nil text marks OCR as done.
func (b *Backend) AddDocument(username, filename string, content []byte, text *string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.users[username]
	if u == nil {
		u = b.addUserLocked(username, "")
	}
	return b.addDocLocked(u.id, filename, content, text).ID
}

func (b *Backend) addDocLocked(owner int, filename string, content []byte, text *string) *document {
	d := &document{ID: b.nextDoc, Filename: filename, OCRStatus: "processing", owner: owner, content: content, text: text}
	if text != nil {
		d.OCRStatus = "done"
	}
	b.nextDoc++
	b.docs = append(b.docs, d)
	return d
}

// CompleteOCR sets the OCR text of a document.
func (b *Backend) CompleteOCR(id int, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.docs {
		if d.ID == id {
			d.text = &text
		}
	}
}

// Token issues a bearer token for username, as /auth/login would.
func (b *Backend) Token(username string) string {
	b.mu.Lock()
	u := b.users[username]
	b.mu.Unlock()
	if u == nil {
		return ""
	}
	return issue(u.id)
}

func issue(userID int) string {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "field required"}}})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[in.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Username already registered"})
		return
	}
	u := b.addUserLocked(in.Username, in.Password)
	writeJSON(w, http.StatusOK, map[string]any{"id": u.id, "username": u.username, "role": "user"})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "form body required"})
		return
	}
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	u := b.users[r.PostForm.Get("username")]
	b.mu.Unlock()
	if u == nil || u.password != r.PostForm.Get("password") {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": issue(u.id), "token_type": "bearer"})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID int)

func (b *Backend) authed(h authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return []byte(signingKey), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token invalid or expired"})
			return
		}
		id, err := strconv.Atoi(claims.Subject)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token invalid or expired"})
			return
		}
		h(w, r, id)
	}
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.id == userID {
			writeJSON(w, http.StatusOK, map[string]any{"id": u.id, "username": u.username, "role": "user"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "user not found"})
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failLists > 0 {
		b.failLists--
		http.Error(w, "list unavailable", http.StatusInternalServerError)
		return
	}
	out := make([]*document, 0)
	for _, d := range b.docs {
		if d.owner == userID {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request, userID int) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "file required"})
		return
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	b.mu.Lock()
	d := b.addDocLocked(userID, hdr.Filename, content, nil)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, d)
}

func (b *Backend) find(r *http.Request, userID int) *document {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	for _, d := range b.docs {
		if d.ID == id && d.owner == userID {
			return d
		}
	}
	return nil
}

func (b *Backend) status(w http.ResponseWriter, r *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.find(r, userID)
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "document not found"})
		return
	}
	if d.text != nil {
		d.OCRStatus = "done"
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": d.ID, "ocr_status": d.OCRStatus})
}

func (b *Backend) result(w http.ResponseWriter, r *http.Request, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.find(r, userID)
	if d == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "document not found"})
		return
	}
	if d.text == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "OCR result not available yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": d.ID, "filename": d.Filename, "text": *d.text})
}

func (b *Backend) asset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.docs {
		if d.Filename == name {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(d.content)
			return
		}
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"detail":%q}`, err.Error())
	}
}

// Text is a helper for literal OCR texts.
func Text(s string) *string { return &s }
