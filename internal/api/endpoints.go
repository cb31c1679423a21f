package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Document as listed by the backend. Only the server assigns identity.
type Document struct {
	ID        int    `json:"id"`
	Filename  string `json:"filename"`
	OCRStatus string `json:"ocr_status"`
	// UploadTS is kept as sent; the backend emits naive ISO timestamps.
	UploadTS    string  `json:"upload_ts,omitempty"`
	OCRTextPath *string `json:"ocr_text_path,omitempty"`
}

// Result is the OCR text for one document.
type Result struct {
	ID       int    `json:"id,omitempty"`
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

type DocumentStatus struct {
	ID        int    `json:"id"`
	OCRStatus string `json:"ocr_status"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Register creates an account. Credentials are sent as JSON.
func (c *Client) Register(ctx context.Context, creds Credentials) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodPost, "/auth/register", creds, "", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a bearer token. The backend only accepts
// url-encoded form credentials here.
func (c *Client) Login(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	var out TokenResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", form, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var u User
	if err := c.Do(ctx, http.MethodGet, "/users/me", nil, token, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListDocuments(ctx context.Context, token string) ([]Document, error) {
	var docs []Document
	if err := c.Do(ctx, http.MethodGet, "/documents", nil, token, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadDocument sends the file at path as multipart field "file".
func (c *Client) UploadDocument(ctx context.Context, token, path string) (*Document, error) {
	form := NewForm()
	if err := form.AddFilePath("file", path); err != nil {
		return nil, err
	}
	var d Document
	if err := c.Do(ctx, http.MethodPost, "/documents/upload", form, token, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) DocumentResult(ctx context.Context, token string, id int) (*Result, error) {
	var r Result
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/documents/%d/result", id), nil, token, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) DocumentStatus(ctx context.Context, token string, id int) (*DocumentStatus, error) {
	var s DocumentStatus
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/documents/%d/status", id), nil, token, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health returns the backend's reported status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.Do(ctx, http.MethodGet, "/health", nil, "", &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// AssetPath is the static path of an uploaded file.
func AssetPath(filename string) string {
	return "/storage/" + url.PathEscape(filename)
}

// FetchAsset downloads an uploaded file from static storage.
func (c *Client) FetchAsset(ctx context.Context, filename string) ([]byte, error) {
	return c.Raw(ctx, AssetPath(filename), "")
}
