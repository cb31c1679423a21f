// Package view holds the screen state machines: register, login and the
// document dashboard. Each is built from explicit dependencies and knows
// nothing about how it is drawn beyond a plain-text Render.
package view

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KaramelBytes/docbox-cli/internal/api"
	"github.com/KaramelBytes/docbox-cli/internal/router"
	"github.com/KaramelBytes/docbox-cli/internal/session"
)

var (
	ErrNoClient    = errors.New("view requires an API client")
	ErrNoSession   = errors.New("view requires a session store")
	ErrNoNavigator = errors.New("view requires a navigator")
)

// Backend is the subset of the API client the views call.
type Backend interface {
	URL(path string) string
	Register(ctx context.Context, creds api.Credentials) (*api.User, error)
	Login(ctx context.Context, creds api.Credentials) (*api.TokenResponse, error)
	ListDocuments(ctx context.Context, token string) ([]api.Document, error)
	UploadDocument(ctx context.Context, token, path string) (*api.Document, error)
	DocumentResult(ctx context.Context, token string, id int) (*api.Result, error)
	DocumentStatus(ctx context.Context, token string, id int) (*api.DocumentStatus, error)
}

// Navigator moves between routes. *router.Navigator satisfies it.
type Navigator interface {
	Navigate(path string) router.Resolution
}

// Deps are the capabilities a view may require.
type Deps struct {
	Backend Backend
	Session *session.Store
	Nav     Navigator
	Logger  *slog.Logger
}

func (d Deps) require(backend, sess, nav bool) error {
	var errs []error
	if backend && d.Backend == nil {
		errs = append(errs, ErrNoClient)
	}
	if sess && d.Session == nil {
		errs = append(errs, ErrNoSession)
	}
	if nav && d.Nav == nil {
		errs = append(errs, ErrNoNavigator)
	}
	return errors.Join(errs...)
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
