package view

import (
	"context"
	"fmt"
	"io"

	"github.com/KaramelBytes/docbox-cli/internal/api"
	"github.com/KaramelBytes/docbox-cli/internal/router"
)

// authForm is the local state shared by the register and login screens.
// Err is empty when there is nothing to show.
type authForm struct {
	Username string
	Password string
	Err      string
}

func (f *authForm) creds() api.Credentials {
	return api.Credentials{Username: f.Username, Password: f.Password}
}

func (f *authForm) render(w io.Writer, title, action string) {
	fmt.Fprintf(w, "== %s ==\n", title)
	if f.Err != "" {
		fmt.Fprintf(w, "✗ %s\n", f.Err)
	}
	fmt.Fprintf(w, "username: %s\n", f.Username)
	fmt.Fprintf(w, "[%s]\n", action)
}

// Register creates an account and sends the user to the login screen.
type Register struct {
	authForm
	deps Deps
}

func NewRegister(d Deps) (*Register, error) {
	if err := d.require(true, false, true); err != nil {
		return nil, err
	}
	return &Register{deps: d}, nil
}

// Submit posts the credentials. On failure Err holds the message and the
// error is also returned.
func (v *Register) Submit(ctx context.Context) error {
	if _, err := v.deps.Backend.Register(ctx, v.creds()); err != nil {
		v.Err = err.Error()
		return err
	}
	v.Err = ""
	v.deps.Nav.Navigate(router.PathLogin)
	return nil
}

func (v *Register) Render(w io.Writer) {
	v.render(w, "Register", "Create Account")
	fmt.Fprintf(w, "Already have an account? %s\n", router.PathLogin)
}

// Login exchanges credentials for a session and opens the dashboard.
type Login struct {
	authForm
	deps Deps
}

func NewLogin(d Deps) (*Login, error) {
	if err := d.require(true, true, true); err != nil {
		return nil, err
	}
	return &Login{deps: d}, nil
}

func (v *Login) Submit(ctx context.Context) error {
	tok, err := v.deps.Backend.Login(ctx, v.creds())
	if err == nil {
		err = v.deps.Session.Login(tok.AccessToken)
	}
	if err != nil {
		v.Err = err.Error()
		return err
	}
	v.Err = ""
	v.deps.Nav.Navigate(router.PathDashboard)
	return nil
}

func (v *Login) Render(w io.Writer) {
	v.render(w, "Login", "Sign In")
}
