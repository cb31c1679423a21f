package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/docbox-cli/internal/router"
	"github.com/KaramelBytes/docbox-cli/internal/session"
	"github.com/KaramelBytes/docbox-cli/internal/view"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authUsername string
	authPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a DocBox account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := fillCredentials(cmd); err != nil {
			return err
		}
		nav := router.NewNavigator(a.session.Authenticated, router.PathRegister)
		v, err := view.NewRegister(a.deps(nav))
		if err != nil {
			return err
		}
		v.Username, v.Password = authUsername, authPassword
		if err := v.Submit(cmd.Context()); err != nil {
			return fmt.Errorf("register: %s", friendly(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Account created for %s\n", authUsername)
		fmt.Fprintf(cmd.OutOrStdout(), "→ %s: run `docbox login`\n", nav.Current().Path)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := fillCredentials(cmd); err != nil {
			return err
		}
		nav := router.NewNavigator(a.session.Authenticated, router.PathLogin)
		v, err := view.NewLogin(a.deps(nav))
		if err != nil {
			return err
		}
		v.Username, v.Password = authUsername, authPassword
		if err := v.Submit(cmd.Context()); err != nil {
			return fmt.Errorf("login: %s", friendly(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", authUsername)
		if c, err := a.session.Claims(); err == nil && !c.ExpiresAt.IsZero() {
			fmt.Fprintf(cmd.OutOrStdout(), "  session expires %s\n", c.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "→ %s: run `docbox docs list`\n", nav.Current().Path)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user and token expiry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if !a.session.Authenticated() {
			return errNotLoggedIn
		}
		out := cmd.OutOrStdout()
		u, err := a.client.Me(cmd.Context(), a.session.Token())
		if err != nil {
			return fmt.Errorf("whoami: %s", friendly(err))
		}
		fmt.Fprintf(out, "user: %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
		c, err := a.session.Claims()
		switch {
		case errors.Is(err, session.ErrNoToken):
		case err != nil:
			logger.Debug("token is not a JWT", "error", err)
		case !c.ExpiresAt.IsZero():
			fmt.Fprintf(out, "expires: %s\n", c.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

// fillCredentials prompts on stdin for whatever was not given as a flag.
func fillCredentials(cmd *cobra.Command) error {
	in := cmd.InOrStdin()
	r := bufio.NewReader(in)
	var err error
	if authUsername == "" {
		if authUsername, err = prompt(cmd.OutOrStdout(), r, "Username: "); err != nil {
			return err
		}
	}
	if authPassword == "" {
		if authPassword, err = promptSecret(cmd.OutOrStdout(), in, r, "Password: "); err != nil {
			return err
		}
	}
	if authUsername == "" || authPassword == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo when in is a terminal and falls back to a
// plain line read for piped input.
func promptSecret(w io.Writer, in io.Reader, r *bufio.Reader, label string) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(w, r, label)
	}
	fmt.Fprint(w, label)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "account name")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "password (prompted when omitted)")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
