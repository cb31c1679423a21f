package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/docbox-cli/internal/router"
	"github.com/KaramelBytes/docbox-cli/internal/view"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell [path]",
	Short: "Interactive session that navigates between register, login and dashboard",
	Long: `Start an interactive session at path (default /dashboard). Without a
stored session the dashboard redirects to /login. Type "help" for commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		start := router.PathDashboard
		if len(args) == 1 {
			start = args[0]
		}
		sh := newShell(a, cmd.InOrStdin(), cmd.OutOrStdout(), start)
		return sh.run(cmd.Context())
	},
}

// shell keeps one view instance per visit; navigating away drops it, so
// local form state does not survive a round trip, as with remounting.
type shell struct {
	app *app
	nav *router.Navigator
	in  *bufio.Scanner
	out io.Writer

	mounted  string
	register *view.Register
	login    *view.Login
	dash     *view.Dashboard
}

func newShell(a *app, in io.Reader, out io.Writer, start string) *shell {
	s := &shell{
		app: a,
		nav: router.NewNavigator(a.session.Authenticated, start),
		in:  bufio.NewScanner(in),
		out: out,
	}
	a.session.Subscribe(s.sessionChanged)
	return s
}

// sessionChanged forces the next mount to rebuild the view, so nothing built
// for the previous session is rendered again.
func (s *shell) sessionChanged(token string) {
	s.mounted = ""
	if token == "" {
		fmt.Fprintln(s.out, "✓ Logged out")
		return
	}
	fmt.Fprintln(s.out, "✓ Logged in")
}

func (s *shell) run(ctx context.Context) error {
	s.mount(ctx)
	for {
		fmt.Fprintf(s.out, "docbox:%s> ", s.nav.Current().Path)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		if name == "quit" || name == "exit" {
			return nil
		}
		s.dispatch(ctx, name, arg)
		s.mount(ctx)
	}
}

// mount builds the view for the current route when the route changed, and
// renders it.
func (s *shell) mount(ctx context.Context) {
	res := s.nav.Current()
	if res.Path != s.mounted {
		s.register, s.login, s.dash = nil, nil, nil
		var err error
		deps := s.app.deps(s.nav)
		switch res.View {
		case router.ViewRegister:
			s.register, err = view.NewRegister(deps)
		case router.ViewLogin:
			s.login, err = view.NewLogin(deps)
		case router.ViewDashboard:
			if s.dash, err = view.NewDashboard(deps); err == nil {
				s.dash.Refresh(ctx)
			}
		}
		if err != nil {
			fmt.Fprintf(s.out, "✗ %v\n", err)
			return
		}
		s.mounted = res.Path
	}
	s.render()
}

func (s *shell) render() {
	switch {
	case s.register != nil:
		s.register.Render(s.out)
	case s.login != nil:
		s.login.Render(s.out)
	case s.dash != nil:
		s.dash.Render(s.out)
	}
}

func (s *shell) dispatch(ctx context.Context, name, arg string) {
	switch name {
	case "help":
		s.help()
		return
	case "go":
		s.nav.Navigate(arg)
		return
	case "back":
		if _, ok := s.nav.Back(); !ok {
			fmt.Fprintln(s.out, "⚠ nothing to go back to")
		}
		return
	}
	var err error
	switch {
	case s.register != nil:
		err = s.authCommand(ctx, &s.register.Username, &s.register.Password, s.register.Submit, name, arg)
	case s.login != nil:
		err = s.authCommand(ctx, &s.login.Username, &s.login.Password, s.login.Submit, name, arg)
	case s.dash != nil:
		err = s.dashCommand(ctx, name, arg)
	default:
		err = fmt.Errorf("unknown command: %s", name)
	}
	if err != nil {
		fmt.Fprintf(s.out, "✗ %s\n", friendly(err))
	}
}

// authCommand handles the register and login forms. A failed submit already
// stored its message on the view, which render shows.
func (s *shell) authCommand(ctx context.Context, user, pass *string, submit func(context.Context) error, name, arg string) error {
	switch name {
	case "user":
		*user = arg
	case "pass":
		*pass = arg
	case "submit":
		_ = submit(ctx)
	case "register":
		s.nav.Navigate(router.PathRegister)
	case "login":
		s.nav.Navigate(router.PathLogin)
	default:
		return fmt.Errorf("unknown command: %s (try help)", name)
	}
	return nil
}

func (s *shell) dashCommand(ctx context.Context, name, arg string) error {
	d := s.dash
	switch name {
	case "refresh":
		d.Refresh(ctx)
	case "file":
		d.SelectFile(arg)
	case "upload":
		if d.PendingFile() == "" {
			return fmt.Errorf("select a file first: file <path>")
		}
		doc, err := d.Upload(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "✓ Uploaded %s (id %d)\n", doc.Filename, doc.ID)
	case "view":
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		return d.View(ctx, id)
	case "close":
		d.Close()
	case "zoom":
		if d.Image == nil {
			return fmt.Errorf("no result open")
		}
		d.Image.Toggle()
	case "status":
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		st, err := d.Status(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "- [%d] status: %s\n", st.ID, st.OCRStatus)
	case "logout":
		return d.Logout()
	default:
		return fmt.Errorf("unknown command: %s (try help)", name)
	}
	return nil
}

func (s *shell) help() {
	fmt.Fprintln(s.out, `anywhere:   go <path> | back | help | quit
register:   user <name> | pass <password> | submit | login
login:      user <name> | pass <password> | submit | register
dashboard:  refresh | file <path> | upload | view <id> | zoom | close | status <id> | logout`)
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
