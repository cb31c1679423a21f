package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/docbox-cli/internal/api"
	cfgpkg "github.com/KaramelBytes/docbox-cli/internal/config"
	"github.com/KaramelBytes/docbox-cli/internal/router"
	"github.com/KaramelBytes/docbox-cli/internal/session"
	"github.com/KaramelBytes/docbox-cli/internal/view"
	"github.com/spf13/cobra"
)

var (
	cfgFile            string
	debug              bool
	flagServer         string
	flagHTTPTimeoutSec int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = slog.Default()
)

var errNotLoggedIn = errors.New("not logged in (run `docbox login` first)")

var rootCmd = &cobra.Command{
	Use:           "docbox",
	Short:         "DocBox CLI: upload documents and read their OCR results",
	Long:          `DocBox is a command-line client for the DocBox OCR service. Register, log in, upload scans and read the recognized text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.docbox/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "backend base URL (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{ServerURL: cfgpkg.DefaultServerURL, HTTPTimeoutSec: 30, LogLevel: "info"}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("server") && flagServer != "" {
		cfg.ServerURL = strings.TrimRight(flagServer, "/")
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// app bundles what a command needs to drive the views.
type app struct {
	client  *api.Client
	session *session.Store
}

func newApp() (*app, error) {
	if cfg == nil {
		loadConfig()
	}
	store, err := session.Open(session.NewFileStorage(cfg.SessionFile))
	if err != nil {
		return nil, err
	}
	client := api.NewClient(cfg.ServerURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second).WithLogger(logger)
	return &app{client: client, session: store}, nil
}

func (a *app) deps(nav view.Navigator) view.Deps {
	return view.Deps{Backend: a.client, Session: a.session, Nav: nav, Logger: logger}
}

// dashboard resolves the guarded route and builds the dashboard view.
func (a *app) dashboard() (*view.Dashboard, error) {
	if res := router.Resolve(router.PathDashboard, a.session.Authenticated()); res.Redirected() {
		return nil, errNotLoggedIn
	}
	return view.NewDashboard(a.deps(nil))
}
