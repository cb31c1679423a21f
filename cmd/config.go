package cmd

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/docbox-cli/internal/config"
	"github.com/KaramelBytes/docbox-cli/internal/session"
	"github.com/KaramelBytes/docbox-cli/internal/utils"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DocBox configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "server_url: %s\n", cfg.ServerURL)
		fmt.Fprintf(out, "http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Fprintf(out, "session_file: %s\n", cfg.SessionFile)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		tok, err := session.NewFileStorage(cfg.SessionFile).Load()
		if err != nil {
			return err
		}
		if tok != "" {
			fmt.Fprintf(out, "token: %s\n", utils.Mask(tok))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Start from the file contents, not the flag-adjusted view.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "server_url":
			u, err := url.Parse(val)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid server_url: %s (expected http(s)://host[:port])", val)
			}
			c.ServerURL = strings.TrimRight(val, "/")
		case "http_timeout_sec":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for http_timeout_sec: %v", val)
			}
			c.HTTPTimeoutSec = i
		case "session_file":
			c.SessionFile = val
		case "log_level":
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(val)); err != nil {
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
