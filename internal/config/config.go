package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName          = ".docbox"
	configName       = "config"
	sessionFileName  = "session.yaml"
	DefaultServerURL = "http://localhost:8000"
)

// Global configuration structure.
type Global struct {
	ServerURL      string `mapstructure:"server_url" yaml:"server_url"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	SessionFile    string `mapstructure:"session_file" yaml:"session_file"`
	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.docbox.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.docbox/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, configName+".yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCBOX")
	v.AutomaticEnv()

	v.SetDefault("server_url", DefaultServerURL)
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("session_file", "")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if c.SessionFile == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.SessionFile = filepath.Join(dir, sessionFileName)
	} else {
		p, err := ExpandHome(c.SessionFile)
		if err != nil {
			return nil, err
		}
		c.SessionFile = p
	}
	return &c, nil
}

// ExpandHome resolves a leading ~ against the user's home directory.
func ExpandHome(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return filepath.Clean(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	p = strings.TrimPrefix(p, "~")
	p = strings.TrimPrefix(p, string(os.PathSeparator))
	p = strings.TrimPrefix(p, "/")
	return filepath.Join(home, p), nil
}
