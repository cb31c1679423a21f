package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/docbox-cli/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := config.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerURL != config.DefaultServerURL {
		t.Fatalf("server_url = %q", c.ServerURL)
	}
	if c.HTTPTimeoutSec != 30 {
		t.Fatalf("http_timeout_sec = %d", c.HTTPTimeoutSec)
	}
	want := filepath.Join(home, ".docbox", "session.yaml")
	if c.SessionFile != want {
		t.Fatalf("session_file = %q, want %q", c.SessionFile, want)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(home, "cfg.yaml")
	if err := config.Save(&config.Global{ServerURL: "http://file:1/", HTTPTimeoutSec: 5}, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	c, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerURL != "http://file:1" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.ServerURL)
	}
	if c.HTTPTimeoutSec != 5 {
		t.Fatalf("http_timeout_sec = %d", c.HTTPTimeoutSec)
	}

	t.Setenv("DOCBOX_SERVER_URL", "http://env:2")
	c, err = config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ServerURL != "http://env:2" {
		t.Fatalf("env should win over file, got %q", c.ServerURL)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandHome("~/x/session.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "x", "session.yaml") {
		t.Fatalf("got %q", got)
	}
	if _, err := os.Stat(home); err != nil {
		t.Fatal(err)
	}
}
