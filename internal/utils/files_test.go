package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/docbox-cli/internal/utils"
)

func TestSafeWriteFileCreatesDirAndPerm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	if err := utils.SafeWriteFile(path, []byte("token: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "token: x\n" {
		t.Fatalf("content = %q", b)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestSafeWriteFileIgnoresStaleTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path+".tmp", []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := utils.SafeWriteFile(path, []byte("token: y\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}
	if b, _ := os.ReadFile(path); string(b) != "token: y\n" {
		t.Fatalf("content = %q", b)
	}
}

func TestMask(t *testing.T) {
	cases := map[string]string{
		"":            "",
		"abc":         "******",
		"abcdefghijk": "abc****ijk",
	}
	for in, want := range cases {
		if got := utils.Mask(in); got != want {
			t.Errorf("Mask(%q) = %q, want %q", in, got, want)
		}
	}
}
