package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/pcc/pkg/config"
)

func TestCacheDirStructure(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	customCache := "/tmp/custom-cache"
	t.Setenv("XDG_CACHE_HOME", customCache)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	expected := filepath.Join(customCache, appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestCacheDirFor(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	cfg := config.Default()
	if dir, _ := cacheDirFor(cfg); dir != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("default cacheDirFor = %q", dir)
	}
	cfg.Cache.Dir = "~/pcc-cache"
	if dir, _ := cacheDirFor(cfg); dir != filepath.Join(home, "pcc-cache") {
		t.Errorf("configured cacheDirFor = %q", dir)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ab/cdef.json", "ab/0123.json", "ff/0000.json"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	count, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover entries: %v", entries)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache dir itself should remain: %v", err)
	}

	if n, err := clearDir(filepath.Join(dir, "missing")); n != 0 || err != nil {
		t.Errorf("missing dir = %d, %v", n, err)
	}
}
