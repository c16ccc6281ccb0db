package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/pcc/pkg/deps/resolve"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if !cfg.Default.RelativePaths() || !cfg.Cache.IsEnabled() {
		t.Error("relative paths and cache should default to on")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[default]
action = "save"
output_path = "~/out.txt"
ignore_patterns = ["dist/", "*.test.ts"]
use_relative_paths = false
deps = true
format = "yaml"
colour = "blue"

[resolve]
extensions = [".ts", ".js"]
external = ["@company/ui"]
report_misses = true
workers = 4

[resolve.aliases]
"@app/*" = "src/*"

[cache]
enabled = false
ttl = "48h"
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Default.Action != ActionSave || cfg.Default.Format != FormatYAML || !cfg.Default.Deps {
		t.Errorf("default section = %+v", cfg.Default)
	}
	if cfg.Default.RelativePaths() {
		t.Error("use_relative_paths = false not applied")
	}
	if cfg.Default.OutputFileName != DefaultOutputFileName {
		t.Errorf("OutputFileName = %q", cfg.Default.OutputFileName)
	}
	if diff := cmp.Diff([]string{"dist/", "*.test.ts"}, cfg.Default.IgnorePatterns); diff != "" {
		t.Errorf("ignore patterns (-want +got):\n%s", diff)
	}
	if cfg.Resolve.Workers != 4 || !cfg.Resolve.ReportMisses || cfg.Resolve.Aliases["@app/*"] != "src/*" {
		t.Errorf("resolve section = %+v", cfg.Resolve)
	}
	if cfg.Cache.IsEnabled() || cfg.Cache.TTL.Duration != 48*time.Hour {
		t.Errorf("cache section = %+v", cfg.Cache)
	}
	if cfg.Source != path {
		t.Errorf("Source = %q", cfg.Source)
	}
	if diff := cmp.Diff([]string{"default.colour"}, cfg.Unknown); diff != "" {
		t.Errorf("unknown keys (-want +got):\n%s", diff)
	}
}

func TestLoadFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[default\naction = ")
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Default.Action = ActionCopy
	env := map[string]string{
		EnvAction:   " SAVE ",
		EnvFormat:   "json",
		EnvRedisURL: "redis://cache:6379/1",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	if cfg.Default.Action != ActionSave || cfg.Default.Format != FormatJSON || cfg.Cache.RedisURL != "redis://cache:6379/1" {
		t.Errorf("env not applied: %+v %+v", cfg.Default, cfg.Cache)
	}
}

func TestLoadReadsConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcc.toml")
	writeFile(t, path, "[default]\naction = \"copy\"\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvAction, "")
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvRedisURL, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Default.Action != ActionCopy || cfg.Source != path {
		t.Errorf("Load = %+v from %q", cfg.Default, cfg.Source)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad action", func(c *Config) { c.Default.Action = "email" }, "invalid action"},
		{"bad format", func(c *Config) { c.Default.Format = "csv" }, "invalid format"},
		{"negative workers", func(c *Config) { c.Resolve.Workers = -1 }, "invalid workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cwd := filepath.Join(string(filepath.Separator), "work")

	cfg := Default()
	if got, _ := cfg.OutputPath("", cwd); got != filepath.Join(cwd, DefaultOutputFileName) {
		t.Errorf("default = %q", got)
	}
	cfg.Default.OutputFileName = "bundle.xml"
	if got, _ := cfg.OutputPath("", cwd); got != filepath.Join(cwd, "bundle.xml") {
		t.Errorf("file name = %q", got)
	}
	cfg.Default.OutputPath = "~/combined.txt"
	if got, _ := cfg.OutputPath("", cwd); got != filepath.Join(home, "combined.txt") {
		t.Errorf("config path = %q", got)
	}
	if got, _ := cfg.OutputPath("/tmp/flag.txt", cwd); got != "/tmp/flag.txt" {
		t.Errorf("flag = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := map[string]string{
		"~":         home,
		"~/a/b.txt": filepath.Join(home, "a", "b.txt"),
		"/abs/x":    "/abs/x",
		"rel/x":     "rel/x",
		"~other/x":  "~other/x",
	}
	for in, want := range tests {
		got, err := ExpandHome(in)
		if err != nil || got != want {
			t.Errorf("ExpandHome(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestResolutionContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tsconfig.base.json"), `{
  // shared settings
  "compilerOptions": {
    "baseUrl": ".",
    "paths": {
      "@lib/*": ["libs/*", "vendor/*"],
    },
  },
}`)
	writeFile(t, filepath.Join(root, "tsconfig.json"), `{
  "extends": "./tsconfig.base",
  "compilerOptions": { "strict": true },
}`)

	cfg := Default()
	cfg.Resolve.External = []string{"react"}
	cfg.Resolve.Aliases = map[string]string{"@app/*": "src/*"}

	rc, err := cfg.ResolutionContext(root)
	if err != nil {
		t.Fatalf("ResolutionContext: %v", err)
	}
	want := resolve.Context{
		Root:     root,
		BaseURL:  root,
		External: []string{"react"},
		Aliases: []resolve.Alias{
			{Pattern: "@app/*", Targets: []string{filepath.Join(root, "src/*")}},
			{Pattern: "@lib/*", Targets: []string{filepath.Join(root, "libs/*"), filepath.Join(root, "vendor/*")}},
		},
	}
	if diff := cmp.Diff(want, rc); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestResolutionContextConfigOverridesTSConfig(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "tsconfig.app.json"), `{"compilerOptions": {"paths": {"@/*": ["../src/*"]}}}`)

	cfg := Default()
	cfg.Resolve.TSConfig = "config/tsconfig.app.json"
	rc, err := cfg.ResolutionContext(root)
	if err != nil {
		t.Fatalf("ResolutionContext: %v", err)
	}
	if len(rc.Aliases) != 1 || rc.Aliases[0].Targets[0] != filepath.Join(root, "src", "*") {
		t.Errorf("aliases = %+v", rc.Aliases)
	}
	if rc.BaseURL != "" {
		t.Errorf("BaseURL = %q, want none", rc.BaseURL)
	}

	cfg.Resolve.Aliases = map[string]string{"@/*": "app/*"}
	rc, err = cfg.ResolutionContext(root)
	if err != nil {
		t.Fatal(err)
	}
	if rc.Aliases[0].Targets[0] != filepath.Join(root, "app", "*") {
		t.Errorf("config alias should override tsconfig: %+v", rc.Aliases)
	}
}

func TestLoadTSConfigMissing(t *testing.T) {
	cfg := Default()
	cfg.Resolve.TSConfig = "missing.json"
	if _, err := cfg.ResolutionContext(t.TempDir()); err == nil {
		t.Error("explicit missing tsconfig should fail")
	}
}
