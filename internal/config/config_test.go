package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"appunti/internal/config"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, resolved, existed, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if existed {
		t.Fatal("expected existed=false for missing file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Backend.BaseURL != "https://app.appunti.ai" {
		t.Fatalf("unexpected default base url: %s", cfg.Backend.BaseURL)
	}
	if cfg.Jobs.PollIntervalMS != 2000 {
		t.Fatalf("unexpected default poll interval: %d", cfg.Jobs.PollIntervalMS)
	}
	if cfg.Jobs.DefaultContentType != "lesson" {
		t.Fatalf("unexpected default content type: %s", cfg.Jobs.DefaultContentType)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[backend]
base_url = "https://notes.example.com/"
auth_token = "  tok-123  "

[jobs]
poll_interval_ms = 500
default_content_type = "Meeting"

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, existed, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !existed {
		t.Fatal("expected existed=true")
	}
	if cfg.Backend.BaseURL != "https://notes.example.com" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.Backend.BaseURL)
	}
	if cfg.Backend.AuthToken != "tok-123" {
		t.Fatalf("token not trimmed: %q", cfg.Backend.AuthToken)
	}
	if cfg.Jobs.PollIntervalMS != 500 {
		t.Fatalf("unexpected poll interval: %d", cfg.Jobs.PollIntervalMS)
	}
	if cfg.Jobs.DefaultContentType != "meeting" {
		t.Fatalf("content type not lowercased: %s", cfg.Jobs.DefaultContentType)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level not lowercased: %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad url", "[backend]\nbase_url = \"not a url\"\n"},
		{"poll too small", "[jobs]\npoll_interval_ms = 50\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"bad log level", "[logging]\nlevel = \"loud\"\n"},
		{"invalid toml", "backend = [\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestNormalizeWatchDirsDeriveFromDropDir(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := "[watch]\ndrop_dir = \"" + filepath.Join(base, "drop") + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Watch.ArchiveDir != filepath.Join(base, "drop", "done") {
		t.Fatalf("unexpected archive dir: %s", cfg.Watch.ArchiveDir)
	}
	if cfg.Watch.FailedDir != filepath.Join(base, "drop", "failed") {
		t.Fatalf("unexpected failed dir: %s", cfg.Watch.FailedDir)
	}
	if cfg.Watch.ScanInterval != 10 {
		t.Fatalf("unexpected scan interval: %d", cfg.Watch.ScanInterval)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected refusal to overwrite")
	}

	// The sample itself must load cleanly.
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Watch.DropDir = filepath.Join(base, "drop")
	cfg.Watch.ArchiveDir = filepath.Join(base, "drop", "done")
	cfg.Watch.FailedDir = filepath.Join(base, "drop", "failed")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir, cfg.Watch.DropDir, cfg.Watch.ArchiveDir, cfg.Watch.FailedDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("directory %s missing: %v", dir, err)
		}
	}
}
