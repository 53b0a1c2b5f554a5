package testsupport

import (
	"path/filepath"
	"testing"

	"appunti/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Backend.BaseURL = "http://127.0.0.1:0"
	cfgVal.Backend.AuthToken = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Jobs.PollIntervalMS = 100

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return builder.cfg
}

// WithBaseURL points the test config at the given backend endpoint.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = url
	}
}

// WithWatchDirs enables the drop-folder watcher with temp directories.
func WithWatchDirs() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.DropDir = filepath.Join(b.baseDir, "drop")
		b.cfg.Watch.ArchiveDir = filepath.Join(b.baseDir, "archive")
		b.cfg.Watch.FailedDir = filepath.Join(b.baseDir, "failed")
	}
}
