// Package watch runs the drop-folder mode: it scans a directory for media
// files and submits each one through the pipeline, moving files to an
// archive or failed directory depending on the outcome. A file lock keeps a
// second watcher from processing the same folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"appunti/internal/config"
	"appunti/internal/fileutil"
	"appunti/internal/logging"
	"appunti/internal/pipeline"
)

// Submitter runs one upload through the pipeline. Implemented by
// pipeline.Controller.
type Submitter interface {
	Submit(ctx context.Context, req pipeline.Request) bool
	LastError() error
}

// Watcher polls a drop directory and feeds files to the pipeline one at a
// time.
type Watcher struct {
	cfg       *config.Config
	submitter Submitter
	logger    *slog.Logger

	lockPath string
	lock     *flock.Flock
	interval time.Duration
}

// New constructs a watcher. The config must have watch directories set.
func New(cfg *config.Config, submitter Submitter, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil || submitter == nil {
		return nil, errors.New("watcher requires config and submitter")
	}
	if strings.TrimSpace(cfg.Watch.DropDir) == "" {
		return nil, errors.New("watch mode requires watch.drop_dir in the config")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "appunti-watch.lock")
	interval := time.Duration(cfg.Watch.ScanInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		cfg:       cfg,
		submitter: submitter,
		logger:    logging.NewComponentLogger(logger, "watch"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		interval:  interval,
	}, nil
}

// Run scans until the context is canceled. It acquires the single-instance
// lock up front and releases it on exit.
func (w *Watcher) Run(ctx context.Context) error {
	ok, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire watch lock: %w", err)
	}
	if !ok {
		return errors.New("another watcher is already running on this machine")
	}
	defer func() {
		if err := w.lock.Unlock(); err != nil {
			w.logger.Warn("failed to release watch lock", logging.Error(err))
		}
	}()

	if err := w.cfg.EnsureDirectories(); err != nil {
		return err
	}

	w.logger.Info("watching drop folder",
		logging.String("dir", w.cfg.Watch.DropDir),
		logging.String("interval", w.interval.String()),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.scanOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("scan failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// scanOnce submits every supported file currently in the drop directory,
// oldest first. Files are processed sequentially so a single poll loop is
// active at a time.
func (w *Watcher) scanOnce(ctx context.Context) error {
	candidates, err := w.collect()
	if err != nil {
		return err
	}

	for _, path := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		w.process(ctx, path)
	}
	return nil
}

func (w *Watcher) collect() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Watch.DropDir)
	if err != nil {
		return nil, fmt.Errorf("read drop directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	found := make([]candidate, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(w.cfg.Watch.DropDir, name)
		if !fileutil.IsSupportedMedia(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{path: path, modTime: info.ModTime()})
	}
	sort.Slice(found, func(i, j int) bool {
		return found[i].modTime.Before(found[j].modTime)
	})

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

func (w *Watcher) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	w.logger.Info("submitting file", logging.String("file", name))

	ok := w.submitter.Submit(ctx, pipeline.Request{
		FilePath:    path,
		ContentType: w.cfg.Jobs.DefaultContentType,
	})
	if ok {
		w.move(path, w.cfg.Watch.ArchiveDir)
		return
	}

	if err := w.submitter.LastError(); err != nil {
		w.logger.Error("submission failed",
			logging.String("file", name),
			logging.Error(err),
		)
	}
	w.move(path, w.cfg.Watch.FailedDir)
}

func (w *Watcher) move(path, destDir string) {
	if destDir == "" {
		return
	}
	dst := filepath.Join(destDir, filepath.Base(path))
	if err := fileutil.MoveFile(path, dst); err != nil {
		w.logger.Warn("failed to move file",
			logging.String("file", path),
			logging.String("dest", dst),
			logging.Error(err),
		)
	}
}
