package main

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"appunti/internal/config"
	"appunti/internal/history"
	"appunti/internal/journal"
	"appunti/internal/logging"
	"appunti/internal/notifications"
	"appunti/internal/pipeline"
	"appunti/internal/services/notes"
	"appunti/internal/services/storage"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		paths := []string{filepath.Join(cfg.Paths.LogDir, "appunti.log")}
		if c.verboseFlag != nil && *c.verboseFlag {
			paths = append(paths, "stderr")
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: paths,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) notesClient() (*notes.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Backend.RequestTimeout) * time.Second,
	}
	return notes.New(cfg.Backend.BaseURL, cfg.Backend.AuthToken, notes.WithHTTPClient(httpClient))
}

func (c *commandContext) historyStore() (*history.Store, error) {
	client, err := c.notesClient()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return history.NewStore(client, logger), nil
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return journal.Open(cfg)
}

// newController assembles the full pipeline: backend client, blob transfer,
// run journal, notifications, plus any extra options from the command.
func (c *commandContext) newController(extra ...pipeline.Option) (*pipeline.Controller, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	backend, err := c.notesClient()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openJournal()
	if err != nil {
		return nil, nil, err
	}

	transfer := storage.New(
		storage.WithTimeout(time.Duration(cfg.Upload.TransferTimeout) * time.Second),
	)

	opts := []pipeline.Option{
		pipeline.WithTransfer(transfer),
		pipeline.WithLogger(logger),
		pipeline.WithNotifier(notifications.NewService(cfg)),
		pipeline.WithJournal(store),
	}
	opts = append(opts, extra...)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close journal", logging.Error(err))
		}
	}
	return pipeline.New(cfg, backend, opts...), cleanup, nil
}
