package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"appunti/internal/fileutil"
	"appunti/internal/pipeline"
	"appunti/internal/results"
	"appunti/internal/services"
)

// interruptGuard tracks whether an upload transfer is in flight so the
// signal handler can warn before aborting one.
type interruptGuard struct {
	engaged atomic.Bool
}

func (g *interruptGuard) Engage()  { g.engaged.Store(true) }
func (g *interruptGuard) Release() { g.engaged.Store(false) }

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var textFlag string
	var typeFlag string
	var nameFlag string

	cmd := &cobra.Command{
		Use:   "upload [path]",
		Short: "Upload a recording or document and wait for the analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipeline.Request{
				Text:        textFlag,
				ContentType: typeFlag,
				Name:        nameFlag,
			}
			if len(args) == 1 {
				absPath, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolve path: %w", err)
				}
				if !fileutil.IsSupportedMedia(absPath) {
					return fmt.Errorf("unsupported file type: %s", filepath.Base(absPath))
				}
				req.FilePath = absPath
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if typeFlag == "" {
				req.ContentType = cfg.Jobs.DefaultContentType
			}

			return runUpload(cmd, ctx, req)
		},
	}

	cmd.Flags().StringVar(&textFlag, "text", "", "Analyze pasted text instead of a file")
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Requested content type (lesson, meeting, interview)")
	cmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Display name for the analysis")
	return cmd
}

func runUpload(cmd *cobra.Command, ctx *commandContext, req pipeline.Request) error {
	out := cmd.OutOrStdout()
	guard := &interruptGuard{}

	bar := newUploadBar()
	var finalVariant *results.Variant

	opts := []pipeline.Option{
		pipeline.WithGuard(guard),
		pipeline.WithProgress(func(percent int) {
			if bar != nil {
				_ = bar.Set(percent)
			}
		}),
		pipeline.WithPhaseChange(func(phase pipeline.Phase) {
			switch phase {
			case pipeline.PhaseGettingURL:
				fmt.Fprintln(out, "Requesting upload slot...")
			case pipeline.PhaseProcessing:
				if bar != nil {
					_ = bar.Finish()
				}
				fmt.Fprintln(out, "Processing... this can take a few minutes")
			}
		}),
		pipeline.WithCompletion(func(jobID string, variant *results.Variant) {
			finalVariant = variant
		}),
	}

	controller, cleanup, err := ctx.newController(opts...)
	if err != nil {
		return err
	}
	defer cleanup()

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		warned := false
		for sig := range signals {
			if sig == os.Interrupt && guard.engaged.Load() && !warned {
				fmt.Fprintln(cmd.ErrOrStderr(), "\nUpload in progress; press Ctrl-C again to abort")
				warned = true
				continue
			}
			cancel()
			return
		}
	}()

	if ok := controller.Submit(runCtx, req); !ok {
		err := controller.LastError()
		if quota, isQuota := services.AsQuota(err); isQuota {
			fmt.Fprintln(out, "Monthly analysis limit reached.")
			if quota.CheckoutURL != "" {
				fmt.Fprintf(out, "Upgrade your plan: %s\n", quota.CheckoutURL)
			}
			return errors.New("quota exceeded")
		}
		if err != nil {
			return err
		}
		return errors.New("upload did not complete")
	}

	if finalVariant != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderVariant(finalVariant))
	}
	return nil
}

func newUploadBar() *progressbar.ProgressBar {
	if !shouldColorize(os.Stderr) {
		return nil
	}
	return progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}
