package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subfuse/internal/language"
	"subfuse/internal/queue"
	"subfuse/internal/translate"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var sourceLang string
	var targetLang string

	cmd := &cobra.Command{
		Use:   "process <video-file>",
		Short: "Subtitle a single video file and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			target := language.Normalize(targetLang)
			if target == "" {
				return fmt.Errorf("unrecognized target language %q", targetLang)
			}
			source := language.Normalize(sourceLang)
			if source == "" {
				source = language.Auto
			}

			absPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				return fmt.Errorf("stat source file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source path %q is a directory", absPath)
			}

			logger, err := buildLogger(cfg, false)
			if err != nil {
				return err
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			p, err := buildPipeline(cfg, store, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			item, err := store.NewRequest(runCtx, absPath, source, target)
			if err != nil {
				return fmt.Errorf("enqueue request: %w", err)
			}

			if err := p.Process(runCtx, item); err != nil {
				return fmt.Errorf("process %s: %w", filepath.Base(absPath), err)
			}

			final, err := store.GetByID(runCtx, item.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subtitled video written to %s\n", final.FinalFile)
			if final.TranslationStatus != "" && final.TranslationStatus != string(translate.StatusSuccess) {
				fmt.Fprintf(out, "Warning: translation degraded (%s); subtitles carry the original language\n", final.TranslationStatus)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target subtitle language (required)")
	cmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source audio language (default: auto-detect)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}
