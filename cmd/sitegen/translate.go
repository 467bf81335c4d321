package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aescanero/dago-adapters/pkg/llm"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/config"
	"github.com/aescanero/dago-sitegen/internal/translate"
)

func newTranslateCmd(a *app) *cobra.Command {
	var (
		dryRun     bool
		langs      []string
		batchSize  int
		promptFile string
		jsonReport bool
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Fill missing page strings of non-default languages with an LLM",
		Long: `Compare every page's data in each non-default language with the default
language and ask a language model for the strings that are missing. Existing
translations are never changed. Files keep their format and key order.

Examples:
  sitegen translate --dry-run
  sitegen translate --lang de --lang fr`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.loadSite()
			if err != nil {
				return err
			}
			engine, err := a.newEngine(s)
			if err != nil {
				return err
			}

			prompt := ""
			if promptFile != "" {
				src, ok := s.Templates[strings.TrimSuffix(promptFile, ".html")]
				if !ok {
					return fmt.Errorf("prompt template %q not found", promptFile)
				}
				prompt = src
			}

			var completer translate.Completer
			if !dryRun {
				client, err := initLLMClient(a.cfg, a.logger)
				if err != nil {
					return err
				}
				completer = translate.NewLLMCompleter(client, a.cfg.LLMModel, a.cfg.LLMMaxTokens)
			}

			t := translate.NewTranslator(s, engine, completer, translate.Options{
				DataDir:   a.cfg.DataDir,
				Prompt:    prompt,
				BatchSize: batchSize,
				Timeout:   a.cfg.LLMTimeout,
				Languages: langs,
				Logger:    a.logger,
			})

			results, runErr := t.Run(ctx, dryRun)
			if jsonReport {
				if err := printJSON(cmd, results); err != nil {
					return err
				}
				return runErr
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				switch {
				case r.Error != "":
					fmt.Fprintf(out, "FAIL  %s/%s: %s\n", r.Page, r.Lang, r.Error)
				case dryRun:
					fmt.Fprintf(out, "%s/%s: %d missing in %s\n", r.Page, r.Lang, len(r.Missing), r.File)
					for _, key := range r.Missing {
						fmt.Fprintf(out, "      %s\n", key)
					}
				default:
					fmt.Fprintf(out, "ok    %s/%s: %d of %d translated\n", r.Page, r.Lang, r.Translated, len(r.Missing))
				}
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "nothing to translate")
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list missing strings without calling the model")
	cmd.Flags().StringSliceVar(&langs, "lang", nil, "target language (repeatable, default all)")
	cmd.Flags().IntVar(&batchSize, "batch", translate.DefaultBatchSize, "strings per request")
	cmd.Flags().StringVar(&promptFile, "prompt", "", "template in TEMPLATE_DIR to use as the prompt")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "print results as JSON")
	return cmd
}

// initLLMClient initializes the LLM client using dago-adapters
func initLLMClient(cfg *config.Config, logger *zap.Logger) (ports.LLMClient, error) {
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for translation")
	}
	client, err := llm.NewClient(&llm.Config{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	logger.Info("llm client initialized",
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel),
	)
	return client, nil
}
