package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"

	"github.com/aescanero/dago-sitegen/internal/build"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		filter     string
		jsonReport bool
		noClean    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page in every language",
		Long: `Render every page in every language into the output directory and copy
the static assets next to them.

A page that fails is reported and the others still build. The command exits
with status 1 when any page failed.

The output directory is emptied first unless CLEAN_OUT_DIR=false, --no-clean
or --filter is given. It may not hold the data, template or static directory.

Examples:
  sitegen build
  sitegen build --filter "lang == 'de'"
  sitegen build --json > report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noClean {
				a.cfg.CleanOutDir = false
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := a.newBuilder(filter)
			if err != nil {
				return err
			}
			report, buildErr := b.Build(ctx)
			if report == nil {
				return buildErr
			}

			if jsonReport {
				if err := printJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report)
			}
			return buildErr
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "CEL expression selecting targets, combined with BUILD_FILTER")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "print the build report as JSON")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "keep existing files in the output directory")
	return cmd
}

func printReport(cmd *cobra.Command, report *build.Report) {
	out := cmd.OutOrStdout()
	for _, w := range report.SiteWarnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, p := range report.Pages {
		switch {
		case p.Failed():
			fmt.Fprintf(out, "FAIL  %s/%s: %s\n", p.Page, p.Lang, p.Error)
		case p.Skipped:
			fmt.Fprintf(out, "skip  %s/%s\n", p.Page, p.Lang)
		default:
			fmt.Fprintf(out, "ok    %s (%s)\n", p.Output, humanize.Bytes(uint64(p.Bytes)))
		}
		for _, w := range p.Warnings {
			fmt.Fprintf(out, "      warning: %s\n", w)
		}
	}
	fmt.Fprintf(out, "%d rendered, %d skipped, %d failed, %d static files, %s in %s\n",
		report.Rendered, report.Skipped, report.Failed, report.StaticFiles,
		humanize.Bytes(uint64(report.Bytes)), report.Duration.Round(time.Millisecond))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(pretty.Pretty(data))
	return err
}

// runBuild is the build a worker request triggers
func (a *app) runBuild(ctx context.Context, filter string) (*build.Report, error) {
	b, err := a.newBuilder(filter)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx)
}
