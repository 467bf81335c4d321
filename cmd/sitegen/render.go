package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render <page> <lang>",
		Short: "Render one page to stdout",
		Long: `Route and render a single page in one language and print the HTML.
Nothing is written to the output directory. Warnings are logged.

Example:
  sitegen render index de > /tmp/index.de.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.newBuilder("")
			if err != nil {
				return err
			}

			html, decision, warnings, err := b.RenderPage(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, w := range warnings {
				a.logger.Warn("render warning", zap.String("warning", w.String()))
			}
			if decision != nil && decision.Skip {
				return fmt.Errorf("page %s/%s is skipped: %s", args[0], args[1], decision.Reasoning)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		},
	}
}
