package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/aescanero/dago-sitegen/internal/translate"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		handlebars bool
		parity     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check data files, routing rules, templates and partials",
		Long: `Load the site and parse every template and partial without writing
anything. Routing rules are compiled and must name existing templates.

With --handlebars every template must also parse as Handlebars, so that it
stays usable by a Handlebars renderer.

With --parity the page data of every other language must have the same keys,
value types and list lengths as the default language. Each difference is
reported with its page, language and key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.newBuilder("")
			if err != nil {
				return err
			}

			errs := b.Validate(cmd.Context())
			if handlebars {
				errs = multierr.Append(errs, b.LintHandlebars())
			}
			if parity {
				errs = multierr.Append(errs, a.checkParity())
			}

			out := cmd.OutOrStdout()
			for _, err := range multierr.Errors(errs) {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if errs != nil {
				return fmt.Errorf("%d problems found", len(multierr.Errors(errs)))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&handlebars, "handlebars", false, "also check Handlebars compatibility")
	cmd.Flags().BoolVar(&parity, "parity", false, "also compare every language's page data with the default language")
	return cmd
}

func (a *app) checkParity() error {
	s, err := a.loadSite()
	if err != nil {
		return err
	}
	t := translate.NewTranslator(s, nil, nil, translate.Options{
		DataDir: a.cfg.DataDir,
		Logger:  a.logger,
	})
	drifts, err := t.Parity()
	if err != nil {
		return err
	}

	var errs error
	for _, d := range drifts {
		errs = multierr.Append(errs, fmt.Errorf("parity %s", d))
	}
	return errs
}
