package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aescanero/dago-sitegen/internal/eval/template"
	"github.com/aescanero/dago-sitegen/internal/router"
	"github.com/aescanero/dago-sitegen/internal/site"
)

// ErrWarnings fails a page that rendered with warnings when FailOnWarning is set
var ErrWarnings = errors.New("render produced warnings")

// Options controls a build
type Options struct {
	OutDir    string
	StaticDir string
	// DataDir and TemplateDir are only used to keep OutDir away from them
	DataDir     string
	TemplateDir string
	Workers     int
	// Clean empties OutDir first. A filtered build never cleans.
	Clean         bool
	Filter        string // combined with the site's own filter
	FailOnWarning bool
	Logger        *zap.Logger
}

// Builder renders a loaded site to disk
type Builder struct {
	site   *site.Site
	engine *template.Engine
	router *router.Router
	routes *router.Config
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a builder. The engine should carry the site's partials.
func NewBuilder(s *site.Site, engine *template.Engine, r *router.Router, opts Options) *Builder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	routes := &router.Config{}
	if s.Routes != nil {
		*routes = *s.Routes
	}
	routes.Filter = CombineFilters(routes.Filter, opts.Filter)

	return &Builder{
		site:   s,
		engine: engine,
		router: r,
		routes: routes,
		opts:   opts,
		logger: opts.Logger,
	}
}

// CombineFilters joins two CEL filters with &&. Either may be empty.
func CombineFilters(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return fmt.Sprintf("(%s) && (%s)", a, b)
	}
}

// Validate checks routing rules, routes every target to make sure it ends on
// an existing template, and parses every template and partial
func (b *Builder) Validate(ctx context.Context) error {
	var errs error
	if err := b.router.Validate(b.routes); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("routes: %w", err))
	} else {
		errs = multierr.Append(errs, b.validateTargets(ctx))
	}
	for _, name := range b.routes.Templates() {
		if _, ok := b.site.Templates[name]; !ok {
			errs = multierr.Append(errs, fmt.Errorf("routes: unknown template %q", name))
		}
	}
	for _, name := range sortedNames(b.site.Templates) {
		if err := b.engine.ValidateTemplate(name+".html", b.site.Templates[name]); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for _, name := range b.engine.Partials() {
		src, _ := b.engine.Partial(name)
		if err := b.engine.ValidateTemplate(name, src); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// validateTargets reports pages that fall back to a template of their own
// name when there is none. Rule templates are checked separately.
func (b *Builder) validateTargets(ctx context.Context) error {
	var errs error
	reported := make(map[string]bool)
	for _, target := range b.site.Targets() {
		data, err := b.site.Context(target.Page, target.Lang)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", target.Page, target.Lang, err))
			continue
		}
		target.Data = data

		decision, err := b.router.Route(ctx, target, b.routes)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", target.Page, target.Lang, err))
			continue
		}
		if decision.Skip || decision.PathTaken != router.PathFallback || reported[target.Page] {
			continue
		}
		if _, ok := b.site.Templates[decision.Template]; !ok {
			reported[target.Page] = true
			errs = multierr.Append(errs, fmt.Errorf("page %s: no template %q and no rule routes it elsewhere", target.Page, decision.Template))
		}
	}
	return errs
}

// LintHandlebars checks that every template and partial also parses as
// Handlebars
func (b *Builder) LintHandlebars() error {
	var errs error
	for _, name := range sortedNames(b.site.Templates) {
		if err := b.engine.LintHandlebars(b.site.Templates[name]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s.html: %w", name, err))
		}
	}
	for _, name := range b.engine.Partials() {
		src, _ := b.engine.Partial(name)
		if err := b.engine.LintHandlebars(src); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("partial %s: %w", name, err))
		}
	}
	return errs
}

// Build renders every page in every language. The returned error combines
// the per-page failures; the report is returned either way unless setup
// failed.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:           uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		SiteWarnings: b.site.Warnings,
	}
	logger := b.logger.With(zap.String("build_id", report.ID))

	logger.Info("build started",
		zap.String("out_dir", b.opts.OutDir),
		zap.Int("workers", b.opts.Workers),
		zap.String("filter", b.routes.Filter),
	)

	sources := []string{b.opts.DataDir, b.opts.TemplateDir, b.opts.StaticDir}
	switch {
	case b.opts.Clean && b.opts.Filter != "":
		// pages outside the filter keep their previous output
		logger.Info("output directory not cleaned for a filtered build")
		if err := checkOutDir(b.opts.OutDir, sources, false); err != nil {
			return nil, err
		}
	case b.opts.Clean:
		if err := cleanDir(b.opts.OutDir, sources); err != nil {
			return nil, err
		}
	default:
		if err := checkOutDir(b.opts.OutDir, sources, false); err != nil {
			return nil, err
		}
	}

	if b.opts.StaticDir != "" {
		n, err := copyDirContents(b.opts.StaticDir, b.opts.OutDir)
		if err != nil {
			return nil, fmt.Errorf("failed to copy static assets: %w", err)
		}
		report.StaticFiles = n
		logger.Debug("static assets copied", zap.Int("files", n))
	}

	targets := b.site.Targets()
	report.Pages = make([]PageResult, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Pages[i] = b.buildPage(gctx, target, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	var errs error
	for _, p := range report.Pages {
		if p.Failed() {
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %s", p.Page, p.Lang, p.Error))
		}
	}

	report.tally()
	report.Duration = time.Since(report.StartedAt)

	logger.Info("build finished",
		zap.Int("rendered", report.Rendered),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("warnings", report.Warnings),
		zap.Int("static_files", report.StaticFiles),
		zap.String("size", humanize.Bytes(uint64(report.Bytes))),
		zap.Duration("duration", report.Duration),
	)

	return report, errs
}

func (b *Builder) buildPage(ctx context.Context, target router.Target, logger *zap.Logger) PageResult {
	start := time.Now()
	res := PageResult{Page: target.Page, Lang: target.Lang}

	out, decision, warnings, err := b.render(ctx, target)
	res.Duration = time.Since(start)
	if decision != nil {
		res.Template = decision.Template
		res.Reason = decision.Reasoning
	}
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, w.String())
	}
	if err == nil && len(warnings) > 0 && b.opts.FailOnWarning {
		err = fmt.Errorf("%w: %s", ErrWarnings, warnings[0])
	}
	if err != nil {
		res.Error = err.Error()
		logger.Error("page failed",
			zap.String("page", target.Page),
			zap.String("lang", target.Lang),
			zap.Error(err),
		)
		return res
	}
	if decision.Skip {
		res.Skipped = true
		return res
	}

	rel := b.site.OutputPath(target.Page, target.Lang)
	if err := writeFile(filepath.Join(b.opts.OutDir, rel), out); err != nil {
		res.Error = err.Error()
		logger.Error("page failed", zap.String("page", target.Page), zap.String("lang", target.Lang), zap.Error(err))
		return res
	}
	res.Output = rel
	res.Bytes = len(out)

	logger.Debug("page written",
		zap.String("page", target.Page),
		zap.String("lang", target.Lang),
		zap.String("template", decision.Template),
		zap.String("output", rel),
		zap.String("size", humanize.Bytes(uint64(len(out)))),
	)
	return res
}

// RenderPage routes and renders one page without writing it. A skipped page
// renders as the empty string.
func (b *Builder) RenderPage(ctx context.Context, page, lang string) (string, *router.Decision, []template.Warning, error) {
	l, ok := b.site.Language(lang)
	if !ok {
		return "", nil, nil, fmt.Errorf("unknown language %q", lang)
	}
	return b.render(ctx, router.Target{Page: page, Lang: l.Code, Default: l.Default})
}

func (b *Builder) render(ctx context.Context, target router.Target) (string, *router.Decision, []template.Warning, error) {
	data, err := b.site.Context(target.Page, target.Lang)
	if err != nil {
		return "", nil, nil, err
	}
	target.Data = data

	decision, err := b.router.Route(ctx, target, b.routes)
	if err != nil {
		return "", nil, nil, err
	}
	if decision.Skip {
		return "", decision, nil, nil
	}

	src, ok := b.site.Templates[decision.Template]
	if !ok {
		return "", decision, nil, fmt.Errorf("no template %q for page %s", decision.Template, target.Page)
	}

	result, err := b.engine.Execute(decision.Template+".html", src, data)
	if err != nil {
		return "", decision, nil, err
	}
	return result.Output, decision, result.Warnings, nil
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
