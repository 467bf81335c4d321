package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aescanero/dago-sitegen/internal/build"
	"github.com/aescanero/dago-sitegen/internal/config"
	"github.com/aescanero/dago-sitegen/internal/eval/template"
	"github.com/aescanero/dago-sitegen/internal/markdown"
	"github.com/aescanero/dago-sitegen/internal/router"
	"github.com/aescanero/dago-sitegen/internal/site"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs once flags are applied
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	dataDir     string
	templateDir string
	staticDir   string
	outDir      string
	defaultLang string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sitegen",
		Short: "Render a multilingual static site from data files and templates",
		Long: `sitegen renders every page of a site in every language from JSON or YAML
data files and mustache-like HTML templates.

Layout:
  data/site.json                 Site-wide values
  data/languages/<code>.json     One file per language
  data/pages/<page>/<code>.json  Page data per language
  data/routes.json               Optional CEL routing rules
  templates/<page>.html          Page templates
  templates/partials/*.html      Partials for {{> name}}
  static/                        Copied verbatim

Configuration comes from the environment (DATA_DIR, OUT_DIR, LOG_LEVEL, ...).
Flags override it per invocation.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.dataDir, "data", "", "data directory (DATA_DIR)")
	flags.StringVar(&a.templateDir, "templates", "", "template directory (TEMPLATE_DIR)")
	flags.StringVar(&a.staticDir, "static", "", "static asset directory (STATIC_DIR)")
	flags.StringVarP(&a.outDir, "out", "o", "", "output directory (OUT_DIR)")
	flags.StringVar(&a.defaultLang, "default-lang", "", "default language code (DEFAULT_LANGUAGE)")
	flags.StringVarP(&a.logLevel, "log-level", "l", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: json, console (LOG_FORMAT)")

	rootCmd.AddCommand(
		newBuildCmd(a),
		newValidateCmd(a),
		newRenderCmd(a),
		newTranslateCmd(a),
		newWorkerCmd(a),
	)

	return rootCmd
}

// init loads the environment configuration and applies flag overrides
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"data":         &cfg.DataDir,
		"templates":    &cfg.TemplateDir,
		"static":       &cfg.StaticDir,
		"out":          &cfg.OutDir,
		"default-lang": &cfg.DefaultLanguage,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
	} {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	logger.Debug("configuration loaded", zap.String("config", cfg.String()))
	return nil
}

// initLogger initializes the logger. Logs go to stderr so that rendered
// output can be piped from stdout.
func initLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoding := "json"
	if format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

// loadSite reads the site from the configured directories
func (a *app) loadSite() (*site.Site, error) {
	return site.Load(site.Options{
		DataDir:         a.cfg.DataDir,
		TemplateDir:     a.cfg.TemplateDir,
		DefaultLanguage: a.cfg.DefaultLanguage,
		Logger:          a.logger,
	})
}

// newEngine creates a template engine carrying the site's partials
func (a *app) newEngine(s *site.Site) (*template.Engine, error) {
	conv, err := markdown.NewConverter(a.cfg.MarkdownFlavor)
	if err != nil {
		return nil, err
	}
	return template.NewEngine(
		template.WithPartials(s.Partials),
		template.WithLogger(a.logger),
		template.WithMarkdown(conv),
		template.WithJSONIndent(a.cfg.Indent()),
		template.WithMaxDepth(a.cfg.MaxPartialDepth),
	), nil
}

// newBuilder loads the site afresh and wires a builder for it. filter is
// combined with BUILD_FILTER.
func (a *app) newBuilder(filter string) (*build.Builder, error) {
	s, err := a.loadSite()
	if err != nil {
		return nil, err
	}
	engine, err := a.newEngine(s)
	if err != nil {
		return nil, err
	}

	return build.NewBuilder(s, engine, router.NewRouter(a.logger), build.Options{
		OutDir:        a.cfg.OutDir,
		StaticDir:     a.cfg.StaticDir,
		DataDir:       a.cfg.DataDir,
		TemplateDir:   a.cfg.TemplateDir,
		Workers:       a.cfg.BuildWorkers,
		Clean:         a.cfg.CleanOutDir,
		Filter:        build.CombineFilters(a.cfg.BuildFilter, filter),
		FailOnWarning: a.cfg.FailOnWarning,
		Logger:        a.logger,
	}), nil
}
