package translate

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/eval/template"
	"github.com/aescanero/dago-sitegen/internal/site"
	"github.com/aescanero/dago-sitegen/internal/value"
)

// DefaultPrompt is rendered once per batch. Besides site, language and page
// data it sees sourceLang, sourceName, targetLang, targetName and strings,
// the ordered object of texts to translate.
const DefaultPrompt = `You are translating the page "{{page}}" of a website from {{sourceName}} ({{sourceLang}}) to {{targetName}} ({{targetLang}}).

Translate every value of the JSON object below. Keep the keys unchanged.
Preserve HTML tags, markdown markers such as ** and [text](url), line breaks and URLs exactly.
Reply with one JSON object and nothing else.

{{json strings}}
`

// DefaultBatchSize bounds how many strings go into one prompt
const DefaultBatchSize = 40

// Options configures a Translator
type Options struct {
	DataDir   string
	Prompt    string
	BatchSize int
	Timeout   time.Duration // per completion, zero for none
	Languages []string      // target languages, empty for all
	Logger    *zap.Logger
}

// Job is the work for one page in one language
type Job struct {
	Page    string
	Lang    string
	File    site.Source
	Exists  bool
	Missing []Entry
}

// JobResult records the outcome of a job
type JobResult struct {
	Page       string   `json:"page"`
	Lang       string   `json:"lang"`
	File       string   `json:"file"`
	Missing    []string `json:"missing"`
	Translated int      `json:"translated"`
	Written    bool     `json:"written"`
	Error      string   `json:"error,omitempty"`
}

// Translator fills missing page strings of non-default languages
type Translator struct {
	site      *site.Site
	engine    *template.Engine
	completer Completer
	opts      Options
	logger    *zap.Logger
}

// NewTranslator creates a translator. completer may be nil for planning only.
func NewTranslator(s *site.Site, engine *template.Engine, completer Completer, opts Options) *Translator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Translator{
		site:      s,
		engine:    engine,
		completer: completer,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Plan lists the jobs with at least one missing string
func (t *Translator) Plan() ([]Job, error) {
	targets, err := t.targetLanguages()
	if err != nil {
		return nil, err
	}
	def := t.site.Default()

	var jobs []Job
	for _, page := range t.site.Pages {
		src := value.Object(page.Data[def.Code])
		for _, lang := range targets {
			dst := value.Absent()
			file, exists := page.Sources[lang.Code]
			if exists {
				dst = value.Object(page.Data[lang.Code])
			} else {
				srcFile := page.Sources[def.Code]
				file = site.Source{
					Path:   filepath.Join(t.opts.DataDir, "pages", page.Name, lang.Code+filepath.Ext(srcFile.Path)),
					Format: srcFile.Format,
				}
			}

			missing := collectMissing(src, dst, nil, nil)
			if len(missing) == 0 {
				continue
			}
			jobs = append(jobs, Job{
				Page:    page.Name,
				Lang:    lang.Code,
				File:    file,
				Exists:  exists,
				Missing: missing,
			})
		}
	}
	return jobs, nil
}

func (t *Translator) targetLanguages() ([]*site.Language, error) {
	if len(t.opts.Languages) == 0 {
		var out []*site.Language
		for _, l := range t.site.Languages {
			if !l.Default {
				out = append(out, l)
			}
		}
		return out, nil
	}

	var out []*site.Language
	for _, code := range t.opts.Languages {
		l, ok := t.site.Language(code)
		if !ok {
			return nil, fmt.Errorf("unknown language %q", code)
		}
		if l.Default {
			return nil, fmt.Errorf("%s is the default language", l.Code)
		}
		out = append(out, l)
	}
	return out, nil
}

// Run translates and writes every planned job. With dryRun nothing is sent
// or written. The error combines the failed jobs.
func (t *Translator) Run(ctx context.Context, dryRun bool) ([]JobResult, error) {
	jobs, err := t.Plan()
	if err != nil {
		return nil, err
	}
	if !dryRun && t.completer == nil {
		return nil, fmt.Errorf("no language model configured")
	}

	results := make([]JobResult, 0, len(jobs))
	var errs error
	for _, job := range jobs {
		res := JobResult{Page: job.Page, Lang: job.Lang, File: job.File.Path}
		for _, e := range job.Missing {
			res.Missing = append(res.Missing, e.Key())
		}
		if dryRun {
			results = append(results, res)
			continue
		}

		n, err := t.runJob(ctx, job)
		res.Translated = n
		res.Written = err == nil && n > 0
		if err != nil {
			res.Error = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("%s/%s: %w", job.Page, job.Lang, err))
			t.logger.Error("translation failed",
				zap.String("page", job.Page),
				zap.String("lang", job.Lang),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				results = append(results, res)
				break
			}
		}
		results = append(results, res)
	}
	return results, errs
}

func (t *Translator) runJob(ctx context.Context, job Job) (int, error) {
	translations := make(map[string]string, len(job.Missing))
	for start := 0; start < len(job.Missing); start += t.opts.BatchSize {
		end := start + t.opts.BatchSize
		if end > len(job.Missing) {
			end = len(job.Missing)
		}
		if err := t.translateBatch(ctx, job, job.Missing[start:end], translations); err != nil {
			return 0, err
		}
	}
	if len(translations) == 0 {
		return 0, nil
	}

	page, _ := t.site.Page(job.Page)
	src := value.Object(page.Data[t.site.Default().Code])
	dst := value.Absent()
	if job.Exists {
		dst = value.Object(page.Data[job.Lang])
	}
	merged := merge(src, dst, nil, translations)

	if err := writeDoc(job.File, merged); err != nil {
		return 0, err
	}

	t.logger.Info("translations written",
		zap.String("page", job.Page),
		zap.String("lang", job.Lang),
		zap.String("file", job.File.Path),
		zap.Int("translated", len(translations)),
		zap.Int("missing", len(job.Missing)),
	)
	return len(translations), nil
}

func (t *Translator) translateBatch(ctx context.Context, job Job, batch []Entry, into map[string]string) error {
	prompt, err := t.prompt(job, batch)
	if err != nil {
		return fmt.Errorf("failed to render prompt: %w", err)
	}

	callCtx := ctx
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	t.logger.Debug("requesting translations",
		zap.String("page", job.Page),
		zap.String("lang", job.Lang),
		zap.Int("strings", len(batch)),
	)

	reply, err := t.completer.Complete(callCtx, prompt)
	if err != nil {
		return err
	}

	obj, err := extractObject(reply)
	if err != nil {
		return err
	}
	for i, e := range batch {
		r := gjson.Get(obj, ordinal(i))
		if r.Type != gjson.String || strings.TrimSpace(r.Str) == "" {
			t.logger.Warn("translation missing from reply",
				zap.String("page", job.Page),
				zap.String("lang", job.Lang),
				zap.String("key", e.Key()),
			)
			continue
		}
		into[pathKey(e.Path)] = r.Str
	}
	return nil
}

// prompt renders the prompt template for a batch over the target's context
func (t *Translator) prompt(job Job, batch []Entry) (string, error) {
	ctx, err := t.site.Context(job.Page, job.Lang)
	if err != nil {
		return "", err
	}
	base, _ := ctx.AsMap()

	strs := value.NewMap()
	for i, e := range batch {
		strs.Set(ordinal(i), value.String(e.Source))
	}
	def := t.site.Default()
	target, _ := t.site.Language(job.Lang)
	extra := value.NewMap().
		Set("sourceLang", value.String(def.Code)).
		Set("sourceName", value.String(def.Name)).
		Set("targetLang", value.String(target.Code)).
		Set("targetName", value.String(target.Name)).
		Set("strings", value.Object(strs))

	return t.engine.Render(t.opts.Prompt, value.Object(value.Merge(base, extra)))
}

// ordinal keys the strings of a batch: "1", "2", ...
func ordinal(i int) string {
	return strconv.Itoa(i + 1)
}

// extractObject returns the outermost JSON object in a model reply, which
// may be wrapped in prose or a code fence
func extractObject(reply string) (string, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("reply contains no JSON object")
	}
	obj := reply[start : end+1]
	if !gjson.Valid(obj) {
		return "", fmt.Errorf("reply contains invalid JSON")
	}
	return obj, nil
}
