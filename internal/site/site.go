package site

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/router"
	"github.com/aescanero/dago-sitegen/internal/value"
)

// Keys injected into every page context. Site, language and page data may
// override them.
const (
	KeyPage              = "page"
	KeyLang              = "lang"
	KeyIsDefaultLanguage = "isDefaultLanguage"
	KeyURL               = "url"
	KeyLanguages         = "languages"
)

const (
	languagesDir = "languages"
	pagesDir     = "pages"
	partialsDir  = "partials"
	siteStem     = "site"
	routesStem   = "routes"
)

// Options locate the site on disk
type Options struct {
	DataDir         string
	TemplateDir     string
	DefaultLanguage string
	Logger          *zap.Logger
}

// Page holds the per-language data of one page
type Page struct {
	Name    string
	Data    map[string]*value.Map // by language code
	Sources map[string]Source
}

// Site is everything a build reads. It is not modified after Load.
type Site struct {
	Global     *value.Map
	GlobalFile Source
	Languages  []*Language // default language first, then by code
	Pages      []*Page     // by name
	Templates  map[string]string
	Partials   map[string]string
	Routes     *router.Config
	Warnings   []string

	defaultLang *Language
	langs       map[string]*Language
	pages       map[string]*Page
}

// Load reads the data and template directories
func Load(opts Options) (*Site, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Site{
		Global: value.NewMap(),
		langs:  make(map[string]*Language),
		pages:  make(map[string]*Page),
	}
	warn := func(msg string, fields ...zap.Field) {
		logger.Warn(msg, fields...)
		s.Warnings = append(s.Warnings, msg)
	}

	if info, err := os.Stat(opts.DataDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("data directory %q not found", opts.DataDir)
	}

	if p, ok, err := findDoc(opts.DataDir, siteStem); err != nil {
		return nil, err
	} else if ok {
		m, src, err := readDoc(p)
		if err != nil {
			return nil, err
		}
		s.Global, s.GlobalFile = m, src
	}

	if err := s.loadLanguages(filepath.Join(opts.DataDir, languagesDir), opts.DefaultLanguage); err != nil {
		return nil, err
	}

	if err := s.loadPages(filepath.Join(opts.DataDir, pagesDir), warn); err != nil {
		return nil, err
	}

	s.Routes = &router.Config{}
	if p, ok, err := findDoc(opts.DataDir, routesStem); err != nil {
		return nil, err
	} else if ok {
		m, _, err := readDoc(p)
		if err != nil {
			return nil, err
		}
		routes, err := router.ParseConfig(value.Object(m))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		s.Routes = routes
	}

	var err error
	if s.Templates, err = loadTemplates(opts.TemplateDir); err != nil {
		return nil, err
	}
	if s.Partials, err = loadTemplates(filepath.Join(opts.TemplateDir, partialsDir)); err != nil {
		return nil, err
	}

	logger.Info("site loaded",
		zap.Int("languages", len(s.Languages)),
		zap.Int("pages", len(s.Pages)),
		zap.Int("templates", len(s.Templates)),
		zap.Int("partials", len(s.Partials)),
		zap.Int("rules", len(s.Routes.Rules)),
		zap.Int("warnings", len(s.Warnings)),
	)

	return s, nil
}

func (s *Site) loadLanguages(dir, defaultCode string) error {
	docs, err := listDocs(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no language files in %s", dir)
	}

	_, def, err := ParseCode(defaultCode)
	if err != nil {
		return fmt.Errorf("default language: %w", err)
	}

	for _, stem := range sortedKeys(docs) {
		tag, code, err := ParseCode(stem)
		if err != nil {
			return fmt.Errorf("%s: %w", docs[stem], err)
		}
		if prev, dup := s.langs[code]; dup {
			return fmt.Errorf("language %s defined twice: %s, %s", code, prev.Source.Path, docs[stem])
		}
		m, src, err := readDoc(docs[stem])
		if err != nil {
			return err
		}
		lang := &Language{
			Code:    code,
			Tag:     tag,
			Name:    displayName(tag, m),
			Default: code == def,
			Data:    m,
			Source:  src,
		}
		s.langs[code] = lang
		s.Languages = append(s.Languages, lang)
		if lang.Default {
			s.defaultLang = lang
		}
	}

	if s.defaultLang == nil {
		return fmt.Errorf("default language %s has no file in %s", def, dir)
	}

	sort.SliceStable(s.Languages, func(i, j int) bool {
		if s.Languages[i].Default != s.Languages[j].Default {
			return s.Languages[i].Default
		}
		return s.Languages[i].Code < s.Languages[j].Code
	})
	return nil
}

func (s *Site) loadPages(dir string, warn func(string, ...zap.Field)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			warn(fmt.Sprintf("no pages directory at %s", dir))
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		docs, err := listDocs(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		page := &Page{
			Name:    name,
			Data:    make(map[string]*value.Map),
			Sources: make(map[string]Source),
		}
		for _, stem := range sortedKeys(docs) {
			_, code, err := ParseCode(stem)
			if err != nil {
				return fmt.Errorf("%s: %w", docs[stem], err)
			}
			if _, ok := s.langs[code]; !ok {
				warn(fmt.Sprintf("page %s: ignoring data for unknown language %s", name, code),
					zap.String("file", docs[stem]))
				continue
			}
			m, src, err := readDoc(docs[stem])
			if err != nil {
				return err
			}
			page.Data[code] = m
			page.Sources[code] = src
		}

		if _, ok := page.Data[s.defaultLang.Code]; !ok {
			return fmt.Errorf("page %s has no data for default language %s", name, s.defaultLang.Code)
		}
		for _, lang := range s.Languages {
			if _, ok := page.Data[lang.Code]; !ok {
				warn(fmt.Sprintf("page %s: no %s data, using %s", name, lang.Code, s.defaultLang.Code),
					zap.String("page", name), zap.String("lang", lang.Code))
			}
		}

		s.pages[name] = page
		s.Pages = append(s.Pages, page)
	}

	sort.Slice(s.Pages, func(i, j int) bool { return s.Pages[i].Name < s.Pages[j].Name })
	return nil
}

// Default returns the default language
func (s *Site) Default() *Language {
	return s.defaultLang
}

// Language looks up a language by code in any casing
func (s *Site) Language(code string) (*Language, bool) {
	_, canonical, err := ParseCode(code)
	if err != nil {
		return nil, false
	}
	lang, ok := s.langs[canonical]
	return lang, ok
}

// Page looks up a page by name
func (s *Site) Page(name string) (*Page, bool) {
	p, ok := s.pages[name]
	return p, ok
}

// PageData returns the data of a page in a language, falling back to the
// default language. fallback reports whether that happened.
func (s *Site) PageData(page, lang string) (data *value.Map, fallback bool, err error) {
	p, ok := s.pages[page]
	if !ok {
		return nil, false, fmt.Errorf("unknown page %q", page)
	}
	l, ok := s.Language(lang)
	if !ok {
		return nil, false, fmt.Errorf("unknown language %q", lang)
	}
	if m, ok := p.Data[l.Code]; ok {
		return m, false, nil
	}
	return p.Data[s.defaultLang.Code], true, nil
}

// Context builds the render context of a page in a language. Later layers
// win: injected keys, then site, language and page data.
func (s *Site) Context(page, lang string) (value.Value, error) {
	data, _, err := s.PageData(page, lang)
	if err != nil {
		return value.Absent(), err
	}
	l, _ := s.Language(lang)

	languages := make([]value.Value, 0, len(s.Languages))
	for _, other := range s.Languages {
		languages = append(languages, value.Object(value.NewMap().
			Set("code", value.String(other.Code)).
			Set("name", value.String(other.Name)).
			Set("url", value.String(s.URL(page, other.Code))).
			Set("current", value.Bool(other.Code == l.Code)),
		))
	}

	injected := value.NewMap().
		Set(KeyPage, value.String(page)).
		Set(KeyLang, value.String(l.Code)).
		Set(KeyIsDefaultLanguage, value.Bool(l.Default)).
		Set(KeyURL, value.String(s.URL(page, l.Code))).
		Set(KeyLanguages, value.List(languages...))

	return value.Object(value.Merge(injected, s.Global, l.Data, data)), nil
}

// OutputPath returns where a page is written, relative to the output
// directory. The default language lives at the root, the others in a
// directory named after their code.
func (s *Site) OutputPath(page, lang string) string {
	file := page + ".html"
	if l, ok := s.Language(lang); ok && !l.Default {
		return filepath.Join(l.Code, file)
	}
	return file
}

// URL returns the site-absolute URL of a page. Index pages map to their
// directory.
func (s *Site) URL(page, lang string) string {
	u := "/" + filepath.ToSlash(s.OutputPath(page, lang))
	if path.Base(u) == "index.html" {
		return strings.TrimSuffix(u, "index.html")
	}
	return u
}

// Targets lists every page in every language, pages first
func (s *Site) Targets() []router.Target {
	targets := make([]router.Target, 0, len(s.Pages)*len(s.Languages))
	for _, p := range s.Pages {
		for _, l := range s.Languages {
			targets = append(targets, router.Target{Page: p.Name, Lang: l.Code, Default: l.Default})
		}
	}
	return targets
}
