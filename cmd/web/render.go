package main

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"northgate.capital/web/internal/format"
	"northgate.capital/web/internal/nav"
	"northgate.capital/web/internal/observability"
)

// templateSet holds one clone of the shared layouts and partials per page so
// every page can define its own "content" block.
type templateSet struct {
	shared *template.Template
	pages  map[string]*template.Template
}

var (
	tmplMu    sync.RWMutex
	tmplCache *templateSet
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			return i18nOrDefault(lang, key, key)
		},
		"markdown":  format.Markdown,
		"inline":    format.MarkdownInline,
		"highlight": nav.Highlight,
		"usd":       format.FmtUSDCompact,
		"pct":       format.FmtPercent,
		"multiple":  format.FmtMultiple,
		"jsonld": func(s string) template.JS {
			return template.JS(s)
		},
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}

// parseTemplates reads layouts/ and partials/ into a shared set, then clones
// it once per file under pages/. The page name is the file name without
// extension.
func parseTemplates() (*templateSet, error) {
	var shared, pages []string
	pagesDir := filepath.Join(templatesDir, "pages")
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		if strings.HasPrefix(path, pagesDir+string(filepath.Separator)) {
			pages = append(pages, path)
		} else {
			shared = append(shared, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(shared) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	root, err := template.New("_root").Funcs(templateFuncs()).ParseFiles(shared...)
	if err != nil {
		return nil, err
	}
	set := &templateSet{shared: root, pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		clone, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFiles(p); err != nil {
			return nil, err
		}
		set.pages[strings.TrimSuffix(filepath.Base(p), ".tmpl")] = clone
	}
	return set, nil
}

// templates returns the cached set, or a fresh parse in dev mode.
func templates() (*templateSet, error) {
	if devMode {
		return parseTemplates()
	}
	tmplMu.RLock()
	set := tmplCache
	tmplMu.RUnlock()
	if set != nil {
		return set, nil
	}
	tmplMu.Lock()
	defer tmplMu.Unlock()
	if tmplCache == nil {
		parsed, err := parseTemplates()
		if err != nil {
			return nil, err
		}
		tmplCache = parsed
	}
	return tmplCache, nil
}

// renderPage executes the base layout for page with status 200.
func renderPage(w http.ResponseWriter, r *http.Request, page string, data any) {
	renderPageStatus(w, r, page, data, http.StatusOK)
}

// renderPageStatus buffers the page so a failing template never leaves a
// half-written response; failures fall through to the error page.
func renderPageStatus(w http.ResponseWriter, r *http.Request, page string, data any, status int) {
	set, err := templates()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse failed", zap.Error(err))
		renderErrorPage(w, r)
		return
	}
	t, ok := set.pages[page]
	if !ok {
		observability.FromContext(r.Context()).Error("unknown page template", zap.String("page", page))
		renderErrorPage(w, r)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("page", page), zap.Error(err))
		renderErrorPage(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderTemplate executes a named partial, used for htmx fragments.
func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	renderTemplateStatus(w, r, name, data, http.StatusOK)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, name string, data any, status int) {
	set, err := templates()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse failed", zap.Error(err))
		http.Error(w, errorCopy, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := set.shared.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("fragment exec failed", zap.String("template", name), zap.Error(err))
		http.Error(w, errorCopy, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// i18nOrDefault returns the translation for key or fallback when missing.
func i18nOrDefault(lang, key, fallback string) string {
	if i18nBundle == nil {
		return fallback
	}
	if s := i18nBundle.T(lang, key); s != "" && s != key {
		return s
	}
	return fallback
}
