// Package i18n loads the UI string tables used by the layout and widgets.
// Page copy itself lives in the content map and is not translated.
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/language"
)

// Bundle holds one string table per language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported map[string]struct{}
	// order lists the loaded languages, fallback first, in matcher index order.
	order   []string
	matcher language.Matcher
}

// Load reads <dir>/<lang>.json for each supported language. Only the
// fallback file is mandatory.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	b := &Bundle{
		dict:      map[string]map[string]string{},
		fallback:  fallback,
		supported: map[string]struct{}{},
	}
	if len(supported) == 0 {
		supported = []string{fallback}
	}
	for _, l := range supported {
		path := filepath.Join(dir, l+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported[l] = struct{}{}
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}
	b.order = append(b.order, fallback)
	for _, l := range b.Supported() {
		if l != fallback {
			b.order = append(b.order, l)
		}
	}
	tags := make([]language.Tag, len(b.order))
	for i, l := range b.order {
		tags[i] = language.Make(l)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported lists the loaded languages.
func (b *Bundle) Supported() []string {
	out := make([]string, 0, len(b.supported))
	for k := range b.supported {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether lang has a loaded table.
func (b *Bundle) Supports(lang string) bool {
	_, ok := b.supported[lang]
	return ok
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve picks the best loaded language for an Accept-Language header.
// Regional variants match their base table; q=0 entries are ignored.
func (b *Bundle) Resolve(acceptLang string) string {
	tags, weights, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil {
		return b.fallback
	}
	wanted := make([]language.Tag, 0, len(tags))
	for i, t := range tags {
		if weights[i] > 0 {
			wanted = append(wanted, t)
		}
	}
	if len(wanted) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(wanted...)
	if conf == language.No {
		return b.fallback
	}
	return b.order[idx]
}
