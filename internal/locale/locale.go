// Package locale maps application language codes to the locale codes used by
// the speech services. One table serves both recognition and synthesis.
package locale

import (
	"sort"
	"strings"
)

// DefaultLocale is used for any language the table does not know.
const DefaultLocale = "en-US"

// locales is the canonical language → speech locale table.
var locales = map[string]string{
	"en": "en-US",
	"hi": "hi-IN",
	"es": "es-ES",
	"fr": "fr-FR",
	"de": "de-DE",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ar": "ar-SA",
	"bn": "bn-IN",
	"ta": "ta-IN",
	"te": "te-IN",
	"mr": "mr-IN",
}

// known holds every locale value in lower case, so inputs that already are
// a locale resolve to themselves.
var known = func() map[string]string {
	m := make(map[string]string, len(locales))
	for _, loc := range locales {
		m[strings.ToLower(loc)] = loc
	}
	return m
}()

// Resolver resolves language codes with a configurable fallback locale.
type Resolver struct {
	fallback string
}

// NewResolver returns a Resolver that falls back to fallback. An empty
// fallback means DefaultLocale.
func NewResolver(fallback string) Resolver {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultLocale
	}
	return Resolver{fallback: fallback}
}

// Fallback returns the locale used for unmapped codes.
func (r Resolver) Fallback() string {
	if r.fallback == "" {
		return DefaultLocale
	}
	return r.fallback
}

// Resolve returns the speech locale for code.
//
// Lookup order: exact application code ("hi"), an existing locale ("hi-IN"),
// then the base language of a region-qualified code ("es-MX" → "es-ES").
func (r Resolver) Resolve(code string) string {
	if loc, ok := lookup(code); ok {
		return loc
	}
	return r.Fallback()
}

func lookup(code string) (string, bool) {
	c := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
	if c == "" {
		return "", false
	}
	if loc, ok := locales[c]; ok {
		return loc, true
	}
	if loc, ok := known[c]; ok {
		return loc, true
	}
	if base, _, found := strings.Cut(c, "-"); found {
		if loc, ok := locales[base]; ok {
			return loc, true
		}
	}
	return "", false
}

// Resolve resolves code with DefaultLocale as the fallback.
func Resolve(code string) string {
	return NewResolver(DefaultLocale).Resolve(code)
}

// Supported reports whether code maps to a speech locale without falling back.
func Supported(code string) bool {
	_, ok := lookup(code)
	return ok
}

// Languages returns the supported application language codes, sorted.
func Languages() []string {
	out := make([]string, 0, len(locales))
	for lang := range locales {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Base returns the language part of a locale ("hi-IN" → "hi").
func Base(loc string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(loc, "_", "-"), "-")
	return strings.ToLower(base)
}
