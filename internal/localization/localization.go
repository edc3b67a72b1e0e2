// Package localization holds the notification string tables, one JSON file per
// language, compiled into the binary.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "en"

//go:embed locales/*.json
var builtin embed.FS

// table maps message keys to format strings for one language.
type table map[string]string

// Localizer resolves message keys per language. It is read-only after
// construction and safe for concurrent use.
type Localizer struct {
	tables map[string]table
}

// NewDefaultLocalizer loads the embedded locales.
func NewDefaultLocalizer() (*Localizer, error) {
	return NewLocalizer(builtin, "locales")
}

// NewLocalizer loads every "<lang>.json" file in dir of fsys.
func NewLocalizer(fsys fs.FS, dir string) (*Localizer, error) {
	paths, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list locales in %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no locales found in %s", dir)
	}

	l := &Localizer{tables: make(map[string]table, len(paths))}
	for _, p := range paths {
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", p, err)
		}
		var t table
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", p, err)
		}
		l.tables[strings.TrimSuffix(path.Base(p), ".json")] = t
	}
	return l, nil
}

// GetString returns key in lang, then in DefaultLanguage, then key itself.
func (l *Localizer) GetString(lang, key string) string {
	for _, candidate := range []string{lang, DefaultLanguage} {
		if s, ok := l.tables[candidate][key]; ok {
			return s
		}
	}
	return key
}

// Format renders key in lang with args.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Languages lists the loaded language codes in sorted order.
func (l *Localizer) Languages() []string {
	langs := make([]string, 0, len(l.tables))
	for lang := range l.tables {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
