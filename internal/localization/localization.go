// Package localization provides functionality for internationalization (i18n).
// It loads translation strings from JSON files and provides a simple way to get
// localized strings for different languages.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when a key is missing in the requested language.
const DefaultLanguage = "pt-BR"

//go:embed locales/*.json
var embedded embed.FS

// Localizer manages the translations for the application.
// It holds a map of languages, each with its own map of translation keys and values.
type Localizer struct {
	translations map[string]map[string]string
	supported    []string
	matcher      language.Matcher
	mu           sync.RWMutex
}

// NewLocalizer creates and returns a new Localizer instance.
// It loads all translations from the provided directory path.
// The directory should contain JSON files named with the language code (e.g., "en.json").
func NewLocalizer(dir string) (*Localizer, error) {
	return NewLocalizerFS(os.DirFS(dir), ".")
}

// Default returns a Localizer over the translations bundled with the binary.
func Default() *Localizer {
	l, err := NewLocalizerFS(embedded, "locales")
	if err != nil {
		panic(fmt.Sprintf("bundled translations are invalid: %v", err))
	}
	return l
}

// NewLocalizerFS loads every *.json file found in dir of fsys.
func NewLocalizerFS(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	l.buildMatcher()
	return l, nil
}

// GetString returns the localized string for a given key and language.
// If the language or the key is not found, it returns the key itself as a fallback.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != DefaultLanguage {
		if defTranslations, ok := l.translations[DefaultLanguage]; ok {
			if value, ok := defTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Match picks the best supported language for an Accept-Language header,
// falling back to DefaultLanguage.
func (l *Localizer) Match(acceptLanguage string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return l.supported[idx]
}

// buildMatcher orders the loaded languages with DefaultLanguage first, which
// is what language.Matcher falls back to.
func (l *Localizer) buildMatcher() {
	langs := make([]string, 0, len(l.translations))
	for lang := range l.translations {
		if lang != DefaultLanguage {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	langs = append([]string{DefaultLanguage}, langs...)

	l.supported = l.supported[:0]
	tags := make([]language.Tag, 0, len(langs))
	for _, lang := range langs {
		tag, err := language.Parse(lang)
		if err != nil {
			continue
		}
		l.supported = append(l.supported, lang)
		tags = append(tags, tag)
	}
	l.matcher = language.NewMatcher(tags)
}
