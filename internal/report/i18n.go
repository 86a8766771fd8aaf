package report

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Language is a supported report language.
type Language string

const (
	LangEnglish Language = "en"
	LangTurkish Language = "tr"
)

// ErrUnsupportedLanguage is returned for language codes without a locale file.
var ErrUnsupportedLanguage = errors.New("report: unsupported language")

//go:embed en.json tr.json
var localeFS embed.FS

var locales = mustLoadLocales(map[Language]string{
	LangEnglish: "en.json",
	LangTurkish: "tr.json",
})

var languageAliases = map[string]Language{
	"":        LangEnglish,
	"en":      LangEnglish,
	"en-us":   LangEnglish,
	"en-gb":   LangEnglish,
	"english": LangEnglish,
	"tr":      LangTurkish,
	"tr-tr":   LangTurkish,
	"turkish": LangTurkish,
	"türkçe":  LangTurkish,
	"turkce":  LangTurkish,
}

func mustLoadLocales(files map[Language]string) map[Language]map[string]string {
	out := make(map[Language]map[string]string, len(files))
	for lang, file := range files {
		data, err := localeFS.ReadFile(file)
		if err != nil {
			panic(fmt.Sprintf("report: locale %s: %v", lang, err))
		}
		var strs map[string]string
		if err := json.Unmarshal(data, &strs); err != nil {
			panic(fmt.Sprintf("report: locale %s: %v", lang, err))
		}
		out[lang] = strs
	}
	return out
}

// Translator looks up report strings for one language. Keys missing from
// that locale fall back to English, then to the key itself.
type Translator struct {
	lang     Language
	strs     map[string]string
	fallback map[string]string
}

// NewTranslator builds a translator for lang. Unknown languages get English.
func NewTranslator(lang Language) Translator {
	strs, ok := locales[lang]
	if !ok {
		lang, strs = LangEnglish, locales[LangEnglish]
	}
	return Translator{lang: lang, strs: strs, fallback: locales[LangEnglish]}
}

func (t Translator) Lang() Language {
	return t.lang
}

func (t Translator) T(key string) string {
	if s, ok := t.strs[key]; ok {
		return s
	}
	if s, ok := t.fallback[key]; ok {
		return s
	}
	return key
}

// Format renders the string for key as a fmt template.
func (t Translator) Format(key string, args ...any) string {
	return fmt.Sprintf(t.T(key), args...)
}

// Keys lists the keys defined by the active locale, sorted.
func (t Translator) Keys() []string {
	keys := make([]string, 0, len(t.strs))
	for k := range t.strs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseLanguage maps a flag or config value onto a supported Language.
func ParseLanguage(code string) (Language, error) {
	if lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(code))]; ok {
		return lang, nil
	}
	return LangEnglish, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, code)
}
