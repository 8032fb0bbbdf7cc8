package language

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Option is one entry in a language picker.
type Option struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog holds the languages the remote service advertises. Transcription
// backs the source picker and Translation the target picker.
type Catalog struct {
	Transcription map[string]string `json:"whisper_languages"`
	Translation   map[string]string `json:"translator_languages"`
}

// Empty reports whether neither picker has entries.
func (c Catalog) Empty() bool {
	return len(c.Transcription) == 0 && len(c.Translation) == 0
}

// SourceOptions lists transcription languages with "auto" first.
func (c Catalog) SourceOptions() []Option {
	options := buildOptions(c.Transcription, true)
	if len(options) == 0 {
		return options
	}
	return append([]Option{{Code: Auto, Name: DisplayName(Auto)}}, options...)
}

// TargetOptions lists translation languages. "auto" never appears.
func (c Catalog) TargetOptions() []Option {
	return buildOptions(c.Translation, true)
}

// SupportsSource reports whether code may be used as the source language. An
// empty catalog accepts everything so a failed catalog fetch never blocks a run.
func (c Catalog) SupportsSource(code string) bool {
	if code == Auto || len(c.Transcription) == 0 {
		return true
	}
	return hasCode(c.Transcription, code)
}

// SupportsTarget reports whether code may be used as the target language.
func (c Catalog) SupportsTarget(code string) bool {
	if code == Auto {
		return false
	}
	if len(c.Translation) == 0 {
		return true
	}
	return hasCode(c.Translation, code)
}

// ResolveSource maps input to the source code sent to the service. A code
// the service advertises is returned exactly as the service spells it.
func (c Catalog) ResolveSource(code string) (string, error) {
	if key, ok := findCode(c.Transcription, code); ok {
		return key, nil
	}
	return Normalize(code)
}

// ResolveTarget is ResolveSource for the translation picker; "auto" is
// rejected.
func (c Catalog) ResolveTarget(code string) (string, error) {
	if key, ok := findCode(c.Translation, code); ok && !strings.EqualFold(key, Auto) {
		return key, nil
	}
	return NormalizeTarget(code)
}

func hasCode(entries map[string]string, code string) bool {
	_, ok := findCode(entries, code)
	return ok
}

func findCode(entries map[string]string, code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return "", false
	}
	for key := range entries {
		if strings.ToLower(strings.TrimSpace(key)) == code {
			return strings.TrimSpace(key), true
		}
	}
	return "", false
}

func buildOptions(entries map[string]string, skipAuto bool) []Option {
	titler := cases.Title(language.English)
	options := make([]Option, 0, len(entries))
	for code, name := range entries {
		code = strings.TrimSpace(code)
		if code == "" || (skipAuto && strings.EqualFold(code, Auto)) {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = DisplayName(code)
		} else {
			name = titler.String(name)
		}
		options = append(options, Option{Code: code, Name: name})
	}
	slices.SortFunc(options, func(a, b Option) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Code, b.Code))
	})
	return options
}
