package language

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"german", "de"},
		{"auto", "auto"},
		{" Auto ", "auto"},
		{"zh-TW", "zh-tw"},
		{"ca", "ca"},
		{"jw", "jw"},
		{"IW", "iw"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "   ", "not a language"} {
		if _, err := Normalize(bad); err == nil {
			t.Errorf("Normalize(%q) expected error", bad)
		}
	}
}

func TestNormalizeTargetRejectsAuto(t *testing.T) {
	if _, err := NormalizeTarget("auto"); err == nil {
		t.Fatal("expected auto to be rejected as a target")
	}
	if got, err := NormalizeTarget("spanish"); err != nil || got != "es" {
		t.Fatalf("NormalizeTarget(spanish) = %q, %v", got, err)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"jpn", "Japanese"},
		{"auto", "Auto-detect"},
		{"ca", "Catalan"},
		{"", "Unknown"},
		{"!!", "!!"},
	}
	for _, tt := range tests {
		if result := DisplayName(tt.input); result != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestCatalogOptions(t *testing.T) {
	catalog := Catalog{
		Transcription: map[string]string{"en": "english", "fr": "french", "auto": "auto"},
		Translation:   map[string]string{"es": "Spanish", "de": "German", "auto": "Auto"},
	}

	source := catalog.SourceOptions()
	if len(source) != 3 || source[0].Code != Auto {
		t.Fatalf("unexpected source options %+v", source)
	}
	if source[1] != (Option{Code: "en", Name: "English"}) {
		t.Fatalf("expected title-cased english, got %+v", source[1])
	}

	target := catalog.TargetOptions()
	if len(target) != 2 || target[0].Code != "de" || target[1].Code != "es" {
		t.Fatalf("unexpected target options %+v", target)
	}

	if !catalog.SupportsTarget("es") || catalog.SupportsTarget("fr") || catalog.SupportsTarget(Auto) {
		t.Fatal("unexpected target support")
	}
	if !catalog.SupportsSource(Auto) || !catalog.SupportsSource("fr") || catalog.SupportsSource("ja") {
		t.Fatal("unexpected source support")
	}
}

func TestEmptyCatalogAcceptsEverything(t *testing.T) {
	var catalog Catalog
	if !catalog.Empty() {
		t.Fatal("expected empty catalog")
	}
	if len(catalog.SourceOptions()) != 0 || len(catalog.TargetOptions()) != 0 {
		t.Fatal("expected no options")
	}
	if !catalog.SupportsSource("ja") || !catalog.SupportsTarget("ja") {
		t.Fatal("empty catalog should not block a run")
	}
}

func TestCatalogResolveKeepsServiceCodes(t *testing.T) {
	catalog := Catalog{
		Transcription: map[string]string{"jw": "javanese", "en": "english"},
		Translation:   map[string]string{"iw": "Hebrew", "en": "English"},
	}

	if got, err := catalog.ResolveSource("JW"); err != nil || got != "jw" {
		t.Fatalf("ResolveSource(JW) = %q, %v", got, err)
	}
	if !catalog.SupportsSource("jw") {
		t.Fatal("advertised source should be supported")
	}
	if got, err := catalog.ResolveSource("english"); err != nil || got != "en" {
		t.Fatalf("ResolveSource(english) = %q, %v", got, err)
	}
	if got, err := catalog.ResolveTarget("iw"); err != nil || got != "iw" {
		t.Fatalf("ResolveTarget(iw) = %q, %v", got, err)
	}
	if _, err := catalog.ResolveTarget(Auto); err == nil {
		t.Fatal("expected auto to be rejected as a target")
	}
	for _, option := range catalog.SourceOptions() {
		resolved, err := catalog.ResolveSource(option.Code)
		if err != nil || resolved != option.Code || !catalog.SupportsSource(resolved) {
			t.Fatalf("picker option %q resolved to %q (%v)", option.Code, resolved, err)
		}
	}
}
