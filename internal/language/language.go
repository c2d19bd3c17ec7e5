package language

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknown reports a value that is neither a language code nor a known
// English language name.
var ErrUnknown = errors.New("unknown language")

// Full word forms accepted in configuration files alongside BCP 47 codes.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"turkish":    "tr",
	"ukrainian":  "uk",
}

// IsAuto reports whether value asks the model to detect the language.
func IsAuto(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto", "detect":
		return true
	}
	return false
}

// Canonicalize reduces a language code, tag, or English name to its base
// language subtag ("PT", "por", "pt-BR", "portuguese" all become "pt").
// Auto-detect values yield the empty string.
func Canonicalize(value string) (string, error) {
	if IsAuto(value) {
		return "", nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if code, ok := words[trimmed]; ok {
		return code, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknown, value)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("%w: %q", ErrUnknown, value)
	}
	return base.String(), nil
}

// Normalize is Canonicalize without the error; unrecognized input is returned
// lower-cased so it can still be handed to the model.
func Normalize(value string) string {
	code, err := Canonicalize(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return code
}

// DisplayName returns the English name for code, "auto-detect" for an empty
// code, or the upper-cased input when the code is not recognized.
func DisplayName(code string) string {
	if IsAuto(code) {
		return "auto-detect"
	}
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}
