package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks the provider to detect the source language.
const Auto = "auto"

// NormalizeLang lowercases a 2–5 character language code ("en", "pt-br",
// "auto") and checks that it parses as a BCP 47 tag.
func NormalizeLang(code string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(code))
	c = strings.ReplaceAll(c, "_", "-")
	if len(c) < 2 || len(c) > 5 {
		return "", fmt.Errorf("language code %q: want 2 to 5 characters", code)
	}
	if c == Auto {
		return c, nil
	}
	if _, err := language.Parse(c); err != nil {
		return "", fmt.Errorf("language code %q: %w", code, err)
	}
	return c, nil
}

var deeplTargets = map[string]string{
	"en":    "EN-GB",
	"en-gb": "EN-GB",
	"en-us": "EN-US",
	"pt":    "PT-PT",
	"pt-pt": "PT-PT",
	"pt-br": "PT-BR",
	"zh":    "ZH",
}

// deeplLang maps a normalized code to DeepL's format. Source languages are
// base-only for DeepL, so regional variants are dropped there.
func deeplLang(code string, target bool) string {
	if !target {
		return strings.ToUpper(base(code))
	}
	if v, ok := deeplTargets[code]; ok {
		return v
	}
	return strings.ToUpper(code)
}

var googleCodes = map[string]string{
	"zh":    "zh-CN",
	"zh-cn": "zh-CN",
	"zh-tw": "zh-TW",
	"he":    "iw",
}

func googleLang(code string) string {
	if v, ok := googleCodes[code]; ok {
		return v
	}
	return base(code)
}

var libreCodes = map[string]string{
	"zh-cn": "zh",
	"pt-br": "pt",
}

func libreLang(code string) string {
	if v, ok := libreCodes[code]; ok {
		return v
	}
	return base(code)
}

// myMemoryLang keeps regional variants, which MyMemory accepts as xx-YY.
func myMemoryLang(code string) string {
	b, region, found := strings.Cut(code, "-")
	if !found {
		return b
	}
	return b + "-" + strings.ToUpper(region)
}

// displayName is used in LLM prompts.
func displayName(code string) string {
	if code == Auto {
		return "the detected source language"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

func base(code string) string {
	b, _, _ := strings.Cut(code, "-")
	return b
}
