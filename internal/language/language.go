// Package language maps the supported target language codes to the names
// used in prompts.
package language

import (
	"fmt"
	"sort"
	"strings"
)

// Default is the target language when none is given.
const Default = "ja"

var names = map[string]string{
	"ja":    "Japanese",
	"en":    "English",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"zh":    "Chinese (Simplified)",
	"zh_tw": "Chinese (Traditional)",
	"ko":    "Korean",
}

// Name returns the English name of code, or false when code is unsupported.
func Name(code string) (string, bool) {
	name, ok := names[normalize(code)]
	return name, ok
}

// Validate returns the canonical form of code or an error listing the
// supported codes.
func Validate(code string) (string, error) {
	c := normalize(code)
	if _, ok := names[c]; !ok {
		return "", fmt.Errorf("unsupported language %q (supported: %s)", code, strings.Join(Codes(), ", "))
	}
	return c, nil
}

// Codes returns the supported codes in sorted order.
func Codes() []string {
	out := make([]string, 0, len(names))
	for c := range names {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func normalize(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "-", "_")
}
