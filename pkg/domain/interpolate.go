package domain

import (
	"regexp"
	"strings"
)

var placeholder = regexp.MustCompile(`\{([^}]+)\}`)

// Interpolate replaces {name} placeholders with the text form of the named
// variables. Unknown names are left untouched and returned in missing.
func Interpolate(text string, vars VariableReader) (out string, missing []string) {
	if vars == nil || !strings.Contains(text, "{") {
		return text, nil
	}
	out = placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[1 : len(match)-1])
		v, ok := vars.Lookup(name)
		if !ok {
			missing = append(missing, name)
			return match
		}
		return v.Value
	})
	return out, missing
}
