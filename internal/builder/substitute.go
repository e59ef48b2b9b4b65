package builder

import "strings"

// Substitute replaces every declared {placeholder} in content with its value
// from data, or with the empty string when data has no entry. Braced tokens
// that are not declared are left as they are, even if data holds a value
// for them.
//
// All replacements happen in a single pass, so a substituted value is never
// itself scanned for placeholders.
func Substitute(content string, placeholders []string, data map[string]string) string {
	if content == "" {
		return ""
	}
	if len(placeholders) == 0 {
		return content
	}

	pairs := make([]string, 0, len(placeholders)*2)
	for _, p := range placeholders {
		pairs = append(pairs, "{"+p+"}", data[p])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
