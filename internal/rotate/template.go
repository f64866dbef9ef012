package rotate

import "strings"

// expandTemplate substitutes {{match}}, {{timestamp}}, {{file}}, and
// {{ref}} in tmpl, per spec.md §4.I step 5. ref is typically empty
// for rotators with no backend reference.
func expandTemplate(tmpl, match, timestamp, file, ref string) string {
	r := strings.NewReplacer(
		"{{match}}", match,
		"{{timestamp}}", timestamp,
		"{{file}}", file,
		"{{ref}}", ref,
	)
	return r.Replace(tmpl)
}
