// Package redact masks known credential formats out of user-visible
// text, so a secret that trips an error path never reaches a log line
// or terminal message in full, per spec.md §7.
package redact

import "regexp"

// patterns matches the credential shapes spec.md §7 names: AWS access
// key IDs, GitHub tokens, JWTs, Stripe-style live/test keys, and a
// generic catch-all for long uppercase-alnum secrets.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`ghp_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`ghs_[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`sk_live_[a-zA-Z0-9]{10,}`),
	regexp.MustCompile(`sk_test_[a-zA-Z0-9]{10,}`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}\.[a-zA-Z0-9_-]{10,}`),
	regexp.MustCompile(`[A-Z0-9]{20,}`),
}

// Mask replaces any recognized credential in s with a truncated
// stand-in, keeping enough of the prefix to identify the finding
// without reproducing the secret.
func Mask(s string) string {
	for _, re := range patterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			if len(match) > 8 {
				return match[:8] + "***"
			}
			return match[:4] + "***"
		})
	}
	return s
}
