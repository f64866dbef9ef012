package rules

import (
	re2 "github.com/wasilibs/go-re2"
)

// compileRE2 compiles a pattern with the WASM RE2 engine. go-re2's
// Regexp type mirrors stdlib regexp's method set, so it satisfies
// Matcher directly.
func compileRE2(pattern string) (Matcher, error) {
	return re2.Compile(pattern)
}
