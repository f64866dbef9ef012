// Package entropy implements spec.md §4.B's high-Shannon-entropy
// token heuristic.
package entropy

import (
	"math"
	"regexp"
)

var (
	base64Like = regexp.MustCompile(`[A-Za-z0-9+/=]{16,}`)
	hexLike    = regexp.MustCompile(`[A-Fa-f0-9]{16,}`)
)

// Options tunes the heuristic; zero value uses spec.md's defaults.
type Options struct {
	MinLength int     // default 32
	Threshold float64 // default 3.5 bits/char
}

func (o Options) withDefaults() Options {
	if o.MinLength <= 0 {
		o.MinLength = 32
	}
	if o.Threshold <= 0 {
		o.Threshold = 3.5
	}
	return o
}

// Candidate is a high-entropy token found on a line.
type Candidate struct {
	Token   string
	Column  int // 1-based, byte-counted
	Entropy float64
}

// Scan tokenizes a line with the base64-like and hex-like patterns and
// returns every candidate of at least MinLength whose Shannon entropy
// meets Threshold. Tokens of a single repeated character never
// qualify regardless of length.
func Scan(line string, opts Options) []Candidate {
	opts = opts.withDefaults()

	seen := make(map[[2]int]bool) // dedupe overlapping hex/base64 matches at the same span
	var out []Candidate

	for _, re := range []*regexp.Regexp{base64Like, hexLike} {
		for _, loc := range re.FindAllStringIndex(line, -1) {
			start, end := loc[0], loc[1]
			tok := line[start:end]
			if len(tok) < opts.MinLength || allSameChar(tok) {
				continue
			}
			key := [2]int{start, end}
			if seen[key] {
				continue
			}
			h := shannonEntropy(tok)
			if h < opts.Threshold {
				continue
			}
			seen[key] = true
			out = append(out, Candidate{Token: tok, Column: start + 1, Entropy: h})
		}
	}
	return out
}

func allSameChar(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// shannonEntropy returns bits of entropy per character.
func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	counts := make(map[rune]int)
	n := 0
	for _, r := range s {
		counts[r]++
		n++
	}
	var h float64
	for _, c := range counts {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}
