// Package rules embeds secretsentinel's curated rulesets so the
// binary can load them without touching disk.
package rules

import "embed"

//go:embed builtin/*.yaml
var embedded embed.FS

// FS returns the embedded filesystem holding curated ruleset YAML.
func FS() embed.FS {
	return embedded
}
