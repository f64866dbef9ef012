package rules

// builtins are always loaded unless explicitly disabled via
// Options.DisableBuiltins. Order matters: it determines per-line,
// per-rule emission order in the detectors.
var builtins = []rawRule{
	{Name: "AWS Access Key ID", Regex: `AKIA[0-9A-Z]{16}`, Severity: SeverityHigh},
	{Name: "Generic API Key", Regex: `(?i)(api[_-]?key|apikey)['"\s:=]+[A-Za-z0-9_\-]{16,}`, Severity: SeverityMedium},
	{Name: "JWT-Like", Regex: `eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`, Severity: SeverityLow},
}

// curated names a ruleset that can be selected by Options.Rulesets.
// Each curated ruleset ships as an embedded YAML file under
// rules/builtin/ and is loaded lazily by name.
var curatedNames = map[string]bool{
	"common": true,
	"cloud":  true,
}
