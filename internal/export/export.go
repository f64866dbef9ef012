// Package export renders a finding set as JSON or CSV for consumption
// outside the CLI's terminal report, per spec.md §6.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/oktsec/secretsentinel/internal/finding"
)

// jsonRecord is the externally-facing shape: a subset of finding.Finding's
// fields, matching spec.md §6's documented export columns exactly.
type jsonRecord struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Match    string `json:"match"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
}

func toRecords(findings []finding.Finding) []jsonRecord {
	out := make([]jsonRecord, 0, len(findings))
	for _, f := range findings {
		out = append(out, jsonRecord{
			File:     f.FilePath,
			Line:     f.Line,
			Column:   f.Column,
			Match:    f.Match,
			Rule:     f.RuleName,
			Severity: string(f.Severity),
		})
	}
	return out
}

// JSON writes findings as a JSON array of {file,line,column,match,rule,severity}.
func JSON(w io.Writer, findings []finding.Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRecords(findings))
}

// CSV writes findings as CSV with a header row; encoding/csv handles
// the doubled-quote escaping spec.md §6 requires.
func CSV(w io.Writer, findings []finding.Finding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "line", "column", "match", "rule", "severity"}); err != nil {
		return err
	}
	for _, r := range toRecords(findings) {
		row := []string{r.File, strconv.Itoa(r.Line), strconv.Itoa(r.Column), r.Match, r.Rule, r.Severity}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
