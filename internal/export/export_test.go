package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oktsec/secretsentinel/internal/finding"
)

func sample() []finding.Finding {
	return []finding.Finding{
		{FilePath: "a.env", Line: 3, Column: 5, Match: `AKIA"quoted"`, RuleName: "AWS Access Key ID", Severity: finding.High},
	}
}

func TestJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	var records []jsonRecord
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(records) != 1 || records[0].File != "a.env" || records[0].Severity != "high" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestCSVEscapesQuotes(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `AKIA""quoted""`) {
		t.Errorf("expected doubled-quote escaping in CSV output, got: %s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
}
