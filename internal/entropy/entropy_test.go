package entropy

import "testing"

func TestScanHighEntropyToken(t *testing.T) {
	line := "token=dGhpc2lzYXJhbmRvbWxvb2tpbmdiYXNlNjRzdHJpbmc="
	cands := Scan(line, Options{})
	if len(cands) == 0 {
		t.Fatal("expected at least one high-entropy candidate")
	}
}

func TestScanSkipsRepeatedChar(t *testing.T) {
	line := "padding=" + repeat("a", 40)
	cands := Scan(line, Options{})
	if len(cands) != 0 {
		t.Errorf("expected no candidates for all-same-char token, got %d", len(cands))
	}
}

func TestScanSkipsTooShort(t *testing.T) {
	line := "x=abc123"
	cands := Scan(line, Options{})
	if len(cands) != 0 {
		t.Errorf("expected no candidates below min length, got %d", len(cands))
	}
}

func TestScanRespectsCustomThreshold(t *testing.T) {
	line := "value=0123456789abcdef0123456789abcdef"
	strict := Scan(line, Options{Threshold: 100})
	if len(strict) != 0 {
		t.Errorf("expected no candidates with an unreachable threshold, got %d", len(strict))
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
