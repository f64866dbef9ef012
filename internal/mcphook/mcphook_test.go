package mcphook

import (
	"context"
	"testing"

	"github.com/oktsec/secretsentinel/internal/mlhook"
)

type fakeAnalyzer struct {
	tokens []mlhook.Token
}

func (f fakeAnalyzer) AnalyzeLine(ctx context.Context, line, filePath string, lineNumber int) []mlhook.Token {
	return f.tokens
}

func TestNewServerRegistersAnalyzeLineTool(t *testing.T) {
	srv := NewServer(fakeAnalyzer{tokens: []mlhook.Token{{Token: "sekret"}}})
	if srv == nil {
		t.Fatal("expected a non-nil server")
	}
}

func TestBridgeSatisfiesAnalyzer(t *testing.T) {
	var _ Analyzer = (*mlhook.Bridge)(nil)
}
