package scan

import (
	"path/filepath"
	"strings"
)

// Kind names which detector a candidate file is routed to.
type Kind string

const (
	KindText       Kind = "text"
	KindEnv        Kind = "env"
	KindDockerfile Kind = "dockerfile"
	KindZip        Kind = "zip"
	KindTarGz      Kind = "targz"
	KindBinary     Kind = "binary"
)

// knownTextExt lists extensions routed to the plain text detector
// without going through the binary sampler first.
var knownTextExt = map[string]bool{
	".txt": true, ".md": true, ".go": true, ".py": true, ".js": true, ".ts": true,
	".jsx": true, ".tsx": true, ".json": true, ".yaml": true, ".yml": true,
	".toml": true, ".ini": true, ".cfg": true, ".conf": true, ".sh": true,
	".bash": true, ".zsh": true, ".rb": true, ".java": true, ".c": true,
	".h": true, ".cpp": true, ".hpp": true, ".rs": true, ".php": true,
	".html": true, ".htm": true, ".css": true, ".xml": true, ".sql": true,
	".properties": true, ".gradle": true, ".tf": true, ".tfvars": true,
	".gitconfig": true, ".npmrc": true, ".dockerignore": true,
}

// Classify decides which detector should handle path.
func Classify(path string) Kind {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(base, "dockerfile"):
		return KindDockerfile
	case base == ".env" || strings.HasPrefix(base, ".env."):
		return KindEnv
	case strings.HasSuffix(base, ".zip"):
		return KindZip
	case strings.HasSuffix(base, ".tar.gz") || strings.HasSuffix(base, ".tgz"):
		return KindTarGz
	case knownTextExt[filepath.Ext(base)]:
		return KindText
	default:
		return KindBinary
	}
}
