package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oktsec/secretsentinel/internal/safefile"
)

// Writer appends audit events to an NDJSON file, per spec.md §4.L.
type Writer struct {
	path       string
	signingKey []byte
	keyID      string
	mu         sync.Mutex
}

// NewWriter opens (creating parent directories) an audit log at path.
// signingKey is optional; when non-empty every event is HMAC-SHA256
// signed and keyID, if set, is recorded alongside the signature.
func NewWriter(path string, signingKey []byte, keyID string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := safefile.RejectSymlink(path); err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
	}
	return &Writer{path: path, signingKey: signingKey, keyID: keyID}, nil
}

// Write appends one event, annotated with hash (and sig/keyId when a
// signing key is configured).
func (w *Writer) Write(e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	canonical, err := canonicalJSON(e)
	if err != nil {
		return fmt.Errorf("canonicalizing audit event: %w", err)
	}
	digest := sha256.Sum256(canonical)
	hashHex := hex.EncodeToString(digest[:])

	record := make(map[string]interface{}, len(e)+2)
	for k, v := range e {
		record[k] = v
	}
	record["hash"] = "sha256-" + hashHex

	if len(w.signingKey) > 0 {
		mac := hmac.New(sha256.New, w.signingKey)
		mac.Write([]byte(hashHex))
		record["sig"] = "hmac-sha256-" + hex.EncodeToString(mac.Sum(nil))
		if w.keyID != "" {
			record["keyId"] = w.keyID
		}
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling audit record: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}
