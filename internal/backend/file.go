package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oktsec/secretsentinel/internal/safefile"
)

// historyEntry is one line of the NDJSON audit trail a file backend
// keeps alongside its secrets map, recording every value change.
type historyEntry struct {
	Timestamp string `json:"ts"`
	Key       string `json:"key"`
	Prev      string `json:"prev,omitempty"`
	Next      string `json:"next"`
}

// FileBackend stores secrets as a flat JSON object on disk, per
// spec.md §4.J/§6. put appends an NDJSON history line whenever the
// prior value differed.
type FileBackend struct {
	Path  string
	Now   func() time.Time
	mu    sync.Mutex
	retry RetryPolicy
}

// NewFileBackend returns a FileBackend writing secrets to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path, Now: time.Now, retry: DefaultRetryPolicy()}
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) historyPath() string { return b.Path + ".history.ndjson" }

func (b *FileBackend) load() (map[string]string, error) {
	data, err := safefile.ReadFile(b.Path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file %s: %w", b.Path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing secrets file %s: %w", b.Path, err)
	}
	return m, nil
}

func (b *FileBackend) save(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling secrets file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return fmt.Errorf("creating secrets directory: %w", err)
	}
	tmp := b.Path + fmt.Sprintf(".tmp.%d", b.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing secrets file: %w", err)
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("installing secrets file: %w", err)
	}
	return nil
}

func (b *FileBackend) appendHistory(e historyEntry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(b.historyPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening secrets history: %w", err)
	}
	defer f.Close()
	_, err = f.Write(append(data, '\n'))
	return err
}

func (b *FileBackend) Put(ctx context.Context, key, value string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var prev string
	var hadPrev bool
	err := b.retry.Do(ctx, func() error {
		m, err := b.load()
		if err != nil {
			return err
		}
		prev, hadPrev = m[key]
		m[key] = value
		return b.save(m)
	})
	if err != nil {
		return "", err
	}
	if !hadPrev || prev != value {
		_ = b.appendHistory(historyEntry{
			Timestamp: b.Now().UTC().Format(time.RFC3339Nano),
			Key:       key,
			Prev:      prev,
			Next:      value,
		})
	}
	return key, nil
}

func (b *FileBackend) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var value string
	var found bool
	err := b.retry.Do(ctx, func() error {
		m, err := b.load()
		if err != nil {
			return err
		}
		value, found = m[key]
		return nil
	})
	return value, found, err
}

func (b *FileBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.retry.Do(ctx, func() error {
		m, err := b.load()
		if err != nil {
			return err
		}
		delete(m, key)
		return b.save(m)
	})
}
