// Package marketplace implements the ruleset marketplace of spec.md
// §4.M: fetching a catalog, verifying each requested ruleset's hash
// and signature, and installing verified rulesets into a local cache.
package marketplace

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oktsec/secretsentinel/internal/identity"
)

// trustStoreKeyName is the identity under which a marketplace's
// trusted catalog public key is stored in a keys directory, when the
// catalog itself does not embed one.
const trustStoreKeyName = "marketplace"

// CatalogItem describes one installable ruleset.
type CatalogItem struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256,omitempty"`
	Sig    string `json:"sig,omitempty"`
}

// Catalog is the top-level document fetched from a marketplace source.
type Catalog struct {
	Rulesets []CatalogItem `json:"rulesets"`
	PubKey   string        `json:"pubkey,omitempty"` // PEM, catalog-embedded
}

// Options configures a fetch-and-install run.
type Options struct {
	RequireSigned   bool
	CatalogPubKey   ed25519.PublicKey // overrides Catalog.PubKey if set
	VerifyCatalog   bool
	CatalogPubKeyFn func() (ed25519.PublicKey, error) // for detached catalog sig verification
	CacheDir        string
	HTTPClient      *http.Client

	// TrustedKeysDir, if set, is loaded as an identity.KeyStore and
	// consulted for a "marketplace" public key when the catalog itself
	// carries none, so an operator can pin trust to a local keys
	// directory instead of trusting whatever the catalog ships.
	TrustedKeysDir string
}

// InstalledRuleset is one successfully verified and written ruleset.
type InstalledRuleset struct {
	Name string
	Path string
}

// Fetch reads raw bytes from an HTTP(S) URL or a local filesystem path.
func Fetch(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching %s: HTTP %d", source, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

// FetchCatalog fetches and parses the marketplace catalog at source.
// If opts.VerifyCatalog is set, it also fetches and checks the
// detached "<source>.sig" sidecar against opts.CatalogPubKeyFn's key,
// using the raw (non-base64) signature bytes spec.md §6 specifies for
// sidecar files.
func FetchCatalog(source string, opts Options) (*Catalog, error) {
	data, err := Fetch(source)
	if err != nil {
		return nil, err
	}

	if opts.VerifyCatalog {
		if opts.CatalogPubKeyFn == nil {
			return nil, fmt.Errorf("catalog signature verification requested but no catalog public key was provided")
		}
		pub, err := opts.CatalogPubKeyFn()
		if err != nil {
			return nil, fmt.Errorf("loading catalog public key: %w", err)
		}
		sigBytes, err := Fetch(source + ".sig")
		if err != nil {
			return nil, fmt.Errorf("fetching catalog signature: %w", err)
		}
		if !ed25519.Verify(pub, data, sigBytes) {
			return nil, fmt.Errorf("catalog signature verification failed for %s", source)
		}
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", source, err)
	}
	return &cat, nil
}

// Install fetches, verifies, and writes each named ruleset from cat to
// <cache_dir>/<name>.ruleset.json, per spec.md §4.M.
func Install(cat *Catalog, names []string, opts Options) ([]InstalledRuleset, error) {
	byName := map[string]CatalogItem{}
	for _, item := range cat.Rulesets {
		byName[item.Name] = item
	}

	catalogPub, _ := parseCatalogPubKey(cat.PubKey)
	if catalogPub == nil && opts.TrustedKeysDir != "" {
		ks := identity.NewKeyStore()
		if err := ks.LoadFromDir(opts.TrustedKeysDir); err == nil {
			if pub, ok := ks.Get(trustStoreKeyName); ok {
				catalogPub = pub
			}
		}
	}
	if opts.CatalogPubKey != nil {
		catalogPub = opts.CatalogPubKey
	}

	var installed []InstalledRuleset
	for _, name := range names {
		item, ok := byName[name]
		if !ok {
			return installed, fmt.Errorf("ruleset %q not found in catalog", name)
		}

		data, err := Fetch(item.URL)
		if err != nil {
			return installed, fmt.Errorf("fetching ruleset %q: %w", name, err)
		}

		if item.SHA256 != "" {
			sum := sha256.Sum256(data)
			got := hex.EncodeToString(sum[:])
			if !strings.EqualFold(got, item.SHA256) {
				return installed, fmt.Errorf("ruleset %q failed sha256 check: got %s, want %s", name, got, item.SHA256)
			}
		}

		if opts.RequireSigned {
			if item.Sig == "" {
				return installed, fmt.Errorf("ruleset %q has no signature but signing is required", name)
			}
			if catalogPub == nil {
				return installed, fmt.Errorf("ruleset %q requires a signature but no catalog public key is available", name)
			}
			result := identity.VerifyBytes(catalogPub, data, item.Sig)
			if !result.Verified {
				return installed, fmt.Errorf("ruleset %q signature verification failed: %w", name, result.Error)
			}
		}

		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			return installed, fmt.Errorf("creating ruleset cache directory: %w", err)
		}
		path := filepath.Join(opts.CacheDir, name+".ruleset.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return installed, fmt.Errorf("writing ruleset %q: %w", name, err)
		}
		installed = append(installed, InstalledRuleset{Name: name, Path: path})
	}
	return installed, nil
}

func parseCatalogPubKey(pemStr string) (ed25519.PublicKey, error) {
	if pemStr == "" {
		return nil, fmt.Errorf("no catalog-embedded public key")
	}
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, fmt.Errorf("invalid PEM in catalog pubkey")
	}
	return ed25519.PublicKey(block.Bytes), nil
}
