package marketplace

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/oktsec/secretsentinel/internal/identity"
)

func TestFetchCatalogLocalFile(t *testing.T) {
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.json")
	os.WriteFile(catPath, []byte(`{"rulesets":[{"name":"aws","url":"`+filepath.Join(dir, "aws.json")+`"}]}`), 0o644)

	cat, err := FetchCatalog(catPath, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Rulesets) != 1 || cat.Rulesets[0].Name != "aws" {
		t.Fatalf("unexpected catalog: %+v", cat)
	}
}

func TestInstallVerifiesSHA256(t *testing.T) {
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.json")
	content := []byte(`{"rules":[]}`)
	os.WriteFile(rulesetPath, content, 0o644)
	sum := sha256.Sum256(content)

	cat := &Catalog{Rulesets: []CatalogItem{{Name: "aws", URL: rulesetPath, SHA256: hex.EncodeToString(sum[:])}}}
	cacheDir := filepath.Join(dir, "cache")

	installed, err := Install(cat, []string{"aws"}, Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 1 {
		t.Fatalf("expected 1 installed ruleset, got %d", len(installed))
	}
	data, err := os.ReadFile(installed[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(content) {
		t.Errorf("installed content mismatch")
	}
}

func TestInstallRejectsBadSHA256(t *testing.T) {
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.json")
	os.WriteFile(rulesetPath, []byte(`{"rules":[]}`), 0o644)

	cat := &Catalog{Rulesets: []CatalogItem{{Name: "aws", URL: rulesetPath, SHA256: "0000000000000000000000000000000000000000000000000000000000000000"}}}
	_, err := Install(cat, []string{"aws"}, Options{CacheDir: filepath.Join(dir, "cache")})
	if err == nil {
		t.Fatal("expected a sha256 mismatch error")
	}
}

func TestInstallVerifiesEd25519Signature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.json")
	content := []byte(`{"rules":[]}`)
	os.WriteFile(rulesetPath, content, 0o644)
	sig := identity.SignBytes(priv, content)

	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "SECRETSENTINEL ED25519 PUBLIC KEY", Bytes: pub})

	cat := &Catalog{
		PubKey:   string(pubPEM),
		Rulesets: []CatalogItem{{Name: "aws", URL: rulesetPath, Sig: sig}},
	}
	installed, err := Install(cat, []string{"aws"}, Options{CacheDir: filepath.Join(dir, "cache"), RequireSigned: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(installed) != 1 {
		t.Fatal("expected install to succeed with a valid signature")
	}
}

func TestInstallRejectsUnsignedWhenRequired(t *testing.T) {
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.json")
	os.WriteFile(rulesetPath, []byte(`{"rules":[]}`), 0o644)

	cat := &Catalog{Rulesets: []CatalogItem{{Name: "aws", URL: rulesetPath}}}
	_, err := Install(cat, []string{"aws"}, Options{CacheDir: filepath.Join(dir, "cache"), RequireSigned: true})
	if err == nil {
		t.Fatal("expected an error for a missing signature under RequireSigned")
	}
}

func TestInstallTrustsKeyFromTrustedKeysDir(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	rulesetPath := filepath.Join(dir, "aws.json")
	content := []byte(`{"rules":[]}`)
	os.WriteFile(rulesetPath, content, 0o644)
	sig := identity.SignBytes(priv, content)

	keysDir := t.TempDir()
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "SECRETSENTINEL ED25519 PUBLIC KEY", Bytes: pub})
	os.WriteFile(filepath.Join(keysDir, "marketplace.pub"), pubPEM, 0o644)

	cat := &Catalog{Rulesets: []CatalogItem{{Name: "aws", URL: rulesetPath, Sig: sig}}}
	installed, err := Install(cat, []string{"aws"}, Options{
		CacheDir:       filepath.Join(dir, "cache"),
		RequireSigned:  true,
		TrustedKeysDir: keysDir,
	})
	if err != nil {
		t.Fatalf("expected trust store key to verify the signature, got %v", err)
	}
	if len(installed) != 1 {
		t.Fatal("expected 1 installed ruleset")
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rulesets":[]}`))
	}))
	defer srv.Close()

	cat, err := FetchCatalog(srv.URL, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Rulesets) != 0 {
		t.Errorf("expected empty ruleset list, got %+v", cat.Rulesets)
	}
}

func TestVerifyCatalogDetachedSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	catPath := filepath.Join(dir, "catalog.json")
	body, _ := json.Marshal(Catalog{Rulesets: []CatalogItem{}})
	os.WriteFile(catPath, body, 0o644)
	sig := ed25519.Sign(priv, body)
	os.WriteFile(catPath+".sig", sig, 0o644)

	_, err = FetchCatalog(catPath, Options{
		VerifyCatalog:   true,
		CatalogPubKeyFn: func() (ed25519.PublicKey, error) { return pub, nil },
	})
	if err != nil {
		t.Fatalf("expected valid detached signature to verify, got %v", err)
	}
}
