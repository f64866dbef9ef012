package backend

import (
	"context"
	"fmt"
	"os"

	vaultapi "github.com/hashicorp/vault/api"
)

// VaultBackend stores secrets under a Vault KV v2 mount, per spec.md
// §4.J/§6: POST/GET <addr>/v1/<mount>/data/<base>/<key>, with
// data.data.value carrying the secret string. Requires VAULT_ADDR and
// VAULT_TOKEN.
type VaultBackend struct {
	client *vaultapi.Client
	mount  string
	base   string
	retry  RetryPolicy
}

// NewVaultBackend builds a client from VAULT_ADDR/VAULT_TOKEN (and
// optional VAULT_NAMESPACE). mount is the KV v2 mount name, base the
// path prefix under which keys are written. Missing credentials
// surface as a typed, actionable error before any network call.
func NewVaultBackend(mount, base string) (*VaultBackend, error) {
	addr := os.Getenv("VAULT_ADDR")
	token := os.Getenv("VAULT_TOKEN")
	if addr == "" {
		return nil, fmt.Errorf("VAULT_ADDR is not set")
	}
	if token == "" {
		return nil, fmt.Errorf("VAULT_TOKEN is not set")
	}
	cfg := vaultapi.DefaultConfig()
	cfg.Address = addr
	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}
	client.SetToken(token)
	if ns := os.Getenv("VAULT_NAMESPACE"); ns != "" {
		client.SetNamespace(ns)
	}
	return &VaultBackend{client: client, mount: mount, base: base, retry: DefaultRetryPolicy()}, nil
}

func (b *VaultBackend) Name() string { return "vault" }

func (b *VaultBackend) path(key string) string {
	return fmt.Sprintf("%s/data/%s/%s", b.mount, b.base, key)
}

func (b *VaultBackend) Put(ctx context.Context, key, value string) (string, error) {
	err := b.retry.Do(ctx, func() error {
		_, err := b.client.Logical().WriteWithContext(ctx, b.path(key), map[string]interface{}{
			"data": map[string]interface{}{"value": value},
		})
		return wrapVaultErr(err)
	})
	if err != nil {
		return "", fmt.Errorf("vault kv write %s: %w", b.path(key), err)
	}
	return key, nil
}

func (b *VaultBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := b.retry.Do(ctx, func() error {
		secret, err := b.client.Logical().ReadWithContext(ctx, b.path(key))
		if err != nil {
			return wrapVaultErr(err)
		}
		if secret == nil || secret.Data == nil {
			return nil
		}
		data, _ := secret.Data["data"].(map[string]interface{})
		v, ok := data["value"].(string)
		if !ok {
			return nil
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("vault kv read %s: %w", b.path(key), err)
	}
	return value, found, nil
}

func (b *VaultBackend) Delete(ctx context.Context, key string) error {
	metaPath := fmt.Sprintf("%s/metadata/%s/%s", b.mount, b.base, key)
	err := b.retry.Do(ctx, func() error {
		_, err := b.client.Logical().DeleteWithContext(ctx, metaPath)
		return wrapVaultErr(err)
	})
	if err != nil {
		return fmt.Errorf("vault kv delete %s: %w", metaPath, err)
	}
	return nil
}

// wrapVaultErr tags 429/5xx responses so IsTransient recognizes them.
func wrapVaultErr(err error) error {
	if err == nil {
		return nil
	}
	if respErr, ok := err.(*vaultapi.ResponseError); ok {
		if respErr.StatusCode == 429 || respErr.StatusCode >= 500 {
			return &StatusError{Code: respErr.StatusCode, Message: err.Error()}
		}
	}
	return err
}
