package backend

import (
	"context"
	"fmt"

	"github.com/oktsec/secretsentinel/internal/config"
)

// New constructs the configured secret backend. An unknown backend
// name is a ConfigError-class failure per spec.md §4.J/§7.
func New(ctx context.Context, cfg config.BackendConfig) (Provider, error) {
	switch cfg.Name {
	case "", "file":
		path := cfg.FilePath
		if path == "" {
			path = "secrets.json"
		}
		return NewFileBackend(path), nil
	case "aws":
		return NewAWSBackend(ctx, cfg.AWSPrefix)
	case "vault":
		mount := cfg.VaultMount
		if mount == "" {
			mount = "secret"
		}
		return NewVaultBackend(mount, cfg.VaultBase)
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.Name)
	}
}
