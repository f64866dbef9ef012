// Package backend implements the secret storage backends of spec.md
// §4.J: a common put/get/delete contract wrapped in a retry policy,
// and file/AWS Secrets Manager/Vault KV v2 implementations.
package backend

import "context"

// Provider is the contract every secret backend implements. put
// returns the reference suffix the rotation coordinator embeds in
// secretref://<provider>/<suffix>.
type Provider interface {
	Name() string
	Put(ctx context.Context, key, value string) (refSuffix string, err error)
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
}
