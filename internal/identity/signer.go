package identity

import (
	"crypto/ed25519"
	"encoding/base64"
)

// SignBytes signs an arbitrary payload and returns the signature
// base64-encoded (standard encoding). Used by the ruleset marketplace
// to produce the "sig" field of a catalog entry and detached ".sig"
// files for a catalog itself.
func SignBytes(privateKey ed25519.PrivateKey, payload []byte) string {
	sig := ed25519.Sign(privateKey, payload)
	return base64.StdEncoding.EncodeToString(sig)
}
