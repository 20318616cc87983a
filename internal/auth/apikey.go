// Package auth generates and hashes merchant API key secrets.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const (
	// SecretPrefix marks issued secrets so leaked keys are recognizable
	// in logs and scanners.
	SecretPrefix = "ik_live_"

	secretBytes   = 24
	displayPrefix = 12
)

// GenerateSecret returns a new plaintext API key secret, its sha256 hex
// digest for storage, and a short display prefix. The plaintext must be
// shown to the caller exactly once and never persisted.
func GenerateSecret() (plain, hash, prefix string, err error) {
	buf := make([]byte, secretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", err
	}

	plain = SecretPrefix + hex.EncodeToString(buf)
	return plain, HashSecret(plain), plain[:displayPrefix], nil
}

// HashSecret maps a plaintext secret to its stored digest. The digest is
// the lookup key for authentication, so it must be deterministic; salted
// password KDFs cannot serve here.
func HashSecret(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
