package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	plain, hash, prefix, err := GenerateSecret()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(plain, SecretPrefix))
	assert.Len(t, hash, 64) // sha256 hex
	assert.Equal(t, plain[:len(prefix)], prefix)
	assert.Equal(t, HashSecret(plain), hash)

	// plaintext never appears in what gets stored
	assert.NotContains(t, hash, plain)
}

func TestGenerateSecretUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		plain, _, _, err := GenerateSecret()
		require.NoError(t, err)
		_, dup := seen[plain]
		require.False(t, dup)
		seen[plain] = struct{}{}
	}
}

func TestHashSecretDeterministic(t *testing.T) {
	assert.Equal(t, HashSecret("ik_live_abc"), HashSecret("ik_live_abc"))
	assert.NotEqual(t, HashSecret("ik_live_abc"), HashSecret("ik_live_abd"))
}
