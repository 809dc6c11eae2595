package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return hex.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestKeyCipher_RoundTrip(t *testing.T) {
	cipher, err := NewKeyCipher(testKey())
	require.NoError(t, err)

	ciphertext, err := cipher.Encrypt("tm_live_abc123")
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "tm_live_abc123")

	plaintext, err := cipher.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "tm_live_abc123", plaintext)
}

func TestKeyCipher_RejectsBadKeys(t *testing.T) {
	_, err := NewKeyCipher("not-hex")
	assert.Error(t, err)

	_, err = NewKeyCipher(hex.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestKeyCipher_RejectsTamperedCiphertext(t *testing.T) {
	cipher, err := NewKeyCipher(testKey())
	require.NoError(t, err)

	ciphertext, err := cipher.Encrypt("secret")
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	_, err = cipher.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestKeyCipher_RejectsTruncatedCiphertext(t *testing.T) {
	cipher, err := NewKeyCipher(testKey())
	require.NoError(t, err)

	_, err = cipher.Decrypt([]byte{1, 2, 3})
	assert.Error(t, err)
}
