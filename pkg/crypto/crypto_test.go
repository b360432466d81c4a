package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "SgtiSettingsEncryptionKey!"
	plaintext := "sk-proj-1234567890abcdef"

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, encrypted)

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

// Random IV makes every encryption of the same input distinct.
func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt("same input", "key")
	require.NoError(t, err)
	b, err := Encrypt("same input", "key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	_, err := Decrypt("dG9vc2hvcnQ=", "key")
	assert.Error(t, err)
}

func TestFixEncryptionKey(t *testing.T) {
	assert.Len(t, FixEncryptionKey("short"), 32)
	assert.Len(t, FixEncryptionKey("this key is much much much longer than thirty-two bytes"), 32)

	exact := "0123456789abcdef0123456789abcdef"
	assert.Equal(t, exact, FixEncryptionKey(exact))
}
