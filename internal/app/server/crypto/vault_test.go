package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestNewVault(t *testing.T) {
	tests := []struct {
		name       string
		keyHex     string
		passphrase string
		wantErr    string
	}{
		{
			name:   "hex key",
			keyHex: testKeyHex,
		},
		{
			name:       "passphrase derived",
			passphrase: "correct horse battery staple",
		},
		{
			name:    "neither configured",
			wantErr: "master key not configured",
		},
		{
			name:    "short hex key",
			keyHex:  "abcdef",
			wantErr: "invalid master key",
		},
		{
			name:    "not hex at all",
			keyHex:  strings.Repeat("zz", 32),
			wantErr: "invalid master key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVault(tt.keyHex, tt.passphrase)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, v)
		})
	}
}

func TestVault_RoundTrip(t *testing.T) {
	v, err := NewVault(testKeyHex, "")
	require.NoError(t, err)

	for _, plaintext := range []string{
		"a",
		"tok_live_4eC39HqLyjWDarjtT1zdp7dc",
		"токен с юникодом 🗝",
		strings.Repeat("x", 4096),
	} {
		envelope, err := v.Encrypt(plaintext)
		require.NoError(t, err)

		decrypted, err := v.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestVault_EncryptNeverReusesIV(t *testing.T) {
	v, err := NewVault(testKeyHex, "")
	require.NoError(t, err)

	first, err := v.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := v.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVault_DecryptRejectsTamperedEnvelope(t *testing.T) {
	v, err := NewVault(testKeyHex, "")
	require.NoError(t, err)

	envelope, err := v.Encrypt("secret token")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(envelope)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = v.Decrypt(tampered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")
}

func TestVault_DecryptRejectsMalformedInput(t *testing.T) {
	v, err := NewVault(testKeyHex, "")
	require.NoError(t, err)

	_, err = v.Decrypt("not base64!!!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid base64")

	_, err = v.Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestVault_RotatedKeyFailsDecryption(t *testing.T) {
	v1, err := NewVault(testKeyHex, "")
	require.NoError(t, err)
	v2, err := NewVault("", "different passphrase")
	require.NoError(t, err)

	envelope, err := v1.Encrypt("secret token")
	require.NoError(t, err)

	_, err = v2.Decrypt(envelope)
	assert.Error(t, err)
}
