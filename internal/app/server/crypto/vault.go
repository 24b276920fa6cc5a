package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	keyLength = 32 // AES-256
	ivLength  = 12 // 96-bit GCM nonce

	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// passphraseSalt keeps passphrase-derived keys stable across restarts.
// Rotating it invalidates every stored envelope.
var passphraseSalt = []byte("crmsync.vault.v1")

// Vault encrypts and decrypts externally issued API tokens with a
// long-lived master key. Tokens are stored as base64(iv || ciphertext);
// the GCM tag makes tampering and key rotation detectable on decrypt.
type Vault struct {
	key []byte
}

// NewVault resolves the master key from the hex-encoded key material or,
// failing that, derives one from the passphrase with argon2id. Exactly one
// of the two must be configured.
func NewVault(masterKeyHex, passphrase string) (*Vault, error) {
	switch {
	case masterKeyHex != "":
		key, err := hex.DecodeString(masterKeyHex)
		if err != nil || len(key) != keyLength {
			return nil, fmt.Errorf("invalid master key (must be %d bytes hex)", keyLength)
		}
		return &Vault{key: key}, nil
	case passphrase != "":
		key := argon2.IDKey([]byte(passphrase), passphraseSalt, argon2Time, argon2Memory, argon2Threads, keyLength)
		return &Vault{key: key}, nil
	default:
		return nil, fmt.Errorf("master key not configured")
	}
}

// Encrypt seals the plaintext under a fresh random IV and returns the
// base64-encoded envelope.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	envelope := gcm.Seal(iv, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt opens an envelope produced by Encrypt. A malformed envelope is
// reported as such so operators know to re-enter the credential instead of
// chasing an opaque crypto failure.
func (v *Vault) Decrypt(envelope string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("malformed credential envelope: not valid base64: %w", err)
	}
	if len(raw) < ivLength {
		return "", fmt.Errorf("malformed credential envelope: too short")
	}

	gcm, err := v.gcm()
	if err != nil {
		return "", err
	}

	iv, ciphertext := raw[:ivLength], raw[ivLength:]
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}

	return string(plaintext), nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}
