// Package crypto decrypts credentials stored in source configs.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// EncryptedSuffix marks a source config key whose value is ciphertext.
// "password_encrypted" is decrypted into "password" before a source is loaded.
const EncryptedSuffix = "_encrypted"

var (
	// ErrInvalidKey is returned when the encryption key is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned for malformed ciphertext or a wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
	// ErrNoKey is returned when a config holds encrypted values but no key is configured.
	ErrNoKey = errors.New("source config has encrypted values but no credentials key is configured")
)

// CredentialEncryptor seals values with AES-256-GCM.
type CredentialEncryptor struct {
	gcm cipher.AEAD
}

// NewCredentialEncryptor creates an encryptor from keyInput: either a base64 32-byte key
// (openssl rand -base64 32) or a passphrase, which is hashed with SHA-256.
func NewCredentialEncryptor(keyInput string) (*CredentialEncryptor, error) {
	if keyInput == "" {
		return nil, ErrInvalidKey
	}

	key, err := base64.StdEncoding.DecodeString(keyInput)
	if err != nil || len(key) != 32 {
		sum := sha256.Sum256([]byte(keyInput))
		key = sum[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &CredentialEncryptor{gcm: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext || tag). Empty input stays empty.
func (e *CredentialEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input stays empty.
func (e *CredentialEncryptor) Decrypt(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}
	n := e.gcm.NonceSize()
	if len(data) < n+e.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}

	plaintext, err := e.gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

// ResolveConfig returns a copy of cfg with every "<key>_encrypted" entry replaced by
// its decrypted value under "<key>". cfg is returned unchanged when it has no
// encrypted entries. A nil encryptor fails with ErrNoKey only if decryption is needed.
func (e *CredentialEncryptor) ResolveConfig(cfg map[string]string) (map[string]string, error) {
	if !hasEncrypted(cfg) {
		return cfg, nil
	}
	if e == nil {
		return nil, ErrNoKey
	}

	resolved := make(map[string]string, len(cfg))
	for k, v := range cfg {
		if !strings.HasSuffix(k, EncryptedSuffix) {
			if _, set := resolved[k]; !set {
				resolved[k] = v
			}
			continue
		}
		plain, err := e.Decrypt(v)
		if err != nil {
			return nil, fmt.Errorf("config key %q: %w", k, err)
		}
		resolved[strings.TrimSuffix(k, EncryptedSuffix)] = plain
	}
	return resolved, nil
}

func hasEncrypted(cfg map[string]string) bool {
	for k := range cfg {
		if strings.HasSuffix(k, EncryptedSuffix) {
			return true
		}
	}
	return false
}
