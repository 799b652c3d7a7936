package settings

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

var errNoKey = errors.New("SETTINGS_ENCRYPTION_KEY not set in environment")

// encryptionKey decodes SETTINGS_ENCRYPTION_KEY (base64, 32 bytes for AES-256).
func encryptionKey() ([]byte, error) {
	keyStr := os.Getenv("SETTINGS_ENCRYPTION_KEY")
	if keyStr == "" {
		return nil, errNoKey
	}
	key, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return nil, fmt.Errorf("decode SETTINGS_ENCRYPTION_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes for AES-256")
	}
	return key, nil
}

// EncryptionEnabled reports whether secrets are stored encrypted.
func EncryptionEnabled() bool {
	_, err := encryptionKey()
	return err == nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-256-GCM, nonce first, base64 encoded.
// Without a key the value is stored as is.
func Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	key, err := encryptionKey()
	if errors.Is(err, errNoKey) {
		return plaintext, nil
	}
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values that are not base64 were saved before a key
// was configured and come back unchanged.
func Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	key, err := encryptionKey()
	if errors.Is(err, errNoKey) {
		return ciphertext, nil
	}
	if err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext, nil
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt setting: %w", err)
	}
	return string(plaintext), nil
}
