// Package encryption seals session state at rest with AES-256-GCM.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// envelopeV1 prefixes every AES ciphertext so a future key or format change is detectable.
	envelopeV1 = "v1:"
	// envelopePlain prefixes NoOp output.
	envelopePlain = "plain:"

	// MinPassphraseLength is the shortest non-base64 key accepted.
	MinPassphraseLength = 16
)

// associatedData binds ciphertexts to this service.
var associatedData = []byte("itera.chatbot.session")

// ErrUnsupportedFormat is returned for ciphertexts without a known envelope prefix.
var ErrUnsupportedFormat = errors.New("unsupported ciphertext format")

// Encryptor provides methods for encrypting and decrypting data.
type Encryptor interface {
	// Encrypt seals the plaintext and returns an envelope string.
	Encrypt(plaintext []byte) (string, error)

	// Decrypt opens an envelope string produced by Encrypt.
	Decrypt(ciphertext string) ([]byte, error)

	// EncryptString is Encrypt for strings.
	EncryptString(plaintext string) (string, error)

	// DecryptString is Decrypt for strings.
	DecryptString(ciphertext string) (string, error)
}

// AESEncryptor implements Encryptor using AES-256-GCM.
type AESEncryptor struct {
	gcm cipher.AEAD
}

// NewAESEncryptor creates a new AES-256-GCM encryptor.
// key is either a base64 encoded 32-byte key (see GenerateKey) or a passphrase,
// from which the key is derived with SHA-256.
func NewAESEncryptor(key string) (*AESEncryptor, error) {
	keyBytes, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESEncryptor{gcm: gcm}, nil
}

func deriveKey(key string) ([]byte, error) {
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded, nil
	}
	if len(key) < MinPassphraseLength {
		return nil, fmt.Errorf("encryption key must be a base64 32-byte key or a passphrase of at least %d characters", MinPassphraseLength)
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:], nil
}

// Encrypt seals the plaintext as "v1:" + base64(nonce | ciphertext).
func (e *AESEncryptor) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nonce, nonce, plaintext, associatedData)

	return envelopeV1 + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a "v1:" envelope.
func (e *AESEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	payload, ok := strings.CutPrefix(ciphertext, envelopeV1)
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	nonceSize := e.gcm.NonceSize()
	if len(data) < nonceSize+e.gcm.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	plaintext, err := e.gcm.Open(nil, data[:nonceSize], data[nonceSize:], associatedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

// EncryptString encrypts a string.
func (e *AESEncryptor) EncryptString(plaintext string) (string, error) {
	return e.Encrypt([]byte(plaintext))
}

// DecryptString decrypts to a string.
func (e *AESEncryptor) DecryptString(ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateKey generates a new random 32-byte key, base64 encoded.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// NoOpEncryptor stores sessions readable, for local development without SECRETS_ENCRYPTION_KEY.
type NoOpEncryptor struct{}

// NewNoOpEncryptor creates a new no-operation encryptor.
func NewNoOpEncryptor() *NoOpEncryptor {
	return &NoOpEncryptor{}
}

// Encrypt returns "plain:" + base64(plaintext).
func (e *NoOpEncryptor) Encrypt(plaintext []byte) (string, error) {
	return envelopePlain + base64.StdEncoding.EncodeToString(plaintext), nil
}

// Decrypt reverses Encrypt. AES envelopes are rejected so a key removal starts fresh sessions.
func (e *NoOpEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	payload, ok := strings.CutPrefix(ciphertext, envelopePlain)
	if !ok {
		return nil, ErrUnsupportedFormat
	}
	return base64.StdEncoding.DecodeString(payload)
}

// EncryptString encrypts a string.
func (e *NoOpEncryptor) EncryptString(plaintext string) (string, error) {
	return e.Encrypt([]byte(plaintext))
}

// DecryptString decrypts to a string.
func (e *NoOpEncryptor) DecryptString(ciphertext string) (string, error) {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
