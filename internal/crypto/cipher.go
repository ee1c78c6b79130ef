package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// keyLen — длина ключа для AES‑256 (в байтах).
const keyLen = 32

var (
	ErrMissingKey = errors.New("encryption key is not configured")
	ErrInvalidKey = errors.New("encryption key must be 32 bytes (hex-encoded 64 chars, base64 44 chars, or raw 32 bytes)")
	// ErrDecryption — повреждённый blob или чужой ключ. Текст ошибки не содержит данных.
	ErrDecryption = errors.New("decrypt failed: invalid key or corrupted data")
)

// EnvelopeCipher шифрует значения секретов одним ключом сервиса (AES‑256‑GCM).
// Формат blob: nonce || ciphertext || tag.
type EnvelopeCipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// NewEnvelopeCipher создаёт шифр из внешне заданного ключа. Пустой ключ — ошибка:
// сгенерированный при старте ключ сделал бы прежние шифртексты нечитаемыми.
func NewEnvelopeCipher(key string) (*EnvelopeCipher, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	keyBytes, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &EnvelopeCipher{aead: gcm, rand: rand.Reader}, nil
}

// Encrypt шифрует plain со свежим случайным nonce.
func (c *EnvelopeCipher) Encrypt(plain []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt расшифровывает blob, полученный из Encrypt.
func (c *EnvelopeCipher) Decrypt(blob []byte) ([]byte, error) {
	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize+c.aead.Overhead() {
		return nil, ErrDecryption
	}
	plain, err := c.aead.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plain, nil
}

// ParseKey converts the configured key to 32 raw bytes.
// Accepts: hex-encoded (64 chars), base64-encoded (44 chars), or raw 32 bytes.
func ParseKey(input string) ([]byte, error) {
	if len(input) == 2*keyLen {
		if b, err := hex.DecodeString(input); err == nil {
			return b, nil
		}
	}
	if len(input) == 44 && strings.HasSuffix(input, "=") {
		if b, err := base64.StdEncoding.DecodeString(input); err == nil && len(b) == keyLen {
			return b, nil
		}
		if b, err := base64.URLEncoding.DecodeString(input); err == nil && len(b) == keyLen {
			return b, nil
		}
	}
	if len(input) == keyLen {
		return []byte(input), nil
	}
	return nil, ErrInvalidKey
}
