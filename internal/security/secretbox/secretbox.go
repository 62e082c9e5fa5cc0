// Package secretbox cifra valores en reposo (secretos TOTP) con AES-256-GCM.
// Formato: base64(nonce)|base64(ciphertext). El nonce es aleatorio por valor.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSizeGCM      = 12  // 96 bits, recomendado para GCM
	requiredKeyLength = 32  // AES-256
	sep               = "|" // nonce|ciphertext (ambos en base64)
)

var (
	ErrBadKey        = errors.New("secretbox: key must be 32 bytes")
	ErrBadCiphertext = errors.New("secretbox: malformed ciphertext")
)

// Box cifra/descifra con una clave maestra inyectada en el arranque.
// No hay estado global: cada proceso arma su Box desde config.
type Box struct {
	key []byte
}

// New crea un Box. Acepta la clave en base64 estándar o raw de 32 bytes.
func New(key string) (*Box, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == requiredKeyLength {
		return &Box{key: b}, nil
	}
	if len(key) == requiredKeyLength {
		return &Box{key: []byte(key)}, nil
	}
	return nil, ErrBadKey
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func (b *Box) Encrypt(plainText string) (string, error) {
	aesgcm, err := b.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, nonceSizeGCM)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}
	ct := aesgcm.Seal(nil, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt deshace Encrypt. Falla si el ciphertext fue alterado (auth GCM).
func (b *Box) Decrypt(cipherText string) (string, error) {
	parts := strings.SplitN(cipherText, sep, 2)
	if len(parts) != 2 {
		return "", ErrBadCiphertext
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSizeGCM {
		return "", ErrBadCiphertext
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrBadCiphertext
	}
	aesgcm, err := b.gcm()
	if err != nil {
		return "", err
	}
	pt, err := aesgcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: open: %w", err)
	}
	return string(pt), nil
}

func (b *Box) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return cipher.NewGCM(block)
}
