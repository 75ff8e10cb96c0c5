package loader

import (
	"bytes"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	PBKDF2Iterations = 100000
	saltLength       = 16
)

// sealMagic starts every encrypted source.
var sealMagic = []byte("D2SX")

// ErrDecrypt is returned when an encrypted source does not open with the
// given password.
var ErrDecrypt = errors.New("decryption failed (wrong password?)")

// DeriveKey uses PBKDF2 to stretch a password to a ChaCha20-Poly1305 key.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	return pbkdf2.Key(sha256.New, password, salt, PBKDF2Iterations, chacha20poly1305.KeySize)
}

// Seal encrypts data for use as an encrypted source. The layout is
// magic | salt | nonce | ciphertext.
func Seal(data []byte, password string) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealMagic)+saltLength+len(nonce)+len(data)+aead.Overhead())
	out = append(out, sealMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, sealMagic), nil
}

// Open reverses Seal.
func Open(data []byte, password string) ([]byte, error) {
	header := len(sealMagic) + saltLength + chacha20poly1305.NonceSize
	if len(data) < header+chacha20poly1305.Overhead || !bytes.HasPrefix(data, sealMagic) {
		return nil, fmt.Errorf("%w: not an encrypted source", ErrSource)
	}
	salt := data[len(sealMagic) : len(sealMagic)+saltLength]
	nonce := data[len(sealMagic)+saltLength : header]

	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, data[header:], sealMagic)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}
