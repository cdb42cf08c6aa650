// Package sessioncipher encrypts MTProto session payloads before they reach
// the database. Keys are derived per license, so a leaked row from one tenant
// never decrypts another tenant's session.
package sessioncipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

type Cipher struct {
	masterKey []byte
}

func New(masterKey []byte) (*Cipher, error) {
	if len(masterKey) == 0 {
		return nil, errors.New("empty master key")
	}
	return &Cipher{masterKey: masterKey}, nil
}

// deriveKey derives a 32-byte AES key for one license using HKDF-SHA256.
func (c *Cipher) deriveKey(licenseID int64) ([]byte, error) {
	info := fmt.Sprintf("telegram-session:%d", licenseID)
	h := hkdf.New(sha256.New, c.masterKey, nil, []byte(info))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM under the license key.
// Output layout: nonce || ciphertext.
func (c *Cipher) Encrypt(licenseID int64, plaintext []byte) ([]byte, error) {
	aead, err := c.aead(licenseID)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt for the same license.
func (c *Cipher) Decrypt(licenseID int64, data []byte) ([]byte, error) {
	aead, err := c.aead(licenseID)
	if err != nil {
		return nil, err
	}

	if len(data) < aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return plaintext, nil
}

func (c *Cipher) aead(licenseID int64) (cipher.AEAD, error) {
	key, err := c.deriveKey(licenseID)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
