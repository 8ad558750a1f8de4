package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/thoreinstein/arx/internal/errors"
)

// Key derivation and cipher parameters. These are part of the archive
// format: changing them breaks reading existing encrypted archives.
const (
	// KeySize is the AES-256 key length.
	KeySize = 32

	// SaltSize is the per-archive random salt length.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag length.
	TagSize = 16

	// pbkdf2Iterations is deliberately high to slow brute-force attempts.
	pbkdf2Iterations = 200_000
)

// DeriveKey stretches a password into an AES-256 key with PBKDF2-SHA256.
// The salt must be random per archive and stored alongside the ciphertext.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, KeySize, sha256.New)
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, errors.Wrap(err, "generating salt")
	}
	return salt, nil
}

// NewNonce returns a fresh random nonce. With a fresh salt (and therefore a
// fresh key) per archive, nonce reuse across archives is not a concern.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}
	return nonce, nil
}

// Seal encrypts and authenticates plaintext with AES-256-GCM. The
// additional data is authenticated but not encrypted. Returns the
// ciphertext and the detached 16-byte tag.
func Seal(key, nonce, plaintext, additional []byte) (ciphertext, tag []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, additional)
	// GCM appends the tag to the ciphertext; split it off.
	split := len(sealed) - TagSize
	return sealed[:split], sealed[split:], nil
}

// Open authenticates and decrypts ciphertext produced by Seal. Any tag
// mismatch, wrong key, or altered additional data yields
// ErrAuthenticationFailed with no partial plaintext.
func Open(key, nonce, ciphertext, tag, additional []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, additional)
	if err != nil {
		return nil, errors.Wrap(errors.ErrAuthenticationFailed, err.Error())
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, errors.Newf("key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "creating GCM")
	}
	return aead, nil
}
