// Package cryptox provides the purpose-keyed symmetric encryption primitive
// used for CSRF token binding and refresh-token-at-rest protection.
//
// The construction is AES-256-CTR with a caller-supplied IV, so ciphertext
// length equals plaintext length and no authentication tag is produced.
// Successful decryption is NOT proof of integrity; callers that need
// tamper-evidence must add it at their own layer (the CSRF guard does this by
// comparing the decrypted value against the expected session id).
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

// Purpose names a static symmetric key. Each purpose has its own key so that
// a ciphertext produced for one use-case can never be replayed into another.
type Purpose string

const (
	// PurposeCSRF keys anti-forgery tokens bound to a session id.
	PurposeCSRF Purpose = "CSRF"
	// PurposeRefreshToken keys OAuth refresh tokens stored at rest.
	PurposeRefreshToken Purpose = "REFRESH_TOKEN"
)

const keySize = 32

// ErrBadIV is returned when the supplied IV is not exactly one AES block.
var ErrBadIV = errors.New("iv must be 16 bytes")

// Box holds the purpose-keyed secrets for the lifetime of the process.
// Keys are read-only after construction, so a single Box is safe for
// concurrent use across requests.
type Box struct {
	keys map[Purpose][]byte
}

// NewBox builds a Box from the two static keys. Both keys must be 32 bytes;
// anything else is a configuration error and fatal to startup.
func NewBox(csrfKey, refreshTokenKey []byte) (*Box, error) {
	if len(csrfKey) != keySize {
		return nil, fmt.Errorf("csrf key must be %d bytes, got %d", keySize, len(csrfKey))
	}
	if len(refreshTokenKey) != keySize {
		return nil, fmt.Errorf("refresh token key must be %d bytes, got %d", keySize, len(refreshTokenKey))
	}
	return &Box{keys: map[Purpose][]byte{
		PurposeCSRF:         csrfKey,
		PurposeRefreshToken: refreshTokenKey,
	}}, nil
}

// key resolves a purpose to its secret. An unknown purpose is a programming
// error, not a recoverable condition.
func (b *Box) key(p Purpose) []byte {
	k, ok := b.keys[p]
	if !ok {
		panic(fmt.Sprintf("cryptox: unknown purpose %q", p))
	}
	return k
}

// Encrypt encrypts plaintext under the named purpose key and returns the
// ciphertext base64-encoded. The IV must be 16 bytes of cryptographically
// secure randomness and must never be reused with the same purpose for a
// different plaintext; CTR-mode IV reuse breaks confidentiality.
func (b *Box) Encrypt(iv []byte, p Purpose, plaintext []byte) (string, error) {
	stream, err := b.stream(iv, p)
	if err != nil {
		return "", err
	}
	out := make([]byte, len(plaintext))
	stream.XORKeyStream(out, plaintext)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. The same IV and purpose used for encryption must
// be supplied.
func (b *Box) Decrypt(iv []byte, p Purpose, ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	stream, err := b.stream(iv, p)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	stream.XORKeyStream(out, raw)
	return out, nil
}

func (b *Box) stream(iv []byte, p Purpose) (cipher.Stream, error) {
	if len(iv) != aes.BlockSize {
		return nil, ErrBadIV
	}
	block, err := aes.NewCipher(b.key(p))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return cipher.NewCTR(block, iv), nil
}
