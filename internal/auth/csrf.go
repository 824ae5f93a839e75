package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/chronicle-app/chronicle/internal/cryptox"
)

const csrfIVSize = 16

// CSRFGuard issues and verifies anti-forgery tokens bound to a session id.
// Binding to the session id rather than a server-side nonce store keeps the
// guard stateless: any process holding the shared CSRF purpose key can verify
// a token issued by any other process.
type CSRFGuard struct {
	box *cryptox.Box
}

// NewCSRFGuard creates a guard backed by the given crypto box.
func NewCSRFGuard(box *cryptox.Box) *CSRFGuard {
	return &CSRFGuard{box: box}
}

// Issue generates a token for the given session id: a fresh random 16-byte
// IV, the session id encrypted under the CSRF purpose key with that IV, and
// the pair encoded as base64(iv) + "|" + base64(ciphertext). A token is
// issued once per established session, not per request.
func (g *CSRFGuard) Issue(sessionID string) (string, error) {
	iv := make([]byte, csrfIVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}
	ciphertext, err := g.box.Encrypt(iv, cryptox.PurposeCSRF, []byte(sessionID))
	if err != nil {
		return "", fmt.Errorf("encrypting session id: %w", err)
	}
	return base64.StdEncoding.EncodeToString(iv) + "|" + ciphertext, nil
}

// Verify reports whether token was issued for sessionID. It fails closed:
// a missing delimiter, an IV that is not exactly 16 bytes, an undecodable
// ciphertext, or a decryption result that differs from the session id all
// yield false. No error ever crosses this boundary.
func (g *CSRFGuard) Verify(token, sessionID string) bool {
	encodedIV, ciphertext, ok := strings.Cut(token, "|")
	if !ok || encodedIV == "" || ciphertext == "" {
		return false
	}
	iv, err := base64.StdEncoding.DecodeString(encodedIV)
	if err != nil || len(iv) != csrfIVSize {
		return false
	}
	plaintext, err := g.box.Decrypt(iv, cryptox.PurposeCSRF, ciphertext)
	if err != nil {
		return false
	}
	return string(plaintext) == sessionID
}
