// Package shield seals and opens wallet recovery shares. A share is encrypted
// under key material derived from the PRF ceremony (or a password path) with
// AES-GCM; service-side secrets are derived from the master secret with
// HKDF domain separation.
package shield

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/openfort-xyz/recoverykit/prfkey"
)

// Domain-separation contexts for service-side key derivation.
const (
	TOTPEncryptionContext = "RECOVERYKIT_TOTP_ENCRYPTION"
	SessionTokenContext   = "RECOVERYKIT_SESSION_TOKEN"
)

// SealShare encrypts a recovery share under a derived key. The key must
// already be sized by the prfkey truncate-or-zero-pad policy; this is the
// consumer side of that contract, so the same bytes that sealed a share are
// the only bytes that open it.
func SealShare(share, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, share, nil), nil
}

// OpenShare decrypts a SealShare payload. A wrong key fails authentication
// here rather than yielding garbage plaintext.
func OpenShare(payload, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonceSize := aead.NonceSize()
	if len(payload) < nonceSize {
		return nil, fmt.Errorf("share payload too short")
	}
	share, err := aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open share: %w", err)
	}
	return share, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if err := prfkey.ValidateKeyLength(len(key)); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

// DeriveServiceKey derives a 32-byte service-side key from the master secret
// with HKDF-SHA256 under the given context. Distinct contexts yield
// cryptographically independent keys.
func DeriveServiceKey(master []byte, context string) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("master secret cannot be empty")
	}
	reader := hkdf.New(sha256.New, master, nil, []byte(context))
	key := make([]byte, 32)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive service key: %w", err)
	}
	return key, nil
}
