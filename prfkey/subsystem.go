package prfkey

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/openfort-xyz/recoverykit/wallet"
)

// Subsystem is a native symmetric-crypto capability able to hold imported
// keys. It mirrors the platform crypto subsystems some embeddings expose;
// when none is present, key material stays in raw-bytes form.
type Subsystem interface {
	// ImportAESKey imports raw bytes as an AES key. The extractable flag is
	// fixed at import time and cannot be widened later.
	ImportAESKey(raw []byte, extractable bool) (KeyHandle, error)
}

// KeyHandle is an opaque imported key. A non-extractable handle can perform
// decrypt operations but never reveals its bytes.
type KeyHandle interface {
	// Extractable reports whether Export is permitted.
	Extractable() bool

	// Export returns the raw key bytes, or ErrKeyNotExtractable.
	Export() ([]byte, error)

	// Seal encrypts plaintext under the key (AES-GCM, nonce prepended).
	Seal(plaintext []byte) ([]byte, error)

	// Open decrypts a Seal-formatted payload.
	Open(payload []byte) ([]byte, error)
}

// SubsystemProvider reports the currently available subsystem, or nil when
// native crypto is absent. Called on every probe, never cached.
type SubsystemProvider func() Subsystem

// DefaultSubsystemProvider exposes the built-in AES-GCM subsystem. Embeddings
// without native crypto install a provider returning nil instead.
func DefaultSubsystemProvider() Subsystem {
	return gcmSubsystem{}
}

// gcmSubsystem implements Subsystem on the standard AES-GCM primitives.
type gcmSubsystem struct{}

func (gcmSubsystem) ImportAESKey(raw []byte, extractable bool) (KeyHandle, error) {
	if err := ValidateKeyLength(len(raw)); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to import AES key: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	handle := &gcmKeyHandle{aead: aead, extractable: extractable}
	if extractable {
		handle.raw = make([]byte, len(raw))
		copy(handle.raw, raw)
	}
	return handle, nil
}

// gcmKeyHandle retains raw bytes only when imported extractable.
type gcmKeyHandle struct {
	aead        cipher.AEAD
	raw         []byte
	extractable bool
}

func (h *gcmKeyHandle) Extractable() bool {
	return h.extractable
}

func (h *gcmKeyHandle) Export() ([]byte, error) {
	if !h.extractable {
		return nil, wallet.ErrKeyNotExtractable
	}
	out := make([]byte, len(h.raw))
	copy(out, h.raw)
	return out, nil
}

func (h *gcmKeyHandle) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, h.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return h.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (h *gcmKeyHandle) Open(payload []byte) ([]byte, error) {
	nonceSize := h.aead.NonceSize()
	if len(payload) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	plaintext, err := h.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}
