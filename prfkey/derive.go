// Package prfkey turns a normalized PRF extension result into symmetric key
// material. Depending on whether a native crypto subsystem is present, the
// result is either an opaque key handle or raw derived bytes; the two cases
// are explicit variants, never a nullable field.
package prfkey

import (
	"github.com/openfort-xyz/recoverykit/codec"
	"github.com/openfort-xyz/recoverykit/wallet"
)

// Valid derived-key lengths in bytes (AES-128/192/256).
const (
	KeyLength128 = 16
	KeyLength192 = 24
	KeyLength256 = 32

	// DefaultKeyLength is used when a caller does not configure one.
	DefaultKeyLength = KeyLength256
)

// ValidateKeyLength checks the derived-key length whitelist.
func ValidateKeyLength(length int) error {
	switch length {
	case KeyLength128, KeyLength192, KeyLength256:
		return nil
	default:
		return wallet.NewConfigurationError("keyLength", "derived key length must be 16, 24 or 32 bytes")
	}
}

// RawKeyBytes applies the deterministic key-sizing policy: a PRF result at
// least targetLength bytes long is truncated to its first targetLength bytes;
// a shorter one is zero-padded on the right. The wallet-recovery consumer
// applies the identical policy, so any deviation here decrypts to garbage
// rather than failing loudly.
func RawKeyBytes(prfResult []byte, targetLength int) ([]byte, error) {
	if err := ValidateKeyLength(targetLength); err != nil {
		return nil, err
	}
	key := make([]byte, targetLength)
	copy(key, prfResult)
	return key, nil
}

// Engine derives key material at a fixed target length. The subsystem
// provider is consulted on every call rather than cached: in embeddings
// composed of multiple contexts the native crypto capability can appear or
// disappear between calls.
type Engine struct {
	keyLength int
	provider  SubsystemProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithSubsystemProvider replaces the default native-crypto probe. Tests and
// constrained embeddings pass a provider returning nil to force the raw-bytes
// path.
func WithSubsystemProvider(provider SubsystemProvider) Option {
	return func(e *Engine) {
		e.provider = provider
	}
}

// NewEngine creates a derivation engine for the given target key length.
// Lengths outside {16, 24, 32} fail with a ConfigurationError before any
// bridge or network activity.
func NewEngine(keyLength int, opts ...Option) (*Engine, error) {
	if err := ValidateKeyLength(keyLength); err != nil {
		return nil, err
	}
	engine := &Engine{
		keyLength: keyLength,
		provider:  DefaultSubsystemProvider,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine, nil
}

// KeyLength returns the configured derived-key length in bytes.
func (e *Engine) KeyLength() int {
	return e.keyLength
}

// HasNativeCrypto probes for a native symmetric-crypto subsystem. This is a
// capability check, not a configuration flag, and is re-evaluated on every
// call.
func (e *Engine) HasNativeCrypto() bool {
	return e.provider() != nil
}

// RawKeyBytes sizes a PRF result to the engine's key length using the
// truncate-or-zero-pad policy.
func (e *Engine) RawKeyBytes(prfResult []byte) ([]byte, error) {
	return RawKeyBytes(prfResult, e.keyLength)
}

// DeriveKeyHandle imports the sized PRF result as a native AES key. Only
// valid when a native crypto subsystem is present; when it is absent callers
// must take the raw-bytes path instead. The engine never fabricates a handle
// over raw bytes. Non-extractable handles can decrypt but never export.
func (e *Engine) DeriveKeyHandle(prfResult []byte, extractable bool) (KeyHandle, error) {
	subsystem := e.provider()
	if subsystem == nil {
		return nil, &wallet.CapabilityUnavailableError{Capability: "native-crypto", Operation: "importKey"}
	}
	raw, err := e.RawKeyBytes(prfResult)
	if err != nil {
		return nil, err
	}
	return subsystem.ImportAESKey(raw, extractable)
}

// ExportKeyHandle extracts the raw key bytes from a handle. Fails with
// ErrKeyNotExtractable when the handle was derived non-extractable.
func (e *Engine) ExportKeyHandle(handle KeyHandle) ([]byte, error) {
	return handle.Export()
}

// Material is the two-variant derivation result: exactly one of Handle or
// Raw is set.
type Material struct {
	Handle KeyHandle
	Raw    []byte
}

// NewHandleMaterial wraps a native key handle.
func NewHandleMaterial(handle KeyHandle) *Material {
	return &Material{Handle: handle}
}

// NewRawMaterial wraps raw derived bytes.
func NewRawMaterial(raw []byte) *Material {
	return &Material{Raw: raw}
}

// IsNative reports whether the material is a native key handle.
func (m *Material) IsNative() bool {
	return m.Handle != nil
}

// Export returns the raw key bytes. For native material this requires an
// extractable handle.
func (m *Material) Export() ([]byte, error) {
	if m.Handle != nil {
		return m.Handle.Export()
	}
	return m.Raw, nil
}

// ExportBase64URL returns the raw key bytes base64url-encoded, the
// JSON-transport-friendly representation.
func (m *Material) ExportBase64URL() (string, error) {
	raw, err := m.Export()
	if err != nil {
		return "", err
	}
	return codec.EncodeBase64URL(raw), nil
}
