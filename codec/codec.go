// Package codec provides the binary encoding utilities shared by the passkey
// ceremony and key-derivation layers: base64url round-tripping, challenge
// generation, and normalization of PRF results that arrive from different
// authenticator bridges in different binary shapes.
package codec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math"
	"strings"

	"github.com/openfort-xyz/recoverykit/wallet"
)

// ChallengeSize is the length in bytes of every WebAuthn challenge this kit
// generates. Challenges are fresh per ceremony and never persisted.
const ChallengeSize = 32

// EncodeBase64URL encodes bytes as base64url without padding, the wire format
// WebAuthn requires for binary fields.
func EncodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeBase64URL decodes base64url text. Padding characters are tolerated on
// input even though EncodeBase64URL never emits them.
func DecodeBase64URL(encoded string) ([]byte, error) {
	trimmed := strings.TrimRight(encoded, "=")
	decoded, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64url: %w", err)
	}
	return decoded, nil
}

// GenerateChallenge returns a fresh 32-byte challenge from the platform CSPRNG.
func GenerateChallenge() ([]byte, error) {
	challenge := make([]byte, ChallengeSize)
	if _, err := rand.Read(challenge); err != nil {
		return nil, fmt.Errorf("failed to generate challenge: %w", err)
	}
	return challenge, nil
}

// ByteView is a typed view over a backing buffer, the shape some bridges use
// to return PRF output without copying.
type ByteView struct {
	Buffer []byte
	Offset int
	Length int
}

// NormalizeToBytes converts any of the binary shapes an authenticator bridge
// may hand back into a canonical byte slice:
//
//   - base64url text (padding tolerated)
//   - a raw byte buffer
//   - a ByteView (offset/length over a backing buffer)
//   - an indexable numeric sequence ([]int, []float64, or []interface{} of
//     numbers, as produced by generic JSON decoding)
//
// Every other shape fails with an UnsupportedEncodingError. All downstream
// key-derivation logic operates exclusively on the canonical form.
func NormalizeToBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, &wallet.UnsupportedEncodingError{Value: value}
	case []byte:
		out := make([]byte, len(v))
		copy(out, v)
		return out, nil
	case string:
		return DecodeBase64URL(v)
	case ByteView:
		return normalizeView(v)
	case *ByteView:
		if v == nil {
			return nil, &wallet.UnsupportedEncodingError{Value: value}
		}
		return normalizeView(*v)
	case []int:
		out := make([]byte, len(v))
		for i, n := range v {
			if n < 0 || n > math.MaxUint8 {
				return nil, &wallet.UnsupportedEncodingError{Value: value}
			}
			out[i] = byte(n)
		}
		return out, nil
	case []float64:
		return normalizeFloats(v)
	case []interface{}:
		floats := make([]float64, len(v))
		for i, elem := range v {
			f, ok := elem.(float64)
			if !ok {
				return nil, &wallet.UnsupportedEncodingError{Value: value}
			}
			floats[i] = f
		}
		return normalizeFloats(floats)
	default:
		return nil, &wallet.UnsupportedEncodingError{Value: value}
	}
}

func normalizeView(view ByteView) ([]byte, error) {
	if view.Offset < 0 || view.Length < 0 || view.Offset+view.Length > len(view.Buffer) {
		return nil, fmt.Errorf("byte view out of range: offset=%d length=%d buffer=%d",
			view.Offset, view.Length, len(view.Buffer))
	}
	out := make([]byte, view.Length)
	copy(out, view.Buffer[view.Offset:view.Offset+view.Length])
	return out, nil
}

func normalizeFloats(values []float64) ([]byte, error) {
	out := make([]byte, len(values))
	for i, f := range values {
		if f != math.Trunc(f) || f < 0 || f > math.MaxUint8 {
			return nil, &wallet.UnsupportedEncodingError{Value: values}
		}
		out[i] = byte(f)
	}
	return out, nil
}

// ReencodeCredentialID translates a credential identifier from standard
// base64 to base64url when needed. Upstream identity services store ids in
// standard base64 while the platform authenticator API requires base64url;
// that wire-format mismatch is handled here, not by callers.
func ReencodeCredentialID(id string) (string, error) {
	if !strings.ContainsAny(id, "+/") {
		return id, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(padBase64(id))
	if err != nil {
		return "", fmt.Errorf("failed to decode credential id as standard base64: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(decoded), nil
}

// padBase64 restores the padding standard base64 decoding requires.
func padBase64(s string) string {
	if rem := len(s) % 4; rem != 0 {
		return s + strings.Repeat("=", 4-rem)
	}
	return s
}
