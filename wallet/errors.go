// Package wallet defines the shared error taxonomy for the recovery kit.
// Every failure that crosses a package boundary is one of these typed values
// so callers can branch on kind (for example, falling back from automatic to
// password recovery) instead of string-matching messages.
package wallet

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a programming or setup defect: missing relying
// party configuration, an invalid derived-key length, or an impossible
// combination of session strategies. It is never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError builds a ConfigurationError for the given field.
func NewConfigurationError(field, message string) error {
	return &ConfigurationError{Field: field, Message: message}
}

// CapabilityUnavailableError reports that an optional platform capability
// (the passkey bridge, or the native crypto subsystem) could not be resolved
// or does not expose the requested operation. Err carries the discovery
// failure when resolution itself failed. Recovery is only possible by
// choosing a different method; the kit never retries capability resolution.
type CapabilityUnavailableError struct {
	Capability string
	Operation  string
	Err        error
}

func (e *CapabilityUnavailableError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("capability %q unavailable: %v", e.Capability, e.Err)
	case e.Operation != "":
		return fmt.Sprintf("capability %q unavailable: operation %q not supported", e.Capability, e.Operation)
	default:
		return fmt.Sprintf("capability %q unavailable", e.Capability)
	}
}

func (e *CapabilityUnavailableError) Unwrap() error {
	return e.Err
}

// PasskeyUnsupportedError reports that the authenticator completed a ceremony
// but did not return a PRF extension result. Distinct from bridge
// unavailability: the ceremony itself succeeded.
type PasskeyUnsupportedError struct {
	Reason string
}

func (e *PasskeyUnsupportedError) Error() string {
	return fmt.Sprintf("passkey does not support PRF key derivation: %s", e.Reason)
}

// UnsupportedEncodingError reports a PRF result (or credential field) in a
// shape the binary codec does not recognize. This indicates a defect in the
// bridge or platform and is surfaced verbatim.
type UnsupportedEncodingError struct {
	Value interface{}
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported binary encoding: %T", e.Value)
}

// ErrKeyNotExtractable is returned when export is requested for a key handle
// that was derived non-extractable. Programming error on the caller's side.
var ErrKeyNotExtractable = errors.New("key handle is not extractable")

// WalletError reports a failed encryption-session acquisition. Status carries
// the HTTP status when the endpoint path failed; Err carries the underlying
// cause when a callback or transport failed. A caller may retry the whole
// recovery attempt with a fresh challenge.
type WalletError struct {
	Status  int
	Message string
	Err     error
}

func (e *WalletError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("wallet recovery failed (status %d): %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("wallet recovery failed with status %d", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("wallet recovery failed: %s: %v", e.Message, e.Err)
	default:
		return fmt.Sprintf("wallet recovery failed: %s", e.Message)
	}
}

func (e *WalletError) Unwrap() error {
	return e.Err
}
