// Package recovery selects a wallet-recovery strategy and builds the
// parameter set the downstream recovery consumer needs. It is pure decision
// logic with a single side effect: resolving an encryption session through a
// caller-supplied callback or an HTTP endpoint.
package recovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openfort-xyz/recoverykit/wallet"
)

// Method tags a recovery parameter set.
type Method string

const (
	MethodAutomatic Method = "automatic"
	MethodPassword  Method = "password"
	MethodPasskey   Method = "passkey"
)

// PasskeyInfo identifies an existing passkey-protected recovery share.
type PasskeyInfo struct {
	PasskeyID string `json:"passkeyId"`
}

// Params is the tagged recovery parameter set handed to the wallet-recovery
// consumer. Built fresh per recovery attempt; never cached.
type Params struct {
	Method            Method       `json:"recoveryMethod"`
	Password          string       `json:"password,omitempty"`
	EncryptionSession string       `json:"encryptionSession,omitempty"`
	PasskeyInfo       *PasskeyInfo `json:"passkeyInfo,omitempty"`
}

// SessionRequest carries the optional parameters forwarded into session
// resolution.
type SessionRequest struct {
	OTPCode string `json:"otp_code,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// SessionFunc is a caller-supplied encryption-session resolver.
type SessionFunc func(ctx context.Context, req SessionRequest) (string, error)

// Config is the provider-level wallet configuration. Exactly one of
// GetEncryptionSession and CreateEncryptedSessionEndpoint may be set;
// configuring both is rejected at construction.
type Config struct {
	GetEncryptionSession           SessionFunc
	CreateEncryptedSessionEndpoint string

	// HTTPClient overrides the default client for the endpoint path.
	HTTPClient *http.Client
}

// Request describes one recovery attempt.
type Request struct {
	RecoveryMethod   Method
	RecoveryPassword string
	PasskeyID        string
	OTPCode          string
	UserID           string
}

// Resolver builds recovery parameter sets from requests.
type Resolver struct {
	cfg    Config
	client *http.Client
}

// New creates a resolver, validating that the session strategies are not both
// configured.
func New(cfg Config) (*Resolver, error) {
	if cfg.GetEncryptionSession != nil && cfg.CreateEncryptedSessionEndpoint != "" {
		return nil, wallet.NewConfigurationError("encryptionSession",
			"getEncryptionSession and createEncryptedSessionEndpoint are mutually exclusive")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Resolver{cfg: cfg, client: client}, nil
}

// Resolve selects the recovery strategy for a request:
//
//  1. recoveryMethod == passkey: return Passkey params; an absent passkeyId
//     signals "create a new passkey during recovery". Key derivation itself
//     happens downstream through the passkey ceremonies.
//  2. recoveryMethod == password, or a recovery password is present: the
//     password must be non-empty.
//  3. Otherwise: resolve an encryption session via the configured callback
//     or endpoint and return Automatic params.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Params, error) {
	switch {
	case req.RecoveryMethod == MethodPasskey:
		params := &Params{Method: MethodPasskey}
		if req.PasskeyID != "" {
			params.PasskeyInfo = &PasskeyInfo{PasskeyID: req.PasskeyID}
		}
		return params, nil

	case req.RecoveryMethod == MethodPassword || req.RecoveryPassword != "":
		if req.RecoveryPassword == "" {
			return nil, wallet.NewConfigurationError("recoveryPassword",
				"password recovery requires a non-empty password")
		}
		return &Params{Method: MethodPassword, Password: req.RecoveryPassword}, nil

	default:
		session, err := r.resolveSession(ctx, SessionRequest{OTPCode: req.OTPCode, UserID: req.UserID})
		if err != nil {
			return nil, err
		}
		return &Params{Method: MethodAutomatic, EncryptionSession: session}, nil
	}
}

// resolveSession acquires an encryption session. The callback takes
// precedence; with neither strategy configured automatic recovery is a
// configuration error.
func (r *Resolver) resolveSession(ctx context.Context, req SessionRequest) (string, error) {
	if r.cfg.GetEncryptionSession != nil {
		session, err := r.cfg.GetEncryptionSession(ctx, req)
		if err != nil {
			return "", &wallet.WalletError{Message: "encryption session callback failed", Err: err}
		}
		if session == "" {
			return "", &wallet.WalletError{Message: "encryption session callback returned an empty session"}
		}
		return session, nil
	}

	if r.cfg.CreateEncryptedSessionEndpoint != "" {
		return r.fetchSession(ctx, req)
	}

	return "", wallet.NewConfigurationError("encryptionSession",
		"automatic recovery requires getEncryptionSession or createEncryptedSessionEndpoint")
}

// sessionResponse is the documented endpoint response body.
type sessionResponse struct {
	Session *string `json:"session"`
}

// fetchSession POSTs the session request to the configured endpoint. A
// non-2xx status, or a body without a string session field, fails with a
// WalletError carrying the status or a descriptive message.
func (r *Resolver) fetchSession(ctx context.Context, req SessionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", &wallet.WalletError{Message: "failed to encode session request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.CreateEncryptedSessionEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", &wallet.WalletError{Message: "failed to build session request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", &wallet.WalletError{Message: "session request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &wallet.WalletError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("session endpoint returned %s", resp.Status),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &wallet.WalletError{Message: "failed to read session response", Err: err}
	}

	var parsed sessionResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", &wallet.WalletError{Message: "failed to decode session response", Err: err}
	}
	if parsed.Session == nil || *parsed.Session == "" {
		return "", &wallet.WalletError{Message: "session response is missing a session field"}
	}

	return *parsed.Session, nil
}
