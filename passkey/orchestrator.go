// Package passkey runs the two PRF-bearing WebAuthn ceremonies, Create and
// Recover, against an authenticator bridge. Both follow the same shape:
// build a fresh challenge, build the WebAuthn-shaped request with the PRF
// eval seed, invoke the bridge, validate the PRF extension result, normalize
// it, and hand it to the key-derivation engine.
package passkey

import (
	"context"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"

	"github.com/openfort-xyz/recoverykit/bridge"
	"github.com/openfort-xyz/recoverykit/codec"
	"github.com/openfort-xyz/recoverykit/prfkey"
	"github.com/openfort-xyz/recoverykit/wallet"
)

// DefaultTimeout is forwarded into the WebAuthn request for the bridge to
// honor. The kit itself does not race a local timer against the ceremony.
const DefaultTimeout = 60 * time.Second

// Config holds the relying-party configuration shared by all ceremonies.
type Config struct {
	// RPID is the relying party identifier. Required for every ceremony.
	RPID string

	// RPName is the relying party display name. Required for Create.
	RPName string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

func (c Config) timeoutMillis() int {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return int(timeout / time.Millisecond)
}

// Orchestrator drives passkey ceremonies through an injected bridge and
// derivation engine.
type Orchestrator struct {
	cfg    Config
	bridge *bridge.Bridge
	engine *prfkey.Engine
}

// New creates an orchestrator. The bridge and engine are injected so tests
// can substitute fakes.
func New(cfg Config, b *bridge.Bridge, engine *prfkey.Engine) *Orchestrator {
	return &Orchestrator{cfg: cfg, bridge: b, engine: engine}
}

// CreateRequest describes a new-passkey ceremony.
type CreateRequest struct {
	UserID          string
	UserName        string
	UserDisplayName string

	// Seed is the application-supplied PRF evaluation input. The same seed
	// must be presented on every later Recover against this credential.
	Seed string
}

// RecoverRequest describes an assertion ceremony against an existing passkey.
type RecoverRequest struct {
	// CredentialID may arrive in standard base64 from an upstream identity
	// service; it is re-encoded to base64url before reaching the bridge.
	CredentialID string

	Seed string
}

// Result carries the ceremony outcome: the credential identifier and the
// normalized PRF output, plus accessors for the two key-material paths.
type Result struct {
	CredentialID string
	DisplayName  string

	prf    []byte
	engine *prfkey.Engine
}

// Exported is the JSON-transport-friendly representation of a Result.
type Exported struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Key         string `json:"key,omitempty"`
}

// RawKey sizes the PRF output to the engine's key length and returns the raw
// bytes. This path works with or without native crypto.
func (r *Result) RawKey() ([]byte, error) {
	return r.engine.RawKeyBytes(r.prf)
}

// KeyHandle imports the PRF output as a native key handle. Only valid when
// the engine reports native crypto.
func (r *Result) KeyHandle(extractable bool) (prfkey.KeyHandle, error) {
	return r.engine.DeriveKeyHandle(r.prf, extractable)
}

// Export returns the result with the derived key as base64url text, suitable
// for crossing a serialization boundary.
func (r *Result) Export() (*Exported, error) {
	raw, err := r.RawKey()
	if err != nil {
		return nil, err
	}
	return &Exported{
		ID:          r.CredentialID,
		DisplayName: r.DisplayName,
		Key:         codec.EncodeBase64URL(raw),
	}, nil
}

// Create registers a new PRF-capable passkey and derives key material from
// its PRF output. Requires RPID and RPName.
func (o *Orchestrator) Create(ctx context.Context, req CreateRequest) (*Result, error) {
	if o.cfg.RPID == "" {
		return nil, wallet.NewConfigurationError("rpId", "relying party id is required")
	}
	if o.cfg.RPName == "" {
		return nil, wallet.NewConfigurationError("rpName", "relying party name is required")
	}
	if req.UserID == "" {
		return nil, wallet.NewConfigurationError("userId", "user id is required")
	}

	challenge, err := codec.GenerateChallenge()
	if err != nil {
		return nil, err
	}

	options := &protocol.PublicKeyCredentialCreationOptions{
		Challenge: protocol.URLEncodedBase64(challenge),
		RelyingParty: protocol.RelyingPartyEntity{
			CredentialEntity: protocol.CredentialEntity{Name: o.cfg.RPName},
			ID:               o.cfg.RPID,
		},
		User: protocol.UserEntity{
			CredentialEntity: protocol.CredentialEntity{Name: req.UserName},
			DisplayName:      req.UserDisplayName,
			ID:               protocol.URLEncodedBase64(req.UserID),
		},
		Parameters: []protocol.CredentialParameter{
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
			{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
		},
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementRequired,
			UserVerification: protocol.VerificationRequired,
		},
		CredentialExcludeList: []protocol.CredentialDescriptor{},
		Extensions:            prfExtension(req.Seed),
		Timeout:               o.cfg.timeoutMillis(),
		Attestation:           protocol.PreferNoAttestation,
	}

	credential, err := o.bridge.Create(ctx, options)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, fmt.Errorf("bridge returned no credential")
	}

	prf, err := extractPRF(credential.ClientExtensionResults)
	if err != nil {
		return nil, err
	}

	return &Result{
		CredentialID: credential.ID,
		DisplayName:  credential.DisplayName,
		prf:          prf,
		engine:       o.engine,
	}, nil
}

// Recover runs an assertion against an existing passkey and re-derives the
// key material from its PRF output. Requires RPID only.
func (o *Orchestrator) Recover(ctx context.Context, req RecoverRequest) (*Result, error) {
	if o.cfg.RPID == "" {
		return nil, wallet.NewConfigurationError("rpId", "relying party id is required")
	}
	if req.CredentialID == "" {
		return nil, wallet.NewConfigurationError("credentialId", "credential id is required")
	}

	credentialID, err := codec.ReencodeCredentialID(req.CredentialID)
	if err != nil {
		return nil, err
	}
	credentialIDBytes, err := codec.DecodeBase64URL(credentialID)
	if err != nil {
		return nil, fmt.Errorf("invalid credential id: %w", err)
	}

	challenge, err := codec.GenerateChallenge()
	if err != nil {
		return nil, err
	}

	options := &protocol.PublicKeyCredentialRequestOptions{
		Challenge:      protocol.URLEncodedBase64(challenge),
		RelyingPartyID: o.cfg.RPID,
		AllowedCredentials: []protocol.CredentialDescriptor{
			{Type: protocol.PublicKeyCredentialType, CredentialID: protocol.URLEncodedBase64(credentialIDBytes)},
		},
		UserVerification: protocol.VerificationRequired,
		Extensions:       prfExtension(req.Seed),
		Timeout:          o.cfg.timeoutMillis(),
	}

	assertion, err := o.bridge.Get(ctx, options)
	if err != nil {
		return nil, err
	}
	if assertion == nil {
		return nil, fmt.Errorf("bridge returned no assertion")
	}

	prf, err := extractPRF(assertion.ClientExtensionResults)
	if err != nil {
		return nil, err
	}

	resultID := assertion.ID
	if resultID == "" {
		resultID = credentialID
	}

	return &Result{
		CredentialID: resultID,
		prf:          prf,
		engine:       o.engine,
	}, nil
}

// prfExtension builds the prf.eval.first extension input, base64url-encoding
// the application seed.
func prfExtension(seed string) protocol.AuthenticationExtensions {
	return protocol.AuthenticationExtensions{
		"prf": map[string]interface{}{
			"eval": map[string]interface{}{
				"first": codec.EncodeBase64URL([]byte(seed)),
			},
		},
	}
}

// extractPRF validates the presence of clientExtensionResults.prf.results.first
// and normalizes it. A missing or empty PRF result means the authenticator
// completed the ceremony without PRF support, which is a
// PasskeyUnsupportedError rather than a bridge failure.
func extractPRF(results bridge.ExtensionResults) ([]byte, error) {
	if results.PRF == nil || results.PRF.Results.First == nil {
		return nil, &wallet.PasskeyUnsupportedError{Reason: "authenticator returned no PRF extension result"}
	}
	prf, err := codec.NormalizeToBytes(results.PRF.Results.First)
	if err != nil {
		return nil, err
	}
	if len(prf) == 0 {
		return nil, &wallet.PasskeyUnsupportedError{Reason: "authenticator returned an empty PRF extension result"}
	}
	return prf, nil
}
