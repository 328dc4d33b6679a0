// Package bridge discovers and wraps the optional platform passkey
// capability. Discovery happens at most once per process; a failed discovery
// is cached and never retried. The bridge presents one uniform,
// context-aware contract no matter how the underlying platform module shapes
// its create/get/isSupported surface.
package bridge

import (
	"context"
	"sync"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/openfort-xyz/recoverykit/wallet"
)

// CapabilityName identifies the passkey capability in errors.
const CapabilityName = "passkey-authenticator"

// PRFValues carries the PRF extension output of a ceremony. First is left
// untyped because bridges disagree on its binary encoding (base64url text,
// raw buffer, typed view, or numeric array); codec.NormalizeToBytes resolves
// it to the canonical form.
type PRFValues struct {
	First  interface{} `json:"first,omitempty"`
	Second interface{} `json:"second,omitempty"`
}

// PRFResults mirrors the prf member of clientExtensionResults.
type PRFResults struct {
	Enabled bool      `json:"enabled,omitempty"`
	Results PRFValues `json:"results"`
}

// ExtensionResults is the subset of clientExtensionResults this kit reads.
type ExtensionResults struct {
	PRF *PRFResults `json:"prf,omitempty"`
}

// CredentialResult is the platform's response to a create ceremony. Beyond
// the fields the kit needs it is treated as opaque.
type CredentialResult struct {
	ID                     string           `json:"id"`
	DisplayName            string           `json:"displayName,omitempty"`
	ClientExtensionResults ExtensionResults `json:"clientExtensionResults"`
}

// AssertionResult is the platform's response to a get (assertion) ceremony.
type AssertionResult struct {
	ID                     string           `json:"id"`
	UserHandle             string           `json:"userHandle,omitempty"`
	ClientExtensionResults ExtensionResults `json:"clientExtensionResults"`
}

// Module is the raw shape a platform passkey module may register. Any field
// may be nil; IsSupported may be a plain bool, a func() bool, or a
// func() (bool, error), depending on the bridge generation that produced it.
type Module struct {
	Create      func(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*CredentialResult, error)
	Get         func(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*AssertionResult, error)
	IsSupported interface{}
}

// ResolverFunc locates the platform module. It runs at most once per Bridge;
// returning an error or a nil module marks the capability absent for the
// process lifetime.
type ResolverFunc func() (*Module, error)

// Bridge is the once-resolved handle to the platform passkey capability.
// Construct with New and inject it where ceremonies are run; tests substitute
// a resolver returning a fake Module.
type Bridge struct {
	resolver ResolverFunc

	once   sync.Once
	module *Module
	err    error
}

// New creates a Bridge that will resolve the capability through the given
// resolver on first use.
func New(resolver ResolverFunc) *Bridge {
	return &Bridge{resolver: resolver}
}

// resolve performs the one-time discovery. Concurrent callers issued before
// the first resolution completes all wait on the same in-flight attempt.
func (b *Bridge) resolve() (*Module, error) {
	b.once.Do(func() {
		if b.resolver == nil {
			b.err = &wallet.CapabilityUnavailableError{Capability: CapabilityName}
			return
		}
		module, err := b.resolver()
		if err != nil {
			b.err = &wallet.CapabilityUnavailableError{Capability: CapabilityName, Err: err}
			return
		}
		if module == nil {
			b.err = &wallet.CapabilityUnavailableError{Capability: CapabilityName}
			return
		}
		b.module = module
	})
	return b.module, b.err
}

// IsSupported probes whether passkey ceremonies can run here. It never fails:
// an absent module, a resolver error, or a missing isSupported field all
// report false. No credential operation is performed.
func (b *Bridge) IsSupported() bool {
	module, err := b.resolve()
	if err != nil || module == nil {
		return false
	}
	switch probe := module.IsSupported.(type) {
	case bool:
		return probe
	case func() bool:
		return probe()
	case func() (bool, error):
		supported, err := probe()
		return err == nil && supported
	default:
		return false
	}
}

// Create forwards a credential-creation request to the platform verbatim.
func (b *Bridge) Create(ctx context.Context, options *protocol.PublicKeyCredentialCreationOptions) (*CredentialResult, error) {
	module, err := b.resolve()
	if err != nil {
		return nil, err
	}
	if module.Create == nil {
		return nil, &wallet.CapabilityUnavailableError{Capability: CapabilityName, Operation: "create"}
	}
	return module.Create(ctx, options)
}

// Get forwards an assertion request to the platform verbatim.
func (b *Bridge) Get(ctx context.Context, options *protocol.PublicKeyCredentialRequestOptions) (*AssertionResult, error) {
	module, err := b.resolve()
	if err != nil {
		return nil, err
	}
	if module.Get == nil {
		return nil, &wallet.CapabilityUnavailableError{Capability: CapabilityName, Operation: "get"}
	}
	return module.Get(ctx, options)
}

// Process-wide default bridge for embedders that register a single platform
// module at startup. Ceremony code still takes a *Bridge so tests can inject
// their own.
var (
	defaultMu     sync.Mutex
	defaultBridge *Bridge
)

// SetDefaultResolver installs the resolver backing the process-wide bridge.
// Call before the first Default(); later calls replace the bridge wholesale,
// including its cached resolution.
func SetDefaultResolver(resolver ResolverFunc) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultBridge = New(resolver)
}

// Default returns the process-wide bridge. Without a registered resolver it
// reports the capability as absent.
func Default() *Bridge {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBridge == nil {
		defaultBridge = New(nil)
	}
	return defaultBridge
}
