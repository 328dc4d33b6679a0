package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfort-xyz/recoverykit/wallet"
)

func TestNewRejectsBothSessionStrategies(t *testing.T) {
	_, err := New(Config{
		GetEncryptionSession: func(context.Context, SessionRequest) (string, error) {
			return "session", nil
		},
		CreateEncryptedSessionEndpoint: "https://example.com/session",
	})
	var cfgErr *wallet.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "encryptionSession", cfgErr.Field)
}

func TestResolveStrategySelection(t *testing.T) {
	resolver, err := New(Config{
		GetEncryptionSession: func(context.Context, SessionRequest) (string, error) {
			return "session-token", nil
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     Request
		want    *Params
		wantErr bool
	}{
		{
			name: "passkey with id",
			req:  Request{RecoveryMethod: MethodPasskey, PasskeyID: "cred-1"},
			want: &Params{Method: MethodPasskey, PasskeyInfo: &PasskeyInfo{PasskeyID: "cred-1"}},
		},
		{
			name: "passkey without id creates new",
			req:  Request{RecoveryMethod: MethodPasskey},
			want: &Params{Method: MethodPasskey},
		},
		{
			name: "explicit password method",
			req:  Request{RecoveryMethod: MethodPassword, RecoveryPassword: "hunter2"},
			want: &Params{Method: MethodPassword, Password: "hunter2"},
		},
		{
			name: "password present without method",
			req:  Request{RecoveryPassword: "hunter2"},
			want: &Params{Method: MethodPassword, Password: "hunter2"},
		},
		{
			name:    "password method with empty password",
			req:     Request{RecoveryMethod: MethodPassword},
			wantErr: true,
		},
		{
			name: "default is automatic",
			req:  Request{},
			want: &Params{Method: MethodAutomatic, EncryptionSession: "session-token"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params, err := resolver.Resolve(context.Background(), tc.req)
			if tc.wantErr {
				var cfgErr *wallet.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, params)
		})
	}
}

func TestResolvePasskeyIgnoresSessionConfig(t *testing.T) {
	// Passkey selection must not touch session resolution at all.
	resolver, err := New(Config{
		GetEncryptionSession: func(context.Context, SessionRequest) (string, error) {
			t.Fatal("session callback must not run for passkey recovery")
			return "", nil
		},
	})
	require.NoError(t, err)

	params, err := resolver.Resolve(context.Background(), Request{RecoveryMethod: MethodPasskey, PasskeyID: "x"})
	require.NoError(t, err)
	assert.Equal(t, MethodPasskey, params.Method)
}

func TestAutomaticWithoutStrategyFails(t *testing.T) {
	resolver, err := New(Config{})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), Request{})
	var cfgErr *wallet.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "encryptionSession", cfgErr.Field)

	// Password recovery still works without any session strategy.
	params, err := resolver.Resolve(context.Background(), Request{RecoveryPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, MethodPassword, params.Method)
}

func TestSessionCallbackForwardsParameters(t *testing.T) {
	var seen SessionRequest
	resolver, err := New(Config{
		GetEncryptionSession: func(_ context.Context, req SessionRequest) (string, error) {
			seen = req
			return "cb-session", nil
		},
	})
	require.NoError(t, err)

	params, err := resolver.Resolve(context.Background(), Request{OTPCode: "123456", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "cb-session", params.EncryptionSession)
	assert.Equal(t, SessionRequest{OTPCode: "123456", UserID: "user-1"}, seen)
}

func TestSessionCallbackFailure(t *testing.T) {
	cause := errors.New("identity provider down")
	resolver, err := New(Config{
		GetEncryptionSession: func(context.Context, SessionRequest) (string, error) {
			return "", cause
		},
	})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), Request{})
	var walletErr *wallet.WalletError
	require.ErrorAs(t, err, &walletErr)
	assert.ErrorIs(t, err, cause)
}

func TestSessionCallbackEmptySession(t *testing.T) {
	resolver, err := New(Config{
		GetEncryptionSession: func(context.Context, SessionRequest) (string, error) {
			return "", nil
		},
	})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), Request{})
	var walletErr *wallet.WalletError
	assert.ErrorAs(t, err, &walletErr)
}

func TestSessionEndpointSuccess(t *testing.T) {
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(payload, &body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"session": "endpoint-session"})
	}))
	defer server.Close()

	resolver, err := New(Config{CreateEncryptedSessionEndpoint: server.URL})
	require.NoError(t, err)

	params, err := resolver.Resolve(context.Background(), Request{OTPCode: "654321", UserID: "user-9"})
	require.NoError(t, err)
	assert.Equal(t, &Params{Method: MethodAutomatic, EncryptionSession: "endpoint-session"}, params)
	assert.Equal(t, "654321", body["otp_code"])
	assert.Equal(t, "user-9", body["user_id"])
}

func TestSessionEndpointOmitsEmptyParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(payload))
		json.NewEncoder(w).Encode(map[string]string{"session": "s"})
	}))
	defer server.Close()

	resolver, err := New(Config{CreateEncryptedSessionEndpoint: server.URL})
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), Request{})
	require.NoError(t, err)
}

func TestSessionEndpointErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", status)
		}))

		resolver, err := New(Config{CreateEncryptedSessionEndpoint: server.URL})
		require.NoError(t, err)

		_, err = resolver.Resolve(context.Background(), Request{})
		server.Close()

		var walletErr *wallet.WalletError
		require.ErrorAs(t, err, &walletErr)
		assert.Equal(t, status, walletErr.Status)
	}
}

func TestSessionEndpointMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing session field", body: `{"token": "x"}`},
		{name: "empty session", body: `{"session": ""}`},
		{name: "non-string session", body: `{"session": 42}`},
		{name: "not json", body: `session=abc`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			}))
			defer server.Close()

			resolver, err := New(Config{CreateEncryptedSessionEndpoint: server.URL})
			require.NoError(t, err)

			_, err = resolver.Resolve(context.Background(), Request{})
			var walletErr *wallet.WalletError
			assert.ErrorAs(t, err, &walletErr)
		})
	}
}

func TestParamsJSONShape(t *testing.T) {
	params := &Params{
		Method:      MethodPasskey,
		PasskeyInfo: &PasskeyInfo{PasskeyID: "cred-1"},
	}
	out, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recoveryMethod":"passkey","passkeyInfo":{"passkeyId":"cred-1"}}`, string(out))

	params = &Params{Method: MethodAutomatic, EncryptionSession: "s"}
	out, err = json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"recoveryMethod":"automatic","encryptionSession":"s"}`, string(out))
}
