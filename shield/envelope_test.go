package shield

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfort-xyz/recoverykit/wallet"
)

func TestSealOpenRoundTrip(t *testing.T) {
	for _, keyLen := range []int{16, 24, 32} {
		key := bytes.Repeat([]byte{0x5a}, keyLen)
		share := []byte("wallet recovery share material")

		sealed, err := SealShare(share, key)
		require.NoError(t, err)
		assert.NotEqual(t, share, sealed)

		opened, err := OpenShare(sealed, key)
		require.NoError(t, err)
		assert.Equal(t, share, opened)
	}
}

func TestSealProducesFreshNonces(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	first, err := SealShare([]byte("share"), key)
	require.NoError(t, err)
	second, err := SealShare([]byte("share"), key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	other := bytes.Repeat([]byte{2}, 32)

	sealed, err := SealShare([]byte("share"), key)
	require.NoError(t, err)

	_, err = OpenShare(sealed, other)
	assert.Error(t, err)
}

func TestInvalidKeyLengthRejected(t *testing.T) {
	var cfgErr *wallet.ConfigurationError

	_, err := SealShare([]byte("x"), []byte("short"))
	assert.ErrorAs(t, err, &cfgErr)

	_, err = OpenShare([]byte("payload"), bytes.Repeat([]byte{1}, 20))
	assert.ErrorAs(t, err, &cfgErr)
}

func TestOpenShortPayload(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	_, err := OpenShare([]byte{1, 2, 3}, key)
	assert.Error(t, err)
}

func TestDeriveServiceKey(t *testing.T) {
	master := []byte("master-secret")

	totpKey, err := DeriveServiceKey(master, TOTPEncryptionContext)
	require.NoError(t, err)
	assert.Len(t, totpKey, 32)

	sessionKey, err := DeriveServiceKey(master, SessionTokenContext)
	require.NoError(t, err)
	assert.NotEqual(t, totpKey, sessionKey)

	// Deterministic for the same master and context.
	again, err := DeriveServiceKey(master, TOTPEncryptionContext)
	require.NoError(t, err)
	assert.Equal(t, totpKey, again)
}

func TestDeriveServiceKeyEmptyMaster(t *testing.T) {
	_, err := DeriveServiceKey(nil, TOTPEncryptionContext)
	assert.Error(t, err)
}
