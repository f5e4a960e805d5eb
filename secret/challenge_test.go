package secret

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestIsDeterministicPerKeyAndNonce(t *testing.T) {
	serverSecret := []byte("shared-secret")
	nonce, err := NewNonce()
	require.NoError(t, err)

	d1, err := Digest(serverSecret, 42, nonce)
	require.NoError(t, err)
	d2, err := Digest(serverSecret, 42, nonce)
	require.NoError(t, err)
	require.True(t, Equal(d1, d2))

	d3, err := Digest(serverSecret, 43, nonce)
	require.NoError(t, err)
	require.False(t, Equal(d1, d3))
}

func TestDigestDependsOnSecret(t *testing.T) {
	nonce, err := NewNonce()
	require.NoError(t, err)

	d1, err := Digest([]byte("secret-a"), 1, nonce)
	require.NoError(t, err)
	d2, err := Digest([]byte("secret-b"), 1, nonce)
	require.NoError(t, err)

	require.False(t, Equal(d1, d2))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	nonce, err := NewNonce()
	require.NoError(t, err)
	digest, err := Digest([]byte("secret"), 7, nonce)
	require.NoError(t, err)

	decoded, err := DecodeResponse(EncodeDigest(digest))
	require.NoError(t, err)
	require.True(t, Equal(digest, decoded))
}

func TestEqualRejectsDifferentLengths(t *testing.T) {
	require.False(t, Equal([]byte{1, 2, 3}, []byte{1, 2}))
}
