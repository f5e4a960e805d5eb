package secret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// NonceSize is the length, in bytes, of a challenge nonce.
const NonceSize = 16

// NewNonce returns a fresh random nonce for one challenge.
func NewNonce() ([]byte, error) {
	buf := make([]byte, NonceSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Digest computes the keyed digest a client must echo back to complete
// authentication: blake2b-256 keyed on the server secret, over the node
// key and the nonce. Node key bytes are included so two connections with
// the same nonce (astronomically unlikely, but not impossible under a
// re-rolled collision) still authenticate independently.
func Digest(serverSecret []byte, nodeKey uint16, nonce []byte) ([]byte, error) {
	h, err := blake2b.New256(serverSecret)
	if err != nil {
		return nil, fmt.Errorf("challenge: cannot construct keyed hash: %w", err)
	}

	var keyBuf [2]byte
	binary.BigEndian.PutUint16(keyBuf[:], nodeKey)

	h.Write(keyBuf[:])
	h.Write(nonce)

	return h.Sum(nil), nil
}

// EncodeNonce and EncodeDigest render binary challenge material as the hex
// text actually put on the wire.
func EncodeNonce(nonce []byte) string  { return hex.EncodeToString(nonce) }
func EncodeDigest(digest []byte) string { return hex.EncodeToString(digest) }

// DecodeResponse parses the client's hex-encoded response line.
func DecodeResponse(response string) ([]byte, error) {
	return hex.DecodeString(response)
}

// Equal compares two digests in constant time.
func Equal(a, b []byte) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare(a, b) == 1
}
