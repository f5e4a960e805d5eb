package common

import (
	"encoding/hex"
	"fmt"
)

// EncodeToString returns the UPPERCASE string representation of hexBytes
// with the 0X prefix.
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("0X%X", hexBytes)
}

// DecodeFromString converts a hex string with a 0X prefix back to bytes.
func DecodeFromString(hexString string) ([]byte, error) {
	if len(hexString) < 2 {
		return nil, fmt.Errorf("hex string too short: %q", hexString)
	}
	return hex.DecodeString(hexString[2:])
}

// NodeKeyHex formats a node key the way the connection banner and the
// handler's log fields do: lowercase, zero-padded, no prefix.
func NodeKeyHex(key uint16) string {
	return fmt.Sprintf("%04x", key)
}
