package common

import (
	"encoding/hex"
	"strings"
)

// EncodeToString returns the lowercase hex representation of raw with a 0x
// prefix. Digests cross the API boundary in this form; internally they are
// always raw bytes.
func EncodeToString(raw []byte) string {
	return "0x" + hex.EncodeToString(raw)
}

// DecodeFromString converts a hex string, with or without a 0x prefix, to a
// byte slice.
func DecodeFromString(hexString string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(hexString, "0x"), "0X")
	return hex.DecodeString(s)
}
