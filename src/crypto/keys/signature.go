package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// SignDigest signs a digest with the private key and returns the signature in
// its text encoding. The submitter re-signs a transaction's digest on every
// send attempt, since the digest covers the per-attempt anchor.
func SignDigest(priv *ecdsa.PrivateKey, digest []byte) (string, error) {
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return "", err
	}
	return EncodeSignature(r, s), nil
}

// VerifyDigest checks an encoded signature against a digest and the signer's
// public key. A malformed encoding verifies as false.
func VerifyDigest(pub *ecdsa.PublicKey, digest []byte, sig string) bool {
	r, s, err := DecodeSignature(sig)
	if err != nil {
		return false
	}
	return ecdsa.Verify(pub, digest, r, s)
}

// EncodeSignature renders an r|s signature pair as text. Base 36 keeps the
// encoding compact while remaining plain text.
func EncodeSignature(r, s *big.Int) string {
	return fmt.Sprintf("%s|%s", r.Text(36), s.Text(36))
}

// DecodeSignature parses a signature produced by EncodeSignature.
func DecodeSignature(sig string) (r, s *big.Int, err error) {
	values := strings.Split(sig, "|")
	if len(values) != 2 {
		return r, s, fmt.Errorf("wrong number of values in signature: got %d, want 2", len(values))
	}
	r, ok := new(big.Int).SetString(values[0], 36)
	if !ok {
		return nil, nil, fmt.Errorf("parsing r value: %q", values[0])
	}
	s, ok = new(big.Int).SetString(values[1], 36)
	if !ok {
		return nil, nil, fmt.Errorf("parsing s value: %q", values[1])
	}
	return r, s, nil
}
