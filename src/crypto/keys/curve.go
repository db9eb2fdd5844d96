package keys

import (
	"crypto/elliptic"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

/*
Signer keys are based on elliptic curve cryptography. We use the secp256k1
curve, via btcsuite's golang implementation, because it is the curve the
remote ledger expects signer material for.
*/

// Parameters of the secp256k1 curve. They are used by other functions to
// verify that a private key is valid.
var (
	secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
)

// Curve returns the secp256k1 elliptic.Curve.
func Curve() elliptic.Curve {
	return btcec.S256()
}
