package crypto

import (
	"golang.org/x/crypto/sha3"
)

// DigestSize is the size in bytes of all tree digests.
const DigestSize = 32

// Keccak256 returns the Keccak-256 hash of the data. This is the hash function
// used for leaf digests, internal tree nodes, and proof verification; all
// three must agree for proofs to interoperate with external verifiers.
func Keccak256(data []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// Keccak256Pair returns the Keccak-256 hash of the concatenation of left and
// right.
func Keccak256Pair(left []byte, right []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// EmptyDigest returns the all-zero digest that stands in for unoccupied tree
// positions.
func EmptyDigest() []byte {
	return make([]byte, DigestSize)
}
