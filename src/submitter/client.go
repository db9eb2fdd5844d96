package submitter

import (
	"crypto/ecdsa"
	"encoding/binary"

	"github.com/arborworks/canopy/src/crypto"
)

// Certification carries the accumulator data that backs a submission: the
// tree root, the leaf being certified, and its inclusion proof. Digests are
// raw bytes; transports may re-encode them as they see fit.
type Certification struct {
	Root      []byte
	LeafHash  []byte
	Proof     [][]byte
	LeafIndex int
}

// Transaction is a fully-formed instruction payload for the remote program,
// together with the certification data and the network anchor it was built
// against. The anchor is stamped and the digest re-signed by the submitter
// immediately before each send attempt.
type Transaction struct {
	Payload       []byte
	Certification Certification
	Anchor        string
	Signature     string
}

// Digest returns the Keccak-256 digest a signature must cover: the payload,
// the certification, and the anchor. Changing the anchor changes the digest,
// which is why each send attempt is signed anew.
func (t *Transaction) Digest() []byte {
	var index [8]byte
	binary.BigEndian.PutUint64(index[:], uint64(t.Certification.LeafIndex))

	data := make([]byte, 0,
		len(t.Payload)+len(t.Certification.Root)+len(t.Certification.LeafHash)+len(index)+len(t.Anchor))
	data = append(data, t.Payload...)
	data = append(data, t.Certification.Root...)
	data = append(data, t.Certification.LeafHash...)
	data = append(data, index[:]...)
	data = append(data, t.Anchor...)

	return crypto.Keccak256(data)
}

// SimulationResult is the outcome of a dry run. Err is non-empty when the
// remote program rejected the transaction. Logs carry the program's log
// output; they are advisory only and never affect control flow.
type SimulationResult struct {
	Err  string
	Logs []string
}

// Client is the remote submission collaborator. Implementations talk to the
// remote ledger; the submitter composes rate limiting, simulation, and
// retries on top.
type Client interface {
	// LatestAnchor returns the most recent network reference point. A fresh
	// anchor is required per send attempt because the network rejects
	// transactions built against a stale one.
	LatestAnchor() (string, error)
	// Simulate dry-runs the transaction without any network side effect.
	Simulate(tx *Transaction, signer *ecdsa.PrivateKey) (*SimulationResult, error)
	// SendAndConfirm signs, submits, and waits for the network to confirm
	// the transaction, returning a confirmation identifier. Failures are
	// NetworkError or ConfirmationTimeoutError as appropriate.
	SendAndConfirm(tx *Transaction, signer *ecdsa.PrivateKey) (string, error)
}
