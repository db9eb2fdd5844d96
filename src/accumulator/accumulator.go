package accumulator

import (
	"bytes"

	"github.com/arborworks/canopy/src/common"
	"github.com/arborworks/canopy/src/crypto"
	"github.com/ugorji/go/codec"
)

// recordVersion is the serialization version written by Marshal. Unmarshal
// rejects records with any other version.
const recordVersion = 1

// Accumulator is an append-only binary hash tree over raw leaf payloads. It
// produces a root digest and per-leaf inclusion proofs. Leaves are Keccak-256
// digests of the inserted payloads, in insertion order; a leaf's position in
// the slice is its index. Nodes maps a leaf digest (hex) back to the original
// payload; it plays no part in proof computation and exists only for payload
// recovery.
//
// The Accumulator has no internal synchronization. Callers that share an
// instance must serialize access; the forest package wraps each instance in
// its own exclusion region.
type Accumulator struct {
	MaxDepth int
	Leaves   [][]byte
	Nodes    map[string][]byte
}

// New creates an empty Accumulator with capacity for 2^maxDepth leaves.
func New(maxDepth int) *Accumulator {
	return &Accumulator{
		MaxDepth: maxDepth,
		Leaves:   [][]byte{},
		Nodes:    make(map[string][]byte),
	}
}

// Capacity returns the maximum number of leaves the tree can hold.
func (a *Accumulator) Capacity() int {
	return 1 << uint(a.MaxDepth)
}

// Count returns the number of leaves inserted so far.
func (a *Accumulator) Count() int {
	return len(a.Leaves)
}

// Insert hashes the payload, appends the digest as a new leaf, and records
// the payload for later recovery. It returns the 0-based index of the new
// leaf, or ErrCapacity if the tree is full. This is the only way the tree
// grows.
func (a *Accumulator) Insert(payload []byte) (int, error) {
	if len(a.Leaves) >= a.Capacity() {
		return 0, ErrCapacity
	}

	leafHash := crypto.Keccak256(payload)

	a.Leaves = append(a.Leaves, leafHash)
	a.Nodes[common.EncodeToString(leafHash)] = append([]byte{}, payload...)

	return len(a.Leaves) - 1, nil
}

// Leaf returns the digest of the leaf at the given index.
func (a *Accumulator) Leaf(index int) ([]byte, error) {
	if index < 0 || index >= len(a.Leaves) {
		return nil, ErrIndexOutOfBounds
	}
	return dup(a.Leaves[index]), nil
}

// Payload returns the original payload whose digest is leafHash, and whether
// it is known. Payload data is superfluous to the tree structure; dropping it
// would not break proofs.
func (a *Accumulator) Payload(leafHash []byte) ([]byte, bool) {
	payload, ok := a.Nodes[common.EncodeToString(leafHash)]
	if !ok {
		return nil, false
	}
	return dup(payload), true
}

// Proof returns the sibling digests needed to reconstruct a root from the
// leaf at the given index. The proof always has exactly MaxDepth entries;
// positions with no populated sibling carry the all-zero empty digest.
// Siblings are taken from the true node content of each level, computed by
// pairing with the empty digest where a level has an odd count.
//
// Note that Root folds odd counts differently (the lone node is carried up
// unhashed), so Verify(Root(), ...) only succeeds when the two policies
// coincide, which is guaranteed when the tree is full. See Root.
func (a *Accumulator) Proof(index int) ([][]byte, error) {
	if index < 0 || index >= len(a.Leaves) {
		return nil, ErrIndexOutOfBounds
	}

	proof := make([][]byte, 0, a.MaxDepth)

	level := a.Leaves
	currentIndex := index

	for d := 0; d < a.MaxDepth; d++ {
		siblingIndex := currentIndex ^ 1

		if siblingIndex < len(level) {
			proof = append(proof, dup(level[siblingIndex]))
		} else {
			proof = append(proof, crypto.EmptyDigest())
		}

		level = pairLevel(level)
		currentIndex /= 2
	}

	return proof, nil
}

// Verify reconstructs a root from leafHash by folding in the proof's sibling
// digests, left or right according to the parity of the index at each level,
// and compares the result to root. It is a pure function and reads no shared
// state.
func Verify(root []byte, leafHash []byte, proof [][]byte, index int) bool {
	currentHash := leafHash
	currentIndex := index

	for _, sibling := range proof {
		if currentIndex%2 == 0 {
			currentHash = crypto.Keccak256Pair(currentHash, sibling)
		} else {
			currentHash = crypto.Keccak256Pair(sibling, currentHash)
		}
		currentIndex /= 2
	}

	return bytes.Equal(currentHash, root)
}

// Root returns the tree's root digest: the all-zero digest for an empty tree,
// otherwise the result of repeatedly hashing adjacent pairs, carrying any
// unpaired last element up a level unchanged, until one digest remains.
//
// The carry rule means Root is not zero-padded: for irregular leaf counts it
// differs from the root a Proof reconstructs, which pairs lone nodes with the
// empty digest. The two agree when the tree is full. Both behaviors are
// pinned by tests; external verifiers of existing trees depend on Root's
// bytes.
func (a *Accumulator) Root() []byte {
	if len(a.Leaves) == 0 {
		return crypto.EmptyDigest()
	}

	currentLevel := a.Leaves
	for len(currentLevel) > 1 {
		nextLevel := make([][]byte, 0, (len(currentLevel)+1)/2)
		for i := 0; i < len(currentLevel); i += 2 {
			if i+1 < len(currentLevel) {
				nextLevel = append(nextLevel, crypto.Keccak256Pair(currentLevel[i], currentLevel[i+1]))
			} else {
				nextLevel = append(nextLevel, currentLevel[i])
			}
		}
		currentLevel = nextLevel
	}

	return dup(currentLevel[0])
}

// Snapshot returns a copy of the accumulator that is safe to serialize while
// the original keeps mutating. Leaf digests are immutable once inserted, so
// the copy shares them; the containers themselves are copied.
func (a *Accumulator) Snapshot() *Accumulator {
	leaves := make([][]byte, len(a.Leaves))
	copy(leaves, a.Leaves)

	nodes := make(map[string][]byte, len(a.Nodes))
	for k, v := range a.Nodes {
		nodes[k] = v
	}

	return &Accumulator{
		MaxDepth: a.MaxDepth,
		Leaves:   leaves,
		Nodes:    nodes,
	}
}

// record is the durable form of an Accumulator.
type record struct {
	Version  int
	MaxDepth int
	Leaves   [][]byte
	Nodes    map[string][]byte
}

// Marshal returns the canonical JSON encoding of the accumulator, with a
// version field for schema evolution.
func (a *Accumulator) Marshal() ([]byte, error) {
	rec := record{
		Version:  recordVersion,
		MaxDepth: a.MaxDepth,
		Leaves:   a.Leaves,
		Nodes:    a.Nodes,
	}

	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal decodes an accumulator from data produced by Marshal. It returns
// a CorruptRecord store error for undecodable data and a BadVersion store
// error for records written by an unknown schema version.
func (a *Accumulator) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	rec := record{}
	if err := dec.Decode(&rec); err != nil {
		return common.NewStoreErr("Tree", common.CorruptRecord, "")
	}

	if rec.Version != recordVersion {
		return common.NewStoreErr("Tree", common.BadVersion, "")
	}

	a.MaxDepth = rec.MaxDepth
	a.Leaves = rec.Leaves
	a.Nodes = rec.Nodes
	if a.Leaves == nil {
		a.Leaves = [][]byte{}
	}
	if a.Nodes == nil {
		a.Nodes = make(map[string][]byte)
	}

	return nil
}

// pairLevel computes the next level up from a proof's point of view: adjacent
// digests are hashed together, with a lone last element paired against the
// empty digest.
func pairLevel(level [][]byte) [][]byte {
	next := make([][]byte, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 < len(level) {
			next = append(next, crypto.Keccak256Pair(level[i], level[i+1]))
		} else {
			next = append(next, crypto.Keccak256Pair(level[i], crypto.EmptyDigest()))
		}
	}
	return next
}

func dup(in []byte) []byte {
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
