package accumulator

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/arborworks/canopy/src/common"
	"github.com/arborworks/canopy/src/crypto"
)

func TestInsertReturnsOrderedIndices(t *testing.T) {
	depth := 3
	acc := New(depth)

	for i := 0; i < acc.Capacity(); i++ {
		index, err := acc.Insert([]byte(fmt.Sprintf("record %d", i)))
		if err != nil {
			t.Fatal(err)
		}
		if index != i {
			t.Fatalf("insert %d should return index %d, not %d", i, i, index)
		}
	}

	if _, err := acc.Insert([]byte("one too many")); err != ErrCapacity {
		t.Fatalf("insert into a full tree should return ErrCapacity, not %v", err)
	}

	if acc.Count() != acc.Capacity() {
		t.Fatalf("count should be %d, not %d", acc.Capacity(), acc.Count())
	}
}

func TestProofLength(t *testing.T) {
	depth := 5
	acc := New(depth)

	for i := 0; i < 3; i++ {
		if _, err := acc.Insert([]byte(fmt.Sprintf("record %d", i))); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 3; i++ {
		proof, err := acc.Proof(i)
		if err != nil {
			t.Fatal(err)
		}
		if len(proof) != depth {
			t.Fatalf("proof should have exactly %d entries, not %d", depth, len(proof))
		}
	}

	if _, err := acc.Proof(3); err != ErrIndexOutOfBounds {
		t.Fatalf("proof of an unknown index should return ErrIndexOutOfBounds, not %v", err)
	}
	if _, err := acc.Proof(-1); err != ErrIndexOutOfBounds {
		t.Fatalf("proof of a negative index should return ErrIndexOutOfBounds, not %v", err)
	}
}

func TestRootFixtures(t *testing.T) {
	// Empty tree.
	acc := New(2)
	if !bytes.Equal(acc.Root(), crypto.EmptyDigest()) {
		t.Fatal("root of an empty tree should be the all-zero digest")
	}

	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	h := make([][]byte, len(payloads))
	for i, p := range payloads {
		h[i] = crypto.Keccak256(p)
	}

	// One leaf: root is the leaf hash itself.
	acc.Insert(payloads[0])
	if !bytes.Equal(acc.Root(), h[0]) {
		t.Fatal("root of [A] should be Hash(A)")
	}

	// Two leaves: Hash(H1 || H2).
	acc.Insert(payloads[1])
	if !bytes.Equal(acc.Root(), crypto.Keccak256Pair(h[0], h[1])) {
		t.Fatal("root of [A, B] should be Hash(H1 || H2)")
	}

	// Three leaves: the lone H3 is carried up unhashed.
	acc.Insert(payloads[2])
	want := crypto.Keccak256Pair(crypto.Keccak256Pair(h[0], h[1]), h[2])
	if !bytes.Equal(acc.Root(), want) {
		t.Fatal("root of [A, B, C] should be Hash(Hash(H1||H2) || H3)")
	}
}

func TestVerifyFullTree(t *testing.T) {
	depth := 3
	acc := New(depth)

	payloads := make([][]byte, acc.Capacity())
	for i := range payloads {
		payloads[i] = []byte(fmt.Sprintf("record %d", i))
		if _, err := acc.Insert(payloads[i]); err != nil {
			t.Fatal(err)
		}
	}

	root := acc.Root()

	for i := range payloads {
		proof, err := acc.Proof(i)
		if err != nil {
			t.Fatal(err)
		}
		if !Verify(root, crypto.Keccak256(payloads[i]), proof, i) {
			t.Fatalf("leaf %d should verify against the root of a full tree", i)
		}
		// Wrong index must not verify.
		if Verify(root, crypto.Keccak256(payloads[i]), proof, i^1) {
			t.Fatalf("leaf %d should not verify under the wrong index", i)
		}
	}
}

// TestProofRootDisagreement pins the intended divergence between the two
// sibling-selection policies: Root carries a lone node up unhashed while a
// proof pairs it with the empty digest, so for irregular leaf counts a proof
// does not reconstruct Root. Both behaviors are load-bearing for external
// verifiers and must not be silently unified.
func TestProofRootDisagreement(t *testing.T) {
	acc := New(2)

	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	h := make([][]byte, len(payloads))
	for i, p := range payloads {
		h[i] = crypto.Keccak256(p)
		if _, err := acc.Insert(p); err != nil {
			t.Fatal(err)
		}
	}

	proof, err := acc.Proof(0)
	if err != nil {
		t.Fatal(err)
	}

	if Verify(acc.Root(), h[0], proof, 0) {
		t.Fatal("a 3-leaf proof should not reconstruct the carry-up root")
	}

	// The proof does reconstruct the zero-padded root.
	padded := crypto.Keccak256Pair(
		crypto.Keccak256Pair(h[0], h[1]),
		crypto.Keccak256Pair(h[2], crypto.EmptyDigest()),
	)
	if !Verify(padded, h[0], proof, 0) {
		t.Fatal("a 3-leaf proof should reconstruct the zero-padded root")
	}
}

func TestPayloadRecovery(t *testing.T) {
	acc := New(4)

	payload := []byte("compressed record")
	if _, err := acc.Insert(payload); err != nil {
		t.Fatal(err)
	}

	leaf, err := acc.Leaf(0)
	if err != nil {
		t.Fatal(err)
	}

	recovered, ok := acc.Payload(leaf)
	if !ok {
		t.Fatal("payload should be recoverable by leaf hash")
	}
	if !bytes.Equal(recovered, payload) {
		t.Fatal("recovered payload should match the inserted payload")
	}

	if _, ok := acc.Payload(crypto.Keccak256([]byte("never inserted"))); ok {
		t.Fatal("unknown leaf hash should not recover a payload")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	acc := New(3)
	for i := 0; i < 5; i++ {
		if _, err := acc.Insert([]byte(fmt.Sprintf("record %d", i))); err != nil {
			t.Fatal(err)
		}
	}

	raw, err := acc.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	restored := new(Accumulator)
	if err := restored.Unmarshal(raw); err != nil {
		t.Fatal(err)
	}

	if restored.MaxDepth != acc.MaxDepth {
		t.Fatalf("restored MaxDepth should be %d, not %d", acc.MaxDepth, restored.MaxDepth)
	}
	if restored.Count() != acc.Count() {
		t.Fatalf("restored count should be %d, not %d", acc.Count(), restored.Count())
	}
	if !bytes.Equal(restored.Root(), acc.Root()) {
		t.Fatal("restored root should match original root")
	}

	// A restored tree keeps growing where the original left off.
	index, err := restored.Insert([]byte("record 5"))
	if err != nil {
		t.Fatal(err)
	}
	if index != 5 {
		t.Fatalf("restored tree should insert at index 5, not %d", index)
	}
}

func TestUnmarshalBadVersion(t *testing.T) {
	acc := New(2)
	acc.Insert([]byte("a"))

	raw, err := acc.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite the version field to something unknown.
	tampered := bytes.Replace(raw, []byte(`"Version":1`), []byte(`"Version":99`), 1)
	if bytes.Equal(tampered, raw) {
		t.Fatal("test fixture did not find the version field")
	}

	restored := new(Accumulator)
	err = restored.Unmarshal(tampered)
	if !common.IsStore(err, common.BadVersion) {
		t.Fatalf("unmarshal should reject unknown versions with BadVersion, got %v", err)
	}
}

func TestUnmarshalCorruptRecord(t *testing.T) {
	restored := new(Accumulator)

	err := restored.Unmarshal([]byte("{not json"))
	if !common.IsStore(err, common.CorruptRecord) {
		t.Fatalf("unmarshal should reject undecodable data with CorruptRecord, got %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	acc := New(3)
	acc.Insert([]byte("a"))

	snap := acc.Snapshot()

	acc.Insert([]byte("b"))

	if snap.Count() != 1 {
		t.Fatalf("snapshot should keep 1 leaf, not %d", snap.Count())
	}
	if acc.Count() != 2 {
		t.Fatalf("original should have 2 leaves, not %d", acc.Count())
	}
}
