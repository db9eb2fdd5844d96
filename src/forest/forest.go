package forest

import (
	"fmt"
	"sync"

	"github.com/arborworks/canopy/src/accumulator"
	cm "github.com/arborworks/canopy/src/common"
	"github.com/sirupsen/logrus"
)

// Forest is a concurrent registry mapping each authority to one exclusively
// owned tree, backed by a durable Store. Trees are loaded from the store on
// first reference and persisted after every mutation. The registry lock only
// covers handle lookup and registration, so operations on different
// authorities proceed in parallel; all access to a given tree is serialized
// by that tree's own lock.
type Forest struct {
	sync.Mutex
	trees    map[Authority]*treeHandle
	store    Store
	maxDepth int
	logger   *logrus.Entry
}

// treeHandle pairs a tree with the exclusion region that covers all reads and
// mutations of it. tree is nil until the first load completes; the handle
// lock covers the load as well, so concurrent first-time callers wait for a
// single load instead of racing to create divergent instances.
type treeHandle struct {
	sync.Mutex
	tree *accumulator.Accumulator
}

// NewForest creates a Forest over the given store. maxDepth is used when
// creating trees for authorities with no persisted state.
func NewForest(store Store, maxDepth int, logger *logrus.Entry) *Forest {
	return &Forest{
		trees:    make(map[Authority]*treeHandle),
		store:    store,
		maxDepth: maxDepth,
		logger:   logger.WithField("prefix", "forest"),
	}
}

// handle returns the tree handle for an authority, loading the tree from the
// store or creating an empty one on first reference.
func (f *Forest) handle(authority Authority) (*treeHandle, error) {
	f.Lock()
	h, ok := f.trees[authority]
	if !ok {
		h = &treeHandle{}
		f.trees[authority] = h
	}
	f.Unlock()

	h.Lock()
	defer h.Unlock()

	if h.tree != nil {
		return h, nil
	}

	tree, err := f.store.LoadTree(authority)
	if err != nil {
		if !cm.IsStore(err, cm.KeyNotFound) {
			// Deregister the empty handle so a later call can retry the load.
			f.Lock()
			if f.trees[authority] == h {
				delete(f.trees, authority)
			}
			f.Unlock()
			return nil, err
		}

		tree = accumulator.New(f.maxDepth)
		f.logger.WithField("authority", authority.String()).Info("Creating new tree")
	} else {
		f.logger.WithFields(logrus.Fields{
			"authority": authority.String(),
			"leaves":    tree.Count(),
		}).Info("Loaded existing tree")
	}

	h.tree = tree

	return h, nil
}

// GetOrCreateTree ensures an authority's tree is resident and returns its
// leaf count and root. Repeated calls for the same authority share a single
// in-memory instance.
func (f *Forest) GetOrCreateTree(authority Authority) (int, []byte, error) {
	return f.Info(authority)
}

// Info returns the current leaf count and root of an authority's tree.
func (f *Forest) Info(authority Authority) (int, []byte, error) {
	h, err := f.handle(authority)
	if err != nil {
		return 0, nil, err
	}

	h.Lock()
	defer h.Unlock()

	return h.tree.Count(), h.tree.Root(), nil
}

// InsertLeaf appends a record to an authority's tree and persists the updated
// tree. It returns the new leaf's index and the tree root computed after the
// insertion. The save happens after the mutation, outside the tree lock, and
// is awaited: a persistence failure is returned as an error, but the
// in-memory insertion is not rolled back, so memory may be ahead of the store
// until the next successful save.
func (f *Forest) InsertLeaf(authority Authority, payload []byte) (int, []byte, error) {
	h, err := f.handle(authority)
	if err != nil {
		return 0, nil, err
	}

	h.Lock()
	index, err := h.tree.Insert(payload)
	if err != nil {
		h.Unlock()
		return 0, nil, err
	}
	root := h.tree.Root()
	snapshot := h.tree.Snapshot()
	h.Unlock()

	if err := f.store.SaveTree(authority, snapshot); err != nil {
		return 0, nil, fmt.Errorf("saving tree %s: %w", authority.String(), err)
	}

	f.logger.WithFields(logrus.Fields{
		"authority": authority.String(),
		"index":     index,
	}).Debug("Inserted leaf")

	return index, root, nil
}

// VerifyLeaf checks that leafHash is included at index in the authority's
// tree, using a freshly computed proof and root.
func (f *Forest) VerifyLeaf(authority Authority, leafHash []byte, index int) (bool, error) {
	h, err := f.handle(authority)
	if err != nil {
		return false, err
	}

	h.Lock()
	defer h.Unlock()

	proof, err := h.tree.Proof(index)
	if err != nil {
		return false, err
	}
	root := h.tree.Root()

	return accumulator.Verify(root, leafHash, proof, index), nil
}

// Proof returns the inclusion proof for a leaf together with the root it was
// computed against, both taken under the same lock so they are mutually
// consistent.
func (f *Forest) Proof(authority Authority, index int) ([][]byte, []byte, error) {
	h, err := f.handle(authority)
	if err != nil {
		return nil, nil, err
	}

	h.Lock()
	defer h.Unlock()

	proof, err := h.tree.Proof(index)
	if err != nil {
		return nil, nil, err
	}

	return proof, h.tree.Root(), nil
}

// SaveTreeState explicitly flushes an authority's in-memory tree to the
// store. It is a no-op for authorities with no resident tree.
func (f *Forest) SaveTreeState(authority Authority) error {
	f.Lock()
	h, ok := f.trees[authority]
	f.Unlock()

	if !ok {
		return nil
	}

	h.Lock()
	if h.tree == nil {
		h.Unlock()
		return nil
	}
	snapshot := h.tree.Snapshot()
	h.Unlock()

	if err := f.store.SaveTree(authority, snapshot); err != nil {
		return err
	}

	f.logger.WithField("authority", authority.String()).Debug("Saved tree state")

	return nil
}

// DropTree evicts an authority's tree from memory and deletes its durable
// record.
func (f *Forest) DropTree(authority Authority) error {
	f.Lock()
	delete(f.trees, authority)
	f.Unlock()

	return f.store.DeleteTree(authority)
}

// Authorities returns the authorities with a resident tree.
func (f *Forest) Authorities() []Authority {
	f.Lock()
	defer f.Unlock()

	res := make([]Authority, 0, len(f.trees))
	for a := range f.trees {
		res = append(res, a)
	}
	return res
}
