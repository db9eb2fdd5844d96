package forest

import "github.com/arborworks/canopy/src/accumulator"

// Store is an interface for durable tree storage backends.
type Store interface {
	// LoadTree returns the persisted tree of an authority. When the authority
	// has no stored tree, it returns a common.StoreErr of type KeyNotFound;
	// an absent key is a normal condition, not a failure.
	LoadTree(authority Authority) (*accumulator.Accumulator, error)
	// SaveTree persists the full state of a tree under the authority's key,
	// overwriting any previous record. A concurrent LoadTree observes either
	// the old or the new record, never a partial one.
	SaveTree(authority Authority, tree *accumulator.Accumulator) error
	// DeleteTree removes an authority's record. Deleting an absent key is a
	// no-op.
	DeleteTree(authority Authority) error
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database, or an empty
	// string for purely in-memory backends.
	StorePath() string
}
