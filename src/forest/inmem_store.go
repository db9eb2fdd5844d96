package forest

import (
	"sync"

	"github.com/arborworks/canopy/src/accumulator"
	cm "github.com/arborworks/canopy/src/common"
)

// InmemStore implements the Store interface in memory. Records are held in
// their serialized form so that loads return independent instances, just like
// the durable backends, and so that a load concurrent with a save observes a
// whole record. Contents do not survive the process.
type InmemStore struct {
	sync.RWMutex
	records map[Authority][]byte
}

// NewInmemStore creates an empty InmemStore.
func NewInmemStore() *InmemStore {
	return &InmemStore{
		records: make(map[Authority][]byte),
	}
}

// LoadTree implements the Store interface.
func (s *InmemStore) LoadTree(authority Authority) (*accumulator.Accumulator, error) {
	s.RLock()
	raw, ok := s.records[authority]
	s.RUnlock()

	if !ok {
		return nil, cm.NewStoreErr("Tree", cm.KeyNotFound, authority.String())
	}

	tree := new(accumulator.Accumulator)
	if err := tree.Unmarshal(raw); err != nil {
		return nil, err
	}

	return tree, nil
}

// SaveTree implements the Store interface.
func (s *InmemStore) SaveTree(authority Authority, tree *accumulator.Accumulator) error {
	raw, err := tree.Marshal()
	if err != nil {
		return err
	}

	s.Lock()
	s.records[authority] = raw
	s.Unlock()

	return nil
}

// DeleteTree implements the Store interface.
func (s *InmemStore) DeleteTree(authority Authority) error {
	s.Lock()
	delete(s.records, authority)
	s.Unlock()
	return nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}
