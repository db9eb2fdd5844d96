package forest

import (
	"github.com/arborworks/canopy/src/accumulator"
	cm "github.com/arborworks/canopy/src/common"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
)

// LevelStore implements the Store interface over a LevelDB database. It is a
// lighter embedded alternative to BadgerStore.
type LevelStore struct {
	db   *leveldb.DB
	path string
}

// NewLevelStore opens (or creates) a LevelDB database at path, attempting
// recovery if the database files are corrupted.
func NewLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if ldberrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}

	return &LevelStore{
		db:   db,
		path: path,
	}, nil
}

// LoadTree implements the Store interface.
func (s *LevelStore) LoadTree(authority Authority) (*accumulator.Accumulator, error) {
	key := treeKey(authority)

	raw, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, cm.NewStoreErr("Tree", cm.KeyNotFound, string(key))
	} else if err != nil {
		return nil, err
	}

	tree := new(accumulator.Accumulator)
	if err := tree.Unmarshal(raw); err != nil {
		return nil, err
	}

	return tree, nil
}

// SaveTree implements the Store interface.
func (s *LevelStore) SaveTree(authority Authority, tree *accumulator.Accumulator) error {
	val, err := tree.Marshal()
	if err != nil {
		return err
	}

	return s.db.Put(treeKey(authority), val, nil)
}

// DeleteTree implements the Store interface.
func (s *LevelStore) DeleteTree(authority Authority) error {
	return s.db.Delete(treeKey(authority), nil)
}

// Close implements the Store interface.
func (s *LevelStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *LevelStore) StorePath() string {
	return s.path
}
