package forest

import (
	"fmt"

	"github.com/arborworks/canopy/src/accumulator"
	cm "github.com/arborworks/canopy/src/common"
	"github.com/dgraph-io/badger"
)

const treePrefix = "tree"

// BadgerStore implements the Store interface over a Badger database. The
// database directory is created when absent and reopened when present, so a
// forest backed by a BadgerStore picks up the trees of a previous run.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens (or creates) a Badger database at path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

func treeKey(authority Authority) []byte {
	return []byte(fmt.Sprintf("%s_%s", treePrefix, authority.String()))
}

// LoadTree implements the Store interface.
func (s *BadgerStore) LoadTree(authority Authority) (*accumulator.Accumulator, error) {
	var treeBytes []byte
	key := treeKey(authority)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		treeBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		return nil, mapError(err, "Tree", string(key))
	}

	tree := new(accumulator.Accumulator)
	if err := tree.Unmarshal(treeBytes); err != nil {
		return nil, err
	}

	return tree, nil
}

// SaveTree implements the Store interface.
func (s *BadgerStore) SaveTree(authority Authority, tree *accumulator.Accumulator) error {
	val, err := tree.Marshal()
	if err != nil {
		return err
	}

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	//insert [tree_authority] => [tree bytes]
	if err := tx.Set(treeKey(authority), val); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTree implements the Store interface.
func (s *BadgerStore) DeleteTree(authority Authority) error {
	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Delete(treeKey(authority)); err != nil {
		return err
	}

	return tx.Commit()
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
	}
	return err
}
