package rdbstore

import (
	"bytes"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	rocksdb "github.com/tecbot/gorocksdb"

	"github.com/timpalpant/go-spne"
)

const treePrefix = "tree:"

// Store is a spne.SnapshotStore backed by a RocksDB database.
// Trees are stored gob-encoded under their key.
type Store struct {
	params Params
	db     *rocksdb.DB
}

// New opens (or creates) a Store backed by a RocksDB database.
func New(params Params) (*Store, error) {
	db, err := rocksdb.OpenDb(params.Options, params.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening rocksdb at %s", params.Path)
	}

	glog.V(1).Infof("Opened RocksDB snapshot store at %s", params.Path)
	return &Store{
		params: params,
		db:     db,
	}, nil
}

// Put implements spne.SnapshotStore.
func (s *Store) Put(key string, t *spne.Tree) error {
	buf, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	if err := s.db.Put(s.params.WriteOptions, dbKey(key), buf); err != nil {
		return errors.Wrapf(err, "writing tree %q", key)
	}

	return nil
}

// Get implements spne.SnapshotStore.
func (s *Store) Get(key string) (*spne.Tree, error) {
	result, err := s.db.Get(s.params.ReadOptions, dbKey(key))
	if err != nil {
		return nil, errors.Wrapf(err, "reading tree %q", key)
	}
	defer result.Free()

	if !result.Exists() {
		return nil, errors.Wrapf(spne.ErrNotFound, "tree %q", key)
	}

	t := spne.NewTree()
	if err := t.UnmarshalBinary(result.Data()); err != nil {
		return nil, errors.Wrapf(err, "decoding tree %q", key)
	}

	return t, nil
}

// Delete implements spne.SnapshotStore.
func (s *Store) Delete(key string) error {
	return s.db.Delete(s.params.WriteOptions, dbKey(key))
}

// Keys implements spne.SnapshotStore.
func (s *Store) Keys() ([]string, error) {
	it := s.db.NewIterator(s.params.ReadOptions)
	defer it.Close()

	prefix := []byte(treePrefix)
	var result []string
	for it.Seek(prefix); it.Valid(); it.Next() {
		key := it.Key()
		data := key.Data()
		if !bytes.HasPrefix(data, prefix) {
			key.Free()
			break
		}

		result = append(result, string(data[len(prefix):]))
		key.Free()
	}

	if err := it.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Close implements io.Closer.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func dbKey(key string) []byte {
	return []byte(treePrefix + key)
}
