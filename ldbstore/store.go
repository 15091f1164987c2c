package ldbstore

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/timpalpant/go-spne"
)

const treePrefix = "tree:"

// Store is a spne.SnapshotStore backed by a LevelDB database.
// Trees are stored gob-encoded under their key.
type Store struct {
	path  string
	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// New opens (or creates) a Store backed by a LevelDB database at the given path.
func New(path string, opts *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %s", path)
	}

	glog.V(1).Infof("Opened LevelDB snapshot store at %s", path)
	return &Store{
		path:  path,
		db:    db,
		wOpts: &opt.WriteOptions{Sync: true},
	}, nil
}

// Put implements spne.SnapshotStore.
func (s *Store) Put(key string, t *spne.Tree) error {
	buf, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	if err := s.db.Put(dbKey(key), buf, s.wOpts); err != nil {
		return errors.Wrapf(err, "writing tree %q", key)
	}

	return nil
}

// Get implements spne.SnapshotStore.
func (s *Store) Get(key string) (*spne.Tree, error) {
	buf, err := s.db.Get(dbKey(key), s.rOpts)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(spne.ErrNotFound, "tree %q", key)
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading tree %q", key)
	}

	t := spne.NewTree()
	if err := t.UnmarshalBinary(buf); err != nil {
		return nil, errors.Wrapf(err, "decoding tree %q", key)
	}

	return t, nil
}

// Delete implements spne.SnapshotStore.
func (s *Store) Delete(key string) error {
	return s.db.Delete(dbKey(key), s.wOpts)
}

// Keys implements spne.SnapshotStore.
func (s *Store) Keys() ([]string, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(treePrefix)), s.rOpts)
	defer iter.Release()

	var result []string
	for iter.Next() {
		result = append(result, string(iter.Key()[len(treePrefix):]))
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}

	return result, nil
}

// Close implements io.Closer.
func (s *Store) Close() error {
	return s.db.Close()
}

func dbKey(key string) []byte {
	return []byte(treePrefix + key)
}
