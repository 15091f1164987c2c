// Package rdbstore implements an spne.SnapshotStore that keeps game trees
// in a RocksDB database, rather than in memory.
package rdbstore

import (
	rocksdb "github.com/tecbot/gorocksdb"
)

// Params configures the RocksDB database backing a Store. The options are
// owned by the caller and released with Close after the Store is closed.
type Params struct {
	Path         string
	Options      *rocksdb.Options
	ReadOptions  *rocksdb.ReadOptions
	WriteOptions *rocksdb.WriteOptions
}

// DefaultParams creates the database at path if needed and syncs every
// write, so a saved tree survives a crash.
func DefaultParams(path string) Params {
	opts := rocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	wOpts := rocksdb.NewDefaultWriteOptions()
	wOpts.SetSync(true)

	return Params{
		Path:         path,
		Options:      opts,
		ReadOptions:  rocksdb.NewDefaultReadOptions(),
		WriteOptions: wOpts,
	}
}

// Close releases the RocksDB option handles.
func (p Params) Close() {
	p.Options.Destroy()
	p.ReadOptions.Destroy()
	p.WriteOptions.Destroy()
}
