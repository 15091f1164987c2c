// Package ldbstore implements an spne.SnapshotStore that keeps game trees
// on disk in a LevelDB database, rather than in memory.
package ldbstore
