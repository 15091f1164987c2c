package spne

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is a SnapshotStore that keeps encoded trees in memory.
// It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	trees map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trees: make(map[string][]byte)}
}

// Put implements SnapshotStore.
func (m *MemoryStore) Put(key string, t *Tree) error {
	buf, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.trees[key] = buf
	return nil
}

// Get implements SnapshotStore.
func (m *MemoryStore) Get(key string) (*Tree, error) {
	m.mu.Lock()
	buf, ok := m.trees[key]
	m.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "tree %q", key)
	}

	t := NewTree()
	if err := t.UnmarshalBinary(buf); err != nil {
		return nil, err
	}

	return t, nil
}

// Delete implements SnapshotStore.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trees, key)
	return nil
}

// Keys implements SnapshotStore.
func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, 0, len(m.trees))
	for key := range m.trees {
		result = append(result, key)
	}

	sort.Strings(result)
	return result, nil
}

// Close implements io.Closer.
func (m *MemoryStore) Close() error {
	return nil
}
