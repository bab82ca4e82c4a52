package content

import (
	"context"
	"sync"
	"time"
)

// Entry identifies one analysed file version.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Index remembers which file versions were already analysed.
type Index interface {
	Seen(ctx context.Context, entry Entry) (bool, error)
	Record(ctx context.Context, entry Entry, tags []string) error
}

// MemoryIndex is an in-process Index used when no run store is configured.
type MemoryIndex struct {
	mu      sync.Mutex
	entries map[Entry][]string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{entries: make(map[Entry][]string)}
}

func (m *MemoryIndex) Seen(_ context.Context, entry Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[normalize(entry)]
	return ok, nil
}

func (m *MemoryIndex) Record(_ context.Context, entry Entry, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[normalize(entry)] = append([]string(nil), tags...)
	return nil
}

func normalize(entry Entry) Entry {
	entry.ModTime = entry.ModTime.UTC().Truncate(time.Second)
	return entry
}
