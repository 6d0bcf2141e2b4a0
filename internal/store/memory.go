package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/notesd/internal/note"
)

// Memory is a process-local Repository backed by a map.
//
// Each operation is atomic on its own but there is no cross-operation
// transaction: two concurrent patches of the same id race and the one
// that acquires the lock last wins, regardless of submission order.
type Memory struct {
	mu     sync.RWMutex
	notes  map[string]*memoryEntry
	seq    uint64
	clock  *note.Clock
	logger *zap.Logger
}

type memoryEntry struct {
	note *note.Note
	seq  uint64
}

// NewMemory returns an empty in-memory repository.
func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		notes:  make(map[string]*memoryEntry),
		clock:  note.NewClock(),
		logger: logger,
	}
}

func (m *Memory) Name() string { return BackendMemory }

func (m *Memory) Create(_ context.Context, text string) (*note.Note, error) {
	n, err := note.New(text, m.clock)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.seq++
	m.notes[n.ID] = &memoryEntry{note: n, seq: m.seq}
	m.mu.Unlock()

	m.logger.Debug("note created", zap.String("note_id", n.ID))
	return n.Clone(), nil
}

func (m *Memory) List(_ context.Context) ([]*note.Note, error) {
	m.mu.RLock()
	entries := make([]*memoryEntry, 0, len(m.notes))
	for _, e := range m.notes {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.note.CreatedAt.Equal(b.note.CreatedAt) {
			return a.note.CreatedAt.After(b.note.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*note.Note, len(entries))
	m.mu.RLock()
	for i, e := range entries {
		out[i] = e.note.Clone()
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*note.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.notes[id]
	if !ok {
		return nil, nil
	}
	return e.note.Clone(), nil
}

func (m *Memory) Patch(_ context.Context, id string, p note.Patch) (*note.Note, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.notes[id]
	if !ok {
		return nil, nil
	}
	p.Apply(e.note, m.clock.Now())
	return e.note.Clone(), nil
}

func (m *Memory) Search(ctx context.Context, q note.Query) ([]*note.Note, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return note.Filter(all, q), nil
}

func (m *Memory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return false, nil
	}
	delete(m.notes, id)
	return true, nil
}

func (m *Memory) Close() error { return nil }
