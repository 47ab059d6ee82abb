package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Clark-Hu/cinema-booking/internal/booking"
)

// ErrNotFound is returned when a session is missing or has expired.
var ErrNotFound = errors.New("sessions: not found")

// Store persists wizard snapshots between storefront requests.
type Store interface {
	Save(ctx context.Context, id string, snap booking.Snapshot, expiresAt time.Time) error
	Load(ctx context.Context, id string) (booking.Snapshot, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StageCounter is implemented by stores that can report live sessions per
// wizard stage.
type StageCounter interface {
	CountByStage(ctx context.Context) (map[string]int64, error)
}

type memoryEntry struct {
	snap      booking.Snapshot
	expiresAt time.Time
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (s *MemoryStore) Save(_ context.Context, id string, snap booking.Snapshot, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{snap: snap, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (booking.Snapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || !entry.expiresAt.After(s.now()) {
		return booking.Snapshot{}, ErrNotFound
	}
	return entry.snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// CountByStage reports live sessions per wizard stage.
func (s *MemoryStore) CountByStage(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	counts := make(map[string]int64)
	for _, entry := range s.entries {
		if entry.expiresAt.After(now) {
			counts[entry.snap.Stage.String()]++
		}
	}
	return counts, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
