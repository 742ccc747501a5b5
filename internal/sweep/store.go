package sweep

import (
	"fmt"
	"sync"
)

// RecordStore persists completed convergence records keyed by
// RecordKey. An existing key gates recomputation: the integrator calls
// are expensive while the analytical side is cheap, so a sweep re-run
// reuses every record already present.
type RecordStore interface {
	// Has reports whether a record exists for the key.
	Has(key string) (bool, error)

	// Get returns the record for the key. A present but unreadable
	// record is an error; corruption must fail loudly, never trigger a
	// silent recompute.
	Get(key string) (Record, error)

	// Put persists a record. Records are write-once; overwriting an
	// existing key is an error.
	Put(key string, rec Record) error
}

// MemStore is an in-memory RecordStore for tests and dry runs.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemStore creates an empty in-memory record store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]Record)}
}

// Has reports whether a record exists for the key.
func (s *MemStore) Has(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[key]
	return ok, nil
}

// Get returns the record for the key.
func (s *MemStore) Get(key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, fmt.Errorf("no record for key %q", key)
	}
	return rec, nil
}

// Put persists a record. Overwriting an existing key is an error.
func (s *MemStore) Put(key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; ok {
		return fmt.Errorf("record %q already exists", key)
	}
	s.records[key] = rec
	return nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
