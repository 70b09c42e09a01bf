// Package cache persists the last known-good character list between runs.
//
// The store is a single-key value store: the whole ordered list is serialized
// as JSON under Key. Reads never fail loudly. A missing key, an empty list or
// a value that does not parse as a list of records all read as absent, so the
// caller only has to handle "have data" and "have nothing".
package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/etd-wiki/dungeon/internal/characters"
)

// Key is the well-known cache key holding the serialized list.
const Key = "characters-cache"

// Store is the Local Cache Store contract.
type Store interface {
	// Get returns the cached list, or false when absent or unreadable.
	Get(ctx context.Context) ([]characters.Record, bool)
	// Set overwrites the cached list.
	Set(ctx context.Context, records []characters.Record) error
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu  sync.Mutex
	raw []byte
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
)

// NewMemory returns a Memory store seeded with raw, which may be invalid JSON.
func NewMemory(raw []byte) *Memory {
	m := &Memory{}
	if raw != nil {
		m.raw = append([]byte(nil), raw...)
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context) ([]characters.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return decode(m.raw)
}

// Set implements Store.
func (m *Memory) Set(ctx context.Context, records []characters.Record) error {
	raw, err := encode(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
	return nil
}

func encode(records []characters.Record) ([]byte, error) {
	if records == nil {
		records = []characters.Record{}
	}
	return json.Marshal(records)
}

func decode(raw []byte) ([]characters.Record, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var records []characters.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}
