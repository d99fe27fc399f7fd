package store

import (
	"context"
	"sync"
)

// MemorySlot keeps the value in process memory only
type MemorySlot struct {
	mu    sync.Mutex
	value string
	saves int
}

// NewMemory creates an empty in-memory slot
func NewMemory() *MemorySlot {
	return &MemorySlot{}
}

// Load returns the last saved value
func (s *MemorySlot) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

// Save replaces the value and counts the call
func (s *MemorySlot) Save(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.saves++
	return nil
}

// Saves returns how many times Save was called
func (s *MemorySlot) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close is a no-op
func (s *MemorySlot) Close() error { return nil }
