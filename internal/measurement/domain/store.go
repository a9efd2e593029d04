// Package measurement buffers the active session's raw per-channel readings.
package measurement

import (
	"sync"

	"implant-cloud/internal/channelmap"
)

// Store holds the raw impedance readings of the active measurement session.
// It is a pure buffer: the device-link delivery path fills it, diagnosis
// reads it, and a new session clears it.
type Store struct {
	mu     sync.RWMutex
	values map[int]float64
}

// NewStore constructs an empty session buffer.
func NewStore() *Store {
	return &Store{values: make(map[int]float64)}
}

// Ingest records the raw reading for a channel.
func (s *Store) Ingest(channel int, raw float64) error {
	if channel < channelmap.MinChannel || channel > channelmap.MaxChannel {
		return channelmap.ErrOutOfRange
	}
	s.mu.Lock()
	s.values[channel] = raw
	s.mu.Unlock()
	return nil
}

// Clear empties the buffer at session start.
func (s *Store) Clear() {
	s.mu.Lock()
	s.values = make(map[int]float64)
	s.mu.Unlock()
}

// Value returns the raw reading for a channel, if present.
func (s *Store) Value(channel int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[channel]
	return value, ok
}

// Snapshot returns a copy of the buffered readings.
func (s *Store) Snapshot() map[int]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[int]float64, len(s.values))
	for channel, value := range s.values {
		snapshot[channel] = value
	}
	return snapshot
}

// Len returns the number of buffered readings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
