// Session state: which file is current and which result was produced last
package core

import (
	"fmt"
	"sync"

	"photo-filters/internal/algorithms"
)

// Session records the selected original, the last processed output and the
// filter that produced it. Empty strings mean "none".
type Session struct {
	mu            sync.RWMutex
	original      string
	lastProcessed string
	lastFilter    algorithms.Filter
	generation    uint64
}

// SessionSnapshot is a read-only copy handed to the presentation layer
type SessionSnapshot struct {
	Original      string
	LastProcessed string
	LastFilter    algorithms.Filter
	Generation    uint64
}

func NewSession() *Session {
	return &Session{}
}

// Select makes path the current original and clears any processed state.
func (s *Session) Select(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.original = path
	s.lastProcessed = ""
	s.lastFilter = ""
	s.generation++
}

// SourceFor picks the image a filter should run on: the last output when the
// same filter is applied again, the original otherwise.
func (s *Session) SourceFor(filter algorithms.Filter) (string, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.original == "" {
		return "", s.generation, ErrNoImage
	}
	if s.lastProcessed != "" && s.lastFilter != "" && s.lastFilter == filter {
		return s.lastProcessed, s.generation, nil
	}
	return s.original, s.generation, nil
}

// Record stores a successful result. Results computed against an older
// generation are rejected with ErrStale and leave the session untouched.
func (s *Session) Record(generation uint64, filter algorithms.Filter, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return fmt.Errorf("%w: generation %d, current %d", ErrStale, generation, s.generation)
	}
	if !result.Changed() {
		return nil
	}

	s.lastProcessed = result.Path
	s.lastFilter = filter
	return nil
}

// Reset shows the original as the processed image and clears chaining state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastProcessed = s.original
	s.lastFilter = ""
	s.generation++
}

func (s *Session) HasImage() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original != ""
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionSnapshot{
		Original:      s.original,
		LastProcessed: s.lastProcessed,
		LastFilter:    s.lastFilter,
		Generation:    s.generation,
	}
}
