package poller

import "sync"

// Sequencer applies responses in issue order: a response is applied only if
// it was issued after the last applied one. Responses overtaken by a newer
// one are dropped and counted as stale.
type Sequencer struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	stale   uint64
}

// Next issues a new sequence number.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply runs fn if seq is newer than the last applied sequence and reports
// whether it did. fn runs under the sequencer lock.
func (s *Sequencer) Apply(seq uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.applied {
		s.stale++
		return false
	}
	s.applied = seq
	if seq > s.issued {
		s.issued = seq
	}
	if fn != nil {
		fn()
	}
	return true
}

// Current reports whether seq is still the latest issued number.
func (s *Sequencer) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.issued
}

// Stale is the number of dropped responses.
func (s *Sequencer) Stale() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}
