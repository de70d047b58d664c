// Package testutil provides deterministic helpers for tests.
package testutil

import "sync"

// FixedTokenSource returns predetermined correlation tokens.
//
// This enables deterministic test execution and golden trace comparison:
// tests provide a known sequence of tokens and verify exact trace output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedTokenSource struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokenSource creates a source that returns tokens in order.
//
// Example:
//
//	src := NewFixedTokenSource("tok-1", "tok-2")
//	src.Generate() // "tok-1"
//	src.Generate() // "tok-2"
//	src.Generate() // panic: all tokens exhausted
func NewFixedTokenSource(tokens ...string) *FixedTokenSource {
	return &FixedTokenSource{tokens: tokens}
}

// Generate returns the next predetermined token.
//
// Panics once all tokens are consumed. This fail-fast behavior catches
// test misconfiguration (more root dispatches than the test expected).
func (s *FixedTokenSource) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.tokens) {
		panic("FixedTokenSource: all tokens exhausted")
	}
	token := s.tokens[s.idx]
	s.idx++
	return token
}

// Remaining returns the number of unconsumed tokens.
func (s *FixedTokenSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens) - s.idx
}
