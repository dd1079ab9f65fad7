// Package eligibility answers whether an enrollment id may file a complaint.
// The list itself is maintained elsewhere; this package only reads it.
package eligibility

import (
	"context"
	"strings"
	"sync"
	"unicode"
)

// Oracle checks membership in the eligibility set.
type Oracle interface {
	IsEligible(ctx context.Context, enrollmentID string) (bool, error)
}

// Static is an in-memory eligibility set.
type Static struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewStatic returns a Static oracle containing ids (normalized to digits).
func NewStatic(ids ...string) *Static {
	s := &Static{ids: make(map[string]struct{}, len(ids))}
	s.Replace(ids)
	return s
}

// IsEligible reports whether enrollmentID is in the set.
func (s *Static) IsEligible(_ context.Context, enrollmentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[enrollmentID]
	return ok, nil
}

// Replace swaps the whole set.
func (s *Static) Replace(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if n := digitsOnly(id); n != "" {
			next[n] = struct{}{}
		}
	}
	s.mu.Lock()
	s.ids = next
	s.mu.Unlock()
}

// Len returns the number of eligible ids.
func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
