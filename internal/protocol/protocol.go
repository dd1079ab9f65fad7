// Package protocol issues the tracking identifiers handed to filers when a
// complaint is registered. Identifiers are decimal digit strings so they can be
// read over the phone and validated with a simple digit check.
package protocol

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"ouvidoria/backend/internal/config"
	"strconv"
	"sync"
	"time"
)

// Allocator produces protocol identifiers.
type Allocator interface {
	Allocate() (string, error)
}

// ErrClockOverflow is returned when the sequence reaches the int64 ceiling.
var ErrClockOverflow = errors.New("protocol sequence overflow")

// Sequence issues strictly increasing identifiers of the form
// unixMillis*1000 + n, where n counts allocations within the same millisecond.
// When more than 1000 are requested within one millisecond the sequence borrows
// from the next one, so values never repeat or go backwards while the process
// lives, and survive restarts as long as the wall clock does not move back.
type Sequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewSequence returns a Sequence driven by the wall clock.
func NewSequence() *Sequence {
	return &Sequence{now: time.Now}
}

// NewSequenceWithClock returns a Sequence driven by now. Used in tests.
func NewSequenceWithClock(now func() time.Time) *Sequence {
	return &Sequence{now: now}
}

// Allocate returns the next identifier.
func (s *Sequence) Allocate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.now().UnixMilli()
	if base > (1<<63-1)/1000 {
		return "", ErrClockOverflow
	}
	next := base * 1000
	if next <= s.last {
		if s.last == 1<<63-1 {
			return "", ErrClockOverflow
		}
		next = s.last + 1
	}
	s.last = next
	return strconv.FormatInt(next, 10), nil
}

// Random issues uniformly distributed 10-digit identifiers. Collisions are
// possible, so callers must verify uniqueness against the store.
type Random struct {
	base, span *big.Int
}

// NewRandom returns a Random allocator over [RandomProtocolMin, RandomProtocolMax].
func NewRandom() *Random {
	base := big.NewInt(config.RandomProtocolMin)
	span := big.NewInt(config.RandomProtocolMax - config.RandomProtocolMin + 1)
	return &Random{base: base, span: span}
}

// Allocate returns a random identifier.
func (r *Random) Allocate() (string, error) {
	n, err := rand.Int(rand.Reader, r.span)
	if err != nil {
		return "", fmt.Errorf("draw random protocol: %w", err)
	}
	return n.Add(n, r.base).String(), nil
}

// New returns the allocator for a configured strategy name.
func New(strategy string) (Allocator, error) {
	switch strategy {
	case config.ProtocolSequence, "":
		return NewSequence(), nil
	case config.ProtocolRandom:
		return NewRandom(), nil
	default:
		return nil, fmt.Errorf("unknown protocol strategy %q", strategy)
	}
}

// Valid reports whether s is shaped like an issued protocol: non-empty and
// made only of ASCII digits.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
