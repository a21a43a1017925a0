// Package random provides Random implementations.
package random

import (
	"crypto/rand"
	"sync"

	"github.com/rankgate/rankgate/ports"
)

// Real uses crypto/rand for secure randomness.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Ensure interface compliance.
var _ ports.Random = Real{}

// Fake provides deterministic randomness for testing.
type Fake struct {
	mu      sync.Mutex
	counter int
	values  [][]byte // preset values returned first
	index   int
}

// NewFake creates a fake random source.
func NewFake() *Fake {
	return &Fake{}
}

// WithValues sets preset byte values to return, in order.
func (f *Fake) WithValues(values ...[]byte) *Fake {
	f.values = values
	f.index = 0
	return f
}

// Bytes returns the next preset value, padded or truncated to n, or
// counter-derived deterministic bytes once presets are exhausted.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index < len(f.values) {
		v := f.values[f.index]
		f.index++
		if len(v) >= n {
			return v[:n], nil
		}
		result := make([]byte, n)
		copy(result, v)
		return result, nil
	}

	f.counter++
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte((f.counter + i) % 256)
	}
	return b, nil
}

// Reset resets the fake to its initial state.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter = 0
	f.index = 0
}

// Ensure interface compliance.
var _ ports.Random = (*Fake)(nil)
