package livebuffer

import (
	"sync"

	"github.com/airmon/air-monitor-service/internal/model"
)

// DefaultCapacity matches the live chart window size.
const DefaultCapacity = 100

// Buffer holds the most recent readings for the live view. It is a
// single-writer (the telemetry client) / multiple-reader structure: readers
// always get a private copy, never the underlying slice.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	readings []model.Reading
}

// NewBuffer creates a buffer with the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		readings: make([]model.Reading, 0, capacity),
	}
}

// Append adds one reading, evicting from the front when the buffer is full.
// Order is arrival order, not timestamp order.
func (b *Buffer) Append(r model.Reading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.readings = append(b.readings, r)
	if len(b.readings) > b.capacity {
		// Shift instead of re-slicing so the backing array never grows
		// past capacity+1 and old readings become collectable.
		copy(b.readings, b.readings[len(b.readings)-b.capacity:])
		b.readings = b.readings[:b.capacity]
	}
}

// Snapshot returns a copy of the current contents. The copy is safe to hold
// across later appends.
func (b *Buffer) Snapshot() []model.Reading {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Reading, len(b.readings))
	copy(out, b.readings)
	return out
}

// Len returns the current number of buffered readings.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.readings)
}

// Capacity returns the configured window size.
func (b *Buffer) Capacity() int {
	return b.capacity
}
