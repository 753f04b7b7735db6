package progress

import "sync"

// RingBuffer is a concurrent-safe fixed-size ring buffer of recent events.
// A client connecting mid-run can read it to catch up on what it missed,
// without the buffer ever becoming authoritative.
type RingBuffer struct {
	mu     sync.RWMutex
	events []Event
	size   int
	head   int
	count  int
}

// NewRingBuffer creates a ring buffer that holds up to size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 100
	}
	return &RingBuffer{
		events: make([]Event, size),
		size:   size,
	}
}

// Add appends an event, overwriting the oldest if full.
func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.events[rb.head] = e
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// Last returns the last n events in chronological order.
func (rb *RingBuffer) Last(n int) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.count {
		n = rb.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]Event, n)
	start := (rb.head - n + rb.size) % rb.size
	for i := 0; i < n; i++ {
		result[i] = rb.events[(start+i)%rb.size]
	}
	return result
}

// Count returns the number of events currently stored.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}
