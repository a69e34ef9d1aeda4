package gesture

import (
	"sync"

	"github.com/ayusman/handplay/internal/detector"
)

// CountFrame sums the extended digits of every hand in a frame.
// A frame with no hands counts as zero.
func CountFrame(frame detector.FrameResult) int {
	total := 0
	for i := range frame.Hands {
		total += CountFingers(&frame.Hands[i])
	}
	return total
}

// Counter holds the finger total of the most recent frame.
// It is safe for concurrent use; listeners run on the observing goroutine.
type Counter struct {
	mu        sync.RWMutex
	total     int
	hands     int
	frames    uint64
	listeners []func(total int)
}

// NewCounter creates a Counter showing zero.
func NewCounter() *Counter {
	return &Counter{}
}

// Observe replaces the total with the count for frame and notifies
// listeners when it changed.
func (c *Counter) Observe(frame detector.FrameResult) int {
	total := CountFrame(frame)

	c.mu.Lock()
	changed := total != c.total
	c.total = total
	c.hands = len(frame.Hands)
	c.frames++
	listeners := c.listeners
	c.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(total)
		}
	}
	return total
}

// OnChange registers fn to be called with the new total whenever it changes.
func (c *Counter) OnChange(fn func(total int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Total returns the most recent finger total.
func (c *Counter) Total() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Hands returns how many hands were in the most recent frame.
func (c *Counter) Hands() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hands
}

// Frames returns how many frames have been observed.
func (c *Counter) Frames() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}

// Reset returns the counter to zero without notifying listeners.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = 0
	c.hands = 0
	c.frames = 0
}

var ordinalLabels = [...]string{
	"Show your hand!",
	"One finger",
	"Two fingers",
	"Three fingers",
	"Four fingers",
	"Five fingers",
}

// Label returns the display text for a finger total.
func Label(total int) string {
	switch {
	case total <= 0:
		return ordinalLabels[0]
	case total < len(ordinalLabels):
		return ordinalLabels[total]
	default:
		return "Two hands!"
	}
}
