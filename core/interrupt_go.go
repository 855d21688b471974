//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// critical excludes the edge domain while the tick domain touches shared
// state (and the reverse). On regular Go both domains are goroutines, so
// exclusion is a mutex per device.
type critical struct {
	mu sync.Mutex
}

func (c *critical) enter() State {
	c.mu.Lock()
	return 0
}

func (c *critical) exit(state State) {
	c.mu.Unlock()
}
