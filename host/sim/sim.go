// Package sim runs the pump engine against simulated lines on a virtual or
// real-time clock, and drives it from a line-oriented console.
package sim

import (
	"context"
	"fmt"
	"time"

	"syringepump/core"
)

// EventQueueSize bounds the events held between two console reads
const EventQueueSize = 256

// Sim is one simulated pump.
type Sim struct {
	Dev    *core.Device
	Lines  *Lines
	Events *core.EventQueue
	cfg    core.Config
}

// New boots an engine on simulated lines. In interrupt mode input changes
// are delivered through HandleEdge; in polling mode the tick finds them.
func New(cfg core.Config) (*Sim, error) {
	lines := NewLines()
	events := core.NewEventQueue(EventQueueSize)

	dev, err := core.New(lines, events, cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if dev.Config().InputMode == core.InputInterrupt {
		lines.OnEdge = dev.HandleEdge
	}
	if err := dev.Boot(); err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}

	return &Sim{
		Dev:    dev,
		Lines:  lines,
		Events: events,
		cfg:    dev.Config(),
	}, nil
}

// Advance runs n ticks on the virtual clock
func (s *Sim) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Dev.Tick()
	}
}

// Ticks converts a duration to a tick count, rounding down
func (s *Sim) Ticks(d time.Duration) int {
	return int(d / s.cfg.TickPeriod)
}

// Realtime ticks the engine from a wall-clock ticker until ctx is done.
// Console commands may run concurrently.
func (s *Sim) Realtime(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Dev.Tick()
		}
	}
}
