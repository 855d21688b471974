//go:build rp2040

package main

import (
	"time"

	"syringepump/core"
)

// eventBuffer holds events between two passes of the main loop
const eventBuffer = 64

func main() {
	core.SetDebugWriter(func(s string) { println(s) })
	core.InitAsyncDebug()

	events := core.NewEventQueue(eventBuffer)
	cfg := core.DefaultConfig()

	dev, err := core.New(RPLineDriver{}, events, cfg)
	if err != nil {
		halt(err)
	}
	if err := dev.Boot(); err != nil {
		halt(err)
	}
	if err := installEdgeInterrupts(dev); err != nil {
		dev.Fault()
		halt(err)
	}
	core.DebugPrintln("pump: ready")

	clock := newTickClock(uint32(cfg.TickPeriod / time.Microsecond))
	for {
		if clock.due() {
			dev.Tick()
			continue
		}
		// Report events between ticks
		select {
		case e := <-events.Events():
			println("EVT", e.Tick, uint8(e.Address), e.Value)
		default:
		}
	}
}

// halt reports a startup failure forever; the device stays in a safe state
func halt(err error) {
	for {
		println("pump: " + err.Error())
		time.Sleep(time.Second)
	}
}
