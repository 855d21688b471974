//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// hardwareMicros reads the low word of the 1MHz hardware timer
func hardwareMicros() uint32 {
	return timerRAWL.Get()
}

// tickClock paces Tick calls from the hardware timer. Deadlines advance by
// a fixed period so loop jitter does not accumulate.
type tickClock struct {
	period uint32 // microseconds
	next   uint32
}

func newTickClock(periodMicros uint32) *tickClock {
	return &tickClock{period: periodMicros, next: hardwareMicros() + periodMicros}
}

// due reports whether the next deadline has passed. Wraparound safe.
func (c *tickClock) due() bool {
	if int32(hardwareMicros()-c.next) < 0 {
		return false
	}
	c.next += c.period
	return true
}
