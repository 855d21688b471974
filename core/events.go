package core

import "sync/atomic"

// EVT_ENABLE bits
const (
	EventStep      = 1 << 0
	EventDir       = 1 << 1
	EventSwForward = 1 << 2
	EventSwReverse = 1 << 3
	EventInput     = 1 << 4
	EventProtocol  = 1 << 5

	EventAll = EventStep | EventDir | EventSwForward | EventSwReverse | EventInput | EventProtocol
)

// Event notifies the host that a register changed state.
type Event struct {
	Address Address
	Value   uint8
	Tick    uint32 // engine tick at which the transition happened
}

// EventSink receives events outside of the critical section. Emit must not
// block: it may be called from an interrupt handler.
type EventSink interface {
	Emit(e Event)
}

// EventFunc adapts a function to EventSink
type EventFunc func(e Event)

// Emit calls f(e)
func (f EventFunc) Emit(e Event) {
	f(e)
}

// EventQueue is a bounded, non-blocking EventSink. Events that do not fit
// are dropped and counted.
type EventQueue struct {
	ch      chan Event
	dropped uint32
}

// NewEventQueue creates a queue holding up to size events
func NewEventQueue(size int) *EventQueue {
	return &EventQueue{ch: make(chan Event, size)}
}

// Emit queues e, dropping it when the queue is full
func (q *EventQueue) Emit(e Event) {
	select {
	case q.ch <- e:
	default:
		atomic.AddUint32(&q.dropped, 1)
	}
}

// Events returns the receive side of the queue
func (q *EventQueue) Events() <-chan Event {
	return q.ch
}

// Drain returns every queued event without blocking
func (q *EventQueue) Drain() []Event {
	var out []Event
	for {
		select {
		case e := <-q.ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

// Dropped returns the number of events lost to a full queue
func (q *EventQueue) Dropped() uint32 {
	return atomic.LoadUint32(&q.dropped)
}

// maxPending bounds the events a single critical section can raise
const maxPending = 16

// eventBatch holds the events raised inside one critical section. It is a
// fixed array so edge handlers running in interrupt context never allocate.
type eventBatch struct {
	buf [maxPending]Event
	n   int
}

// notify records an event for addr if its enable bit is set. Callers only
// invoke it on an actual transition.
func (d *Device) notify(addr Address, bit uint8, value uint8) {
	if d.settings.evtEnable&bit == 0 {
		return
	}
	if d.pending.n == maxPending {
		d.record(TraceEventLost, uint32(addr), uint32(value))
		return
	}
	d.pending.buf[d.pending.n] = Event{Address: addr, Value: value, Tick: d.ticks}
	d.pending.n++
}

// takeEvents hands the pending events to the caller by value. Called inside
// the critical section; the result is delivered after leaving it.
func (d *Device) takeEvents() eventBatch {
	events := d.pending
	d.pending.n = 0
	return events
}

func (d *Device) deliver(events *eventBatch) {
	if d.sink == nil {
		return
	}
	for i := 0; i < events.n; i++ {
		d.sink.Emit(events.buf[i])
	}
}
