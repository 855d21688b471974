package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures an engine decision for post-mortem analysis
type TimingEvent struct {
	Kind   uint8  // Trace* code
	Tick   uint32 // engine tick at the event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Trace codes
const (
	TraceStepAsserted  = 1  // Value1 direction
	TraceStepCleared   = 2  // Value1 pulse age in ticks
	TraceStepDropped   = 3  // Value1 drop reason, Value2 direction
	TraceDirLatched    = 4  // Value1 direction
	TraceProtocolStart = 5  // Value1 steps, Value2 period in ticks
	TraceProtocolStop  = 6  // Value1 stop reason, Value2 remaining
	TraceButton        = 7  // Value1 button, Value2 button state
	TraceHoming        = 8  // Value1 1 started, 0 ended; Value2 direction
	TraceDriver        = 9  // Value1 1 enabled, 0 disabled
	TraceHandover      = 10 // Value1 1 external, 0 engine
	TraceFault         = 11
	TraceLineError     = 12 // Value1 line
	TraceStartRejected = 13 // Value1 protocol type, Value2 1 under external control
	TraceEventLost     = 14 // Value1 address, Value2 value
)

// Step drop reasons
const (
	dropPulseActive = 1
	dropLimit       = 2
	dropExternal    = 3
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking).
// Safe to call with interrupts disabled; drops the message when the
// channel is full or async output was never started.
func DebugAsync(msg string) {
	if debugChan != nil && debugEnabled {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// timingRing is a fixed ring of the most recent trace events
type timingRing struct {
	buf  [TimingRingSize]TimingEvent
	head uint8
}

func (r *timingRing) record(kind uint8, tick, value1, value2 uint32) {
	idx := r.head
	r.buf[idx] = TimingEvent{Kind: kind, Tick: tick, Value1: value1, Value2: value2}
	r.head = (idx + 1) % TimingRingSize
}

// events returns the recorded events, oldest first
func (r *timingRing) events() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := r.buf[(r.head+i)%TimingRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

func (d *Device) record(kind uint8, value1, value2 uint32) {
	d.trace.record(kind, d.ticks, value1, value2)
}

// Trace returns a copy of the timing ring, oldest first
func (d *Device) Trace() []TimingEvent {
	st := d.cs.enter()
	events := d.trace.events()
	d.cs.exit(st)
	return events
}

// ClearTrace empties the timing ring
func (d *Device) ClearTrace() {
	st := d.cs.enter()
	d.trace = timingRing{}
	d.cs.exit(st)
}

// DumpTrace writes the timing ring through the debug writer (call on
// shutdown or after a fault, not from the tick)
func (d *Device) DumpTrace() {
	if debugPrintln == nil {
		return
	}
	events := d.Trace()
	stats := d.Status()

	debugPrintln("[TRACE] === Timing Ring Dump ===")
	debugPrintln("[TRACE] ticks=" + utoa(stats.Tick) +
		" steps=" + utoa(stats.Steps) +
		" dropped=" + utoa(stats.Dropped))
	for _, evt := range events {
		debugPrintln("[TRACE] " + TraceName(evt.Kind) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// TraceName returns a short label for a trace code
func TraceName(kind uint8) string {
	switch kind {
	case TraceStepAsserted:
		return "STEP_SET"
	case TraceStepCleared:
		return "STEP_CLR"
	case TraceStepDropped:
		return "STEP_DROP"
	case TraceDirLatched:
		return "DIR"
	case TraceProtocolStart:
		return "PROTO_START"
	case TraceProtocolStop:
		return "PROTO_STOP"
	case TraceButton:
		return "BUTTON"
	case TraceHoming:
		return "HOMING"
	case TraceDriver:
		return "DRIVER"
	case TraceHandover:
		return "HANDOVER"
	case TraceFault:
		return "FAULT!"
	case TraceLineError:
		return "LINE_ERR"
	case TraceStartRejected:
		return "START_REJ"
	case TraceEventLost:
		return "EVT_LOST"
	}
	return "UNKNOWN"
}
