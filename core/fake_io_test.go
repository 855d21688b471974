package core

import (
	"sync"
	"testing"
	"time"
)

// transition is one recorded output change
type transition struct {
	line Line
	high bool
	at   int // test clock when it happened
}

// fakeIO records output transitions and serves input levels set by the test
type fakeIO struct {
	mu         sync.Mutex
	levels     map[Line]bool
	configured map[Line]bool
	pullUp     map[Line]bool
	released   map[Line]bool
	log        []transition
	now        int
	failLine   Line
	failErr    error
}

func newFakeIO() *fakeIO {
	f := &fakeIO{
		levels:     make(map[Line]bool),
		configured: make(map[Line]bool),
		pullUp:     make(map[Line]bool),
		released:   make(map[Line]bool),
	}
	// Idle inputs: buttons and takeover are active low
	for _, l := range []Line{LineButPush, LineButPull, LineButReset, LineEnDriverUC} {
		f.levels[l] = true
	}
	return f
}

func (f *fakeIO) ConfigureOutput(line Line) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil && line == f.failLine {
		return f.failErr
	}
	f.configured[line] = true
	f.released[line] = false
	return nil
}

func (f *fakeIO) ConfigureInput(line Line, pullUp bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil && line == f.failLine {
		return f.failErr
	}
	f.configured[line] = true
	f.pullUp[line] = pullUp
	return nil
}

func (f *fakeIO) Set(line Line, high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.levels[line] != high {
		f.log = append(f.log, transition{line: line, high: high, at: f.now})
	}
	f.levels[line] = high
}

func (f *fakeIO) Read(line Line) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.levels[line]
}

func (f *fakeIO) Release(line Line) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released[line] = true
}

// setInput changes an input level without notifying the device
func (f *fakeIO) setInput(line Line, high bool) {
	f.mu.Lock()
	f.levels[line] = high
	f.mu.Unlock()
}

func (f *fakeIO) level(line Line) bool {
	return f.Read(line)
}

func (f *fakeIO) isReleased(line Line) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released[line]
}

// rises counts rising edges on line
func (f *fakeIO) rises(line Line) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, tr := range f.log {
		if tr.line == line && tr.high {
			n++
		}
	}
	return n
}

// stepDirs returns the DIR level at every STEP rising edge
func (f *fakeIO) stepDirs() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := false // boot latches reverse
	var dirs []bool
	for _, tr := range f.log {
		switch {
		case tr.line == LineDir:
			dir = tr.high
		case tr.line == LineStep && tr.high:
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// pulseWidths returns the width in ticks of every completed STEP pulse
func (f *fakeIO) pulseWidths() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var widths []int
	start := -1
	for _, tr := range f.log {
		if tr.line != LineStep {
			continue
		}
		if tr.high {
			start = tr.at
		} else if start >= 0 {
			widths = append(widths, tr.at-start)
			start = -1
		}
	}
	return widths
}

// recorder is an EventSink keeping every event
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// forAddr returns the events of one register
func (r *recorder) forAddr(addr Address) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Address == addr {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type harness struct {
	t   *testing.T
	dev *Device
	io  *fakeIO
	rec *recorder
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Sleep = func(time.Duration) {}
	return cfg
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	io := newFakeIO()
	rec := &recorder{}
	dev, err := New(io, rec, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := dev.Boot(); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}
	return &harness{t: t, dev: dev, io: io, rec: rec}
}

// tick runs n ticks, advancing the fake clock before each
func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.io.mu.Lock()
		h.io.now++
		h.io.mu.Unlock()
		h.dev.Tick()
	}
}

func (h *harness) writeU8(addr Address, v uint8) {
	h.t.Helper()
	if err := h.dev.WriteU8(addr, v); err != nil {
		h.t.Fatalf("write %s=%d: %v", addr, v, err)
	}
}

func (h *harness) writeU16(addr Address, v uint16) {
	h.t.Helper()
	if err := h.dev.WriteU16(addr, v); err != nil {
		h.t.Fatalf("write %s=%d: %v", addr, v, err)
	}
}

func (h *harness) readU8(addr Address) uint8 {
	h.t.Helper()
	v, err := h.dev.ReadU8(addr)
	if err != nil {
		h.t.Fatalf("read %s: %v", addr, err)
	}
	return v
}

// press and release drive an active-low button and signal the edge
func (h *harness) press(line Line) {
	h.io.setInput(line, false)
	h.dev.HandleEdge(GroupButtons)
}

func (h *harness) release(line Line) {
	h.io.setInput(line, true)
	h.dev.HandleEdge(GroupButtons)
}

func (h *harness) setSwitch(line Line, active bool) {
	h.io.setInput(line, active)
	h.dev.HandleEdge(GroupSwitches)
}

func (h *harness) steps() int {
	return h.io.rises(LineStep)
}
