package sim

import (
	"errors"
	"sync"

	"syringepump/core"
)

// ErrUnknownLine is returned when configuring a line the board does not have.
var ErrUnknownLine = errors.New("unknown line")

// Lines simulates the digital lines of the pump board. Inputs are changed
// with SetInput, which reports the edge through OnEdge like a pin-change
// interrupt would.
type Lines struct {
	mu         sync.Mutex
	levels     map[core.Line]bool
	configured map[core.Line]bool
	released   map[core.Line]bool
	stepRises  uint64

	// OnEdge is called outside the lock after an input changes level
	OnEdge func(g core.Group)
}

// NewLines returns the board at rest: buttons released, no switch active,
// external controller absent.
func NewLines() *Lines {
	l := &Lines{
		levels:     make(map[core.Line]bool),
		configured: make(map[core.Line]bool),
		released:   make(map[core.Line]bool),
	}
	for _, line := range []core.Line{core.LineButPush, core.LineButPull, core.LineButReset, core.LineEnDriverUC} {
		l.levels[line] = true
	}
	return l
}

func known(line core.Line) bool {
	return line <= core.LineBufEn || (line >= core.LineIn0 && line <= core.LineButReset)
}

// ConfigureOutput implements core.IODriver
func (l *Lines) ConfigureOutput(line core.Line) error {
	if !known(line) {
		return ErrUnknownLine
	}
	l.mu.Lock()
	l.configured[line] = true
	l.released[line] = false
	l.mu.Unlock()
	return nil
}

// ConfigureInput implements core.IODriver
func (l *Lines) ConfigureInput(line core.Line, pullUp bool) error {
	if !known(line) {
		return ErrUnknownLine
	}
	l.mu.Lock()
	l.configured[line] = true
	l.mu.Unlock()
	return nil
}

// Set implements core.IODriver
func (l *Lines) Set(line core.Line, high bool) {
	l.mu.Lock()
	if line == core.LineStep && high && !l.levels[line] {
		l.stepRises++
	}
	l.levels[line] = high
	l.mu.Unlock()
}

// Read implements core.IODriver
func (l *Lines) Read(line core.Line) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.levels[line]
}

// Release implements core.IODriver
func (l *Lines) Release(line core.Line) {
	l.mu.Lock()
	l.released[line] = true
	l.mu.Unlock()
}

// Level returns the current level of any line
func (l *Lines) Level(line core.Line) bool {
	return l.Read(line)
}

// Released reports whether line is currently in high impedance
func (l *Lines) Released(line core.Line) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released[line]
}

// StepCount returns the number of STEP rising edges seen
func (l *Lines) StepCount() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stepRises
}

// SetInput drives an input line and signals the edge when the level changed
func (l *Lines) SetInput(line core.Line, high bool) {
	l.mu.Lock()
	changed := l.levels[line] != high
	l.levels[line] = high
	onEdge := l.OnEdge
	l.mu.Unlock()

	if changed && onEdge != nil {
		onEdge(groupOf(line))
	}
}

func groupOf(line core.Line) core.Group {
	switch line {
	case core.LineSwForward, core.LineSwReverse:
		return core.GroupSwitches
	case core.LineIn0:
		return core.GroupDigitalInput
	case core.LineEnDriverUC:
		return core.GroupExternal
	}
	return core.GroupButtons
}
