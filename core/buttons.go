package core

// Button identifies one of the front panel buttons.
type Button uint8

const (
	ButtonPush Button = iota
	ButtonPull
	ButtonReset
	numButtons
)

func (b Button) String() string {
	switch b {
	case ButtonPush:
		return "push"
	case ButtonPull:
		return "pull"
	case ButtonReset:
		return "reset"
	}
	return "unknown"
}

type buttonState uint8

const (
	buttonIdle       buttonState = iota
	buttonDebouncing             // pressed, waiting out the debounce window
	buttonShort                  // confirmed, single action fired
	buttonLong                   // held past the long-press threshold
)

// button is the debounce machine of one active-low button.
type button struct {
	id      Button
	line    Line
	dir     Direction
	state   buttonState
	pressed bool   // last sampled level, for edge detection
	settle  uint16 // ms left in the debounce window
	hold    uint16 // ms left until long press
}

// homing is the reset button sequence: flip direction once, then step
// continuously until the button is released.
type homing struct {
	active  bool
	flipped bool
	dir     Direction
}

// buttonEdge runs on an input edge (interrupt or re-sample). A press arms
// the debounce window, a release returns the button to idle.
func (d *Device) buttonEdge(b *button) {
	pressed := !d.io.Read(b.line)
	if pressed == b.pressed {
		return
	}
	b.pressed = pressed
	if !pressed {
		d.releaseButton(b)
		return
	}
	if b.state == buttonIdle {
		b.state = buttonDebouncing
		b.settle = d.cfg.debounceMs()
	}
}

// buttonMs advances a button by one millisecond. The line is re-sampled
// directly so a release is seen even when no edge was delivered.
func (d *Device) buttonMs(b *button) {
	if b.state == buttonIdle {
		return
	}
	if d.io.Read(b.line) {
		b.pressed = false
		d.releaseButton(b)
		return
	}
	switch b.state {
	case buttonDebouncing:
		b.settle--
		if b.settle == 0 {
			b.state = buttonShort
			b.hold = d.cfg.longPressMs()
			d.record(TraceButton, uint32(b.id), uint32(buttonShort))
			d.confirmButton(b)
		}
	case buttonShort:
		b.hold--
		if b.hold == 0 {
			b.state = buttonLong
			d.record(TraceButton, uint32(b.id), uint32(buttonLong))
		}
	}
}

func (d *Device) releaseButton(b *button) {
	if b.state != buttonIdle {
		d.record(TraceButton, uint32(b.id), uint32(buttonIdle))
	}
	b.state = buttonIdle
	b.settle = 0
	b.hold = 0
	if b.id == ButtonReset {
		d.endHoming()
	}
}

// confirmButton fires the single action of a confirmed short press.
func (d *Device) confirmButton(b *button) {
	if b.id == ButtonReset {
		d.stopProtocol(stopReset)
		d.homing = homing{active: true}
		d.record(TraceHoming, 1, 0)
		return
	}
	if d.proto.running || d.homing.active {
		return
	}
	d.requestStep(b.dir)
}

func (d *Device) endHoming() {
	if !d.homing.active {
		return
	}
	d.homing = homing{}
	d.record(TraceHoming, 0, 0)
}

// manualStep runs at each manual step-period boundary outside a protocol.
// Homing wins over long presses, pull wins over push.
func (d *Device) manualStep() {
	switch {
	case d.homing.active:
		if !d.homing.flipped {
			d.homing.dir = d.motion.dir.Opposite()
			d.homing.flipped = true
			d.record(TraceHoming, 1, uint32(d.homing.dir))
		}
		d.requestStep(d.homing.dir)
	case d.buttons[ButtonPull].state == buttonLong:
		d.requestStep(d.buttons[ButtonPull].dir)
	case d.buttons[ButtonPush].state == buttonLong:
		d.requestStep(d.buttons[ButtonPush].dir)
	}
}

// tickMs is the millisecond domain: button debounce and the one second
// heartbeat.
func (d *Device) tickMs() {
	for i := range d.buttons {
		d.buttonMs(&d.buttons[i])
	}
	d.msCount++
	if d.msCount >= 1000 {
		d.msCount = 0
		d.heartbeat()
	}
}
