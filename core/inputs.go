package core

// Group selects the input lines an edge notification refers to.
type Group uint8

const (
	GroupSwitches     Group = iota // forward and reverse limit switches
	GroupDigitalInput              // DI0
	GroupExternal                  // EN_DRIVER_UC takeover input
	GroupButtons                   // push, pull and reset buttons
)

// inputState holds the last observed level of every input the engine
// tracks edges on.
type inputState struct {
	swForward bool
	swReverse bool
	input     bool
	external  bool
}

// HandleEdge is called from the platform's pin-change interrupt for the
// lines of group g. It samples the lines and applies the same rules as the
// tick's polling path. Spurious calls are harmless. It does not allocate,
// so it may run in interrupt context.
func (d *Device) HandleEdge(g Group) {
	st := d.cs.enter()
	if d.faulted || !d.booted {
		d.cs.exit(st)
		return
	}
	d.handleGroup(g)
	events := d.takeEvents()
	d.cs.exit(st)
	d.deliver(&events)
}

func (d *Device) handleGroup(g Group) {
	switch g {
	case GroupSwitches:
		d.switchEdge()
	case GroupDigitalInput:
		d.inputEdge()
	case GroupExternal:
		d.externalEdge()
	case GroupButtons:
		for i := range d.buttons {
			d.buttonEdge(&d.buttons[i])
		}
	}
}

// sampleInputs re-samples every input group, as if each had signalled an
// edge.
func (d *Device) sampleInputs() {
	d.handleGroup(GroupExternal)
	d.handleGroup(GroupSwitches)
	d.handleGroup(GroupDigitalInput)
	d.handleGroup(GroupButtons)
}

func (d *Device) switchEdge() {
	d.applySwitch(&d.in.swForward, d.io.Read(LineSwForward), RegSwForwardState, EventSwForward)
	d.applySwitch(&d.in.swReverse, d.io.Read(LineSwReverse), RegSwReverseState, EventSwReverse)
}

// applySwitch records a limit switch transition. Activation aborts a
// running protocol and cancels homing.
func (d *Device) applySwitch(state *bool, active bool, addr Address, bit uint8) {
	if *state == active {
		return
	}
	*state = active
	d.notify(addr, bit, uint8(b2u(active)))
	if active {
		d.stopProtocol(stopLimit)
		d.endHoming()
	}
	d.updateSwitchMimic()
}

// inputEdge mirrors DI0 and runs its configured edge function.
func (d *Device) inputEdge() {
	level := d.io.Read(LineIn0)
	if level == d.in.input {
		return
	}
	d.in.input = level
	d.notify(RegInputState, EventInput, uint8(b2u(level)))
	switch d.settings.di0 {
	case DI0Step:
		if level && !d.proto.running {
			d.requestStep(d.motion.dir)
		}
	case DI0StartProtocol:
		// DI0 gates the run: high starts it, low stops it
		if !level {
			d.stopProtocol(stopInput)
			return
		}
		if err := d.startProtocol(true); err != nil {
			d.record(TraceStartRejected, uint32(d.settings.protocolType), b2u(d.in.external))
		}
	}
}

// externalEdge hands STEP, DIR and MSx to an external controller while
// EN_DRIVER_UC is low, and takes them back when it returns high.
func (d *Device) externalEdge() {
	active := !d.io.Read(LineEnDriverUC)
	if active == d.in.external {
		return
	}
	d.record(TraceHandover, b2u(active), 0)
	if active {
		d.clearStep()
		d.stopProtocol(stopExternal)
		d.endHoming()
		d.in.external = true
		d.io.Set(LineBufEn, true)
		for _, l := range handoverLines {
			d.io.Release(l)
		}
		return
	}

	d.in.external = false
	d.io.Set(LineBufEn, false)
	for _, l := range handoverLines {
		if err := d.io.ConfigureOutput(l); err != nil {
			d.record(TraceLineError, uint32(l), 0)
		}
	}
	d.io.Set(LineStep, false)
	d.io.Set(LineDir, d.motion.dir == Forward)
	d.applyMicrostep()
}
