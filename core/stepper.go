package core

// Direction of travel. The value is the DIR line level and the DIR_STATE
// register value.
type Direction uint8

const (
	Reverse Direction = 0
	Forward Direction = 1
)

// Opposite returns the other direction
func (dir Direction) Opposite() Direction {
	if dir == Forward {
		return Reverse
	}
	return Forward
}

func (dir Direction) String() string {
	if dir == Forward {
		return "forward"
	}
	return "reverse"
}

// motion is the step pulse generator state.
type motion struct {
	dir      Direction // latched on the DIR line
	stepHigh bool      // STEP line asserted
	pulseAge uint32    // ticks since the pulse was asserted
	period   uint32    // ticks since the last step-period boundary
	idle     uint32    // ticks since the last step, for the inactivity timeout
	driverOn bool      // EN_DRIVER level
}

// requestStep asserts a step pulse in dir unless an interlock drops it.
// Dropped steps are not queued.
func (d *Device) requestStep(dir Direction) bool {
	switch {
	case d.in.external:
		d.dropStep(dropExternal, dir)
		return false
	case d.motion.stepHigh:
		d.dropStep(dropPulseActive, dir)
		return false
	case d.limitActive(dir):
		d.dropStep(dropLimit, dir)
		return false
	}

	d.latchDirection(dir)
	if !d.motion.driverOn && d.settings.enableDriver == 1 {
		d.setDriver(true)
	}
	d.motion.stepHigh = true
	d.motion.pulseAge = 0
	d.motion.idle = 0
	d.drive(LineStep, true)
	if d.settings.do1 == DO1Step {
		d.setOutput(1, true)
	}
	d.stats.Steps++
	d.record(TraceStepAsserted, uint32(dir), 0)
	d.notify(RegStepState, EventStep, 1)
	return true
}

func (d *Device) dropStep(reason uint8, dir Direction) {
	d.stats.Dropped++
	d.record(TraceStepDropped, uint32(reason), uint32(dir))
}

// clearStep ends the pulse. Clearing an already cleared line is a no-op.
func (d *Device) clearStep() {
	if !d.motion.stepHigh {
		return
	}
	d.record(TraceStepCleared, d.motion.pulseAge, 0)
	d.motion.stepHigh = false
	d.motion.pulseAge = 0
	d.drive(LineStep, false)
	if d.settings.do1 == DO1Step {
		d.setOutput(1, false)
	}
	d.notify(RegStepState, EventStep, 0)
}

// agePulse clears the pulse once it has been high for pulseTicks, whatever
// else is going on.
func (d *Device) agePulse() {
	if !d.motion.stepHigh {
		return
	}
	d.motion.pulseAge++
	if d.motion.pulseAge >= d.pulseTicks {
		d.clearStep()
	}
}

// latchDirection drives DIR only when dir differs from the latched value.
func (d *Device) latchDirection(dir Direction) {
	if dir == d.motion.dir {
		return
	}
	d.motion.dir = dir
	d.drive(LineDir, dir == Forward)
	d.record(TraceDirLatched, uint32(dir), 0)
	d.notify(RegDirState, EventDir, uint8(dir))
}

func (d *Device) limitActive(dir Direction) bool {
	if dir == Forward {
		return d.in.swForward
	}
	return d.in.swReverse
}

func (d *Device) setDriver(on bool) {
	if d.motion.driverOn != on {
		d.record(TraceDriver, b2u(on), 0)
	}
	d.motion.driverOn = on
	d.io.Set(LineEnDriver, on)
}

// advancePeriod runs the step-period boundary: the protocol when one is
// running, manual stepping otherwise.
func (d *Device) advancePeriod() {
	d.motion.period++
	if d.proto.running {
		if d.motion.period >= d.proto.periodTicks {
			d.motion.period = 0
			d.advanceProtocol()
		}
		return
	}
	if d.motion.period >= d.manualTicks {
		d.motion.period = 0
		d.manualStep()
	}
}

// checkInactivity disables the driver after InactivityTicks without a step.
// The next step re-enables it if ENABLE_MOTOR_DRIVER is set.
func (d *Device) checkInactivity() {
	if d.cfg.InactivityTicks == 0 {
		return
	}
	d.motion.idle++
	if d.motion.idle < d.cfg.InactivityTicks {
		return
	}
	d.motion.idle = 0
	if d.motion.driverOn {
		d.setDriver(false)
		DebugAsync("motor driver disabled after inactivity")
	}
}
