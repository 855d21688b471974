package core

// microstepTable maps MOTOR_MICROSTEP to MS1, MS2, MS3
var microstepTable = [...][3]bool{
	MicrostepFull:      {false, false, false},
	MicrostepHalf:      {true, false, false},
	MicrostepQuarter:   {false, true, false},
	MicrostepEighth:    {true, true, false},
	MicrostepSixteenth: {true, true, true},
}

// drive sets an engine-owned line. Lines handed over to the external
// controller are left alone; their level is restored on reclaim.
func (d *Device) drive(line Line, high bool) {
	if d.in.external {
		for _, l := range handoverLines {
			if l == line {
				return
			}
		}
	}
	d.io.Set(line, high)
}

func (d *Device) applyMicrostep() {
	ms := microstepTable[d.settings.microstep]
	d.drive(LineMS1, ms[0])
	d.drive(LineMS2, ms[1])
	d.drive(LineMS3, ms[2])
}

// setOutput drives digital output n (0 or 1) and tracks it in the output
// mask read back through SET_DOS and CLEAR_DOS.
func (d *Device) setOutput(n uint8, high bool) {
	mask := uint8(1) << n
	if high {
		d.outputs |= mask
	} else {
		d.outputs &^= mask
	}
	if n == 0 {
		d.io.Set(LineOut0, high)
	} else {
		d.io.Set(LineOut1, high)
	}
}

// writeDOs applies a SET_DOS or CLEAR_DOS mask. Outputs assigned to a
// hardware function ignore it.
func (d *Device) writeDOs(mask uint8, high bool) {
	if mask&DO0Mask != 0 && d.settings.do0 == DO0Software {
		d.setOutput(0, high)
	}
	if mask&DO1Mask != 0 && d.settings.do1 == DO1Software {
		d.setOutput(1, high)
	}
}

// updateSwitchMimic drives DO0 from the limit switches when configured so
func (d *Device) updateSwitchMimic() {
	if d.settings.do0 == DO0Switch {
		d.setOutput(0, d.in.swForward || d.in.swReverse)
	}
}

// heartbeat toggles DO1 once per second when configured so
func (d *Device) heartbeat() {
	if d.settings.do1 == DO1Heartbeat {
		d.setOutput(1, d.outputs&DO1Mask == 0)
	}
}
