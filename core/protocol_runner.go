package core

// Protocol stop reasons
const (
	stopHost     = 0 // START_PROTOCOL written to 0
	stopComplete = 1
	stopLimit    = 2
	stopReset    = 3
	stopExternal = 4
	stopDefaults = 5
	stopInput    = 6 // DI0 low in start-protocol mode
)

// protocolRunner is a scripted run of a fixed number of steps. remaining
// and periodTicks are snapshots taken at start; later register writes do
// not reach a running protocol.
type protocolRunner struct {
	running     bool
	remaining   uint32
	periodTicks uint32
	dir         Direction
}

// armProtocol loads the idle runner from the current configuration. The
// extra remaining unit is consumed by the boundary that completes the run,
// so exactly numberSteps pulses are issued.
func (d *Device) armProtocol() {
	d.proto.remaining = uint32(d.settings.numberSteps) + 1
	d.proto.periodTicks = uint32(d.settings.period) * d.ticksPerMs
}

// startProtocol begins a run in the PROTOCOL_DIRECTION direction. Starting a running
// protocol is accepted and does nothing. Only device-originated starts
// (DI0 edge) emit a protocol event.
func (d *Device) startProtocol(fromDevice bool) error {
	if d.proto.running {
		return nil
	}
	if d.settings.protocolType != ProtocolSteps {
		return ErrUnsupported
	}
	if d.in.external {
		return ErrExternalControl
	}
	d.armProtocol()
	d.proto.running = true
	d.proto.dir = d.settings.protocolDir
	d.motion.period = 0
	d.record(TraceProtocolStart, uint32(d.settings.numberSteps), d.proto.periodTicks)
	if fromDevice {
		d.notify(RegProtocolState, EventProtocol, 1)
	}
	return nil
}

// stopProtocol aborts or completes a run and re-arms the runner from the
// current configuration. A pulse in flight is left to finish its width.
func (d *Device) stopProtocol(reason uint8) {
	if !d.proto.running {
		return
	}
	d.record(TraceProtocolStop, uint32(reason), d.proto.remaining)
	d.proto.running = false
	d.armProtocol()
	d.motion.period = 0
	if reason != stopHost && reason != stopDefaults {
		d.notify(RegProtocolState, EventProtocol, 0)
	}
}

// advanceProtocol runs at each protocol step-period boundary.
func (d *Device) advanceProtocol() {
	d.proto.remaining--
	if d.proto.remaining == 0 {
		d.stopProtocol(stopComplete)
		return
	}
	if d.limitActive(d.proto.dir) {
		d.dropStep(dropLimit, d.proto.dir)
		d.stopProtocol(stopLimit)
		DebugAsync("protocol aborted by limit switch")
		return
	}
	d.requestStep(d.proto.dir)
}
