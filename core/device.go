// Package core is the motion-control engine of the syringe pump: register
// bank, button debounce, step pulse generation, protocol runner and event
// reporting. The platform calls Tick at Config.TickPeriod and HandleEdge
// from its pin-change interrupts; both may preempt each other.
package core

// Device is the engine of one pump. All state shared between the tick and
// edge domains lives here and is only touched inside the critical section.
type Device struct {
	cs   critical
	cfg  Config
	io   IODriver
	sink EventSink

	// derived timing, in ticks
	ticksPerMs  uint32
	pulseTicks  uint32
	manualTicks uint32

	settings settings
	motion   motion
	proto    protocolRunner
	buttons  [numButtons]button
	homing   homing
	in       inputState
	outputs  uint8 // OUT0/OUT1 levels

	ticks   uint32
	msTicks uint32
	msCount uint32
	booted  bool
	faulted bool

	pending eventBatch
	trace   timingRing
	stats   struct {
		Steps   uint32
		Dropped uint32
	}
}

// Status is a snapshot of the engine for diagnostics.
type Status struct {
	Tick            uint32
	Direction       Direction
	StepHigh        bool
	DriverEnabled   bool
	ProtocolRunning bool
	Remaining       uint32 // protocol steps left, including the final boundary
	SwitchForward   bool
	SwitchReverse   bool
	Input           bool
	External        bool
	Homing          bool
	Outputs         uint8
	Faulted         bool
	Steps           uint32 // pulses asserted since boot
	Dropped         uint32 // step requests dropped by an interlock
}

// New creates an engine driving io and reporting to sink (which may be
// nil). Zero durations in cfg take their defaults. Call Boot before the
// first Tick.
func New(io IODriver, sink EventSink, cfg Config) (*Device, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if io == nil {
		return nil, &ConfigError{Field: "io"}
	}

	d := &Device{
		cfg:      cfg,
		io:       io,
		sink:     sink,
		settings: defaultSettings(),
	}
	d.ticksPerMs = cfg.ticksPerMs()
	d.pulseTicks = d.ticksPerMs
	d.manualTicks = ManualStepPeriodMs * d.ticksPerMs
	d.buttons[ButtonPush] = button{id: ButtonPush, line: LineButPush, dir: Reverse}
	d.buttons[ButtonPull] = button{id: ButtonPull, line: LineButPull, dir: Forward}
	d.buttons[ButtonReset] = button{id: ButtonReset, line: LineButReset}
	d.motion.dir = Reverse
	d.armProtocol()
	return d, nil
}

// ManualStepPeriodMs is the step period of button and homing motion
const ManualStepPeriodMs = 4

// Boot configures every line, pulses the driver RESET line and takes the
// initial input levels as freshly observed. It blocks for ResetPulse and
// must run before the tick source is started.
func (d *Device) Boot() error {
	for _, l := range outputLines {
		if err := d.io.ConfigureOutput(l); err != nil {
			return &LineError{Line: l, Err: err}
		}
	}
	for _, in := range inputLines {
		if err := d.io.ConfigureInput(in.line, in.pullUp); err != nil {
			return &LineError{Line: in.line, Err: err}
		}
	}

	st := d.cs.enter()
	d.io.Set(LineBufEn, false)
	d.io.Set(LineStep, false)
	d.io.Set(LineDir, d.motion.dir == Forward)
	d.io.Set(LineSleep, false)
	d.io.Set(LineOut0, false)
	d.io.Set(LineOut1, false)
	d.io.Set(LineEnDriver, false)
	d.applyMicrostep()
	d.io.Set(LineReset, false)
	d.cs.exit(st)

	d.cfg.Sleep(ResetPulse)

	st = d.cs.enter()
	d.io.Set(LineReset, true)
	d.setDriver(d.settings.enableDriver == 1)
	d.booted = true
	d.sampleInputs()
	events := d.takeEvents()
	d.cs.exit(st)

	d.deliver(&events)
	return nil
}

// Tick advances the engine by one tick. It never blocks.
func (d *Device) Tick() {
	st := d.cs.enter()
	if d.faulted || !d.booted {
		d.cs.exit(st)
		return
	}
	d.ticks++
	if d.cfg.InputMode == InputPolling {
		d.sampleInputs()
	}
	d.agePulse()
	d.msTicks++
	if d.msTicks >= d.ticksPerMs {
		d.msTicks = 0
		d.tickMs()
	}
	d.advancePeriod()
	d.checkInactivity()
	events := d.takeEvents()
	d.cs.exit(st)

	d.deliver(&events)
}

// Fault drives every motor and output line to its safe level and stops the
// engine for good. Later ticks do nothing and writes fail with ErrFaulted.
func (d *Device) Fault() {
	st := d.cs.enter()
	for _, l := range outputLines {
		d.io.Set(l, false)
	}
	d.faulted = true
	d.proto.running = false
	d.motion.stepHigh = false
	d.motion.driverOn = false
	d.homing = homing{}
	d.outputs = 0
	d.pending = eventBatch{}
	d.record(TraceFault, 0, 0)
	d.cs.exit(st)
}

// ResetRegisters restores the default configuration, ends a homing
// sequence and re-reports the limit switches as if they had just been
// observed.
func (d *Device) ResetRegisters() error {
	st := d.cs.enter()
	if d.faulted {
		d.cs.exit(st)
		return ErrFaulted
	}
	d.stopProtocol(stopDefaults)
	d.endHoming()
	d.settings = defaultSettings()
	d.armProtocol()
	d.latchDirection(Reverse)
	d.applyMicrostep()
	d.setDriver(true)
	d.motion.idle = 0
	d.setOutput(0, false)
	d.setOutput(1, false)
	d.in.swForward = false
	d.in.swReverse = false
	d.switchEdge()
	events := d.takeEvents()
	d.cs.exit(st)

	d.deliver(&events)
	return nil
}

// Status returns a snapshot of the engine
func (d *Device) Status() Status {
	st := d.cs.enter()
	s := Status{
		Tick:            d.ticks,
		Direction:       d.motion.dir,
		StepHigh:        d.motion.stepHigh,
		DriverEnabled:   d.motion.driverOn,
		ProtocolRunning: d.proto.running,
		Remaining:       d.proto.remaining,
		SwitchForward:   d.in.swForward,
		SwitchReverse:   d.in.swReverse,
		Input:           d.in.input,
		External:        d.in.external,
		Homing:          d.homing.active,
		Outputs:         d.outputs,
		Faulted:         d.faulted,
		Steps:           d.stats.Steps,
		Dropped:         d.stats.Dropped,
	}
	d.cs.exit(st)
	return s
}

// Config returns the configuration the engine runs with
func (d *Device) Config() Config {
	return d.cfg
}
