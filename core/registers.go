package core

import "math"

// Address is a host-visible register address.
type Address uint8

// Register map
const (
	RegEnableMotorDriver Address = 32 + iota
	RegEnableMotorUC
	RegStartProtocol
	RegStepState
	RegDirState
	RegSwForwardState
	RegSwReverseState
	RegInputState
	RegSetDOs
	RegClearDOs
	RegDO0Config
	RegDO1Config
	RegDI0Config
	RegMotorMicrostep
	RegProtocolNumberSteps
	RegProtocolFlowrate
	RegProtocolPeriod
	RegProtocolVolume
	RegProtocolType
	RegCalibrationValue1
	RegCalibrationValue2
	RegEvtEnable
	RegProtocolState
	RegProtocolDirection
)

const (
	firstRegister = RegEnableMotorDriver
	lastRegister  = RegProtocolDirection
)

// Type is the element type of a register.
type Type uint8

const (
	TypeU8 Type = iota + 1
	TypeU16
	TypeFloat
)

// Size returns the encoded size of one element in bytes
func (t Type) Size() int {
	switch t {
	case TypeU8:
		return 1
	case TypeU16:
		return 2
	case TypeFloat:
		return 4
	}
	return 0
}

func (t Type) String() string {
	switch t {
	case TypeU8:
		return "U8"
	case TypeU16:
		return "U16"
	case TypeFloat:
		return "Float"
	}
	return "invalid"
}

// DO0_CONFIG values
const (
	DO0Software = 0
	DO0Switch   = 1 // high while either limit switch is active
)

// DO1_CONFIG values
const (
	DO1Software  = 0
	DO1Heartbeat = 1 // toggles once per second
	DO1Step      = 2 // follows the STEP line
)

// DI0_CONFIG values
const (
	DI0Sync          = 0 // mirrored only
	DI0Step          = 1 // rising edge issues a step
	DI0StartProtocol = 2 // rising edge starts the protocol
)

// MOTOR_MICROSTEP values
const (
	MicrostepFull = iota
	MicrostepHalf
	MicrostepQuarter
	MicrostepEighth
	MicrostepSixteenth
)

// PROTOCOL_TYPE values
const (
	ProtocolSteps  = 0
	ProtocolVolume = 1
)

// SET_DOS / CLEAR_DOS bits
const (
	DO0Mask = 1 << 0
	DO1Mask = 1 << 1
)

// Protocol parameter bounds
const (
	MinProtocolAmount = 0.5
	MaxProtocolAmount = 2000.0
)

// settings holds the stored (non-derived) register values.
type settings struct {
	enableDriver uint8
	do0          uint8
	do1          uint8
	di0          uint8
	microstep    uint8
	numberSteps  uint16
	flowrate     float32
	period       uint16
	volume       float32
	protocolType uint8
	calibration  [2]uint8
	evtEnable    uint8
	protocolDir  Direction
}

func defaultSettings() settings {
	return settings{
		enableDriver: 1,
		do0:          DO0Software,
		do1:          DO1Software,
		di0:          DI0Sync,
		microstep:    MicrostepFull,
		numberSteps:  100,
		flowrate:     0.5,
		period:       10,
		volume:       0.5,
		protocolType: ProtocolSteps,
		evtEnable:    EventAll,
		protocolDir:  Forward,
	}
}

// register describes one slot of the bank. get returns the raw value
// (float32 bits for TypeFloat); set validates and applies side effects and
// must not change anything when it returns an error.
type register struct {
	name     string
	typ      Type
	readOnly bool
	get      func(d *Device) uint32
	set      func(d *Device, v uint32) error
}

var registerTable = [lastRegister - firstRegister + 1]register{
	RegEnableMotorDriver - firstRegister: {
		name: "ENABLE_MOTOR_DRIVER", typ: TypeU8,
		get: func(d *Device) uint32 { return uint32(d.settings.enableDriver) },
		set: func(d *Device, v uint32) error {
			if v > 1 {
				return ErrOutOfRange
			}
			d.settings.enableDriver = uint8(v)
			d.setDriver(v == 1)
			d.motion.idle = 0
			return nil
		},
	},
	RegEnableMotorUC - firstRegister: {
		name: "ENABLE_MOTOR_UC", typ: TypeU8, readOnly: true,
		get: func(d *Device) uint32 { return b2u(!d.in.external) },
	},
	RegStartProtocol - firstRegister: {
		name: "START_PROTOCOL", typ: TypeU8,
		get:  func(d *Device) uint32 { return b2u(d.proto.running) },
		set: func(d *Device, v uint32) error {
			if v == 0 {
				d.stopProtocol(stopHost)
				return nil
			}
			return d.startProtocol(false)
		},
	},
	RegStepState - firstRegister: {
		name: "STEP_STATE", typ: TypeU8,
		get:  func(d *Device) uint32 { return b2u(d.motion.stepHigh) },
		set: func(d *Device, v uint32) error {
			switch {
			case v > 1:
				return ErrOutOfRange
			case v == 0:
				d.clearStep()
			case d.proto.running:
				return ErrBusy
			default:
				d.requestStep(d.motion.dir)
			}
			return nil
		},
	},
	RegDirState - firstRegister: {
		name: "DIR_STATE", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.motion.dir) },
		set: func(d *Device, v uint32) error {
			if v > 1 {
				return ErrOutOfRange
			}
			if d.proto.running {
				return ErrBusy
			}
			d.latchDirection(Direction(v))
			return nil
		},
	},
	RegSwForwardState - firstRegister: {
		name: "SW_FORWARD_STATE", typ: TypeU8, readOnly: true,
		get: func(d *Device) uint32 { return b2u(d.in.swForward) },
	},
	RegSwReverseState - firstRegister: {
		name: "SW_REVERSE_STATE", typ: TypeU8, readOnly: true,
		get: func(d *Device) uint32 { return b2u(d.in.swReverse) },
	},
	RegInputState - firstRegister: {
		name: "INPUT_STATE", typ: TypeU8, readOnly: true,
		get: func(d *Device) uint32 { return b2u(d.in.input) },
	},
	RegSetDOs - firstRegister: {
		name: "SET_DOS", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.outputs) },
		set: func(d *Device, v uint32) error {
			if v&^(DO0Mask|DO1Mask) != 0 {
				return ErrOutOfRange
			}
			d.writeDOs(uint8(v), true)
			return nil
		},
	},
	RegClearDOs - firstRegister: {
		name: "CLEAR_DOS", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.outputs) },
		set: func(d *Device, v uint32) error {
			if v&^(DO0Mask|DO1Mask) != 0 {
				return ErrOutOfRange
			}
			d.writeDOs(uint8(v), false)
			return nil
		},
	},
	RegDO0Config - firstRegister: {
		name: "DO0_CONFIG", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.do0) },
		set: func(d *Device, v uint32) error {
			if v > DO0Switch {
				return ErrOutOfRange
			}
			d.settings.do0 = uint8(v)
			d.updateSwitchMimic()
			return nil
		},
	},
	RegDO1Config - firstRegister: {
		name: "DO1_CONFIG", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.do1) },
		set: func(d *Device, v uint32) error {
			if v > DO1Step {
				return ErrOutOfRange
			}
			d.settings.do1 = uint8(v)
			if v == DO1Step {
				d.setOutput(1, d.motion.stepHigh)
			}
			return nil
		},
	},
	RegDI0Config - firstRegister: {
		name: "DI0_CONFIG", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.di0) },
		set: func(d *Device, v uint32) error {
			if v > DI0StartProtocol {
				return ErrOutOfRange
			}
			d.settings.di0 = uint8(v)
			return nil
		},
	},
	RegMotorMicrostep - firstRegister: {
		name: "MOTOR_MICROSTEP", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.microstep) },
		set: func(d *Device, v uint32) error {
			if v > MicrostepSixteenth {
				return ErrOutOfRange
			}
			d.settings.microstep = uint8(v)
			d.applyMicrostep()
			return nil
		},
	},
	RegProtocolNumberSteps - firstRegister: {
		name: "PROTOCOL_NUMBER_STEPS", typ: TypeU16,
		get:  func(d *Device) uint32 { return uint32(d.settings.numberSteps) },
		set: func(d *Device, v uint32) error {
			if v < 1 {
				return ErrOutOfRange
			}
			d.settings.numberSteps = uint16(v)
			return nil
		},
	},
	RegProtocolFlowrate - firstRegister: {
		name: "PROTOCOL_FLOWRATE", typ: TypeFloat,
		get:  func(d *Device) uint32 { return math.Float32bits(d.settings.flowrate) },
		set: func(d *Device, v uint32) error {
			f, ok := protocolAmount(v)
			if !ok {
				return ErrOutOfRange
			}
			d.settings.flowrate = f
			return nil
		},
	},
	RegProtocolPeriod - firstRegister: {
		name: "PROTOCOL_PERIOD", typ: TypeU16,
		get:  func(d *Device) uint32 { return uint32(d.settings.period) },
		set: func(d *Device, v uint32) error {
			if v < 1 {
				return ErrOutOfRange
			}
			d.settings.period = uint16(v)
			return nil
		},
	},
	RegProtocolVolume - firstRegister: {
		name: "PROTOCOL_VOLUME", typ: TypeFloat,
		get:  func(d *Device) uint32 { return math.Float32bits(d.settings.volume) },
		set: func(d *Device, v uint32) error {
			f, ok := protocolAmount(v)
			if !ok {
				return ErrOutOfRange
			}
			d.settings.volume = f
			return nil
		},
	},
	RegProtocolType - firstRegister: {
		name: "PROTOCOL_TYPE", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.protocolType) },
		set: func(d *Device, v uint32) error {
			if v > ProtocolVolume {
				return ErrOutOfRange
			}
			d.settings.protocolType = uint8(v)
			return nil
		},
	},
	RegCalibrationValue1 - firstRegister: {
		name: "CALIBRATION_VALUE_1", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.calibration[0]) },
		set: func(d *Device, v uint32) error {
			d.settings.calibration[0] = uint8(v)
			return nil
		},
	},
	RegCalibrationValue2 - firstRegister: {
		name: "CALIBRATION_VALUE_2", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.calibration[1]) },
		set: func(d *Device, v uint32) error {
			d.settings.calibration[1] = uint8(v)
			return nil
		},
	},
	RegEvtEnable - firstRegister: {
		name: "EVT_ENABLE", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.evtEnable) },
		set: func(d *Device, v uint32) error {
			d.settings.evtEnable = uint8(v)
			return nil
		},
	},
	RegProtocolState - firstRegister: {
		name: "PROTOCOL_STATE", typ: TypeU8, readOnly: true,
		get: func(d *Device) uint32 { return b2u(d.proto.running) },
	},
	RegProtocolDirection - firstRegister: {
		name: "PROTOCOL_DIRECTION", typ: TypeU8,
		get:  func(d *Device) uint32 { return uint32(d.settings.protocolDir) },
		set: func(d *Device, v uint32) error {
			if v > 1 {
				return ErrOutOfRange
			}
			d.settings.protocolDir = Direction(v)
			return nil
		},
	},
}

// RegisterInfo is the host-visible metadata of a register.
type RegisterInfo struct {
	Address  Address
	Name     string
	Type     Type
	Count    int
	ReadOnly bool
}

func lookup(addr Address) (*register, bool) {
	if addr < firstRegister || addr > lastRegister {
		return nil, false
	}
	return &registerTable[addr-firstRegister], true
}

// Registers lists the register map in address order
func Registers() []RegisterInfo {
	infos := make([]RegisterInfo, 0, len(registerTable))
	for i := range registerTable {
		infos = append(infos, info(firstRegister+Address(i)))
	}
	return infos
}

// LookupRegister finds a register by name, e.g. "PROTOCOL_PERIOD"
func LookupRegister(name string) (RegisterInfo, bool) {
	for i := range registerTable {
		if registerTable[i].name == name {
			return info(firstRegister + Address(i)), true
		}
	}
	return RegisterInfo{}, false
}

func info(addr Address) RegisterInfo {
	r := &registerTable[addr-firstRegister]
	return RegisterInfo{Address: addr, Name: r.name, Type: r.typ, Count: 1, ReadOnly: r.readOnly}
}

func (a Address) String() string {
	if r, ok := lookup(a); ok {
		return r.name
	}
	return "register " + itoa(int(a))
}

func protocolAmount(bits uint32) (float32, bool) {
	f := math.Float32frombits(bits)
	// NaN fails both comparisons
	if !(f >= MinProtocolAmount && f <= MaxProtocolAmount) {
		return 0, false
	}
	return f, true
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
