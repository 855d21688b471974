package core

import (
	"errors"
	"math"
	"testing"
)

func TestRegisterDefaults(t *testing.T) {
	h := newHarness(t, testConfig())

	u8 := []struct {
		addr Address
		want uint8
	}{
		{RegEnableMotorDriver, 1},
		{RegEnableMotorUC, 1},
		{RegStartProtocol, 0},
		{RegStepState, 0},
		{RegDirState, uint8(Reverse)},
		{RegDO0Config, DO0Software},
		{RegDO1Config, DO1Software},
		{RegDI0Config, DI0Sync},
		{RegMotorMicrostep, MicrostepFull},
		{RegProtocolType, ProtocolSteps},
		{RegEvtEnable, EventAll},
		{RegProtocolState, 0},
		{RegProtocolDirection, uint8(Forward)},
	}
	for _, tc := range u8 {
		if got := h.readU8(tc.addr); got != tc.want {
			t.Errorf("%s = %d, want %d", tc.addr, got, tc.want)
		}
	}

	if v, _ := h.dev.ReadU16(RegProtocolNumberSteps); v != 100 {
		t.Errorf("PROTOCOL_NUMBER_STEPS = %d, want 100", v)
	}
	if v, _ := h.dev.ReadU16(RegProtocolPeriod); v != 10 {
		t.Errorf("PROTOCOL_PERIOD = %d, want 10", v)
	}
	if v, _ := h.dev.ReadFloat(RegProtocolFlowrate); v != 0.5 {
		t.Errorf("PROTOCOL_FLOWRATE = %v, want 0.5", v)
	}
}

func TestRegisterAccessRejected(t *testing.T) {
	h := newHarness(t, testConfig())

	tests := []struct {
		name    string
		addr    Address
		typ     Type
		payload []byte
		count   int
		want    error
	}{
		{"below range", 31, TypeU8, []byte{1}, 1, ErrInvalidAddress},
		{"above range", 56, TypeU8, []byte{1}, 1, ErrInvalidAddress},
		{"wrong type", RegProtocolNumberSteps, TypeU8, []byte{1}, 1, ErrTypeMismatch},
		{"float as u16", RegProtocolFlowrate, TypeU16, []byte{1, 0}, 1, ErrTypeMismatch},
		{"two elements", RegDirState, TypeU8, []byte{1, 1}, 2, ErrCountMismatch},
		{"short payload", RegProtocolPeriod, TypeU16, []byte{1}, 1, ErrCountMismatch},
		{"read-only switch", RegSwForwardState, TypeU8, []byte{1}, 1, ErrReadOnly},
		{"read-only protocol state", RegProtocolState, TypeU8, []byte{1}, 1, ErrReadOnly},
		{"direction 2", RegDirState, TypeU8, []byte{2}, 1, ErrOutOfRange},
		{"protocol direction 2", RegProtocolDirection, TypeU8, []byte{2}, 1, ErrOutOfRange},
		{"microstep 5", RegMotorMicrostep, TypeU8, []byte{5}, 1, ErrOutOfRange},
		{"DO1 config 3", RegDO1Config, TypeU8, []byte{3}, 1, ErrOutOfRange},
		{"SET_DOS bit 2", RegSetDOs, TypeU8, []byte{4}, 1, ErrOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := h.dev.Status()
			err := h.dev.Write(tc.addr, tc.typ, tc.payload, tc.count)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			var regErr *RegisterError
			if !errors.As(err, &regErr) || regErr.Address != tc.addr {
				t.Errorf("error %v does not carry address %d", err, tc.addr)
			}
			if after := h.dev.Status(); after != before {
				t.Errorf("state changed on rejected write: %+v -> %+v", before, after)
			}
		})
	}

	if _, err := h.dev.Read(60, TypeU8); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("read of unknown address: got %v", err)
	}
	if _, err := h.dev.Read(RegDirState, TypeFloat); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("read with wrong type: got %v", err)
	}
}

func TestProtocolNumberStepsBounds(t *testing.T) {
	h := newHarness(t, testConfig())

	h.writeU16(RegProtocolNumberSteps, 7)
	if err := h.dev.WriteU16(RegProtocolNumberSteps, 0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("write of 0: got %v, want ErrOutOfRange", err)
	}
	if v, _ := h.dev.ReadU16(RegProtocolNumberSteps); v != 7 {
		t.Errorf("value after rejected write = %d, want 7", v)
	}
	h.writeU16(RegProtocolNumberSteps, 1)
	if v, _ := h.dev.ReadU16(RegProtocolNumberSteps); v != 1 {
		t.Errorf("value after write of 1 = %d, want 1", v)
	}

	if err := h.dev.WriteU16(RegProtocolPeriod, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("period 0: got %v, want ErrOutOfRange", err)
	}
}

func TestProtocolAmountBounds(t *testing.T) {
	h := newHarness(t, testConfig())

	tests := []struct {
		value float32
		ok    bool
	}{
		{0.5, true},
		{2000, true},
		{12.25, true},
		{0.49, false},
		{2000.5, false},
		{-1, false},
		{float32(math.NaN()), false},
		{float32(math.Inf(1)), false},
	}

	for _, addr := range []Address{RegProtocolFlowrate, RegProtocolVolume} {
		for _, tc := range tests {
			err := h.dev.WriteFloat(addr, tc.value)
			if tc.ok && err != nil {
				t.Errorf("%s=%v rejected: %v", addr, tc.value, err)
			}
			if !tc.ok && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("%s=%v: got %v, want ErrOutOfRange", addr, tc.value, err)
			}
		}
		if v, _ := h.dev.ReadFloat(addr); v != 12.25 {
			t.Errorf("%s = %v after rejections, want 12.25", addr, v)
		}
	}
}

func TestRegisterPayloadEncoding(t *testing.T) {
	h := newHarness(t, testConfig())

	if err := h.dev.Write(RegProtocolPeriod, TypeU16, []byte{0x34, 0x12}, 1); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	b, err := h.dev.Read(RegProtocolPeriod, TypeU16)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(b) != 2 || b[0] != 0x34 || b[1] != 0x12 {
		t.Errorf("read back % x, want 34 12", b)
	}

	// 100.0 as little-endian binary32
	if err := h.dev.Write(RegProtocolVolume, TypeFloat, []byte{0x00, 0x00, 0xc8, 0x42}, 1); err != nil {
		t.Fatalf("float write failed: %v", err)
	}
	if v, _ := h.dev.ReadFloat(RegProtocolVolume); v != 100 {
		t.Errorf("PROTOCOL_VOLUME = %v, want 100", v)
	}
}

func TestCalibrationRegisters(t *testing.T) {
	h := newHarness(t, testConfig())

	h.writeU8(RegCalibrationValue1, 200)
	h.writeU8(RegCalibrationValue2, 17)
	if got := h.readU8(RegCalibrationValue1); got != 200 {
		t.Errorf("CALIBRATION_VALUE_1 = %d, want 200", got)
	}
	if got := h.readU8(RegCalibrationValue2); got != 17 {
		t.Errorf("CALIBRATION_VALUE_2 = %d, want 17", got)
	}
}

func TestRegisterTable(t *testing.T) {
	regs := Registers()
	if len(regs) != int(lastRegister-firstRegister+1) {
		t.Fatalf("got %d registers", len(regs))
	}
	for i, r := range regs {
		if r.Address != firstRegister+Address(i) {
			t.Errorf("register %d has address %d", i, r.Address)
		}
		if r.Name == "" || r.Type.Size() == 0 || r.Count != 1 {
			t.Errorf("incomplete descriptor %+v", r)
		}
		got, ok := LookupRegister(r.Name)
		if !ok || got != r {
			t.Errorf("LookupRegister(%q) = %+v, %v", r.Name, got, ok)
		}
	}
	if _, ok := LookupRegister("NO_SUCH_REGISTER"); ok {
		t.Error("lookup of unknown name succeeded")
	}
	if RegProtocolDirection != 55 || RegProtocolState != 54 || RegEvtEnable != 53 || RegEnableMotorDriver != 32 {
		t.Error("register addresses moved")
	}
}

func TestMicrostepLines(t *testing.T) {
	h := newHarness(t, testConfig())

	tests := []struct {
		value         uint8
		ms1, ms2, ms3 bool
	}{
		{MicrostepHalf, true, false, false},
		{MicrostepQuarter, false, true, false},
		{MicrostepEighth, true, true, false},
		{MicrostepSixteenth, true, true, true},
		{MicrostepFull, false, false, false},
	}
	for _, tc := range tests {
		h.writeU8(RegMotorMicrostep, tc.value)
		if h.io.level(LineMS1) != tc.ms1 || h.io.level(LineMS2) != tc.ms2 || h.io.level(LineMS3) != tc.ms3 {
			t.Errorf("microstep %d: MS lines %v %v %v", tc.value,
				h.io.level(LineMS1), h.io.level(LineMS2), h.io.level(LineMS3))
		}
	}
}

func TestDigitalOutputs(t *testing.T) {
	h := newHarness(t, testConfig())

	h.writeU8(RegSetDOs, DO0Mask|DO1Mask)
	if !h.io.level(LineOut0) || !h.io.level(LineOut1) {
		t.Fatal("SET_DOS did not raise both outputs")
	}
	if got := h.readU8(RegClearDOs); got != DO0Mask|DO1Mask {
		t.Errorf("output mask = %d, want 3", got)
	}
	h.writeU8(RegClearDOs, DO1Mask)
	if !h.io.level(LineOut0) || h.io.level(LineOut1) {
		t.Error("CLEAR_DOS touched the wrong output")
	}

	// DO0 follows the switches once assigned to them
	h.writeU8(RegDO0Config, DO0Switch)
	if h.io.level(LineOut0) {
		t.Error("DO0 high with no switch active")
	}
	h.writeU8(RegSetDOs, DO0Mask)
	if h.io.level(LineOut0) {
		t.Error("SET_DOS drove DO0 in switch mode")
	}
	h.setSwitch(LineSwReverse, true)
	if !h.io.level(LineOut0) {
		t.Error("DO0 did not follow the reverse switch")
	}
	h.setSwitch(LineSwReverse, false)
	if h.io.level(LineOut0) {
		t.Error("DO0 stayed high after the switch released")
	}
}

func TestHeartbeatOutput(t *testing.T) {
	h := newHarness(t, testConfig())
	h.writeU8(RegDO1Config, DO1Heartbeat)

	h.tick(1999)
	if h.io.level(LineOut1) {
		t.Fatal("heartbeat toggled early")
	}
	h.tick(1)
	if !h.io.level(LineOut1) {
		t.Fatal("heartbeat did not toggle after one second")
	}
	h.tick(2000)
	if h.io.level(LineOut1) {
		t.Error("heartbeat did not toggle back")
	}
}

func TestStepMimicOutput(t *testing.T) {
	h := newHarness(t, testConfig())
	h.writeU8(RegDO1Config, DO1Step)

	h.writeU8(RegStepState, 1)
	if !h.io.level(LineOut1) {
		t.Error("DO1 not high with the step pulse")
	}
	h.tick(2)
	if h.io.level(LineOut1) {
		t.Error("DO1 not cleared with the step pulse")
	}
}

func TestResetRegisters(t *testing.T) {
	h := newHarness(t, testConfig())

	h.writeU16(RegProtocolNumberSteps, 9)
	h.writeU8(RegDirState, uint8(Forward))
	h.writeU8(RegProtocolDirection, uint8(Reverse))
	h.writeU8(RegMotorMicrostep, MicrostepEighth)
	h.writeU8(RegEvtEnable, 0)
	h.setSwitch(LineSwForward, true)
	h.rec.reset()

	if err := h.dev.ResetRegisters(); err != nil {
		t.Fatalf("ResetRegisters failed: %v", err)
	}
	if v, _ := h.dev.ReadU16(RegProtocolNumberSteps); v != 100 {
		t.Errorf("PROTOCOL_NUMBER_STEPS = %d after reset", v)
	}
	if got := h.readU8(RegDirState); got != uint8(Reverse) {
		t.Errorf("DIR_STATE = %d after reset", got)
	}
	if h.io.level(LineDir) {
		t.Error("DIR line not re-latched to reverse")
	}
	if got := h.readU8(RegProtocolDirection); got != uint8(Forward) {
		t.Errorf("PROTOCOL_DIRECTION = %d after reset", got)
	}
	if h.io.level(LineMS1) || h.io.level(LineMS2) {
		t.Error("microstep lines not restored")
	}
	if got := h.readU8(RegSwForwardState); got != 1 {
		t.Errorf("SW_FORWARD_STATE = %d, want 1", got)
	}
	evts := h.rec.forAddr(RegSwForwardState)
	if len(evts) != 1 || evts[0].Value != 1 {
		t.Errorf("forward switch not re-reported: %+v", evts)
	}
	if len(h.rec.forAddr(RegSwReverseState)) != 0 {
		t.Error("inactive reverse switch reported")
	}
}

func TestResetRegistersEndsHoming(t *testing.T) {
	h := newHarness(t, testConfig())

	h.press(LineButReset)
	h.tick(100)
	if !h.dev.Status().Homing || h.steps() == 0 {
		t.Fatal("homing did not start")
	}

	if err := h.dev.ResetRegisters(); err != nil {
		t.Fatalf("ResetRegisters failed: %v", err)
	}
	if h.dev.Status().Homing {
		t.Error("homing survived the reset")
	}
	h.tick(10)
	steps := h.steps()
	h.tick(200)
	if h.steps() != steps {
		t.Errorf("%d steps after the reset with the button still held", h.steps()-steps)
	}
	h.release(LineButReset)
}

func TestFaultDrivesSafeState(t *testing.T) {
	h := newHarness(t, testConfig())
	h.writeU8(RegSetDOs, DO0Mask|DO1Mask)
	h.writeU16(RegProtocolPeriod, 1)
	h.writeU8(RegStartProtocol, 1)
	h.tick(3)

	h.dev.Fault()
	for _, l := range outputLines {
		if h.io.level(l) {
			t.Errorf("%s still high after fault", l)
		}
	}
	st := h.dev.Status()
	if !st.Faulted || st.ProtocolRunning {
		t.Errorf("status after fault: %+v", st)
	}

	if err := h.dev.WriteU8(RegStepState, 1); !errors.Is(err, ErrFaulted) {
		t.Errorf("write after fault: got %v", err)
	}
	steps := h.steps()
	h.tick(100)
	if h.steps() != steps || h.dev.Status().Tick != st.Tick {
		t.Error("engine ran after fault")
	}
	if err := h.dev.ResetRegisters(); !errors.Is(err, ErrFaulted) {
		t.Errorf("ResetRegisters after fault: got %v", err)
	}
}
