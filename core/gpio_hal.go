package core

// Line identifies one named digital line of the pump board.
type Line uint8

// Output lines
const (
	LineStep     Line = iota // STEP pulse to the motor driver
	LineDir                  // DIR level to the motor driver
	LineMS1                  // microstep select bit 1
	LineMS2                  // microstep select bit 2
	LineMS3                  // microstep select bit 3
	LineEnDriver             // motor driver output stage enable
	LineSleep                // motor driver sleep
	LineReset                // motor driver reset
	LineOut0                 // digital output 0
	LineOut1                 // digital output 1
	LineBufEn                // external controller buffer enable
)

// Input lines
const (
	LineIn0        Line = iota + 16 // digital input 0, active high
	LineSwForward                   // forward limit switch, active high
	LineSwReverse                   // reverse limit switch, active high
	LineEnDriverUC                  // external controller takeover, active low
	LineButPush                     // push button, active low
	LineButPull                     // pull button, active low
	LineButReset                    // reset button, active low
)

var outputLines = [...]Line{
	LineStep, LineDir, LineMS1, LineMS2, LineMS3, LineEnDriver,
	LineSleep, LineReset, LineOut0, LineOut1, LineBufEn,
}

var inputLines = [...]struct {
	line   Line
	pullUp bool
}{
	{LineIn0, false},
	{LineSwForward, false},
	{LineSwReverse, false},
	{LineEnDriverUC, true},
	{LineButPush, true},
	{LineButPull, true},
	{LineButReset, true},
}

// lines owned by the engine that are handed over to an external controller
var handoverLines = [...]Line{LineStep, LineDir, LineMS1, LineMS2, LineMS3}

// IODriver is the pin-level interface the engine drives.
// Target code maps each Line to a physical pin. Levels are electrical:
// true is high.
type IODriver interface {
	// ConfigureOutput configures a line as a push-pull output
	ConfigureOutput(line Line) error

	// ConfigureInput configures a line as an input, with a pull-up when
	// pullUp is set and a pull-down otherwise
	ConfigureInput(line Line, pullUp bool) error

	// Set drives an output line
	Set(line Line, high bool)

	// Read samples an input line
	Read(line Line) bool

	// Release puts an output line into high impedance so another
	// controller can drive it. ConfigureOutput reclaims it.
	Release(line Line)
}

var lineNames = map[Line]string{
	LineStep:       "STEP",
	LineDir:        "DIR",
	LineMS1:        "MS1",
	LineMS2:        "MS2",
	LineMS3:        "MS3",
	LineEnDriver:   "EN_DRIVER",
	LineSleep:      "SLEEP",
	LineReset:      "RESET",
	LineOut0:       "OUT0",
	LineOut1:       "OUT1",
	LineBufEn:      "BUF_EN",
	LineIn0:        "IN0",
	LineSwForward:  "SW_FORWARD",
	LineSwReverse:  "SW_REVERSE",
	LineEnDriverUC: "EN_DRIVER_UC",
	LineButPush:    "BUT_PUSH",
	LineButPull:    "BUT_PULL",
	LineButReset:   "BUT_RESET",
}

func (l Line) String() string {
	if name, ok := lineNames[l]; ok {
		return name
	}
	return "LINE" + itoa(int(l))
}
