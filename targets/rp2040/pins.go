//go:build rp2040

package main

import (
	"errors"
	"machine"

	"syringepump/core"
)

var errUnmapped = errors.New("line has no pin")

// pinMap assigns the board lines to RP2040 GPIOs
var pinMap = map[core.Line]machine.Pin{
	core.LineStep:     machine.GPIO2,
	core.LineDir:      machine.GPIO3,
	core.LineMS1:      machine.GPIO4,
	core.LineMS2:      machine.GPIO5,
	core.LineMS3:      machine.GPIO6,
	core.LineEnDriver: machine.GPIO7,
	core.LineSleep:    machine.GPIO8,
	core.LineReset:    machine.GPIO9,
	core.LineOut0:     machine.GPIO10,
	core.LineOut1:     machine.GPIO11,
	core.LineBufEn:    machine.GPIO12,

	core.LineIn0:        machine.GPIO13,
	core.LineSwForward:  machine.GPIO14,
	core.LineSwReverse:  machine.GPIO15,
	core.LineEnDriverUC: machine.GPIO16,
	core.LineButPush:    machine.GPIO17,
	core.LineButPull:    machine.GPIO18,
	core.LineButReset:   machine.GPIO19,
}

// edgeGroups lists the input lines behind each interrupt group
var edgeGroups = map[core.Group][]core.Line{
	core.GroupSwitches:     {core.LineSwForward, core.LineSwReverse},
	core.GroupDigitalInput: {core.LineIn0},
	core.GroupExternal:     {core.LineEnDriverUC},
	core.GroupButtons:      {core.LineButPush, core.LineButPull, core.LineButReset},
}

// RPLineDriver implements core.IODriver on RP2040 GPIOs
type RPLineDriver struct{}

func (RPLineDriver) pin(line core.Line) (machine.Pin, error) {
	p, ok := pinMap[line]
	if !ok {
		return machine.NoPin, errUnmapped
	}
	return p, nil
}

// ConfigureOutput configures a line as a push-pull output
func (d RPLineDriver) ConfigureOutput(line core.Line) error {
	p, err := d.pin(line)
	if err != nil {
		return err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

// ConfigureInput configures a line as an input with a pull resistor
func (d RPLineDriver) ConfigureInput(line core.Line, pullUp bool) error {
	p, err := d.pin(line)
	if err != nil {
		return err
	}
	mode := machine.PinInputPulldown
	if pullUp {
		mode = machine.PinInputPullup
	}
	p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (RPLineDriver) Set(line core.Line, high bool) {
	pinMap[line].Set(high)
}

func (RPLineDriver) Read(line core.Line) bool {
	return pinMap[line].Get()
}

// Release floats the pin so the external controller drives the motor
// driver through the buffer
func (RPLineDriver) Release(line core.Line) {
	pinMap[line].Configure(machine.PinConfig{Mode: machine.PinInput})
}

// installEdgeInterrupts routes pin-change interrupts of every input to the
// engine
func installEdgeInterrupts(dev *core.Device) error {
	for group, lines := range edgeGroups {
		g := group
		for _, line := range lines {
			err := pinMap[line].SetInterrupt(machine.PinRising|machine.PinFalling, func(machine.Pin) {
				dev.HandleEdge(g)
			})
			if err != nil {
				return &core.LineError{Line: line, Err: err}
			}
		}
	}
	return nil
}
