package core

import (
	"encoding/binary"
	"math"
)

// Write stores count elements of type typ at addr. payload holds the
// little-endian encoding of the elements. A rejected write changes nothing.
func (d *Device) Write(addr Address, typ Type, payload []byte, count int) error {
	r, err := d.check(addr, typ, count, "write")
	if err != nil {
		return err
	}
	if len(payload) != typ.Size()*count {
		return &RegisterError{Address: addr, Op: "write", Err: ErrCountMismatch}
	}
	if r.readOnly {
		return &RegisterError{Address: addr, Op: "write", Err: ErrReadOnly}
	}
	v := decode(typ, payload)

	st := d.cs.enter()
	if d.faulted {
		d.cs.exit(st)
		return &RegisterError{Address: addr, Op: "write", Err: ErrFaulted}
	}
	err = r.set(d, v)
	events := d.takeEvents()
	d.cs.exit(st)

	d.deliver(&events)
	if err != nil {
		return &RegisterError{Address: addr, Op: "write", Err: err}
	}
	return nil
}

// Read returns the little-endian encoding of the register at addr.
func (d *Device) Read(addr Address, typ Type) ([]byte, error) {
	r, err := d.check(addr, typ, 1, "read")
	if err != nil {
		return nil, err
	}
	st := d.cs.enter()
	v := r.get(d)
	d.cs.exit(st)
	return encode(typ, v), nil
}

func (d *Device) check(addr Address, typ Type, count int, op string) (*register, error) {
	r, ok := lookup(addr)
	if !ok {
		return nil, &RegisterError{Address: addr, Op: op, Err: ErrInvalidAddress}
	}
	if r.typ != typ {
		return nil, &RegisterError{Address: addr, Op: op, Err: ErrTypeMismatch}
	}
	if count != 1 {
		return nil, &RegisterError{Address: addr, Op: op, Err: ErrCountMismatch}
	}
	return r, nil
}

func decode(typ Type, b []byte) uint32 {
	switch typ {
	case TypeU8:
		return uint32(b[0])
	case TypeU16:
		return uint32(binary.LittleEndian.Uint16(b))
	default:
		return binary.LittleEndian.Uint32(b)
	}
}

func encode(typ Type, v uint32) []byte {
	b := make([]byte, typ.Size())
	switch typ {
	case TypeU8:
		b[0] = uint8(v)
	case TypeU16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
	return b
}

// WriteU8 writes a single U8 register
func (d *Device) WriteU8(addr Address, v uint8) error {
	return d.Write(addr, TypeU8, []byte{v}, 1)
}

// WriteU16 writes a single U16 register
func (d *Device) WriteU16(addr Address, v uint16) error {
	return d.Write(addr, TypeU16, encode(TypeU16, uint32(v)), 1)
}

// WriteFloat writes a single Float register
func (d *Device) WriteFloat(addr Address, v float32) error {
	return d.Write(addr, TypeFloat, encode(TypeFloat, math.Float32bits(v)), 1)
}

// ReadU8 reads a single U8 register
func (d *Device) ReadU8(addr Address) (uint8, error) {
	b, err := d.Read(addr, TypeU8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a single U16 register
func (d *Device) ReadU16(addr Address) (uint16, error) {
	b, err := d.Read(addr, TypeU16)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadFloat reads a single Float register
func (d *Device) ReadFloat(addr Address) (float32, error) {
	b, err := d.Read(addr, TypeFloat)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}
