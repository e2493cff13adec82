// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "errors"

// ErrStateSize is returned when a register snapshot is not exactly
// StateSize bytes long.
var ErrStateSize = errors.New("register state must be 7 bytes")

// StateSize is the size in bytes of a serialized register file.
const StateSize = 7

// Registers contains the state of all 6502 registers.
type Registers struct {
	A                byte   // accumulator
	X                byte   // X indexing register
	Y                byte   // Y indexing register
	SP               byte   // stack pointer ($100 + SP = stack memory location)
	PC               uint16 // program counter
	Carry            bool   // PS: Carry bit
	Zero             bool   // PS: Zero bit
	InterruptDisable bool   // PS: Interrupt disable bit
	Decimal          bool   // PS: Decimal bit
	Overflow         bool   // PS: Overflow bit
	Sign             bool   // PS: Sign bit
}

// Bits assigned to the processor status byte
const (
	CarryBit            = 1 << 0
	ZeroBit             = 1 << 1
	InterruptDisableBit = 1 << 2
	DecimalBit          = 1 << 3
	BreakBit            = 1 << 4
	ReservedBit         = 1 << 5
	OverflowBit         = 1 << 6
	SignBit             = 1 << 7
)

// SavePS saves the CPU processor status into a byte value. The reserved
// bit is always set. The break bit is set only if requested.
func (r *Registers) SavePS(brk bool) byte {
	var ps byte = ReservedBit
	if r.Carry {
		ps |= CarryBit
	}
	if r.Zero {
		ps |= ZeroBit
	}
	if r.InterruptDisable {
		ps |= InterruptDisableBit
	}
	if r.Decimal {
		ps |= DecimalBit
	}
	if brk {
		ps |= BreakBit
	}
	if r.Overflow {
		ps |= OverflowBit
	}
	if r.Sign {
		ps |= SignBit
	}
	return ps
}

// RestorePS restores the CPU processor status from a byte. The break and
// reserved bits have no backing state and are discarded.
func (r *Registers) RestorePS(ps byte) {
	r.Carry = ((ps & CarryBit) != 0)
	r.Zero = ((ps & ZeroBit) != 0)
	r.InterruptDisable = ((ps & InterruptDisableBit) != 0)
	r.Decimal = ((ps & DecimalBit) != 0)
	r.Overflow = ((ps & OverflowBit) != 0)
	r.Sign = ((ps & SignBit) != 0)
}

// PS returns the processor status byte as seen by the program.
func (r *Registers) PS() byte {
	return r.SavePS(false)
}

// Init puts all registers in their power-on state: A, X, Y, SP and PC
// are zero and every status flag is clear.
func (r *Registers) Init() {
	*r = Registers{}
}

// MarshalBinary encodes the register file as A, X, Y, P, SP followed by
// the program counter in little-endian order.
func (r *Registers) MarshalBinary() ([]byte, error) {
	return []byte{
		r.A,
		r.X,
		r.Y,
		r.PS(),
		r.SP,
		byte(r.PC),
		byte(r.PC >> 8),
	}, nil
}

// UnmarshalBinary decodes a register file produced by MarshalBinary.
func (r *Registers) UnmarshalBinary(b []byte) error {
	if len(b) != StateSize {
		return ErrStateSize
	}
	r.A = b[0]
	r.X = b[1]
	r.Y = b[2]
	r.RestorePS(b[3])
	r.SP = b[4]
	r.PC = uint16(b[5]) | uint16(b[6])<<8
	return nil
}

func boolToByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
