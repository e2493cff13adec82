// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// An EffectiveAddress is the result of applying an instruction's
// addressing mode to its operand.
//
// For memory-addressed modes Lazy is true and Value is not valid until the
// instruction loads it, so instructions that only store never read their
// destination. For relative addressing Addr holds the address of the next
// instruction and Value the signed branch offset.
type EffectiveAddress struct {
	Addr        uint16
	Value       byte
	Lazy        bool
	PageCrossed bool
}

// Resolve the effective address of an instruction whose opcode sits at pc.
// Operand bytes and indirect pointers are read from memory; the addressed
// byte itself is not.
func (cpu *CPU) resolve(inst *Instruction, pc uint16, operand []byte) EffectiveAddress {
	var ea EffectiveAddress
	switch inst.Mode {
	case ACC:
		ea.Value = cpu.Reg.A
	case IMM:
		ea.Value = operand[0]
	case REL:
		ea.Addr = pc + uint16(inst.Length)
		ea.Value = operand[0]
	case ZPG:
		ea.Addr = uint16(operand[0])
		ea.Lazy = true
	case ZPX:
		ea.Addr = uint16(operand[0] + cpu.Reg.X)
		ea.Lazy = true
	case ZPY:
		ea.Addr = uint16(operand[0] + cpu.Reg.Y)
		ea.Lazy = true
	case ABS:
		ea.Addr = operandToAddress(operand)
		ea.Lazy = true
	case ABX:
		ea.Addr, ea.PageCrossed = offsetAddress(operandToAddress(operand), cpu.Reg.X)
		ea.Lazy = true
	case ABY:
		ea.Addr, ea.PageCrossed = offsetAddress(operandToAddress(operand), cpu.Reg.Y)
		ea.Lazy = true
	case IND:
		ea.Addr = cpu.loadAddress(operandToAddress(operand))
		ea.Lazy = true
	case IDX:
		ea.Addr = cpu.loadAddress(uint16(operand[0] + cpu.Reg.X))
		ea.Lazy = true
	case IDY:
		ea.Addr, ea.PageCrossed = offsetAddress(cpu.loadAddress(uint16(operand[0])), cpu.Reg.Y)
		ea.Lazy = true
	}
	return ea
}

// Return the byte addressed by ea, loading it from memory on first use.
func (cpu *CPU) load(ea *EffectiveAddress) byte {
	if ea.Lazy {
		ea.Value = cpu.Mem.LoadByte(ea.Addr)
		ea.Lazy = false
	}
	return ea.Value
}

// Load a 16-bit little-endian pointer from addr. The high byte is read from
// the same page as the low byte, so a pointer at $xxFF takes its high byte
// from $xx00.
func (cpu *CPU) loadAddress(addr uint16) uint16 {
	lo := cpu.Mem.LoadByte(addr)
	hi := cpu.Mem.LoadByte((addr & 0xff00) | ((addr + 1) & 0x00ff))
	return uint16(lo) | uint16(hi)<<8
}

// Return the offset address 'addr' + 'offset'. The page is considered
// crossed when the complement of the low byte does not exceed the offset.
func offsetAddress(addr uint16, offset byte) (newAddr uint16, pageCrossed bool) {
	newAddr = addr + uint16(offset)
	pageCrossed = ^byte(addr) <= offset
	return newAddr, pageCrossed
}

// Convert a 1- or 2-byte operand into an address.
func operandToAddress(operand []byte) uint16 {
	switch {
	case len(operand) == 1:
		return uint16(operand[0])
	case len(operand) == 2:
		return uint16(operand[0]) | uint16(operand[1])<<8
	}
	return 0
}
