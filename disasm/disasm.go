// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/m6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	cpu.IMM: "#$%s",
	cpu.IMP: "",
	cpu.REL: "$%s",
	cpu.ZPG: "$%s",
	cpu.ZPX: "$%s,X",
	cpu.ZPY: "$%s,Y",
	cpu.ABS: "$%s",
	cpu.ABX: "$%s,X",
	cpu.ABY: "$%s,Y",
	cpu.IND: "($%s)",
	cpu.IDX: "($%s,X)",
	cpu.IDY: "($%s),Y",
	cpu.ACC: "A",
	cpu.UNK: "",
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the little-endian byte
// slice.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Memory is read
// without side effects when 'm' implements cpu.Peeker.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	inst := cpu.GetInstructionSet().Lookup(cpu.Peek(m, addr))
	operand := make([]byte, inst.Length-1)
	cpu.PeekBytes(m, addr+1, operand)

	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := int(addr) + int(inst.Length) + int(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}

	switch inst.Mode {
	case cpu.IMP, cpu.UNK:
		line = inst.Name
	case cpu.ACC:
		line = inst.Name + " A"
	default:
		line = fmt.Sprintf("%s "+modeFormat[inst.Mode], inst.Name, hexString(operand))
	}
	next = addr + uint16(inst.Length)
	return
}

// GetRegisterString returns a one-line summary of the register file.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X PS=[%s] SP=%02X PC=%04X",
		r.A, r.X, r.Y, psString(r), r.SP, r.PC)
}

func psString(r *cpu.Registers) string {
	v := func(bit bool, ch byte) byte {
		if bit {
			return ch
		}
		return '-'
	}
	b := []byte{
		v(r.Carry, 'C'),
		v(r.Zero, 'Z'),
		v(r.InterruptDisable, 'I'),
		v(r.Decimal, 'D'),
		v(r.Overflow, 'V'),
		v(r.Sign, 'N'),
	}
	return string(b)
}
