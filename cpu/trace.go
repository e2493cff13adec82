// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"fmt"
	"io"
	"strings"
)

// Trace line columns
const (
	traceMnemonicCol  = 21
	traceRegistersCol = 36
)

// AttachTracer starts writing one line per executed instruction to w. Each
// line shows the instruction and the registers as they were before it ran,
// in the layout used by the VICE monitor. Write errors are ignored.
func (cpu *CPU) AttachTracer(w io.Writer) {
	cpu.tracer = w
}

// DetachTracer stops instruction tracing.
func (cpu *CPU) DetachTracer() {
	cpu.tracer = nil
}

func (cpu *CPU) trace(inst *Instruction, pc uint16, operand []byte, ea *EffectiveAddress) {
	var b strings.Builder

	fmt.Fprintf(&b, "   %04x  %02X ", pc, inst.Opcode)
	switch len(operand) {
	case 1:
		fmt.Fprintf(&b, "%02X", operand[0])
	case 2:
		fmt.Fprintf(&b, "%02X %02X", operand[0], operand[1])
	}
	padTo(&b, traceMnemonicCol)

	b.WriteString(inst.Name)
	b.WriteByte(' ')
	b.WriteString(formatOperand(inst.Mode, operandToAddress(operand), branchTarget(ea)))
	padTo(&b, traceRegistersCol)

	r := &cpu.Reg
	fmt.Fprintf(&b, "- A:%02X X:%02X Y:%02X SP:%02x ", r.A, r.X, r.Y, r.SP)
	b.WriteString(flagString(r.SavePS(false)))
	b.WriteByte('\n')

	io.WriteString(cpu.tracer, b.String())
}

// Format an instruction operand for display. Relative operands are shown
// as their branch target.
func formatOperand(mode Mode, v uint16, target uint16) string {
	switch mode {
	case ACC:
		return "A"
	case IMM:
		return fmt.Sprintf("#$%02X", v)
	case REL:
		return fmt.Sprintf("$%04X", target)
	case ABS:
		return fmt.Sprintf("$%04X", v)
	case ZPG:
		return fmt.Sprintf("$%02X", v)
	case IND:
		return fmt.Sprintf("($%04X)", v)
	case ABX:
		return fmt.Sprintf("$%04X,X", v)
	case ABY:
		return fmt.Sprintf("$%04X,Y", v)
	case ZPX:
		return fmt.Sprintf("$%02X,X", v)
	case ZPY:
		return fmt.Sprintf("$%02X,Y", v)
	case IDX:
		return fmt.Sprintf("($%02X,X)", v)
	case IDY:
		return fmt.Sprintf("($%02X),Y", v)
	default:
		return ""
	}
}

// Return the address a relative branch would jump to.
func branchTarget(ea *EffectiveAddress) uint16 {
	if ea.Value < 0x80 {
		return ea.Addr + uint16(ea.Value)
	}
	return ea.Addr - (0x100 - uint16(ea.Value))
}

// Render a status byte as NV-BDIZC, upper case for set flags.
func flagString(ps byte) string {
	const names = "NV-BDIZC"
	var b [8]byte
	for i := 0; i < 8; i++ {
		bit := byte(0x80) >> i
		switch {
		case names[i] == '-':
			b[i] = '-'
		case ps&bit != 0:
			b[i] = names[i]
		default:
			b[i] = '.'
		}
	}
	return string(b[:])
}

func padTo(b *strings.Builder, col int) {
	for b.Len() < col {
		b.WriteByte(' ')
	}
}
