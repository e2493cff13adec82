// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// AND immediate, then copy the sign into carry
func (cpu *CPU) aac(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A &= cpu.load(ea)
	cpu.updateNZ(cpu.Reg.A)
	cpu.Reg.Carry = cpu.Reg.Sign
}

// AND immediate, then shift the accumulator right
func (cpu *CPU) asr(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.Reg.A & cpu.load(ea)
	cpu.Reg.Carry = ((v & 1) != 0)
	cpu.Reg.A = v >> 1
	cpu.updateNZ(cpu.Reg.A)
}

// AND immediate, then rotate the accumulator right. Carry comes from bit 6
// of the result and overflow from bit 6 xor bit 5.
func (cpu *CPU) arr(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.Reg.A & cpu.load(ea)
	v = (v >> 1) | (boolToByte(cpu.Reg.Carry) << 7)
	cpu.Reg.Carry = ((v & 0x40) != 0)
	cpu.Reg.Overflow = (((v >> 6) ^ (v >> 5)) & 1) != 0
	cpu.Reg.A = v
	cpu.updateNZ(v)
}

// Load the accumulator and X register with the immediate value
func (cpu *CPU) atx(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A = cpu.load(ea)
	cpu.Reg.X = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.A)
}

// X = (A AND X) - immediate, without borrow
func (cpu *CPU) axs(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea)
	ax := cpu.Reg.A & cpu.Reg.X
	cpu.Reg.Carry = (ax >= v)
	cpu.Reg.X = ax - v
	cpu.updateNZ(cpu.Reg.X)
}

// Shift memory left, then OR the result into the accumulator
func (cpu *CPU) slo(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea)
	cpu.Reg.Carry = ((v & 0x80) != 0)
	v <<= 1
	cpu.commit(shiftOutput(inst, ea, v))
	cpu.Reg.A |= v
	cpu.updateNZ(cpu.Reg.A)
}

// Recognized but not emulated. Consumes its cycles and length only.
func (cpu *CPU) unimplemented(inst *Instruction, ea *EffectiveAddress) {
}
