// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Interrupt vectors
const (
	vectorNMI   = 0xfffa
	vectorReset = 0xfffc
	vectorIRQ   = 0xfffe
	vectorBRK   = 0xfffe
)

// Cycles spent entering a hardware interrupt handler.
const interruptCycles = 7

// Reset loads the program counter from the reset vector. Nothing is pushed,
// but the stack pointer drops by three as it does on the real chip.
func (cpu *CPU) Reset() {
	cpu.Reg.PC = cpu.loadVector(vectorReset)
	cpu.Reg.SP -= 3
}

// NMI raises a non-maskable interrupt.
func (cpu *CPU) NMI() {
	cpu.interrupt(vectorNMI, false)
	cpu.Cycles += interruptCycles
}

// IRQ raises a maskable interrupt. It returns false without touching the
// CPU if interrupts are disabled.
func (cpu *CPU) IRQ() bool {
	if cpu.Reg.InterruptDisable {
		return false
	}
	cpu.interrupt(vectorIRQ, false)
	cpu.Cycles += interruptCycles
	return true
}

// BRK enters the software interrupt sequence at the current program
// counter, exactly as the BRK instruction does after skipping its padding
// byte.
func (cpu *CPU) BRK() {
	cpu.interrupt(vectorBRK, true)
}

// Push the program counter and status flags, disable interrupts and jump
// through the vector.
func (cpu *CPU) interrupt(vector uint16, brk bool) {
	cpu.pushAddress(cpu.Reg.PC)
	cpu.push(cpu.Reg.SavePS(brk))
	cpu.Reg.InterruptDisable = true
	cpu.Reg.PC = cpu.loadVector(vector)
}

func (cpu *CPU) loadVector(vector uint16) uint16 {
	lo := cpu.Mem.LoadByte(vector)
	hi := cpu.Mem.LoadByte(vector + 1)
	return uint16(lo) | uint16(hi)<<8
}
