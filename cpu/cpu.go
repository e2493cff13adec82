// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements an NMOS 6502 CPU instruction set and emulator.
//
// A CPU executes one instruction per call to Step against a caller-supplied
// Memory. Interrupts are raised by the caller between steps.
package cpu

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnknownOpcode is wrapped by every DecodeError.
var ErrUnknownOpcode = errors.New("unknown opcode")

// A DecodeError is returned by Step when the opcode at the program counter
// is not a recognized instruction. The CPU state is left unchanged.
type DecodeError struct {
	PC     uint16 // address of the opcode
	Opcode byte   // the undecodable opcode
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown opcode $%02X at $%04X", e.Opcode, e.PC)
}

func (e *DecodeError) Unwrap() error {
	return ErrUnknownOpcode
}

// CPU represents a single 6502 CPU. It contains a pointer to the
// memory associated with the CPU.
type CPU struct {
	Reg         Registers       // CPU registers
	Mem         Memory          // assigned memory
	Cycles      uint64          // total executed CPU cycles
	LastPC      uint16          // Previous program counter
	InstSet     *InstructionSet // Instruction set used by the CPU
	deltaCycles int
	debugger    *Debugger
	tracer      io.Writer
	storeByte   func(cpu *CPU, addr uint16, v byte)
}

// NewCPU creates an emulated 6502 CPU bound to the specified memory. The
// registers start in their power-on state; call Reset to fetch the reset
// vector.
func NewCPU(m Memory) *CPU {
	cpu := &CPU{
		Mem:       m,
		InstSet:   GetInstructionSet(),
		storeByte: (*CPU).storeByteNormal,
	}

	cpu.Reg.Init()
	return cpu
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// GetInstruction returns the instruction whose opcode is stored at the
// requested address.
func (cpu *CPU) GetInstruction(addr uint16) *Instruction {
	return cpu.InstSet.Lookup(Peek(cpu.Mem, addr))
}

// NextAddr returns the address of the next instruction following the
// instruction at addr.
func (cpu *CPU) NextAddr(addr uint16) uint16 {
	return addr + uint16(cpu.GetInstruction(addr).Length)
}

// Step the cpu by one instruction and return the number of cycles it
// consumed. If the opcode at the program counter cannot be decoded, Step
// returns a *DecodeError and leaves the CPU untouched.
func (cpu *CPU) Step() (int, error) {
	pc := cpu.Reg.PC

	// Grab the next opcode at the current PC and look up its instruction.
	opcode := cpu.Mem.LoadByte(pc)
	inst := cpu.InstSet.Lookup(opcode)
	if inst.fn == nil {
		return 0, &DecodeError{PC: pc, Opcode: opcode}
	}

	// Fetch the operand (if any) and resolve the effective address.
	var buf [2]byte
	operand := buf[:inst.Length-1]
	for i := range operand {
		operand[i] = cpu.Mem.LoadByte(pc + 1 + uint16(i))
	}
	ea := cpu.resolve(inst, pc, operand)

	if cpu.tracer != nil {
		cpu.trace(inst, pc, operand, &ea)
	}

	cpu.LastPC = pc
	cpu.Reg.PC = pc + uint16(inst.Length)

	// Execute the instruction
	cpu.deltaCycles = 0
	inst.fn(cpu, inst, &ea)

	cycles := int(inst.Cycles) + cpu.deltaCycles
	if ea.PageCrossed {
		cycles += int(inst.BPCycles)
	}
	cpu.Cycles += uint64(cycles)

	// Update the debugger so it handle breakpoints.
	if cpu.debugger != nil {
		cpu.debugger.onUpdatePC(cpu, cpu.Reg.PC)
	}
	return cycles, nil
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (cpu *CPU) AttachDebugger(debugger *Debugger) {
	cpu.debugger = debugger
	cpu.storeByte = (*CPU).storeByteDebugger
}

// DetachDebugger detaches the currently debugger from the CPU.
func (cpu *CPU) DetachDebugger() {
	cpu.debugger = nil
	cpu.storeByte = (*CPU).storeByteNormal
}

// Store the byte value 'v' add the address 'addr'.
func (cpu *CPU) storeByteNormal(addr uint16, v byte) {
	cpu.Mem.StoreByte(addr, v)
}

// Store the byte value 'v' add the address 'addr', notifying the debugger
// first.
func (cpu *CPU) storeByteDebugger(addr uint16, v byte) {
	cpu.debugger.onDataStore(cpu, addr, v)
	cpu.Mem.StoreByte(addr, v)
}

// Store a byte to the effective address.
func (cpu *CPU) store(ea *EffectiveAddress, v byte) {
	cpu.storeByte(cpu, ea.Addr, v)
}

// Push a value 'v' onto the stack.
func (cpu *CPU) push(v byte) {
	cpu.storeByte(cpu, stackAddress(cpu.Reg.SP), v)
	cpu.Reg.SP--
}

// Push the address 'addr' onto the stack.
func (cpu *CPU) pushAddress(addr uint16) {
	cpu.push(byte(addr >> 8))
	cpu.push(byte(addr))
}

// Pop a value from the stack and return it.
func (cpu *CPU) pop() byte {
	cpu.Reg.SP++
	return cpu.Mem.LoadByte(stackAddress(cpu.Reg.SP))
}

// Pop a 16-bit address off the stack.
func (cpu *CPU) popAddress() uint16 {
	lo := cpu.pop()
	hi := cpu.pop()
	return uint16(lo) | (uint16(hi) << 8)
}

// Update the Zero and Negative flags based on the value of 'v'.
func (cpu *CPU) updateNZ(v byte) {
	cpu.Reg.Zero = (v == 0)
	cpu.Reg.Sign = ((v & 0x80) != 0)
}

// Take a branch to ea if cond holds. A taken branch costs one cycle, plus
// another if the target lies on a different page.
func (cpu *CPU) branchIf(cond bool, ea *EffectiveAddress) {
	if !cond {
		return
	}
	base := ea.Addr
	target := branchTarget(ea)
	cpu.Reg.PC = target
	cpu.deltaCycles++
	if ((target ^ base) & 0xff00) != 0 {
		cpu.deltaCycles++
	}
}

// Compare reg against the addressed value, updating C, Z and N.
func (cpu *CPU) compare(reg byte, ea *EffectiveAddress) {
	v := cpu.load(ea)
	cpu.Reg.Carry = (reg >= v)
	cpu.updateNZ(reg - v)
}

// Add v and the carry flag to the accumulator.
func (cpu *CPU) addWithCarry(v byte) {
	acc := uint32(cpu.Reg.A)
	add := uint32(v)
	r := acc + add + uint32(boolToByte(cpu.Reg.Carry))

	cpu.Reg.Carry = (r > 0xff)
	cpu.Reg.Overflow = ((^(acc ^ add)) & (acc ^ r) & 0x80) != 0
	cpu.Reg.A = byte(r)
	cpu.updateNZ(cpu.Reg.A)
}

// Subtract v and the borrow (inverted carry) from the accumulator.
func (cpu *CPU) subtractWithBorrow(v byte) {
	acc := uint32(cpu.Reg.A)
	sub := uint32(v)
	r := acc - sub - uint32(1-boolToByte(cpu.Reg.Carry))

	cpu.Reg.Carry = (r < 0x100)
	cpu.Reg.Overflow = ((acc ^ r) & (acc ^ sub) & 0x80) != 0
	cpu.Reg.A = byte(r)
	cpu.updateNZ(cpu.Reg.A)
}

// Add with carry
func (cpu *CPU) adc(inst *Instruction, ea *EffectiveAddress) {
	cpu.addWithCarry(cpu.load(ea))
}

// Boolean AND
func (cpu *CPU) and(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A &= cpu.load(ea)
	cpu.updateNZ(cpu.Reg.A)
}

// Arithmetic Shift Left
func (cpu *CPU) asl(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea)
	cpu.Reg.Carry = ((v & 0x80) != 0)
	v <<= 1
	cpu.updateNZ(v)
	cpu.commit(shiftOutput(inst, ea, v))
}

// Branch if Carry Clear
func (cpu *CPU) bcc(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(!cpu.Reg.Carry, ea)
}

// Branch if Carry Set
func (cpu *CPU) bcs(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(cpu.Reg.Carry, ea)
}

// Branch if EQual (to zero)
func (cpu *CPU) beq(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(cpu.Reg.Zero, ea)
}

// Bit Test
func (cpu *CPU) bit(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea)
	cpu.Reg.Zero = ((v & cpu.Reg.A) == 0)
	cpu.Reg.Sign = ((v & 0x80) != 0)
	cpu.Reg.Overflow = ((v & 0x40) != 0)
}

// Branch if MInus (negative)
func (cpu *CPU) bmi(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(cpu.Reg.Sign, ea)
}

// Branch if Not Equal (not zero)
func (cpu *CPU) bne(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(!cpu.Reg.Zero, ea)
}

// Branch if PLus (positive)
func (cpu *CPU) bpl(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(!cpu.Reg.Sign, ea)
}

// Break. The byte following the opcode is skipped.
func (cpu *CPU) brk(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.PC++
	cpu.interrupt(vectorBRK, true)
}

// Branch if oVerflow Clear
func (cpu *CPU) bvc(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(!cpu.Reg.Overflow, ea)
}

// Branch if oVerflow Set
func (cpu *CPU) bvs(inst *Instruction, ea *EffectiveAddress) {
	cpu.branchIf(cpu.Reg.Overflow, ea)
}

// Clear Carry flag
func (cpu *CPU) clc(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Carry = false
}

// Clear Decimal flag
func (cpu *CPU) cld(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Decimal = false
}

// Clear InterruptDisable flag
func (cpu *CPU) cli(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.InterruptDisable = false
}

// Clear oVerflow flag
func (cpu *CPU) clv(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Overflow = false
}

// Compare to accumulator
func (cpu *CPU) cmp(inst *Instruction, ea *EffectiveAddress) {
	cpu.compare(cpu.Reg.A, ea)
}

// Compare to X register
func (cpu *CPU) cpx(inst *Instruction, ea *EffectiveAddress) {
	cpu.compare(cpu.Reg.X, ea)
}

// Compare to Y register
func (cpu *CPU) cpy(inst *Instruction, ea *EffectiveAddress) {
	cpu.compare(cpu.Reg.Y, ea)
}

// Decrement memory value
func (cpu *CPU) dec(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea) - 1
	cpu.updateNZ(v)
	cpu.store(ea, v)
}

// Decrement X register
func (cpu *CPU) dex(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.X--
	cpu.updateNZ(cpu.Reg.X)
}

// Decrement Y register
func (cpu *CPU) dey(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Y--
	cpu.updateNZ(cpu.Reg.Y)
}

// Boolean XOR
func (cpu *CPU) eor(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A ^= cpu.load(ea)
	cpu.updateNZ(cpu.Reg.A)
}

// Increment memory value
func (cpu *CPU) inc(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea) + 1
	cpu.updateNZ(v)
	cpu.store(ea, v)
}

// Increment X register
func (cpu *CPU) inx(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.X++
	cpu.updateNZ(cpu.Reg.X)
}

// Increment Y register
func (cpu *CPU) iny(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Y++
	cpu.updateNZ(cpu.Reg.Y)
}

// Jump to memory address. Indirect targets were already fetched by the
// address resolver.
func (cpu *CPU) jmp(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.PC = ea.Addr
}

// Jump to subroutine
func (cpu *CPU) jsr(inst *Instruction, ea *EffectiveAddress) {
	cpu.pushAddress(cpu.Reg.PC - 1)
	cpu.Reg.PC = ea.Addr
}

// load Accumulator
func (cpu *CPU) lda(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A = cpu.load(ea)
	cpu.updateNZ(cpu.Reg.A)
}

// load the X register
func (cpu *CPU) ldx(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.X = cpu.load(ea)
	cpu.updateNZ(cpu.Reg.X)
}

// load the Y register
func (cpu *CPU) ldy(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Y = cpu.load(ea)
	cpu.updateNZ(cpu.Reg.Y)
}

// Logical Shift Right
func (cpu *CPU) lsr(inst *Instruction, ea *EffectiveAddress) {
	v := cpu.load(ea)
	cpu.Reg.Carry = ((v & 1) == 1)
	v >>= 1
	cpu.updateNZ(v)
	cpu.commit(shiftOutput(inst, ea, v))
}

// No-operation. Variants with an operand still read it.
func (cpu *CPU) nop(inst *Instruction, ea *EffectiveAddress) {
	cpu.load(ea)
}

// Boolean OR
func (cpu *CPU) ora(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A |= cpu.load(ea)
	cpu.updateNZ(cpu.Reg.A)
}

// Push Accumulator
func (cpu *CPU) pha(inst *Instruction, ea *EffectiveAddress) {
	cpu.push(cpu.Reg.A)
}

// Push Processor flags
func (cpu *CPU) php(inst *Instruction, ea *EffectiveAddress) {
	cpu.push(cpu.Reg.SavePS(true))
}

// Pull (pop) Accumulator
func (cpu *CPU) pla(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A = cpu.pop()
	cpu.updateNZ(cpu.Reg.A)
}

// Pull (pop) Processor flags
func (cpu *CPU) plp(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.RestorePS(cpu.pop())
}

// Rotate Left
func (cpu *CPU) rol(inst *Instruction, ea *EffectiveAddress) {
	tmp := cpu.load(ea)
	v := (tmp << 1) | boolToByte(cpu.Reg.Carry)
	cpu.Reg.Carry = ((tmp & 0x80) != 0)
	cpu.updateNZ(v)
	cpu.commit(shiftOutput(inst, ea, v))
}

// Rotate Right
func (cpu *CPU) ror(inst *Instruction, ea *EffectiveAddress) {
	tmp := cpu.load(ea)
	v := (tmp >> 1) | (boolToByte(cpu.Reg.Carry) << 7)
	cpu.Reg.Carry = ((tmp & 1) != 0)
	cpu.updateNZ(v)
	cpu.commit(shiftOutput(inst, ea, v))
}

// Return from Interrupt
func (cpu *CPU) rti(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.RestorePS(cpu.pop())
	cpu.Reg.PC = cpu.popAddress()
}

// Return from Subroutine
func (cpu *CPU) rts(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.PC = cpu.popAddress() + 1
}

// Subtract with Carry
func (cpu *CPU) sbc(inst *Instruction, ea *EffectiveAddress) {
	cpu.subtractWithBorrow(cpu.load(ea))
}

// Set Carry flag
func (cpu *CPU) sec(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Carry = true
}

// Set Decimal flag
func (cpu *CPU) sed(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Decimal = true
}

// Set InterruptDisable flag
func (cpu *CPU) sei(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.InterruptDisable = true
}

// Store Accumulator
func (cpu *CPU) sta(inst *Instruction, ea *EffectiveAddress) {
	cpu.store(ea, cpu.Reg.A)
}

// Store X register
func (cpu *CPU) stx(inst *Instruction, ea *EffectiveAddress) {
	cpu.store(ea, cpu.Reg.X)
}

// Store Y register
func (cpu *CPU) sty(inst *Instruction, ea *EffectiveAddress) {
	cpu.store(ea, cpu.Reg.Y)
}

// Transfer Accumulator to X register
func (cpu *CPU) tax(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.X = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.X)
}

// Transfer Accumulator to Y register
func (cpu *CPU) tay(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.Y = cpu.Reg.A
	cpu.updateNZ(cpu.Reg.Y)
}

// Transfer Stack pointer to X register
func (cpu *CPU) tsx(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.X = cpu.Reg.SP
	cpu.updateNZ(cpu.Reg.X)
}

// Transfer X register to Accumulator
func (cpu *CPU) txa(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A = cpu.Reg.X
	cpu.updateNZ(cpu.Reg.A)
}

// Transfer X register to the Stack pointer
func (cpu *CPU) txs(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.SP = cpu.Reg.X
}

// Transfer Y register to the Accumulator
func (cpu *CPU) tya(inst *Instruction, ea *EffectiveAddress) {
	cpu.Reg.A = cpu.Reg.Y
	cpu.updateNZ(cpu.Reg.A)
}
