// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// A shiftTarget identifies where the result of a shift or rotate lands.
type shiftTarget byte

const (
	toAccumulator shiftTarget = iota
	toMemory
)

// A shiftResult is the output of a shift or rotate, waiting to be written
// back by commit.
type shiftResult struct {
	value  byte
	target shiftTarget
	addr   uint16
}

// Route a shift result by addressing mode: accumulator addressing writes
// back to A, everything else writes back to the effective address.
func shiftOutput(inst *Instruction, ea *EffectiveAddress, v byte) shiftResult {
	if inst.Mode == ACC {
		return shiftResult{value: v, target: toAccumulator}
	}
	return shiftResult{value: v, target: toMemory, addr: ea.Addr}
}

// Write back a shift result.
func (cpu *CPU) commit(r shiftResult) {
	switch r.target {
	case toAccumulator:
		cpu.Reg.A = r.value
	case toMemory:
		cpu.storeByte(cpu, r.addr, r.value)
	}
}
