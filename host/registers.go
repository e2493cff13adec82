// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"strings"

	"github.com/beevik/m6502/cpu"
	"github.com/beevik/prefixtree/v2"
)

// A registerField describes a register or status flag that can be changed
// with the register command.
type registerField struct {
	name string
	bits int // 1 for a status flag, otherwise 8 or 16
	set  func(r *cpu.Registers, v int64)
}

var registerFields = []registerField{
	{"A", 8, func(r *cpu.Registers, v int64) { r.A = byte(v) }},
	{"X", 8, func(r *cpu.Registers, v int64) { r.X = byte(v) }},
	{"Y", 8, func(r *cpu.Registers, v int64) { r.Y = byte(v) }},
	{"SP", 8, func(r *cpu.Registers, v int64) { r.SP = byte(v) }},
	{"PC", 16, func(r *cpu.Registers, v int64) { r.PC = uint16(v) }},
	{"Carry", 1, func(r *cpu.Registers, v int64) { r.Carry = v != 0 }},
	{"Zero", 1, func(r *cpu.Registers, v int64) { r.Zero = v != 0 }},
	{"InterruptDisable", 1, func(r *cpu.Registers, v int64) { r.InterruptDisable = v != 0 }},
	{"Decimal", 1, func(r *cpu.Registers, v int64) { r.Decimal = v != 0 }},
	{"Overflow", 1, func(r *cpu.Registers, v int64) { r.Overflow = v != 0 }},
	{"Sign", 1, func(r *cpu.Registers, v int64) { r.Sign = v != 0 }},
}

// Register names are matched by unambiguous prefix. N and V are the
// conventional single-letter names of the sign and overflow flags.
var registerTree = prefixtree.New[*registerField]()

func init() {
	for i := range registerFields {
		f := &registerFields[i]
		registerTree.Add(strings.ToLower(f.name), f)
	}
	registerTree.Add("n", &registerFields[10])
	registerTree.Add("v", &registerFields[9])
}

func lookupRegister(name string) (*registerField, error) {
	return registerTree.FindValue(strings.ToLower(name))
}
