package cpu_test

import (
	"errors"
	"testing"

	"github.com/beevik/m6502/cpu"
)

const origin = 0x1000

func loadCPU(t *testing.T, addr uint16, code ...byte) (*cpu.CPU, *cpu.FlatMemory) {
	t.Helper()
	mem := cpu.NewFlatMemory()
	mem.StoreBytes(addr, code)
	c := cpu.NewCPU(mem)
	c.SetPC(addr)
	c.Reg.SP = 0xff
	return c, mem
}

func stepCPU(t *testing.T, c *cpu.CPU, steps int) {
	t.Helper()
	for i := 0; i < steps; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func runCPU(t *testing.T, steps int, code ...byte) *cpu.CPU {
	t.Helper()
	c, _ := loadCPU(t, origin, code...)
	stepCPU(t, c, steps)
	return c
}

func expectPC(t *testing.T, c *cpu.CPU, pc uint16) {
	t.Helper()
	if c.Reg.PC != pc {
		t.Errorf("PC incorrect. exp: $%04X, got: $%04X", pc, c.Reg.PC)
	}
}

func expectCycles(t *testing.T, c *cpu.CPU, cycles uint64) {
	t.Helper()
	if c.Cycles != cycles {
		t.Errorf("Cycles incorrect. exp: %d, got: %d", cycles, c.Cycles)
	}
}

func expectACC(t *testing.T, c *cpu.CPU, acc byte) {
	t.Helper()
	if c.Reg.A != acc {
		t.Errorf("Accumulator incorrect. exp: $%02X, got: $%02X", acc, c.Reg.A)
	}
}

func expectSP(t *testing.T, c *cpu.CPU, sp byte) {
	t.Helper()
	if c.Reg.SP != sp {
		t.Errorf("stack pointer incorrect. exp: %02X, got $%02X", sp, c.Reg.SP)
	}
}

func expectMem(t *testing.T, c *cpu.CPU, addr uint16, v byte) {
	t.Helper()
	got := cpu.Peek(c.Mem, addr)
	if got != v {
		t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
	}
}

func expectFlag(t *testing.T, name string, got, exp bool) {
	t.Helper()
	if got != exp {
		t.Errorf("%s flag incorrect. exp: %v, got: %v", name, exp, got)
	}
}

func TestLoadImmediate(t *testing.T) {
	mem := cpu.NewFlatMemory()
	mem.StoreBytes(0x0000, []byte{0xa9, 0x42})
	c := cpu.NewCPU(mem)

	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 2 {
		t.Errorf("step cycles incorrect. exp: 2, got: %d", cycles)
	}
	expectACC(t, c, 0x42)
	expectPC(t, c, 0x0002)
	expectCycles(t, c, 2)
	expectFlag(t, "Zero", c.Reg.Zero, false)
	expectFlag(t, "Sign", c.Reg.Sign, false)
}

func TestAccumulator(t *testing.T) {
	c := runCPU(t, 3,
		0xa9, 0x5e, // LDA #$5E
		0x85, 0x15, // STA $15
		0x8d, 0x00, 0x15, // STA $1500
	)

	expectPC(t, c, 0x1007)
	expectCycles(t, c, 9)
	expectACC(t, c, 0x5e)
	expectMem(t, c, 0x15, 0x5e)
	expectMem(t, c, 0x1500, 0x5e)
}

func TestStack(t *testing.T) {
	c, _ := loadCPU(t, origin,
		0xa9, 0x11, // LDA #$11
		0x48,       // PHA
		0xa9, 0x12, // LDA #$12
		0x48,       // PHA
		0xa9, 0x13, // LDA #$13
		0x48,             // PHA
		0x68,             // PLA
		0x8d, 0x00, 0x20, // STA $2000
		0x68,             // PLA
		0x8d, 0x01, 0x20, // STA $2001
		0x68,             // PLA
		0x8d, 0x02, 0x20, // STA $2002
	)

	stepCPU(t, c, 6)
	expectSP(t, c, 0xfc)
	expectACC(t, c, 0x13)
	expectMem(t, c, 0x1ff, 0x11)
	expectMem(t, c, 0x1fe, 0x12)
	expectMem(t, c, 0x1fd, 0x13)

	stepCPU(t, c, 6)
	expectACC(t, c, 0x11)
	expectSP(t, c, 0xff)
	expectMem(t, c, 0x2000, 0x13)
	expectMem(t, c, 0x2001, 0x12)
	expectMem(t, c, 0x2002, 0x11)
}

func TestStackWrap(t *testing.T) {
	code := make([]byte, 16)
	for i := range code {
		code[i] = 0x48 // PHA
	}
	c, mem := loadCPU(t, origin, code...)
	c.Reg.SP = 0x01
	c.Reg.A = 0x77

	stepCPU(t, c, 16)
	expectSP(t, c, 0xf1)
	expectMem(t, c, 0x0101, 0x77)
	expectMem(t, c, 0x0100, 0x77)
	expectMem(t, c, 0x01ff, 0x77)
	expectMem(t, c, 0x01f2, 0x77)
	expectMem(t, c, 0x01f1, 0x00)

	for addr := 0; addr < 0x10000; addr++ {
		if addr >= 0x0100 && addr < 0x0200 || addr >= origin && addr < origin+len(code) {
			continue
		}
		if v := mem.PeekByte(uint16(addr)); v != 0 {
			t.Fatalf("push escaped the stack page: $%04X = $%02X", addr, v)
		}
	}
}

func TestIndirect(t *testing.T) {
	c := runCPU(t, 14,
		0xa2, 0x80, // LDX #$80
		0xa0, 0x40, // LDY #$40
		0xa9, 0xee, // LDA #$EE
		0x9d, 0x00, 0x20, // STA $2000,X
		0x99, 0x00, 0x20, // STA $2000,Y
		0xa9, 0x11, // LDA #$11
		0x85, 0x06, // STA $06
		0xa9, 0x05, // LDA #$05
		0x85, 0x07, // STA $07
		0xa2, 0x01, // LDX #$01
		0xa0, 0x01, // LDY #$01
		0xa9, 0xbb, // LDA #$BB
		0x81, 0x05, // STA ($05,X)
		0x91, 0x06, // STA ($06),Y
	)

	expectMem(t, c, 0x2080, 0xee)
	expectMem(t, c, 0x2040, 0xee)
	expectMem(t, c, 0x0511, 0xbb)
	expectMem(t, c, 0x0512, 0xbb)
}

func TestZeroPageWrap(t *testing.T) {
	c, mem := loadCPU(t, origin,
		0xb5, 0xf0, // LDA $F0,X
		0xa1, 0xff, // LDA ($FF,X)
		0xb1, 0xff, // LDA ($FF),Y
	)
	mem.StoreByte(0x0010, 0x99)
	mem.StoreByte(0x0110, 0x11)
	mem.StoreByte(0x00ff, 0x00)
	mem.StoreByte(0x0000, 0x30)
	mem.StoreByte(0x0100, 0x40)
	mem.StoreByte(0x3000, 0x5a)
	mem.StoreByte(0x3001, 0x5b)

	c.Reg.X = 0x20
	stepCPU(t, c, 1)
	expectACC(t, c, 0x99)

	c.Reg.X = 0x00
	stepCPU(t, c, 1)
	expectACC(t, c, 0x5a)

	c.Reg.Y = 0x01
	stepCPU(t, c, 1)
	expectACC(t, c, 0x5b)
}

func TestPageCross(t *testing.T) {
	c := runCPU(t, 5,
		0xa9, 0x55, // LDA #$55     2 cycles
		0x8d, 0x01, 0x11, // STA $1101    4 cycles
		0xa9, 0x00, // LDA #$00     2 cycles
		0xa2, 0xff, // LDX #$FF     2 cycles
		0xbd, 0x02, 0x10, // LDA $1002,X  5 cycles
	)

	expectPC(t, c, 0x100c)
	expectCycles(t, c, 15)
	expectACC(t, c, 0x55)
	expectMem(t, c, 0x1101, 0x55)
}

func TestPageCrossPenaltyOnlyForReads(t *testing.T) {
	c := runCPU(t, 2,
		0xa2, 0xff, // LDX #$FF
		0x9d, 0x02, 0x10, // STA $1002,X
	)
	expectCycles(t, c, 7)
}

func TestIndirectJumpPageWrap(t *testing.T) {
	c, mem := loadCPU(t, origin, 0x6c, 0xff, 0x02) // JMP ($02FF)
	mem.StoreByte(0x02ff, 0x34)
	mem.StoreByte(0x0200, 0x12)
	mem.StoreByte(0x0300, 0x56)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x1234)
	expectCycles(t, c, 5)
}

func TestBranchCycles(t *testing.T) {
	cases := []struct {
		name   string
		addr   uint16
		offset byte
		zero   bool
		pc     uint16
		cycles int
	}{
		{"taken, page crossed", 0x10fd, 0x02, true, 0x1101, 4},
		{"not taken", 0x10fd, 0x02, false, 0x10ff, 2},
		{"taken, same page", 0x1000, 0x10, true, 0x1012, 3},
		{"taken backward, page crossed", 0x1000, 0xfc, true, 0x0ffe, 4},
		{"taken backward, same page", 0x1010, 0xfc, true, 0x100e, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := loadCPU(t, tc.addr, 0xf0, tc.offset) // BEQ
			c.Reg.Zero = tc.zero
			cycles, err := c.Step()
			if err != nil {
				t.Fatal(err)
			}
			expectPC(t, c, tc.pc)
			if cycles != tc.cycles {
				t.Errorf("cycles incorrect. exp: %d, got: %d", tc.cycles, cycles)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name     string
		opcode   byte
		a, v     byte
		carry    bool
		result   byte
		c, v2, n bool
		z        bool
	}{
		{"ADC signed overflow", 0x69, 0x50, 0x50, false, 0xa0, false, true, true, false},
		{"ADC unsigned carry", 0x69, 0xff, 0x01, false, 0x00, true, false, false, true},
		{"ADC carry in", 0x69, 0x7f, 0x00, true, 0x80, false, true, true, false},
		{"ADC negative overflow", 0x69, 0xd0, 0x90, false, 0x60, true, true, false, false},
		{"SBC no overflow", 0xe9, 0x50, 0xf0, true, 0x60, false, false, false, false},
		{"SBC overflow", 0xe9, 0x50, 0xb0, true, 0xa0, false, true, true, false},
		{"SBC no borrow", 0xe9, 0x05, 0x03, true, 0x02, true, false, false, false},
		{"SBC borrow in", 0xe9, 0x05, 0x05, false, 0xff, false, false, true, false},
		{"SBC undocumented", 0xeb, 0x05, 0x03, true, 0x02, true, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := loadCPU(t, origin, tc.opcode, tc.v)
			c.Reg.A = tc.a
			c.Reg.Carry = tc.carry
			stepCPU(t, c, 1)
			expectACC(t, c, tc.result)
			expectFlag(t, "Carry", c.Reg.Carry, tc.c)
			expectFlag(t, "Overflow", c.Reg.Overflow, tc.v2)
			expectFlag(t, "Sign", c.Reg.Sign, tc.n)
			expectFlag(t, "Zero", c.Reg.Zero, tc.z)
		})
	}
}

func TestDecimalFlagIgnored(t *testing.T) {
	c := runCPU(t, 3,
		0xf8,       // SED
		0xa9, 0x09, // LDA #$09
		0x69, 0x01, // ADC #$01
	)
	expectACC(t, c, 0x0a)
	expectFlag(t, "Decimal", c.Reg.Decimal, true)
}

func TestCompare(t *testing.T) {
	cases := []struct {
		name    string
		code    []byte
		c, z, n bool
	}{
		{"CMP equal", []byte{0xc9, 0x40}, true, true, false},
		{"CMP less", []byte{0xc9, 0x41}, false, false, true},
		{"CPX greater", []byte{0xe0, 0x10}, true, false, false},
		{"CPY less", []byte{0xc0, 0x80}, false, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := loadCPU(t, origin, tc.code...)
			c.Reg.A, c.Reg.X, c.Reg.Y = 0x40, 0x40, 0x40
			stepCPU(t, c, 1)
			expectFlag(t, "Carry", c.Reg.Carry, tc.c)
			expectFlag(t, "Zero", c.Reg.Zero, tc.z)
			expectFlag(t, "Sign", c.Reg.Sign, tc.n)
			if c.Reg.A != 0x40 || c.Reg.X != 0x40 || c.Reg.Y != 0x40 {
				t.Errorf("compare modified a register: %+v", c.Reg)
			}
		})
	}
}

func TestBit(t *testing.T) {
	c, mem := loadCPU(t, origin, 0x24, 0x10) // BIT $10
	mem.StoreByte(0x10, 0xc0)
	c.Reg.A = 0x01
	c.Reg.Y = 0x00
	stepCPU(t, c, 1)
	expectFlag(t, "Zero", c.Reg.Zero, true)
	expectFlag(t, "Sign", c.Reg.Sign, true)
	expectFlag(t, "Overflow", c.Reg.Overflow, true)
}

func TestShiftRouting(t *testing.T) {
	c, _ := loadCPU(t, origin,
		0x0a,       // ASL A
		0x06, 0x10, // ASL $10
		0x6a,       // ROR A
		0x26, 0x11, // ROL $11
		0x4a, // LSR A
	)
	c.Reg.A = 0x81
	c.Mem.StoreByte(0x10, 0x40)
	c.Mem.StoreByte(0x11, 0x80)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x02)
	expectFlag(t, "Carry", c.Reg.Carry, true)

	stepCPU(t, c, 1)
	expectMem(t, c, 0x10, 0x80)
	expectACC(t, c, 0x02)
	expectFlag(t, "Carry", c.Reg.Carry, false)
	expectFlag(t, "Sign", c.Reg.Sign, true)

	c.Reg.Carry = true
	stepCPU(t, c, 1)
	expectACC(t, c, 0x81)
	expectFlag(t, "Carry", c.Reg.Carry, false)

	c.Reg.Carry = true
	stepCPU(t, c, 1)
	expectMem(t, c, 0x11, 0x01)
	expectFlag(t, "Carry", c.Reg.Carry, true)
	expectACC(t, c, 0x81)

	stepCPU(t, c, 1)
	expectACC(t, c, 0x40)
	expectFlag(t, "Carry", c.Reg.Carry, true)
	expectCycles(t, c, 2+5+2+5+2)
}

func TestSubroutine(t *testing.T) {
	c, mem := loadCPU(t, origin, 0x20, 0x00, 0x20) // JSR $2000
	mem.StoreByte(0x2000, 0x60)                    // RTS

	stepCPU(t, c, 1)
	expectPC(t, c, 0x2000)
	expectSP(t, c, 0xfd)
	expectMem(t, c, 0x01ff, 0x10)
	expectMem(t, c, 0x01fe, 0x02)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x1003)
	expectSP(t, c, 0xff)
	expectCycles(t, c, 12)
}

func TestProcessorStatusStack(t *testing.T) {
	c, _ := loadCPU(t, origin,
		0x38, // SEC
		0x08, // PHP
		0x18, // CLC
		0x28, // PLP
	)
	stepCPU(t, c, 2)
	expectMem(t, c, 0x01ff, cpu.CarryBit|cpu.BreakBit|cpu.ReservedBit)

	stepCPU(t, c, 2)
	expectFlag(t, "Carry", c.Reg.Carry, true)
	if ps := c.Reg.PS(); ps != cpu.CarryBit|cpu.ReservedBit {
		t.Errorf("status incorrect. exp: $21, got: $%02X", ps)
	}
}

func TestUndocumented(t *testing.T) {
	t.Run("ATX", func(t *testing.T) {
		c := runCPU(t, 1, 0xab, 0x5a)
		expectACC(t, c, 0x5a)
		if c.Reg.X != 0x5a {
			t.Errorf("X incorrect. exp: $5A, got: $%02X", c.Reg.X)
		}
	})

	t.Run("AXS", func(t *testing.T) {
		c, _ := loadCPU(t, origin, 0xcb, 0x02)
		c.Reg.A, c.Reg.X = 0x0f, 0xf3
		stepCPU(t, c, 1)
		if c.Reg.X != 0x01 {
			t.Errorf("X incorrect. exp: $01, got: $%02X", c.Reg.X)
		}
		expectACC(t, c, 0x0f)
		expectFlag(t, "Carry", c.Reg.Carry, true)
	})

	t.Run("ASR", func(t *testing.T) {
		c, _ := loadCPU(t, origin, 0x4b, 0x03)
		c.Reg.A = 0xff
		stepCPU(t, c, 1)
		expectACC(t, c, 0x01)
		expectFlag(t, "Carry", c.Reg.Carry, true)
	})

	t.Run("ARR", func(t *testing.T) {
		c, _ := loadCPU(t, origin, 0x6b, 0xff)
		c.Reg.A = 0xff
		c.Reg.Carry = true
		stepCPU(t, c, 1)
		expectACC(t, c, 0xff)
		expectFlag(t, "Carry", c.Reg.Carry, true)
		expectFlag(t, "Overflow", c.Reg.Overflow, false)
		expectFlag(t, "Sign", c.Reg.Sign, true)
	})

	t.Run("AAC", func(t *testing.T) {
		c, _ := loadCPU(t, origin, 0x0b, 0x80)
		c.Reg.A = 0xf0
		stepCPU(t, c, 1)
		expectACC(t, c, 0x80)
		expectFlag(t, "Carry", c.Reg.Carry, true)
		expectFlag(t, "Sign", c.Reg.Sign, true)
	})

	t.Run("SLO", func(t *testing.T) {
		c, mem := loadCPU(t, origin, 0x07, 0x10)
		mem.StoreByte(0x10, 0x41)
		c.Reg.A = 0x01
		stepCPU(t, c, 1)

		// A is ORed with the shifted memory value, not the original.
		expectMem(t, c, 0x10, 0x82)
		expectACC(t, c, 0x83)
		expectFlag(t, "Carry", c.Reg.Carry, false)
		expectCycles(t, c, 5)
	})

	t.Run("DOP", func(t *testing.T) {
		c := runCPU(t, 1, 0x04, 0x10)
		expectPC(t, c, 0x1002)
		expectCycles(t, c, 3)
	})

	t.Run("RLA is a no-op", func(t *testing.T) {
		c, mem := loadCPU(t, origin, 0x27, 0x10)
		mem.StoreByte(0x10, 0x41)
		c.Reg.A = 0x0f
		before := c.Reg
		stepCPU(t, c, 1)
		before.PC = 0x1002
		if c.Reg != before {
			t.Errorf("registers changed. exp: %+v, got: %+v", before, c.Reg)
		}
		expectMem(t, c, 0x10, 0x41)
		expectCycles(t, c, 5)
	})
}

func TestEveryOpcodeAdvances(t *testing.T) {
	set := cpu.GetInstructionSet()
	for op := 0; op < 256; op++ {
		inst := set.Lookup(byte(op))
		if inst.Unknown() || inst.Mode == cpu.REL {
			continue
		}
		switch inst.Name {
		case "JMP", "JSR", "RTS", "RTI", "BRK":
			continue
		}

		c, _ := loadCPU(t, origin, byte(op), 0x00, 0x00)
		cycles, err := c.Step()
		if err != nil {
			t.Errorf("opcode $%02X: %v", op, err)
			continue
		}
		if c.Reg.PC != origin+uint16(inst.Length) {
			t.Errorf("opcode $%02X (%s): PC exp: $%04X, got: $%04X",
				op, inst.Name, origin+uint16(inst.Length), c.Reg.PC)
		}
		if cycles < int(inst.Cycles) {
			t.Errorf("opcode $%02X (%s): cycles exp >= %d, got: %d",
				op, inst.Name, inst.Cycles, cycles)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	c, _ := loadCPU(t, origin, 0x02)
	before := c.Reg

	cycles, err := c.Step()
	if !errors.Is(err, cpu.ErrUnknownOpcode) {
		t.Fatalf("expected ErrUnknownOpcode, got %v", err)
	}
	var de *cpu.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if de.PC != origin || de.Opcode != 0x02 {
		t.Errorf("decode error incorrect: %+v", de)
	}
	if cycles != 0 {
		t.Errorf("cycles incorrect. exp: 0, got: %d", cycles)
	}
	if c.Reg != before {
		t.Errorf("registers changed. exp: %+v, got: %+v", before, c.Reg)
	}
	expectCycles(t, c, 0)
}

func TestStoreDoesNotRead(t *testing.T) {
	cases := []struct {
		name  string
		code  []byte
		reads []uint16
	}{
		{"STA abs", []byte{0x8d, 0x00, 0x20}, []uint16{0x1000, 0x1001, 0x1002}},
		{"STX zp", []byte{0x86, 0x20}, []uint16{0x1000, 0x1001}},
		{"LAX no-op", []byte{0xa7, 0x20}, []uint16{0x1000, 0x1001}},
		{"LDA abs", []byte{0xad, 0x00, 0x20}, []uint16{0x1000, 0x1001, 0x1002, 0x2000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := cpu.NewBankedMemory()
			mem.StoreBytes(origin, tc.code)
			var reads []uint16
			mem.OnRead = func(addr uint16, v byte) {
				reads = append(reads, addr)
			}

			c := cpu.NewCPU(mem)
			c.SetPC(origin)
			stepCPU(t, c, 1)

			if len(reads) != len(tc.reads) {
				t.Fatalf("reads incorrect. exp: %04X, got: %04X", tc.reads, reads)
			}
			for i := range reads {
				if reads[i] != tc.reads[i] {
					t.Fatalf("reads incorrect. exp: %04X, got: %04X", tc.reads, reads)
				}
			}
		})
	}
}

func TestInstructionSet(t *testing.T) {
	set := cpu.GetInstructionSet()
	unknown := 0
	for op := 0; op < 256; op++ {
		inst := set.Lookup(byte(op))
		if inst.Opcode != byte(op) {
			t.Errorf("opcode $%02X stored as $%02X", op, inst.Opcode)
		}
		if int(inst.Length) != 1+inst.Mode.OperandSize() {
			t.Errorf("opcode $%02X length %d does not match mode", op, inst.Length)
		}
		if inst.Unknown() {
			unknown++
			if inst.Cycles != 0 || inst.Mode != cpu.UNK || inst.Name != cpu.UnknownName {
				t.Errorf("opcode $%02X is not a clean unknown entry: %+v", op, inst)
			}
		}
	}
	if unknown != 17 {
		t.Errorf("unknown opcode count incorrect. exp: 17, got: %d", unknown)
	}

	if n := len(set.GetInstructions("lda")); n != 8 {
		t.Errorf("LDA variants incorrect. exp: 8, got: %d", n)
	}
	if inst := set.Lookup(0x05); inst.Name != "ORA" || inst.Cycles != 3 {
		t.Errorf("ORA zero page incorrect: %+v", inst)
	}
}
