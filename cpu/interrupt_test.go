package cpu_test

import (
	"testing"

	"github.com/beevik/m6502/cpu"
)

func storeVector(m *cpu.FlatMemory, vector, addr uint16) {
	m.StoreByte(vector, byte(addr))
	m.StoreByte(vector+1, byte(addr>>8))
}

func TestBRK(t *testing.T) {
	c, mem := loadCPU(t, origin, 0x00, 0xff) // BRK, padding
	storeVector(mem, 0xfffe, 0x2000)
	mem.StoreByte(0x2000, 0x40) // RTI
	c.Reg.Carry = true

	cycles, err := c.Step()
	if err != nil {
		t.Fatal(err)
	}
	if cycles != 7 {
		t.Errorf("cycles incorrect. exp: 7, got: %d", cycles)
	}
	expectPC(t, c, 0x2000)
	expectSP(t, c, 0xfc)
	expectMem(t, c, 0x01ff, 0x10)
	expectMem(t, c, 0x01fe, 0x02)
	expectMem(t, c, 0x01fd, cpu.CarryBit|cpu.BreakBit|cpu.ReservedBit)
	expectFlag(t, "InterruptDisable", c.Reg.InterruptDisable, true)

	stepCPU(t, c, 1)
	expectPC(t, c, 0x1002)
	expectSP(t, c, 0xff)
	expectFlag(t, "Carry", c.Reg.Carry, true)
	expectFlag(t, "InterruptDisable", c.Reg.InterruptDisable, false)
}

func TestReset(t *testing.T) {
	mem := cpu.NewFlatMemory()
	storeVector(mem, 0xfffc, 0xc000)
	c := cpu.NewCPU(mem)

	c.Reset()
	expectPC(t, c, 0xc000)
	expectSP(t, c, 0xfd)
	expectFlag(t, "InterruptDisable", c.Reg.InterruptDisable, false)
	expectCycles(t, c, 0)
	for addr := uint16(0x0100); addr < 0x0200; addr++ {
		expectMem(t, c, addr, 0)
	}
}

func TestNMI(t *testing.T) {
	c, mem := loadCPU(t, 0x1234)
	storeVector(mem, 0xfffa, 0x3000)
	c.Reg.InterruptDisable = true

	c.NMI()
	expectPC(t, c, 0x3000)
	expectSP(t, c, 0xfc)
	expectMem(t, c, 0x01ff, 0x12)
	expectMem(t, c, 0x01fe, 0x34)
	expectMem(t, c, 0x01fd, cpu.InterruptDisableBit|cpu.ReservedBit)
	expectFlag(t, "InterruptDisable", c.Reg.InterruptDisable, true)
	expectCycles(t, c, 7)
}

func TestIRQ(t *testing.T) {
	c, mem := loadCPU(t, 0x1234)
	storeVector(mem, 0xfffe, 0x4000)

	c.Reg.InterruptDisable = true
	before := c.Reg
	if c.IRQ() {
		t.Error("IRQ taken while interrupts were disabled")
	}
	if c.Reg != before {
		t.Errorf("masked IRQ changed registers. exp: %+v, got: %+v", before, c.Reg)
	}
	expectMem(t, c, 0x01ff, 0x00)
	expectCycles(t, c, 0)

	c.Reg.InterruptDisable = false
	c.Reg.Zero = true
	if !c.IRQ() {
		t.Fatal("IRQ ignored while interrupts were enabled")
	}
	expectPC(t, c, 0x4000)
	expectSP(t, c, 0xfc)
	expectMem(t, c, 0x01fd, cpu.ZeroBit|cpu.ReservedBit)
	expectFlag(t, "InterruptDisable", c.Reg.InterruptDisable, true)
	expectCycles(t, c, 7)
}
