package cpu_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/beevik/m6502/cpu"
)

func TestSaveState(t *testing.T) {
	c := cpu.NewCPU(cpu.NewFlatMemory())
	c.Reg.A = 0x12
	c.Reg.X = 0x34
	c.Reg.Y = 0x56
	c.Reg.SP = 0x78
	c.Reg.PC = 0xbeef
	c.Reg.Carry = true
	c.Reg.Overflow = true
	c.Reg.Sign = true

	var buf bytes.Buffer
	if err := c.SaveState(&buf); err != nil {
		t.Fatal(err)
	}
	exp := []byte{0x12, 0x34, 0x56, 0xe1, 0x78, 0xef, 0xbe}
	if !bytes.Equal(buf.Bytes(), exp) {
		t.Fatalf("state incorrect. exp: % X, got: % X", exp, buf.Bytes())
	}

	c2 := cpu.NewCPU(cpu.NewFlatMemory())
	if err := c2.LoadState(&buf); err != nil {
		t.Fatal(err)
	}
	if c2.Reg != c.Reg {
		t.Errorf("registers incorrect. exp: %+v, got: %+v", c.Reg, c2.Reg)
	}
}

func TestStateRoundTripAllFlags(t *testing.T) {
	for ps := 0; ps < 256; ps++ {
		var r cpu.Registers
		r.A, r.X, r.Y, r.SP, r.PC = byte(ps), ^byte(ps), byte(ps*3), byte(ps*5), uint16(ps)*257
		r.RestorePS(byte(ps))

		b, err := r.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		var r2 cpu.Registers
		if err := r2.UnmarshalBinary(b); err != nil {
			t.Fatal(err)
		}
		if r2 != r {
			t.Fatalf("round trip of P=$%02X incorrect. exp: %+v, got: %+v", ps, r, r2)
		}
		if b[3]&cpu.ReservedBit == 0 {
			t.Fatalf("reserved bit clear in saved P=$%02X", b[3])
		}
	}
}

// Bits 4 and 5 of a loaded P byte are not kept, so P always saves back
// with bit 4 clear and bit 5 set.
func TestLoadStateNormalizesStatus(t *testing.T) {
	cases := []struct {
		in, exp byte
	}{
		{0x00, 0x20},
		{0x10, 0x20},
		{0x30, 0x20},
		{0xdf, 0xef},
	}

	for _, tc := range cases {
		c := cpu.NewCPU(cpu.NewFlatMemory())
		in := []byte{0x01, 0x02, 0x03, tc.in, 0xfd, 0x00, 0xc0}
		if err := c.LoadState(bytes.NewReader(in)); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		if err := c.SaveState(&buf); err != nil {
			t.Fatal(err)
		}
		if got := buf.Bytes()[3]; got != tc.exp {
			t.Errorf("P incorrect for $%02X. exp: $%02X, got: $%02X", tc.in, tc.exp, got)
		}
	}
}

func TestLoadStateErrors(t *testing.T) {
	c := cpu.NewCPU(cpu.NewFlatMemory())
	c.Reg.A = 0x99

	err := c.LoadState(strings.NewReader("\x01\x02\x03"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	err = c.LoadState(strings.NewReader(""))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
	expectACC(t, c, 0x99)

	if err := c.Reg.UnmarshalBinary(make([]byte, 8)); !errors.Is(err, cpu.ErrStateSize) {
		t.Errorf("expected ErrStateSize, got %v", err)
	}
}
