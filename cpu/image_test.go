package cpu_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/m6502/cpu"
)

func TestImageRoundTrip(t *testing.T) {
	src := cpu.NewFlatMemory()
	for addr := 0; addr < cpu.ImageDumpEnd; addr++ {
		src.StoreByte(uint16(addr), byte(addr*7+3))
	}

	var buf bytes.Buffer
	if err := cpu.DumpImage(src, &buf); err != nil {
		t.Fatal(err)
	}

	lines := strings.SplitAfter(buf.String(), "\n")
	if len(lines) != 257 || lines[256] != "" {
		t.Fatalf("line count incorrect. exp: 256, got: %d", len(lines)-1)
	}
	exp := "0000: 030a 1118 1f26 2d34 3b42 4950 575e 656c \n"
	if lines[0] != exp {
		t.Errorf("first line incorrect.\nexp: %q\ngot: %q", exp, lines[0])
	}
	if !strings.HasPrefix(lines[255], "0ff0: ") {
		t.Errorf("last line incorrect: %q", lines[255])
	}

	dst := cpu.NewFlatMemory()
	if err := cpu.LoadImage(dst, &buf); err != nil {
		t.Fatal(err)
	}
	for addr := 0; addr < cpu.ImageDumpEnd; addr++ {
		if got, exp := dst.PeekByte(uint16(addr)), src.PeekByte(uint16(addr)); got != exp {
			t.Fatalf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, exp, got)
		}
	}
}

func TestLoadImage(t *testing.T) {
	mem := cpu.NewFlatMemory()
	text := "0010: 01 02 03\n00 20:a9 42\n\n0030: ff\n"
	if err := cpu.LoadImage(mem, strings.NewReader(text)); err != nil {
		t.Fatal(err)
	}

	exp := map[uint16]byte{
		0x10: 0x01, 0x11: 0x02, 0x12: 0x03,
		0x20: 0xa9, 0x21: 0x42,
		0x30: 0x00,
	}
	for addr, v := range exp {
		if got := mem.PeekByte(addr); got != v {
			t.Errorf("Memory at $%04X incorrect. exp: $%02X, got: $%02X", addr, v, got)
		}
	}
}

func TestLoadImageErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		line int
	}{
		{"bad address", "zz: 00\n", 1},
		{"missing colon", "0000: 00\n0010 01\n", 2},
		{"odd digits", "0000: 012\n", 1},
		{"bad byte", "0000: 0g\n", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := cpu.LoadImage(cpu.NewFlatMemory(), strings.NewReader(tc.text))
			var ie *cpu.ImageError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *ImageError, got %v", err)
			}
			if ie.Line != tc.line {
				t.Errorf("line incorrect. exp: %d, got: %d", tc.line, ie.Line)
			}
		})
	}
}
