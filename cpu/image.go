// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Range of memory written by DumpImage.
const (
	ImageDumpStart = 0x0000
	ImageDumpEnd   = 0x1000
	imageLineBytes = 16
)

var (
	errImageNoColon = errors.New("missing ':' after address")
	errImageOddHex  = errors.New("odd number of hex digits")
)

// An ImageError describes a malformed line in a memory image.
type ImageError struct {
	Line int   // 1-based line number
	Err  error // underlying problem
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("memory image line %d: %v", e.Line, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// LoadImage reads a text memory image from r and stores its bytes into m.
// Each line has the form "AAAA:HHHH HH ..." where AAAA is the hex address
// of the first byte. Spaces may appear anywhere in a line. Loading stops at
// the first blank line or at the end of the input.
func LoadImage(m Memory, r io.Reader) error {
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r':
				return -1
			}
			return r
		}, s.Text())
		if text == "" {
			break
		}

		if err := loadImageLine(m, text); err != nil {
			return &ImageError{Line: line, Err: err}
		}
	}
	return s.Err()
}

func loadImageLine(m Memory, text string) error {
	addrText, hex, ok := strings.Cut(text, ":")
	if !ok {
		return errImageNoColon
	}
	a, err := strconv.ParseUint(addrText, 16, 16)
	if err != nil {
		return err
	}
	if len(hex)%2 != 0 {
		return errImageOddHex
	}

	addr := uint16(a)
	for i := 0; i < len(hex); i += 2 {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		if err != nil {
			return err
		}
		m.StoreByte(addr, byte(v))
		addr++
	}
	return nil
}

// DumpImage writes memory $0000-$0FFF to w in the format read by
// LoadImage, sixteen bytes per line in lowercase hex.
func DumpImage(m Memory, w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf [imageLineBytes]byte
	for addr := ImageDumpStart; addr < ImageDumpEnd; addr += imageLineBytes {
		PeekBytes(m, uint16(addr), buf[:])
		fmt.Fprintf(bw, "%04x: ", addr)
		for i := 0; i < imageLineBytes; i += 2 {
			fmt.Fprintf(bw, "%02x%02x ", buf[i], buf[i+1])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
