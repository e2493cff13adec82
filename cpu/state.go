// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "io"

// SaveState writes the register file to w as a 7-byte snapshot. Memory and
// the cycle counter are not included.
func (cpu *CPU) SaveState(w io.Writer) error {
	b, err := cpu.Reg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// LoadState replaces the register file with a snapshot written by
// SaveState. A short read returns io.ErrUnexpectedEOF and leaves the
// registers unchanged.
func (cpu *CPU) LoadState(r io.Reader) error {
	var b [StateSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return cpu.Reg.UnmarshalBinary(b[:])
}
