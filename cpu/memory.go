// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "errors"

// Errors
var (
	ErrROMBounds  = errors.New("ROM extends past the end of the address space")
	ErrROMOverlap = errors.New("ROM overlaps an existing ROM")
)

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Implementations may attach side effects to any
// load or store; the CPU only calls LoadByte when an instruction actually
// reads its operand.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)
}

// A Peeker is a Memory that can report the contents of an address without
// triggering any of the side effects associated with a CPU load.
type Peeker interface {
	PeekByte(addr uint16) byte
}

// Peek returns the byte at addr, bypassing side effects when the memory
// supports it.
func Peek(m Memory, addr uint16) byte {
	if p, ok := m.(Peeker); ok {
		return p.PeekByte(addr)
	}
	return m.LoadByte(addr)
}

// PeekBytes fills b with the bytes starting at addr, wrapping at the end of
// the address space.
func PeekBytes(m Memory, addr uint16, b []byte) {
	for i := range b {
		b[i] = Peek(m, addr+uint16(i))
	}
}

// PeekAddress returns the little-endian 16-bit value stored at addr.
func PeekAddress(m Memory, addr uint16) uint16 {
	return uint16(Peek(m, addr)) | uint16(Peek(m, addr+1))<<8
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// PeekByte returns the byte at the address.
func (m *FlatMemory) PeekByte(addr uint16) byte {
	return m.b[addr]
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address. Bytes that
// would land past $FFFF are dropped.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	copy(m.b[addr:], b)
}

// A rom is a read-only region overlaid on top of banked RAM.
type rom struct {
	base uint16
	data []byte
}

func (r *rom) contains(addr uint16) bool {
	return addr >= r.base && int(addr-r.base) < len(r.data)
}

// BankedMemory is a 64K RAM address space with read-only ROM images
// overlaid on top of it. Loads from a ROM-covered address return the ROM
// contents; stores always land in the RAM underneath.
type BankedMemory struct {
	ram  [64 * 1024]byte
	roms []rom

	// OnRead, if set, is called after every CPU load with the address and
	// the value returned.
	OnRead func(addr uint16, v byte)

	// OnWrite, if set, is called before every CPU store. Returning false
	// suppresses the store.
	OnWrite func(addr uint16, v byte) bool
}

// NewBankedMemory creates an empty banked address space.
func NewBankedMemory() *BankedMemory {
	return &BankedMemory{}
}

// AddROM overlays a copy of data at the base address.
func (m *BankedMemory) AddROM(base uint16, data []byte) error {
	if int(base)+len(data) > len(m.ram) {
		return ErrROMBounds
	}
	r := rom{base: base, data: append([]byte(nil), data...)}
	for i := range m.roms {
		o := &m.roms[i]
		if len(r.data) > 0 && len(o.data) > 0 &&
			(o.contains(r.base) || r.contains(o.base)) {
			return ErrROMOverlap
		}
	}
	m.roms = append(m.roms, r)
	return nil
}

// RemoveROMs drops every ROM overlay, exposing the RAM beneath.
func (m *BankedMemory) RemoveROMs() {
	m.roms = nil
}

// PeekByte returns the byte visible at addr without calling OnRead.
func (m *BankedMemory) PeekByte(addr uint16) byte {
	for i := range m.roms {
		if r := &m.roms[i]; r.contains(addr) {
			return r.data[addr-r.base]
		}
	}
	return m.ram[addr]
}

// LoadByte loads the byte visible at addr.
func (m *BankedMemory) LoadByte(addr uint16) byte {
	v := m.PeekByte(addr)
	if m.OnRead != nil {
		m.OnRead(addr, v)
	}
	return v
}

// StoreByte stores a byte into the RAM at addr.
func (m *BankedMemory) StoreByte(addr uint16, v byte) {
	if m.OnWrite != nil && !m.OnWrite(addr, v) {
		return
	}
	m.ram[addr] = v
}

// StoreBytes copies b into RAM starting at addr without calling OnWrite.
func (m *BankedMemory) StoreBytes(addr uint16, b []byte) {
	copy(m.ram[addr:], b)
}

// Given a 1-byte stack pointer register, return the stack
// corresponding memory address.
func stackAddress(offset byte) uint16 {
	return uint16(0x100) + uint16(offset)
}
