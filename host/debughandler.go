// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/m6502/cpu"

// The debugHandler receives notifications from the cpu debugger and stops
// the host's run loop when a breakpoint is hit.
type debugHandler struct {
	host *Host
}

func newDebugHandler(h *Host) *debugHandler {
	return &debugHandler{host: h}
}

func (d *debugHandler) OnBreakpoint(c *cpu.CPU, b *cpu.Breakpoint) {
	h := d.host
	if h.state != stateRunning {
		return
	}

	// Arriving at the end of a stepped-over subroutine is not a break.
	if int(b.Address) == h.stepOverAddr {
		return
	}

	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}

func (d *debugHandler) OnDataBreakpoint(c *cpu.CPU, b *cpu.DataBreakpoint) {
	h := d.host
	if h.state != stateRunning {
		return
	}

	h.state = stateBreakpoint
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	if c.LastPC != c.Reg.PC {
		d, _ := h.disassemble(c.LastPC, displayAll)
		h.println(d)
	}
	h.displayPC()
}
