// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6502 CPU, 64K of banked memory, a built-in debugger, and other
// useful tools.
//
// Within the host it is possible to load memory images, ROMs and register
// state files, step through machine code, call subroutines, raise
// interrupts, measure the number of CPU cycles elapsed, set address and data
// breakpoints, trace executed instructions, dump and disassemble the
// contents of memory, and manipulate CPU registers and memory.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/m6502/cpu"
	"github.com/beevik/m6502/disasm"
)

// ErrQuit is returned by RunCommands when the quit command is executed.
var ErrQuit = errors.New("quit requested")

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles
	displayAnnotations

	displayAll = displayRegisters | displayCycles | displayAnnotations
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

// A Host represents a fully emulated 6502 system, 64K of memory, a built-in
// debugger, and other useful tools.
type Host struct {
	input        *bufio.Scanner
	output       *bufio.Writer
	interactive  bool
	mem          *cpu.BankedMemory
	cpu          *cpu.CPU
	debugger     *cpu.Debugger
	lastCmd      *cmd.Command
	lastArgs     []string
	state        state
	interrupted  atomic.Bool
	stepOverAddr int
	exprParser   *exprParser
	settings     *settings
	annotations  map[uint16]string
	traceFile    *os.File
}

// New creates a new 6502 host environment.
func New() *Host {
	h := &Host{
		output:       bufio.NewWriter(io.Discard),
		state:        stateProcessingCommands,
		stepOverAddr: -1,
		exprParser:   newExprParser(),
		settings:     newSettings(),
		annotations:  make(map[uint16]string),
	}

	// Create the emulated CPU and memory.
	h.mem = cpu.NewBankedMemory()
	h.cpu = cpu.NewCPU(h.mem)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered. RunCommands
// returns nil when the input is exhausted and ErrQuit when the quit
// command is executed.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) error {
	h.output = bufio.NewWriter(w)
	h.interactive = interactive
	defer h.flush()

	if interactive {
		h.println()
	}

	h.displayPC()
	return h.processCommands(bufio.NewScanner(r))
}

func (h *Host) processCommands(input *bufio.Scanner) error {
	prev := h.input
	h.input = input
	defer func() { h.input = prev }()

	for {
		h.prompt()

		line, err := h.getLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var c *cmd.Command
		var args []string
		line = strings.TrimSpace(line)
		switch {
		case line != "":
			n, a, err := cmds.Lookup(line)
			switch {
			case errors.Is(err, cmd.ErrNotFound):
				h.println("Command not found.")
				continue
			case errors.Is(err, cmd.ErrAmbiguous):
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}

			switch n := n.(type) {
			case *cmd.Tree:
				// A group name was entered without one of its commands.
				n.DisplayHelp(h.output)
				h.flush()
				continue
			case *cmd.Command:
				c, args = n, a
			}

		case h.interactive && h.lastCmd != nil:
			c, args = h.lastCmd, h.lastArgs
		}

		if c == nil {
			continue
		}

		fn, ok := c.Data.(handler)
		if !ok {
			continue
		}
		h.lastCmd, h.lastArgs = c, args

		if err := fn(h, c, args); err != nil {
			return err
		}
	}
}

// Break interrupts a running CPU. It is safe to call from another
// goroutine, such as a signal handler.
func (h *Host) Break() {
	h.interrupted.Store(true)
}

// LoadImageFile loads a memory image text file into memory.
func (h *Host) LoadImageFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return cpu.LoadImage(h.mem, file)
}

// SaveImageFile writes the start of memory to a memory image text file.
func (h *Host) SaveImageFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	err = cpu.DumpImage(h.mem, w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadStateFile loads the CPU registers from a state file.
func (h *Host) LoadStateFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return h.cpu.LoadState(file)
}

// SaveStateFile writes the CPU registers to a state file.
func (h *Host) SaveStateFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	err = h.cpu.SaveState(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// LoadROMFile overlays the contents of a binary file as read-only memory
// starting at addr.
func (h *Host) LoadROMFile(addr uint16, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := h.mem.AddROM(addr, data); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	return nil
}

// TraceFile starts writing an instruction trace to the named file,
// replacing any trace already in progress.
func (h *Host) TraceFile(filename string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	h.stopTrace()
	h.traceFile = file
	h.cpu.AttachTracer(file)
	return nil
}

// Close releases the host's open files.
func (h *Host) Close() error {
	return h.stopTrace()
}

func (h *Host) stopTrace() error {
	h.cpu.DetachTracer()
	if h.traceFile == nil {
		return nil
	}
	err := h.traceFile.Close()
	h.traceFile = nil
	return err
}

// A hostWriter routes writes to the host's current output.
type hostWriter struct {
	h *Host
}

func (w hostWriter) Write(p []byte) (int, error) {
	return w.h.write(p)
}

func (h *Host) write(p []byte) (n int, err error) {
	return h.output.Write(p)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdAnnotate(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	annotation := strings.Join(args[1:], " ")
	if annotation == "" {
		delete(h.annotations, addr)
		h.printf("Annotation removed at $%04X.\n", addr)
	} else {
		h.annotations[addr] = annotation
		h.printf("Annotation added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdBreakpointList(c *cmd.Command, args []string) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c *cmd.Command, args []string) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c *cmd.Command, args []string) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c *cmd.Command, args []string) error {
	return h.enableBreakpoint(c, args, true)
}

func (h *Host) cmdBreakpointDisable(c *cmd.Command, args []string) error {
	return h.enableBreakpoint(c, args, false)
}

func (h *Host) enableBreakpoint(c *cmd.Command, args []string, enable bool) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	h.printf("Breakpoint at $%04X %s.\n", addr, enabledString(enable))
	return nil
}

func (h *Host) cmdCall(c *cmd.Command, args []string) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	// Push the sentinel return address the way JSR would, so the
	// subroutine's final RTS lands on the sentinel.
	sentinel := h.settings.CallSentinel
	h.push(byte((sentinel - 1) >> 8))
	h.push(byte(sentinel - 1))
	h.cpu.SetPC(addr)

	cycles := h.runUntil(func() bool { return h.cpu.Reg.PC == sentinel })
	if h.cpu.Reg.PC == sentinel {
		h.printf("Subroutine at $%04X returned after %d cycles.\n", addr, cycles)
	}

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) push(v byte) {
	h.mem.StoreByte(0x0100|uint16(h.cpu.Reg.SP), v)
	h.cpu.Reg.SP--
}

func (h *Host) cmdDataBreakpointList(c *cmd.Command, args []string) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c *cmd.Command, args []string) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	if len(args) > 1 {
		value, err := h.parseExpr(args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, byte(value))
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointRemove(c *cmd.Command, args []string) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c *cmd.Command, args []string) error {
	return h.enableDataBreakpoint(c, args, true)
}

func (h *Host) cmdDataBreakpointDisable(c *cmd.Command, args []string) error {
	return h.enableDataBreakpoint(c, args, false)
}

func (h *Host) enableDataBreakpoint(c *cmd.Command, args []string, enable bool) error {
	addr, ok := h.addressArg(c, args)
	if !ok {
		return nil
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	h.printf("Data breakpoint at $%04X %s.\n", addr, enabledString(enable))
	return nil
}

func (h *Host) cmdDisassemble(c *cmd.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"$"}
	}

	addr, ok := h.continuationAddr(args[0], h.settings.NextDisasmAddr)
	if !ok {
		return nil
	}

	lines := h.settings.DisasmLines
	if len(args) > 1 {
		l, err := h.parseExpr(args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, displayAnnotations)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastArgs = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdEvaluate(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	v, err := h.exprParser.Parse(strings.Join(args, " "), h)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X (%d)\n", uint16(v), v)
	return nil
}

func (h *Host) cmdExecute(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := args[0]
	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer file.Close()

	interactive := h.interactive
	h.interactive = false
	defer func() { h.interactive = interactive }()

	return h.processCommands(bufio.NewScanner(file))
}

func (h *Host) cmdHelp(c *cmd.Command, args []string) error {
	if err := cmds.GetHelp(h.output, args); err != nil {
		h.printf("%v.\n", err)
	}
	h.flush()
	return nil
}

func (h *Host) cmdInterruptReset(c *cmd.Command, args []string) error {
	h.cpu.Reset()
	h.printf("CPU reset to $%04X.\n", h.cpu.Reg.PC)
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdInterruptNMI(c *cmd.Command, args []string) error {
	h.cpu.NMI()
	h.printf("NMI handler entered at $%04X.\n", h.cpu.Reg.PC)
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdInterruptIRQ(c *cmd.Command, args []string) error {
	if !h.cpu.IRQ() {
		h.println("IRQ ignored because interrupts are disabled.")
		return nil
	}
	h.printf("IRQ handler entered at $%04X.\n", h.cpu.Reg.PC)
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdLoadImage(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := args[0]
	if err := h.LoadImageFile(filename); err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.printf("Loaded image '%s'.\n", filepath.Base(filename))
	return nil
}

func (h *Host) cmdLoadState(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := args[0]
	if err := h.LoadStateFile(filename); err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.printf("Loaded state '%s'.\n", filepath.Base(filename))
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	h.displayPC()
	return nil
}

func (h *Host) cmdMemoryDump(c *cmd.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"$"}
	}

	addr, ok := h.continuationAddr(args[0], h.settings.NextMemDumpAddr)
	if !ok {
		return nil
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(args) >= 2 {
		var err error
		bytes, err = h.parseExpr(args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastArgs = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdMemorySet(c *cmd.Command, args []string) error {
	if len(args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	values := make([]byte, 0, len(args)-1)
	for _, s := range args[1:] {
		v, err := h.parseExpr(s)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		values = append(values, byte(v))
	}

	for i, v := range values {
		h.mem.StoreByte(addr+uint16(i), v)
	}
	h.printf("Stored %d bytes at $%04X.\n", len(values), addr)
	return nil
}

func (h *Host) cmdMemoryCopy(c *cmd.Command, args []string) error {
	if len(args) < 3 {
		h.displayUsage(c)
		return nil
	}

	var a [3]uint16
	for i := range a {
		v, err := h.parseExpr(args[i])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		a[i] = v
	}

	dst, begin, end := a[0], a[1], a[2]
	if end < begin {
		h.println("Source range is empty.")
		return nil
	}

	b := make([]byte, int(end)-int(begin)+1)
	cpu.PeekBytes(h.mem, begin, b)
	for i, v := range b {
		h.mem.StoreByte(dst+uint16(i), v)
	}
	h.printf("Copied $%04X bytes from $%04X to $%04X.\n", len(b), begin, dst)
	return nil
}

func (h *Host) cmdQuit(c *cmd.Command, args []string) error {
	return ErrQuit
}

func (h *Host) cmdRegister(c *cmd.Command, args []string) error {
	if len(args) == 0 {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
		return nil
	}

	if len(args) < 2 {
		h.displayUsage(c)
		return nil
	}

	f, err := lookupRegister(args[0])
	if err != nil {
		h.printf("Register '%s': %v\n", args[0], err)
		return nil
	}

	var v int64
	if f.bits == 1 {
		var b bool
		b, err = stringToBool(args[1])
		if b {
			v = 1
		}
	} else {
		v, err = h.exprParser.Parse(strings.Join(args[1:], " "), h)
	}
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	f.set(&h.cpu.Reg, v)
	switch f.bits {
	case 1:
		h.printf("Flag %s set to %v.\n", f.name, v != 0)
	case 8:
		h.printf("Register %s set to $%02X.\n", f.name, byte(v))
	default:
		h.printf("Register %s set to $%04X.\n", f.name, uint16(v))
		h.settings.NextDisasmAddr = h.cpu.Reg.PC
	}
	return nil
}

func (h *Host) cmdROM(c *cmd.Command, args []string) error {
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		h.mem.RemoveROMs()
		h.println("All ROMs removed.")
		return nil
	}
	if len(args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	filename := args[1]
	if err := h.LoadROMFile(addr, filename); err != nil {
		h.printf("Failed to load ROM: %v\n", err)
		return nil
	}
	h.printf("Loaded ROM '%s' at $%04X.\n", filepath.Base(filename), addr)
	return nil
}

func (h *Host) cmdRun(c *cmd.Command, args []string) error {
	if len(args) > 0 {
		pc, err := h.parseExpr(args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)
	h.runUntil(nil)

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdSaveImage(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := args[0]
	if err := h.SaveImageFile(filename); err != nil {
		h.printf("Failed to save '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.printf("Saved image '%s'.\n", filepath.Base(filename))
	return nil
}

func (h *Host) cmdSaveState(c *cmd.Command, args []string) error {
	if len(args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := args[0]
	if err := h.SaveStateFile(filename); err != nil {
		h.printf("Failed to save '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.printf("Saved state '%s'.\n", filepath.Base(filename))
	return nil
}

func (h *Host) cmdSet(c *cmd.Command, args []string) error {
	switch len(args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := args[0], strings.Join(args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v int64
			v, err = h.exprParser.Parse(value, h)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}

		h.onSettingsUpdate()
	}

	return nil
}

func (h *Host) cmdStepIn(c *cmd.Command, args []string) error {
	return h.stepCount(args, h.step)
}

func (h *Host) cmdStepOver(c *cmd.Command, args []string) error {
	return h.stepCount(args, h.stepOver)
}

// Step the CPU count times, displaying the last few instructions.
func (h *Host) stepCount(args []string, fn func()) error {
	count := 1
	if len(args) > 0 {
		n, err := h.parseExpr(args[0])
		if err == nil {
			count = int(n)
		}
	}

	h.interrupted.Store(false)
	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		fn()
		if h.state != stateRunning {
			break
		}
		switch {
		case i == h.settings.MaxStepLines:
			h.println("...")
		case i < h.settings.MaxStepLines:
			h.displayPC()
		}
	}
	h.state = stateProcessingCommands

	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdStepOut(c *cmd.Command, args []string) error {
	depth := 0
	h.runUntil(func() bool {
		switch h.cpu.GetInstruction(h.cpu.LastPC).Name {
		case "JSR", "BRK":
			depth++
		case "RTS", "RTI":
			depth--
		}
		return depth < 0
	})

	h.displayPC()
	h.settings.NextDisasmAddr = h.cpu.Reg.PC
	return nil
}

func (h *Host) cmdTraceOn(c *cmd.Command, args []string) error {
	if len(args) == 0 {
		h.stopTrace()
		h.cpu.AttachTracer(hostWriter{h})
		h.println("Tracing to console.")
		return nil
	}

	filename := args[0]
	if err := h.TraceFile(filename); err != nil {
		h.printf("Failed to create '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	h.printf("Tracing to '%s'.\n", filepath.Base(filename))
	return nil
}

func (h *Host) cmdTraceOff(c *cmd.Command, args []string) error {
	if err := h.stopTrace(); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.println("Tracing stopped.")
	return nil
}

// Run the CPU until done reports true after a step, a breakpoint is hit,
// the CPU halts, the user breaks, or the step limit is reached. Return the
// number of cycles consumed.
func (h *Host) runUntil(done func() bool) uint64 {
	start := h.cpu.Cycles

	h.interrupted.Store(false)
	h.state = stateRunning
	for n := 0; h.state == stateRunning; n++ {
		if limit := h.settings.StepLimit; limit > 0 && n >= limit {
			h.printf("Step limit of %d instructions reached at $%04X.\n", limit, h.cpu.Reg.PC)
			break
		}
		h.step()
		if h.state == stateRunning && done != nil && done() {
			break
		}
	}
	h.state = stateProcessingCommands

	return h.cpu.Cycles - start
}

func (h *Host) step() {
	if h.interrupted.Swap(false) {
		h.printf("Break at $%04X.\n", h.cpu.Reg.PC)
		h.state = stateBreakpoint
		h.displayPC()
		return
	}

	_, err := h.cpu.Step()

	var de *cpu.DecodeError
	switch {
	case errors.As(err, &de):
		h.printf("Unknown opcode $%02X at $%04X.\n", de.Opcode, de.PC)
		h.state = stateBreakpoint
	case err != nil:
		h.printf("%v\n", err)
		h.state = stateBreakpoint
	}
}

func (h *Host) stepOver() {
	// JSR instructions need to be handled specially.
	inst := h.cpu.GetInstruction(h.cpu.Reg.PC)
	if inst.Name != "JSR" {
		h.step()
		return
	}

	// Run until the subroutine returns to the instruction following the
	// JSR. A breakpoint on that instruction does not count as a hit.
	next := h.cpu.Reg.PC + uint16(inst.Length)
	h.stepOverAddr = int(next)
	defer func() { h.stepOverAddr = -1 }()

	for h.state == stateRunning {
		h.step()
		if h.cpu.Reg.PC == next {
			break
		}
	}
}

func (h *Host) onSettingsUpdate() {
	h.exprParser.hexMode = h.settings.HexMode
}

// Parse the first argument of the selection as an address, displaying the
// command's usage if it is missing.
func (h *Host) addressArg(c *cmd.Command, args []string) (addr uint16, ok bool) {
	if len(args) < 1 {
		h.displayUsage(c)
		return 0, false
	}

	addr, err := h.parseExpr(args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

// Resolve an address argument where "$" continues from next and "."
// means the program counter.
func (h *Host) continuationAddr(arg string, next uint16) (uint16, bool) {
	switch arg {
	case "$":
		if next == 0 {
			return h.cpu.Reg.PC, true
		}
		return next, true

	case ".":
		return h.cpu.Reg.PC, true

	default:
		addr, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return 0, false
		}
		return addr, true
	}
}

func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.exprParser.Parse(expr, h)
	if err != nil {
		return 0, err
	}

	if v < 0 {
		v = 0x10000 + v
	}
	return uint16(v), nil
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.mem, addr)

	b := make([]byte, next-addr)
	cpu.PeekBytes(h.mem, addr, b)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.cpu.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%d", h.cpu.Cycles)
	}

	if (flags & displayAnnotations) != 0 {
		if anno, ok := h.annotations[addr]; ok {
			str += " ; " + anno
		}
	}

	return str, next
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := cpu.Peek(h.mem, uint16(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(strings.TrimRight(string(buf), " "))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := cpu.Peek(h.mem, a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayUsage(c *cmd.Command) {
	if c.Usage == "" {
		h.println("<no help text>")
		return
	}
	c.DisplayUsage(h.output)
	h.flush()
}

func (h *Host) resolveIdentifier(s string) (int64, error) {
	s = strings.ToLower(s)

	switch s {
	case "a":
		return int64(h.cpu.Reg.A), nil
	case "x":
		return int64(h.cpu.Reg.X), nil
	case "y":
		return int64(h.cpu.Reg.Y), nil
	case "sp":
		return int64(h.cpu.Reg.SP) | 0x0100, nil
	case ".", "pc":
		return int64(h.cpu.Reg.PC), nil
	case "cycles":
		return int64(h.cpu.Cycles), nil
	}

	return 0, fmt.Errorf("identifier '%s' not found", s)
}

func enabledString(enable bool) string {
	if enable {
		return "enabled"
	}
	return "disabled"
}
