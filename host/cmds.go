// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

// A handler runs a host command with the arguments that followed the
// command's name. Handlers are stored as the data of each command in the
// command tree.
type handler = func(h *Host, c *cmd.Command, args []string) error

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "m6502"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "annotate",
		Brief: "Annotate an address",
		Description: "Provide a code annotation at a memory address." +
			" When disassembling code at this address, the annotation will" +
			" be displayed. Omit the annotation to remove it.",
		Usage: "annotate <address> [<string>]",
		Data:  (*Host).cmdAnnotate,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		Usage: "breakpoint add <address>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <address>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		Usage: "breakpoint disable <address>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "call",
		Brief: "Call a subroutine",
		Description: "Call the subroutine at the specified address and run" +
			" until it returns. The call pushes the CallSentinel setting" +
			" as its return address, so the subroutine ends when it" +
			" returns there with RTS. The number of cycles consumed is" +
			" displayed.",
		Usage: "call <address>",
		Data:  (*Host).cmdCall,
	})

	// Data breakpoint commands
	db := root.AddSubtree(cmd.TreeDescriptor{Name: "databreakpoint", Brief: "Data breakpoint commands"})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List data breakpoints",
		Description: "List all current data breakpoints.",
		Usage:       "databreakpoint list",
		Data:        (*Host).cmdDataBreakpointList,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a data breakpoint",
		Description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte" +
			" value may be specified, and the CPU will stop only" +
			" when this value is stored. The data breakpoint starts" +
			" enabled.",
		Usage: "databreakpoint add <address> [<value>]",
		Data:  (*Host).cmdDataBreakpointAdd,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "remove",
		Brief: "Remove a data breakpoint",
		Description: "Remove a previously added data breakpoint at" +
			" the specified memory address.",
		Usage: "databreakpoint remove <address>",
		Data:  (*Host).cmdDataBreakpointRemove,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a data breakpoint",
		Description: "Enable a previously added data breakpoint.",
		Usage:       "databreakpoint enable <address>",
		Data:        (*Host).cmdDataBreakpointEnable,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "disable",
		Brief:       "Disable a data breakpoint",
		Description: "Disable a previously added data breakpoint.",
		Usage:       "databreakpoint disable <address>",
		Data:        (*Host).cmdDataBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<address>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "evaluate",
		Brief:       "Evaluate an expression",
		Description: "Evaluate a mathematical expression.",
		Usage:       "evaluate <expression>",
		Data:        (*Host).cmdEvaluate,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "execute",
		Brief: "Execute a script file",
		Description: "Load a script file from disk and execute the" +
			" commands it contains.",
		Usage: "execute <filename>",
		Data:  (*Host).cmdExecute,
	})

	// Interrupt commands
	in := root.AddSubtree(cmd.TreeDescriptor{Name: "interrupt", Brief: "Interrupt commands"})
	in.AddCommand(cmd.CommandDescriptor{
		Name:  "reset",
		Brief: "Reset the CPU",
		Description: "Signal a reset. The program counter is loaded from" +
			" the reset vector at $FFFC and the stack pointer drops by 3.",
		Usage: "interrupt reset",
		Data:  (*Host).cmdInterruptReset,
	})
	in.AddCommand(cmd.CommandDescriptor{
		Name:  "nmi",
		Brief: "Signal a non-maskable interrupt",
		Description: "Push the program counter and status, then jump" +
			" through the NMI vector at $FFFA.",
		Usage: "interrupt nmi",
		Data:  (*Host).cmdInterruptNMI,
	})
	in.AddCommand(cmd.CommandDescriptor{
		Name:  "irq",
		Brief: "Signal an interrupt request",
		Description: "Push the program counter and status, then jump" +
			" through the IRQ vector at $FFFE. The request is ignored" +
			" while the interrupt disable flag is set.",
		Usage: "interrupt irq",
		Data:  (*Host).cmdInterruptIRQ,
	})

	// Load commands
	ld := root.AddSubtree(cmd.TreeDescriptor{Name: "load", Brief: "Load commands"})
	ld.AddCommand(cmd.CommandDescriptor{
		Name:  "image",
		Brief: "Load a memory image",
		Description: "Load a memory image text file into the emulated" +
			" system's memory. Each line holds an address, a colon and" +
			" a run of hexadecimal byte values.",
		Usage: "load image <filename>",
		Data:  (*Host).cmdLoadImage,
	})
	ld.AddCommand(cmd.CommandDescriptor{
		Name:        "state",
		Brief:       "Load a register state",
		Description: "Load the CPU registers from a 7-byte state file.",
		Usage:       "load state <filename>",
		Data:        (*Host).cmdLoadState,
	})

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set memory at address",
		Description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values. You may use an expression for each" +
			" byte value.",
		Usage: "memory set <address> <byte> [<byte> ...]",
		Data:  (*Host).cmdMemorySet,
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "copy",
		Brief: "Copy memory",
		Description: "Copy memory from one range of addresses to another. You" +
			" must specify the destination address, the first byte of the source" +
			" address, and the last byte of the source address.",
		Usage: "memory copy <dst addr> <src addr begin> <src addr end>",
		Data:  (*Host).cmdMemoryCopy,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "View or change register values",
		Description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's status" +
			" flags. Allowed register names include A, X, Y, PC and SP. Allowed status" +
			" flag names include N (Sign), Z (Zero), C (Carry), I (InterruptDisable)," +
			" D (Decimal) and V (Overflow).",
		Usage: "register [<name> <value>]",
		Data:  (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "rom",
		Brief: "Map a ROM file into memory",
		Description: "Overlay the contents of a binary file as read-only" +
			" memory at the specified address. Stores to a ROM address land" +
			" in the RAM beneath it. Use 'rom clear' to remove all ROMs.",
		Usage: "rom <address> <filename> | rom clear",
		Data:  (*Host).cmdROM,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU until a breakpoint is hit, an unknown" +
			" opcode is decoded, the step limit is reached, or the user" +
			" types Ctrl-C. An optional start address may be given.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})

	// Save commands
	sv := root.AddSubtree(cmd.TreeDescriptor{Name: "save", Brief: "Save commands"})
	sv.AddCommand(cmd.CommandDescriptor{
		Name:  "image",
		Brief: "Save a memory image",
		Description: "Write the first 4K of memory to a text file in the" +
			" format read by 'load image'.",
		Usage: "save image <filename>",
		Data:  (*Host).cmdSaveImage,
	})
	sv.AddCommand(cmd.CommandDescriptor{
		Name:        "state",
		Brief:       "Save the register state",
		Description: "Write the CPU registers to a 7-byte state file.",
		Usage:       "save state <filename>",
		Data:        (*Host).cmdSaveState,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})

	// Step commands
	st := root.AddSubtree(cmd.TreeDescriptor{Name: "step", Brief: "Step the debugger"})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "in",
		Brief: "Step into next instruction",
		Description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step into the subroutine." +
			" The number of steps may be specified as an option.",
		Usage: "step in [<count>]",
		Data:  (*Host).cmdStepIn,
	})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "over",
		Brief: "Step over next instruction",
		Description: "Step the CPU by a single instruction. If the" +
			" instruction is a subroutine call, step over the subroutine." +
			" The number of steps may be specified as an option.",
		Usage: "step over [<count>]",
		Data:  (*Host).cmdStepOver,
	})
	st.AddCommand(cmd.CommandDescriptor{
		Name:  "out",
		Brief: "Step out of the current subroutine",
		Description: "Step the CPU until the currently running subroutine" +
			" or interrupt handler returns with RTS or RTI.",
		Usage: "step out",
		Data:  (*Host).cmdStepOut,
	})

	// Trace commands
	tr := root.AddSubtree(cmd.TreeDescriptor{Name: "trace", Brief: "Instruction trace commands"})
	tr.AddCommand(cmd.CommandDescriptor{
		Name:  "on",
		Brief: "Start tracing instructions",
		Description: "Write one line per executed instruction to the" +
			" specified file, or to the console if no file is given.",
		Usage: "trace on [<filename>]",
		Data:  (*Host).cmdTraceOn,
	})
	tr.AddCommand(cmd.CommandDescriptor{
		Name:        "off",
		Brief:       "Stop tracing instructions",
		Description: "Stop tracing and close the trace file.",
		Usage:       "trace off",
		Data:        (*Host).cmdTraceOff,
	})

	// Add command shortcuts.
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("c", "call")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("dbe", "databreakpoint enable")
	root.AddShortcut("dbd", "databreakpoint disable")
	root.AddShortcut("e", "evaluate")
	root.AddShortcut("li", "load image")
	root.AddShortcut("ls", "load state")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("mc", "memory copy")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "register")
	root.AddShortcut("s", "step over")
	root.AddShortcut("si", "step in")
	root.AddShortcut("so", "step out")
	root.AddShortcut("?", "help")
	root.AddShortcut(".", "register")

	cmds = root
}
