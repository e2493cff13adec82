// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/beevik/m6502/host"
	"github.com/beevik/term"
)

// romFlags collects repeated -rom <addr>:<file> options.
type romFlags []string

func (r *romFlags) String() string {
	return strings.Join(*r, ",")
}

func (r *romFlags) Set(s string) error {
	if _, _, ok := strings.Cut(s, ":"); !ok {
		return errors.New("expected <hex addr>:<file>")
	}
	*r = append(*r, s)
	return nil
}

var (
	traceFile string
	imageFile string
	stateFile string
	roms      romFlags
)

func init() {
	flag.StringVar(&traceFile, "t", "", "write an instruction trace to file")
	flag.StringVar(&imageFile, "i", "", "load a memory image file")
	flag.StringVar(&stateFile, "s", "", "load a register state file")
	flag.Var(&roms, "rom", "map a ROM file at a hex address (`addr:file`, repeatable)")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: m6502 [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()
	defer h.Close()

	for _, r := range roms {
		addrText, filename, _ := strings.Cut(r, ":")
		addr, err := strconv.ParseUint(strings.TrimPrefix(addrText, "$"), 16, 16)
		if err != nil {
			exitOnError(fmt.Errorf("invalid ROM address '%s'", addrText))
		}
		if err := h.LoadROMFile(uint16(addr), filename); err != nil {
			exitOnError(err)
		}
	}
	if imageFile != "" {
		if err := h.LoadImageFile(imageFile); err != nil {
			exitOnError(err)
		}
	}
	if stateFile != "" {
		if err := h.LoadStateFile(stateFile); err != nil {
			exitOnError(err)
		}
	}
	if traceFile != "" {
		if err := h.TraceFile(traceFile); err != nil {
			exitOnError(err)
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		err = h.RunCommands(file, os.Stdout, false)
		file.Close()
		if errors.Is(err, host.ErrQuit) {
			return
		}
		if err != nil {
			exitOnError(err)
		}
	}

	// Run commands interactively when attached to a terminal; otherwise
	// treat standard input as one more script.
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	err := h.RunCommands(os.Stdin, os.Stdout, interactive)
	if err != nil && !errors.Is(err, host.ErrQuit) {
		exitOnError(err)
	}
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
