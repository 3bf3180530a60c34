// Command gavm-disasm renders a raw machine-code image (read as a hex
// string) as a disassembly listing, matching spec.md §6's CLI surface.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"gavm/disasm"
)

func main() {
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gavm-disasm <input.hex>")
		os.Exit(1)
	}
	inputPath := args[0]

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: input file not found at '%s'\n", inputPath)
		os.Exit(1)
	}

	program, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Disassembly Error: invalid hex string in file. %s\n", err)
		os.Exit(1)
	}

	fmt.Println(disasm.Disassemble(program))
}
