// Command gavm-asm assembles a source file into a raw machine-code
// image, matching spec.md §6's CLI surface: positional input path,
// -o/--output for raw bytes, hex to stdout otherwise.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"gavm/asm"
)

func main() {
	optOutput := getopt.StringLong("output", 'o', "", "Output file for raw bytes")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gavm-asm <input.asm> [-o output]")
		os.Exit(1)
	}
	inputPath := args[0]

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: input file not found at '%s'\n", inputPath)
		os.Exit(1)
	}

	program, err := asm.Assemble(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assembly Error: %s\n", err)
		os.Exit(1)
	}

	if *optOutput != "" {
		if err := os.WriteFile(*optOutput, program, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("Successfully assembled %s to %s\n", inputPath, *optOutput)
		return
	}

	fmt.Println(hex.EncodeToString(program))
}
