package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"hacktools.dev/n2t/pkg/asm"
	"hacktools.dev/n2t/pkg/hack"
)

var Description = strings.ReplaceAll(`
The Hack Assembler takes assembly language code written in the Hack assembly language
and translates it into machine code that can be executed by the Hack computer. The process
involves parsing the assembly code, resolving symbols, and generating machine code.
`, "\n", " ")

var HackAssembler = cli.New(Description).
	WithArg(cli.NewArg("input", "The assembler (.asm) file to be compiled")).
	WithArg(cli.NewArg("output", "The compiled binary output (.hack)")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input, err := os.Open(args[0])
	if err != nil {
		fmt.Printf("ERROR: unable to open input file: %s\n", err)
		return -1
	}
	defer input.Close()

	// Instantiate a parser for the Asm program
	parser := asm.NewParser(input, args[0])
	// Parses the input file content and extracts an AST (as an 'asm.Program') from it.
	asmProgram, err := parser.Parse()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	// Instantiate a lowerer to convert the program from Asm to Hack
	lowerer := asm.NewLowerer(asmProgram)
	// Lowers the asm.Program to an in-memory/IR representation of its Hack counterpart 'hack.Program'.
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	// Now, instantiate a code generator for the Hack (compiled) program
	codegen := hack.NewCodeGenerator(hackProgram, table)
	// Iterates over each instruction and spits out the relative binary representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}
	for _, warning := range codegen.Warnings {
		fmt.Printf("WARNING: %s\n", warning)
	}

	output, err := os.Create(args[1])
	if err != nil {
		fmt.Printf("ERROR: unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, line := range compiled {
		fmt.Fprintln(output, line)
	}

	return 0
}

func main() { os.Exit(HackAssembler.Run(os.Args, os.Stdout)) }
