package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teris-io/cli"

	"hacktools.dev/n2t/pkg/asm"
	"hacktools.dev/n2t/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode-like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	WithArg(cli.NewArg("input", "The bytecode (.vm) file, or a directory of them, to be compiled")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	inputs, outputPath, err := resolveInputs(args[0])
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	shortNames := make([]string, 0, len(inputs))
	program := make(vm.Program, 0, len(inputs))

	for _, path := range inputs {
		file, err := os.Open(path)
		if err != nil {
			fmt.Printf("ERROR: unable to open input file: %s\n", err)
			return -1
		}

		parser := vm.NewParser(file, path)
		module, err := parser.Parse()
		file.Close()
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			return -1
		}

		shortNames = append(shortNames, shortName(path))
		program = append(program, module)
	}

	lowerer, err := vm.NewLowerer(shortNames, program)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}
	asmProgram, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	codegen := asm.NewCodeGenerator(asmProgram)
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return -1
	}

	output, err := os.Create(outputPath)
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

// resolveInputs figures out, from a single CLI argument, which .vm files to
// translate and where the resulting .asm file belongs: a lone file
// translates to itself with the .vm suffix replaced by .asm, a directory
// translates every *.vm entry directly inside it (non-recursive, sorted
// lexicographically for a deterministic concatenation order) into
// "<dir>/<dir-basename>.asm".
func resolveInputs(input string) ([]string, string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, "", err
	}

	if !info.IsDir() {
		if !strings.HasSuffix(input, ".vm") {
			return nil, "", fmt.Errorf("%s is not a .vm file", input)
		}
		return []string{input}, strings.TrimSuffix(input, ".vm") + ".asm", nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, "", err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".vm") {
			files = append(files, filepath.Join(input, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no .vm files found in %s", input)
	}

	base := filepath.Base(filepath.Clean(input))
	return files, filepath.Join(input, base+".asm"), nil
}

// shortName strips both the directory and the .vm suffix, exactly, per the
// static-segment mangling rule: file_short_name identifies the source file,
// not an arbitrary substring of it.
func shortName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".vm")
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
