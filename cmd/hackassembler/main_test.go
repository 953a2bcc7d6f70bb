package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHackAssembler(t *testing.T) {
	test := func(source string, want []string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "prog.asm")
		output := filepath.Join(dir, "prog.hack")

		if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
			t.Fatalf("unable to write fixture: %v", err)
		}

		if status := Handler([]string{input, output}, nil); status != 0 {
			t.Fatalf("unexpected exit status: %d", status)
		}

		got, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("unable to read output file: %v", err)
		}

		lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
		if len(lines) != len(want) {
			t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
		}
		for i := range want {
			if lines[i] != want[i] {
				t.Errorf("line %d = %q, want %q", i+1, lines[i], want[i])
			}
		}
	}

	t.Run("Add.asm-style program", func(t *testing.T) {
		test(`
// Computes R0 = 2 + 3
@2
D=A
@3
D=D+A
@0
M=D
`, []string{
			"0000000000000010",
			"1110110000010000",
			"0000000000000011",
			"1110000010010000",
			"0000000000000000",
			"1110001100001000",
		})
	})

	t.Run("a forward label reference skips a conditional block", func(t *testing.T) {
		test(`
@0
D=M
@END
D;JEQ
@1
M=D
(END)
@2
M=D
`, []string{
			"0000000000000000",
			"1111110000010000",
			"0000000000000110",
			"1110001100000010",
			"0000000000000001",
			"1110001100001000",
			"0000000000000010",
			"1110001100001000",
		})
	})
}

func TestHackAssemblerReportsMissingInput(t *testing.T) {
	dir := t.TempDir()
	status := Handler([]string{filepath.Join(dir, "missing.asm"), filepath.Join(dir, "out.hack")}, nil)
	if status == 0 {
		t.Error("expected a non-zero exit status for a missing input file")
	}
}
