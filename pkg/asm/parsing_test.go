package asm_test

import (
	"strings"
	"testing"

	"hacktools.dev/n2t/pkg/asm"
)

func TestParseProgram(t *testing.T) {
	source := `
// initialize R0 to 0
@0
D=M
@LOOP
0;JMP

(LOOP)
@i
M=M+1
`
	parser := asm.NewParser(strings.NewReader(source), "test.asm")
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := asm.Program{
		asm.AInstruction{Location: "0"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: "LOOP"},
		asm.AInstruction{Location: "i"},
		asm.CInstruction{Comp: "M+1", Dest: "M"},
	}
	if len(program) != len(want) {
		t.Fatalf("got %d instructions, want %d: %#v", len(program), len(want), program)
	}
	for i := range want {
		if program[i] != want[i] {
			t.Errorf("instruction %d = %#v, want %#v", i, program[i], want[i])
		}
	}
}

func TestParseInvalidLineIsFatal(t *testing.T) {
	parser := asm.NewParser(strings.NewReader("@42\nnot an instruction\n"), "bad.asm")
	if _, err := parser.Parse(); err == nil {
		t.Fatal("expected an error for a malformed line, got none")
	} else if !strings.Contains(err.Error(), "bad.asm:2") {
		t.Errorf("expected error to name bad.asm:2, got %v", err)
	}
}

func TestParseDestCompJump(t *testing.T) {
	parser := asm.NewParser(strings.NewReader("AM=D+1;JMP"), "")
	program, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := asm.CInstruction{Comp: "D+1", Dest: "AM", Jump: "JMP"}
	if len(program) != 1 || program[0] != want {
		t.Errorf("got %#v, want [%#v]", program, want)
	}
}
