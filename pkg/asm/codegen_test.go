package asm_test

import (
	"testing"

	"hacktools.dev/n2t/pkg/asm"
)

func TestAInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.AInstruction, expected string, fail bool) {
		res, err := codegen.GenerateAInst(inst)
		if err != nil {
			if !fail {
				t.Errorf("unexpected error for %+v: %v", inst, err)
			}
			return
		}
		if fail {
			t.Errorf("expected error for %+v, got none", inst)
		}
		if res != expected {
			t.Errorf("GenerateAInst(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("any non-empty location round-trips", func(t *testing.T) {
		test(asm.AInstruction{Location: "38"}, "@38", false)
		test(asm.AInstruction{Location: "SP"}, "@SP", false)
		test(asm.AInstruction{Location: "LOOP"}, "@LOOP", false)
		test(asm.AInstruction{Location: ""}, "", true)
	})
}

func TestCInstructions(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.CInstruction, expected string, fail bool) {
		res, err := codegen.GenerateCInst(inst)
		if err != nil {
			if !fail {
				t.Errorf("unexpected error for %+v: %v", inst, err)
			}
			return
		}
		if fail {
			t.Errorf("expected error for %+v, got none", inst)
		}
		if res != expected {
			t.Errorf("GenerateCInst(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("comp only", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D"}, "D", false)
		test(asm.CInstruction{Comp: "0"}, "0", false)
	})

	t.Run("dest=comp", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D-A", Dest: "M"}, "M=D-A", false)
		test(asm.CInstruction{Comp: "D|M", Dest: "MD"}, "MD=D|M", false)
		test(asm.CInstruction{Comp: "D", Dest: "AMD"}, "AMD=D", false)
	})

	t.Run("comp;jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "0", Jump: "JGT"}, "0;JGT", false)
		test(asm.CInstruction{Comp: "D", Jump: "JGE"}, "D;JGE", false)
	})

	t.Run("dest=comp;jump", func(t *testing.T) {
		test(asm.CInstruction{Comp: "D", Dest: "M", Jump: "JMP"}, "M=D;JMP", false)
	})

	t.Run("missing comp is fatal", func(t *testing.T) {
		test(asm.CInstruction{Dest: "M"}, "", true)
		test(asm.CInstruction{Jump: "JMP"}, "", true)
	})
}

func TestLabelDecl(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})

	test := func(inst asm.LabelDecl, expected string, fail bool) {
		res, err := codegen.GenerateLabelDecl(inst)
		if err != nil {
			if !fail {
				t.Errorf("unexpected error for %+v: %v", inst, err)
			}
			return
		}
		if fail {
			t.Errorf("expected error for %+v, got none", inst)
		}
		if res != expected {
			t.Errorf("GenerateLabelDecl(%+v) = %q, want %q", inst, res, expected)
		}
	}

	t.Run("user labels", func(t *testing.T) {
		test(asm.LabelDecl{Name: "test123"}, "(test123)", false)
		test(asm.LabelDecl{Name: "LOOP"}, "(LOOP)", false)
	})

	t.Run("shadowing a built-in is rejected", func(t *testing.T) {
		test(asm.LabelDecl{Name: "SP"}, "", true)
		test(asm.LabelDecl{Name: "R1"}, "", true)
		test(asm.LabelDecl{Name: "LCL"}, "", true)
	})
}

func TestComment(t *testing.T) {
	codegen := asm.NewCodeGenerator(asm.Program{})
	if got := codegen.GenerateComment(asm.Comment{Text: "push constant 7"}); got != "// push constant 7" {
		t.Errorf("GenerateComment = %q, want %q", got, "// push constant 7")
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	program := asm.Program{
		asm.LabelDecl{Name: "LOOP"},
		asm.AInstruction{Location: "0"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
	codegen := asm.NewCodeGenerator(program)

	out, err := codegen.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"(LOOP)", "@0", "D=M", "@LOOP", "0;JMP"}
	if len(out) != len(want) {
		t.Fatalf("got %d lines, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, out[i], want[i])
		}
	}
}
