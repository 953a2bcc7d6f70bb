package asm_test

import (
	"testing"

	"hacktools.dev/n2t/pkg/asm"
	"hacktools.dev/n2t/pkg/hack"
)

func TestLowerBindsLabelsToFollowingAddress(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "0"},
		asm.LabelDecl{Name: "LOOP"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
	lowerer := asm.NewLowerer(program)

	converted, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(converted) != 4 {
		t.Fatalf("got %d hack instructions, want 4", len(converted))
	}
	if addr, ok := table["LOOP"]; !ok || addr != 1 {
		t.Errorf("LOOP bound to %d (ok=%v), want 1", addr, ok)
	}
}

func TestLowerResolvesBuiltInBeforeLabel(t *testing.T) {
	program := asm.Program{asm.AInstruction{Location: "SP"}}
	converted, _, err := asm.NewLowerer(program).Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inst, ok := converted[0].(hack.AInstruction)
	if !ok || inst.LocType != hack.BuiltIn {
		t.Errorf("expected a BuiltIn A instruction, got %#v", converted[0])
	}
}

func TestLowerEmptyProgramIsRejected(t *testing.T) {
	if _, _, err := asm.NewLowerer(asm.Program{}).Lower(); err == nil {
		t.Error("expected an error for an empty program")
	}
}
