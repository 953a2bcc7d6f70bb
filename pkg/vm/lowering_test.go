package vm_test

import (
	"testing"

	"hacktools.dev/n2t/pkg/asm"
	"hacktools.dev/n2t/pkg/vm"
)

func TestLowerEmitsBootstrapOnce(t *testing.T) {
	program := vm.Program{
		vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 1}},
		vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 2}},
	}
	lowerer, err := vm.NewLowerer([]string{"Foo", "Bar"}, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	converted, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bootstraps := 0
	for _, inst := range converted {
		if c, ok := inst.(asm.Comment); ok && c.Text == "bootstrap" {
			bootstraps++
		}
	}
	if bootstraps != 1 {
		t.Errorf("expected exactly 1 bootstrap marker, got %d", bootstraps)
	}
}

func TestLowerMismatchedFilesIsRejected(t *testing.T) {
	program := vm.Program{vm.Module{}}
	if _, err := vm.NewLowerer([]string{}, program); err == nil {
		t.Error("expected an error when files and modules counts differ")
	}
}

func TestLowerCurrentFunctionPersistsAcrossFiles(t *testing.T) {
	program := vm.Program{
		vm.Module{vm.FuncDecl{Name: "Main.run", NLocals: 0}},
		vm.Module{vm.ReturnOp{}},
	}
	lowerer, err := vm.NewLowerer([]string{"Main", "Main"}, program)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lowerer.Lower(); err != nil {
		t.Errorf("unexpected error: a function declared in one module should still be active in the next: %v", err)
	}
}
