package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveInputsSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Main.vm")
	if err := os.WriteFile(path, []byte("push constant 1\n"), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	files, output, err := resolveInputs(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0] != path {
		t.Errorf("got files %v, want [%s]", files, path)
	}
	if want := filepath.Join(dir, "Main.asm"); output != want {
		t.Errorf("got output %q, want %q", output, want)
	}
}

func TestResolveInputsDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "MyProg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("unable to create fixture dir: %v", err)
	}
	for _, name := range []string{"Zeta.vm", "Alpha.vm", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("add\n"), 0o644); err != nil {
			t.Fatalf("unable to write fixture: %v", err)
		}
	}

	files, output, err := resolveInputs(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{filepath.Join(sub, "Alpha.vm"), filepath.Join(sub, "Zeta.vm")}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("got %v, want %v (sorted, .vm only)", files, want)
	}
	if wantOut := filepath.Join(sub, "MyProg.asm"); output != wantOut {
		t.Errorf("got output %q, want %q", output, wantOut)
	}
}

func TestResolveInputsRejectsEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := resolveInputs(dir); err == nil {
		t.Error("expected an error for a directory with no .vm files")
	}
}

func TestShortNameStripsExactSuffix(t *testing.T) {
	test := func(path, want string) {
		if got := shortName(path); got != want {
			t.Errorf("shortName(%q) = %q, want %q", path, got, want)
		}
	}
	test("/tmp/Main.vm", "Main")
	test("ma.vm", "ma")
	test("/a/b/Foo.vm", "Foo")
}

func TestHandlerSingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Foo.vm")
	source := "push constant 7\npush constant 8\nadd\n"
	if err := os.WriteFile(input, []byte(source), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	if status := Handler([]string{input}, nil); status != 0 {
		t.Fatalf("unexpected exit status: %d", status)
	}

	output, err := os.ReadFile(filepath.Join(dir, "Foo.asm"))
	if err != nil {
		t.Fatalf("unable to read output: %v", err)
	}
	text := string(output)

	if !strings.Contains(text, "@Sys.init") {
		t.Error("expected the bootstrap to call Sys.init")
	}
	if !strings.Contains(text, "// push constant 7") {
		t.Error("expected a normative leading comment for the first push")
	}
	if !strings.Contains(text, "// add") {
		t.Error("expected a normative leading comment for add")
	}
}

func TestHandlerDirectoryConcatenatesFilesAndKeepsCurrentFunction(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Prog")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("unable to create fixture dir: %v", err)
	}

	if err := os.WriteFile(filepath.Join(sub, "A.vm"), []byte("function Main.run 0\n"), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "B.vm"), []byte("push constant 0\nreturn\n"), 0o644); err != nil {
		t.Fatalf("unable to write fixture: %v", err)
	}

	if status := Handler([]string{sub}, nil); status != 0 {
		t.Fatalf("unexpected exit status: %d", status)
	}

	output, err := os.ReadFile(filepath.Join(sub, "Prog.asm"))
	if err != nil {
		t.Fatalf("unable to read output: %v", err)
	}
	text := string(output)

	bootstraps := strings.Count(text, "// bootstrap")
	if bootstraps != 1 {
		t.Errorf("expected exactly 1 bootstrap marker, got %d", bootstraps)
	}
	if !strings.Contains(text, "(Main.run)") {
		t.Error("expected the function declaration to survive translation")
	}
}

func TestHandlerReportsMissingInput(t *testing.T) {
	dir := t.TempDir()
	status := Handler([]string{filepath.Join(dir, "missing.vm")}, nil)
	if status == 0 {
		t.Error("expected a non-zero exit status for a missing input")
	}
}
