package vm

import (
	"github.com/pkg/errors"

	"hacktools.dev/n2t/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// Lowerer drives a CodeWriter across an entire Program: one or more Modules,
// each tagged with the short file name its static segment variables should
// be mangled with. Label/goto/function scoping (see CodeWriter.currentFunction)
// and the cmp/ret counters carry across module boundaries, matching a real
// multi-file VM translation run where every .vm file in a directory is
// assembled into one .asm output.
type Lowerer struct {
	files   []string
	program Program
	writer  *CodeWriter
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// 'files' must hold one short name per entry of 'program', in the same order.
func NewLowerer(files []string, program Program) (Lowerer, error) {
	if len(files) != len(program) {
		return Lowerer{}, errors.Errorf("got %d file names for %d modules", len(files), len(program))
	}
	return Lowerer{files: files, program: program, writer: NewCodeWriter()}, nil
}

// Lower translates every module in program order into a single asm.Program,
// with the bootstrap sequence emitted once at the very top.
func (vl Lowerer) Lower() (asm.Program, error) {
	converted, err := vl.writer.Bootstrap()
	if err != nil {
		return nil, errors.Wrap(err, "emitting bootstrap")
	}

	for i, module := range vl.program {
		vl.writer.SetFileName(vl.files[i])

		for _, op := range module {
			instructions, err := vl.writer.Write(op)
			if err != nil {
				return nil, errors.Wrapf(err, "file %s", vl.files[i])
			}
			converted = append(converted, instructions...)
		}
	}

	return converted, nil
}
