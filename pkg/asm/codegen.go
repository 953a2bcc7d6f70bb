package asm

import (
	"fmt"

	"github.com/pkg/errors"

	"hacktools.dev/n2t/pkg/hack"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a set of 'asm.Instruction' and spits out their textual counterparts.
//
// This is the direction pkg/vm's Code Writer needs: it builds an asm.Program
// in memory and this generator turns it into the .asm text that gets written
// to disk, leading comments included (see GenerateLabelDecl/GenerateComment).
type CodeGenerator struct {
	program Program // The set of instructions to convert to Asm textual format
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument Program 'p' (what we want to translate) is non-nil.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Translate each statement in the 'program' field to the Asm textual format.
//
// Each instruction will pass through the following step: evaluation, validation and
// then conversion to its textual representation (a string) so that it can be further
// elaborated by the caller (e.g. dumping to a file, runtime interpretation, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))

	for i, statement := range cg.program {
		var generated string
		var err error

		switch tStatement := statement.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tStatement)
		case CInstruction:
			generated, err = cg.GenerateCInst(tStatement)
		case LabelDecl:
			generated, err = cg.GenerateLabelDecl(tStatement)
		case Comment:
			generated = cg.GenerateComment(tStatement)
		default:
			err = errors.Errorf("unsupported instruction type %T", tStatement)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i+1)
		}
		lines = append(lines, generated)
	}

	return lines, nil
}

// Specialized function to convert an A Instruction to the Asm format.
func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", errors.New("unable to produce an A instruction with an empty location")
	}

	return fmt.Sprintf("@%s", stmt.Location), nil
}

// Specialized function to convert a C Instruction to the Asm format.
//
// 'Comp' is always required; 'Dest' and 'Jump' are each independently optional,
// so every one of dest=comp, comp;jump and dest=comp;jump is a valid shape.
func (cg *CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", errors.New("expected 'comp' directive in C Instruction")
	}

	text := stmt.Comp
	if stmt.Dest != "" {
		text = stmt.Dest + "=" + text
	}
	if stmt.Jump != "" {
		text = text + ";" + stmt.Jump
	}
	return text, nil
}

// Specialized function to convert an Label Declaration to the Asm format.
func (cg *CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", errors.Errorf("unable to override built-in label '%s'", stmt.Name)
	}

	return fmt.Sprintf("(%s)", stmt.Name), nil
}

// Specialized function to render a Comment as-is; pkg/vm attaches one before
// every group of emitted instructions since they're normative output, not
// merely decorative (tests may match them).
func (cg *CodeGenerator) GenerateComment(stmt Comment) string {
	return fmt.Sprintf("// %s", stmt.Text)
}
