package asm

import (
	"strconv"

	"github.com/pkg/errors"

	"hacktools.dev/n2t/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// The Lowerer takes an 'asm.Program' and produces its 'hack.Program' counterpart,
// running the first pass of the two-pass assembly algorithm: binding every label
// declaration to the ROM address of the instruction immediately following it.
// Label-to-address binding happens here rather than in pkg/hack because a label can
// only be resolved by walking the Program in source order, something hack.CodeGenerator
// (which works off an already-resolved SymbolTable) has no way to reconstruct on its own.
type Lowerer struct{ program Program }

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program to be not nil nor empty.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Triggers the lowering process. It iterates instruction by instruction, converting
// A/C instructions to their hack.Instruction counterpart while binding label
// declarations to the ROM address (the count of instructions seen so far) in the
// returned SymbolTable. The second pass -- resolving variable symbols against that
// table and allocating fresh RAM addresses for ones never declared as labels -- is
// performed later by hack.CodeGenerator.Generate. The returned table holds labels
// only: built-in symbols are tagged hack.BuiltIn and resolved against hack.BuiltInTable.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, errors.New("the given program is empty")
	}

	converted := make(hack.Program, 0, len(l.program))
	table := hack.SymbolTable{}

	for _, asmInst := range l.program {
		switch tAsmInst := asmInst.(type) {
		case AInstruction:
			hackInst, err := l.HandleAInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case CInstruction:
			hackInst, err := l.HandleCInst(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			converted = append(converted, hackInst)

		case LabelDecl:
			label, err := l.HandleLabelDecl(tAsmInst)
			if err != nil {
				return nil, nil, err
			}
			// A label points at the instruction immediately following it, i.e. the
			// ROM address is exactly the count of instructions emitted so far.
			// Redefining a label silently overwrites the earlier binding (undefined,
			// not rejected, matching the reference implementation's map-assignment
			// behavior).
			table[label] = uint16(len(converted))

		default:
			return nil, nil, errors.Errorf("unrecognized instruction '%T'", asmInst)
		}
	}

	return converted, table, nil
}

// Specialized function to convert a 'asm.AInstruction' node to an 'hack.AInstruction'.
//
// Resolution order matters: a symbol is first checked against the built-in table (so a
// user can never shadow SP, SCREEN, ...), then tested as a numeric literal, and only
// then treated as a user-defined symbol -- matching the reference assembler.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, found := hack.BuiltInTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}
	if _, err := strconv.ParseUint(inst.Location, 10, 32); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}

// Specialized function to convert a 'asm.CInstruction' node to an 'hack.CInstruction'.
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, errors.New("'Comp' sub-instruction should always be provided")
	}
	return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp, Jump: inst.Jump}, nil
}

// Specialized function to extract from a 'asm.LabelDecl' node the identifier of the label.
func (Lowerer) HandleLabelDecl(inst LabelDecl) (string, error) {
	if inst.Name == "" {
		return "", errors.New("label declaration with an empty name")
	}
	return inst.Name, nil
}
