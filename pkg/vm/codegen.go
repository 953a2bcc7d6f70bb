package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"hacktools.dev/n2t/pkg/asm"
)

// ----------------------------------------------------------------------------
// Code Writer

// CodeWriter lowers a single vm.Operation at a time into the asm.Instruction
// sequence that implements it, carrying just enough state across calls to do
// so: which source file a push/pop on the static segment belongs to, which
// function a label/goto is scoped to, and the two counters that keep
// generated labels unique across an entire translation run.
type CodeWriter struct {
	fileShortName   string
	currentFunction string
	cmpCounter      uint64
	retCounter      uint64
}

// Initializes and returns to the caller a brand new 'CodeWriter' struct.
func NewCodeWriter() *CodeWriter {
	return &CodeWriter{}
}

// SetFileName updates the short name used to mangle static segment labels
// for subsequently written operations. It deliberately does not touch
// currentFunction: a function begun in one file and returned from after a
// directory boundary is still legal, so the two must vary independently.
func (cw *CodeWriter) SetFileName(name string) {
	cw.fileShortName = name
}

// Write lowers a single operation to the instruction sequence that implements it.
func (cw *CodeWriter) Write(op Operation) (asm.Program, error) {
	switch t := op.(type) {
	case MemoryOp:
		return cw.writeMemoryOp(t)
	case ArithmeticOp:
		return cw.writeArithmeticOp(t)
	case LabelDecl:
		return cw.writeLabelDecl(t)
	case GotoOp:
		return cw.writeGotoOp(t)
	case FuncDecl:
		return cw.writeFuncDecl(t)
	case FuncCallOp:
		return cw.writeFuncCallOp(t)
	case ReturnOp:
		return cw.writeReturnOp()
	default:
		return nil, errors.Errorf("unsupported vm operation %T", op)
	}
}

// Bootstrap emits the standard VM initialization sequence: SP = 256 followed
// by an unconditional call to Sys.init. It must be emitted exactly once, at
// the very top of a translation run's output, before any other operation.
func (cw *CodeWriter) Bootstrap() (asm.Program, error) {
	call, err := cw.writeFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, err
	}

	program := asm.Program{
		asm.Comment{Text: "bootstrap"},
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "D", Dest: "M"},
	}
	return append(program, call...), nil
}

// ----------------------------------------------------------------------------
// Stack-pointer helpers

func incSP() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M+1", Dest: "M"},
	}
}

// popBinaryPrologue pops the top two stack values without touching SP's
// final resting place for the result: leaves A at the new top (where the
// first-pushed operand lives) and D holding the second (top) operand.
func popBinaryPrologue() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
		asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
		asm.CInstruction{Comp: "M", Dest: "A"},
	}
}

// popUnaryPrologue pops the single top stack value, leaving A at the new top.
func popUnaryPrologue() asm.Program {
	return asm.Program{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
		asm.CInstruction{Comp: "M", Dest: "A"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic / logical

func (cw *CodeWriter) writeArithmeticOp(op ArithmeticOp) (asm.Program, error) {
	program := asm.Program{asm.Comment{Text: string(op.Operation)}}

	switch op.Operation {
	case Add:
		program = append(program, popBinaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "D+M", Dest: "M"})
	case Sub:
		program = append(program, popBinaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "M-D", Dest: "M"})
	case And:
		program = append(program, popBinaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "D&M", Dest: "M"})
	case Or:
		program = append(program, popBinaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "D|M", Dest: "M"})
	case Neg:
		program = append(program, popUnaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "-M", Dest: "M"})
	case Not:
		program = append(program, popUnaryPrologue()...)
		program = append(program, asm.CInstruction{Comp: "!M", Dest: "M"})
	case Eq, Gt, Lt:
		cmp, err := cw.writeComparison(op.Operation)
		if err != nil {
			return nil, err
		}
		program = append(program, cmp...)
	default:
		return nil, errors.Errorf("unknown arithmetic operation %q", op.Operation)
	}

	return append(program, incSP()...), nil
}

func (cw *CodeWriter) writeComparison(op ArithOpType) (asm.Program, error) {
	var tag, jump string
	switch op {
	case Eq:
		tag, jump = "EQ", "JEQ"
	case Gt:
		tag, jump = "GT", "JGT"
	case Lt:
		tag, jump = "LT", "JLT"
	default:
		return nil, errors.Errorf("%q is not a comparison operation", op)
	}
	label := fmt.Sprintf("%s%d", tag, cw.cmpCounter)
	cw.cmpCounter++

	program := popBinaryPrologue()
	program = append(program,
		asm.CInstruction{Comp: "M-D", Dest: "D"},
		asm.CInstruction{Comp: "-1", Dest: "M"},
		asm.AInstruction{Location: label},
		asm.CInstruction{Comp: "D", Jump: jump},
		// Fall-through: the optimistic 'true' was wrong, overwrite with 'false'.
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Comp: "M", Dest: "A"},
		asm.CInstruction{Comp: "0", Dest: "M"},
		asm.LabelDecl{Name: label},
	)
	return program, nil
}

// ----------------------------------------------------------------------------
// Memory Op (push / pop)

func (cw *CodeWriter) writeMemoryOp(op MemoryOp) (asm.Program, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, errors.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, errors.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	comment := asm.Comment{Text: fmt.Sprintf("%s %s %d", op.Operation, op.Segment, op.Offset)}

	switch op.Operation {
	case Push:
		body, err := cw.writePush(op.Segment, op.Offset)
		if err != nil {
			return nil, err
		}
		return append(asm.Program{comment}, body...), nil
	case Pop:
		body, err := cw.writePop(op.Segment, op.Offset)
		if err != nil {
			return nil, err
		}
		return append(asm.Program{comment}, body...), nil
	default:
		return nil, errors.Errorf("unknown memory operation %q", op.Operation)
	}
}

// basePointer returns the symbol backing a pointer-indirect segment.
func basePointer(segment SegmentType) (string, bool) {
	switch segment {
	case Argument:
		return "ARG", true
	case Local:
		return "LCL", true
	case This:
		return "THIS", true
	case That:
		return "THAT", true
	default:
		return "", false
	}
}

// directAddress returns the literal RAM address backing pointer/temp, which
// never needs a base-register indirection since their location is fixed.
func directAddress(segment SegmentType, offset uint16) (uint16, bool) {
	switch segment {
	case Pointer:
		return 3 + offset, true
	case Temp:
		return 5 + offset, true
	default:
		return 0, false
	}
}

// writeToStackTop appends the three instructions that copy D onto the
// current stack top, followed by the shared SP-increment tail.
func writeToStackTop(program asm.Program) asm.Program {
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "D", Dest: "M"},
	)
	return append(program, incSP()...)
}

func (cw *CodeWriter) writePush(segment SegmentType, offset uint16) (asm.Program, error) {
	switch {
	case segment == Constant:
		return writeToStackTop(asm.Program{
			asm.AInstruction{Location: fmt.Sprint(offset)},
			asm.CInstruction{Comp: "A", Dest: "D"},
		}), nil

	case segment == Static:
		return writeToStackTop(asm.Program{
			asm.AInstruction{Location: cw.staticLabel(offset)},
			asm.CInstruction{Comp: "M", Dest: "D"},
		}), nil
	}

	if addr, ok := directAddress(segment, offset); ok {
		return writeToStackTop(asm.Program{
			asm.AInstruction{Location: fmt.Sprint(addr)},
			asm.CInstruction{Comp: "M", Dest: "D"},
		}), nil
	}

	base, ok := basePointer(segment)
	if !ok {
		return nil, errors.Errorf("unknown segment %q", segment)
	}
	return writeToStackTop(asm.Program{
		asm.AInstruction{Location: base}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: fmt.Sprint(offset)}, asm.CInstruction{Comp: "D+A", Dest: "A"},
		asm.CInstruction{Comp: "M", Dest: "D"},
	}), nil
}

func (cw *CodeWriter) writePop(segment SegmentType, offset uint16) (asm.Program, error) {
	if segment == Constant {
		// Popping into the constant "segment" makes no sense as a destination;
		// the value is discarded and only the stack pointer moves.
		return asm.Program{asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"}}, nil
	}

	if segment == Static {
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
			asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: cw.staticLabel(offset)}, asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil
	}

	if addr, ok := directAddress(segment, offset); ok {
		return asm.Program{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
			asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: fmt.Sprint(addr)}, asm.CInstruction{Comp: "D", Dest: "M"},
		}, nil
	}

	base, ok := basePointer(segment)
	if !ok {
		return nil, errors.Errorf("unknown segment %q", segment)
	}
	// Computes the target address ahead of time into the R13 scratch register
	// (a general purpose register the VM layer never otherwise touches), since
	// popping the value first would clobber D before the address is ready.
	return asm.Program{
		asm.AInstruction{Location: base}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: fmt.Sprint(offset)}, asm.CInstruction{Comp: "D+A", Dest: "D"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "D", Dest: "M"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
		asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "D", Dest: "M"},
	}, nil
}

func (cw *CodeWriter) staticLabel(offset uint16) string {
	return fmt.Sprintf("%s.%d", cw.fileShortName, offset)
}

// ----------------------------------------------------------------------------
// Control flow

func (cw *CodeWriter) writeLabelDecl(op LabelDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, errors.New("unable to produce an empty label declaration")
	}
	return asm.Program{
		asm.Comment{Text: fmt.Sprintf("label %s", op.Name)},
		asm.LabelDecl{Name: cw.scopedLabel(op.Name)},
	}, nil
}

func (cw *CodeWriter) writeGotoOp(op GotoOp) (asm.Program, error) {
	if op.Label == "" {
		return nil, errors.New("unable to produce an empty jump target")
	}

	program := asm.Program{asm.Comment{Text: fmt.Sprintf("%s %s", op.Jump, op.Label)}}
	switch op.Jump {
	case Goto:
		program = append(program,
			asm.AInstruction{Location: cw.scopedLabel(op.Label)},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		)
	case IfGoto:
		program = append(program, popUnaryPrologue()...)
		program = append(program,
			asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: cw.scopedLabel(op.Label)},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		)
	default:
		return nil, errors.Errorf("unknown jump type %q", op.Jump)
	}
	return program, nil
}

func (cw *CodeWriter) scopedLabel(name string) string {
	if cw.currentFunction == "" {
		// Before any function declaration, labels are scoped to the file instead.
		return cw.fileShortName + "$" + name
	}
	return cw.currentFunction + "$" + name
}

// ----------------------------------------------------------------------------
// Function declaration, call and return

func (cw *CodeWriter) writeFuncDecl(op FuncDecl) (asm.Program, error) {
	if op.Name == "" {
		return nil, errors.New("unable to produce an empty function declaration")
	}
	cw.currentFunction = op.Name

	program := asm.Program{
		asm.Comment{Text: fmt.Sprintf("function %s %d", op.Name, op.NLocals)},
		asm.LabelDecl{Name: op.Name},
	}
	for i := uint16(0); i < op.NLocals; i++ {
		program = append(program,
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "0", Dest: "M"},
		)
		program = append(program, incSP()...)
	}
	return program, nil
}

func (cw *CodeWriter) writeFuncCallOp(op FuncCallOp) (asm.Program, error) {
	if op.Name == "" {
		return nil, errors.New("unable to produce an empty function call")
	}

	retLabel := fmt.Sprintf("%s$returnAddr%d", op.Name, cw.retCounter)
	cw.retCounter++

	program := asm.Program{asm.Comment{Text: fmt.Sprintf("call %s %d", op.Name, op.NArgs)}}

	// Push the return address (as a constant, not a memory value).
	program = append(program,
		asm.AInstruction{Location: retLabel}, asm.CInstruction{Comp: "A", Dest: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "D", Dest: "M"},
	)
	program = append(program, incSP()...)

	// Save the caller's segment pointers.
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		program = append(program,
			asm.AInstruction{Location: reg}, asm.CInstruction{Comp: "M", Dest: "D"},
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "D", Dest: "M"},
		)
		program = append(program, incSP()...)
	}

	// Reposition ARG: ARG = SP - NArgs - 5.
	program = append(program, asm.Comment{Text: "ARG = SP - n - 5"})
	program = append(program, asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "D"})
	if op.NArgs != 0 {
		program = append(program, asm.AInstruction{Location: fmt.Sprint(op.NArgs)}, asm.CInstruction{Comp: "D-A", Dest: "D"})
	}
	program = append(program, asm.AInstruction{Location: "5"}, asm.CInstruction{Comp: "D-A", Dest: "D"})
	program = append(program, asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "D", Dest: "M"})

	// Reposition LCL: LCL = SP.
	program = append(program, asm.Comment{Text: "LCL = SP"})
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "D", Dest: "M"},
	)

	// goto f
	program = append(program, asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"})

	program = append(program, asm.LabelDecl{Name: retLabel})
	return program, nil
}

func (cw *CodeWriter) writeReturnOp() (asm.Program, error) {
	if cw.currentFunction == "" {
		return nil, errors.New("'return' outside of any function")
	}
	frame := cw.currentFunction + "$FRAME"
	ret := cw.currentFunction + "$RET"

	program := asm.Program{asm.Comment{Text: "return"}}

	// FRAME = LCL
	program = append(program,
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: frame}, asm.CInstruction{Comp: "D", Dest: "M"},
	)
	// RET = *(FRAME - 5)
	program = append(program, deref(frame, 5, ret)...)
	// *ARG = pop()
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "M-1", Dest: "M"},
		asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "D", Dest: "M"},
	)
	// SP = ARG + 1
	program = append(program,
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Comp: "M+1", Dest: "D"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Comp: "D", Dest: "M"},
	)
	// Restore THAT, THIS, ARG, LCL, in that order, from FRAME-1..FRAME-4.
	program = append(program, deref(frame, 1, "THAT")...)
	program = append(program, deref(frame, 2, "THIS")...)
	program = append(program, deref(frame, 3, "ARG")...)
	program = append(program, deref(frame, 4, "LCL")...)
	// goto RET, via the address stashed earlier (an indirect jump).
	program = append(program,
		asm.AInstruction{Location: ret}, asm.CInstruction{Comp: "M", Dest: "A"}, asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return program, nil
}

// deref loads *(FRAME - offset) into dest: FRAME is a variable holding an
// address, offset is a compile-time constant, dest is a variable or
// built-in symbol to store the result into.
func deref(frame string, offset uint16, dest string) asm.Program {
	return asm.Program{
		asm.AInstruction{Location: frame}, asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: fmt.Sprint(offset)}, asm.CInstruction{Comp: "D-A", Dest: "A"},
		asm.CInstruction{Comp: "M", Dest: "D"},
		asm.AInstruction{Location: dest}, asm.CInstruction{Comp: "D", Dest: "M"},
	}
}
