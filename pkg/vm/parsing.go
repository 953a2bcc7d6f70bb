package vm

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
	pc "github.com/prataprc/goparsec"

	"hacktools.dev/n2t/internal/diag"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & operation of the Vm language.
//
// Each parser combinator manages a single operation (MemoryOp, ArithmeticOp, ...): the parser
// below feeds them one cleaned line at a time (see CleanLine), so there's no whole-file grammar
// to maintain and every failure can be pinned to the exact source line it came from.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("virtual_machine", 0)

var (
	// Parser combinator for a single cleaned VM line
	pLine = ast.OrdChoice("line", nil,
		// Stack operation + label and jump operations
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		// Function related operations and statements
		pFuncDecl, pFunCallOp, pReturnOp,
	)

	// Memory operation, compliant with the following syntax: "{push|pop} {segment} {index}"
	pMemoryOp = ast.And("memory_op", nil, pMemOpType, pSegment, pc.Int())
	// Arithmetic operation, could either be binary or unary (modifies only the Stack Pointer)
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithOpType)

	// Label declaration, compliant with the following syntax: "label {symbol}"
	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	// Jump operation, compliant with the following syntax: "{if-goto|goto} {symbol}"
	pGotoOp = ast.And("goto_op", nil, pJumpType, pIdent)

	// Function declaration, compliant with the following syntax: "function {name} {n_locals}"
	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	// Function call operation, compliant with the following syntax: "call {name} {n_args}"
	pFunCallOp = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	// Return operation, compliant with the following syntax: "return"
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	// Generic Identifier parser (for label and function declaration)
	// NOTE: An ident can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: An ident cannot begin with a leading digit (a symbol is indeed allowed).
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	// Available memory operation type (only push and pop since it's stack based)
	pMemOpType = ast.OrdChoice("mem_op_type", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))
	// Available heap segments (they act as registers and are used alongside the stack)
	pSegment = ast.OrdChoice("mem_segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	// Available arithmetic operation types
	pArithOpType = ast.OrdChoice("operations", nil,
		// Comparison operations available on the VM bytecode
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		// Arithmetic operations available on the VM bytecode
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		// Bit-a-bit operations available on the VM bytecode
		pc.Atom("not", "NOT"), pc.Atom("and", "AND"), pc.Atom("or", "OR"),
	)

	// Jump types can either be conditional (if-goto) or unconditional (goto).
	pJumpType = ast.OrdChoice("jump_type", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ----------------------------------------------------------------------------
// Vm Parser

// This section defines the Parser for the nand2tetris Vm language.
//
// Source is read line by line: each line is cleaned (see CleanLine) and, if anything
// remains, fed through the PCs above to obtain a single Operation. The library reads up
// the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct {
	reader io.Reader
	path   string
}

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable. 'path' names
// the input for diagnostics.
func NewParser(r io.Reader, path string) Parser {
	return Parser{reader: r, path: path}
}

// Parser entrypoint: scans line by line, classifying and parsing each
// surviving cleaned line into its Operation, in source order.
func (p *Parser) Parse() (Module, error) {
	module := Module{}
	scanner := bufio.NewScanner(p.reader)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		cleaned, ok := CleanLine(scanner.Text())
		if !ok {
			continue
		}

		root, success := p.FromSource(cleaned)
		if !success {
			return nil, diag.At(p.path, lineNo, errors.Errorf("not a valid VM command: %q", cleaned))
		}

		op, err := p.FromAST(root)
		if err != nil {
			return nil, diag.At(p.path, lineNo, err)
		}
		module = append(module, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, diag.Wrap(err, "reading source")
	}

	return module, nil
}

// Scans a single cleaned line and returns a traversable AST rooted at "line".
func (p *Parser) FromSource(cleaned string) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pLine, pc.NewScanner([]byte(cleaned)))

	if os.Getenv("EXPORT_AST") != "" {
		file, err := os.Create(os.Getenv("DEBUG_FOLDER") + "/debug.ast.dot")
		if err == nil {
			file.WriteString(ast.Dotstring("\"VM AST\""))
			file.Close()
		}
	}
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// This function takes the root node of a single line's AST and extracts the
// Operation it represents.
func (p *Parser) FromAST(root pc.Queryable) (Operation, error) {
	switch root.GetName() {
	case "memory_op":
		return p.HandleMemoryOp(root)
	case "arithmetic_op":
		return p.HandleArithmeticOp(root)
	case "label_decl":
		return p.HandleLabelDecl(root)
	case "goto_op":
		return p.HandleGotoOp(root)
	case "func_decl":
		return p.HandleFuncDecl(root)
	case "func_call":
		return p.HandleFuncCall(root)
	case "return_op":
		return p.HandleReturnOp(root)
	default:
		return nil, errors.Errorf("unrecognized node '%s'", root.GetName())
	}
}

// Specialized function to convert a "memory_op" node to a 'vm.MemoryOp'.
func (Parser) HandleMemoryOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, errors.Errorf("expected memory_op with 3 children, got %d", len(children))
	}

	operation := OperationType(children[0].GetValue())
	segment := SegmentType(children[1].GetValue())
	offset, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid offset '%s'", children[2].GetValue())
	}

	return MemoryOp{Operation: operation, Segment: segment, Offset: uint16(offset)}, nil
}

// Specialized function to convert a "arithmetic_op" node to a 'vm.ArithmeticOp'.
func (Parser) HandleArithmeticOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 1 {
		return nil, errors.Errorf("expected arithmetic_op with 1 child, got %d", len(children))
	}
	return ArithmeticOp{Operation: ArithOpType(children[0].GetValue())}, nil
}

// Specialized function to convert a "label_decl" node to a 'vm.LabelDecl'.
func (Parser) HandleLabelDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, errors.Errorf("expected label_decl with 2 children, got %d", len(children))
	}
	return LabelDecl{Name: children[1].GetValue()}, nil
}

// Specialized function to convert a "goto_op" node to a 'vm.GotoOp'.
func (Parser) HandleGotoOp(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 2 {
		return nil, errors.Errorf("expected goto_op with 2 children, got %d", len(children))
	}

	jump := JumpType(children[0].GetValue())
	return GotoOp{Jump: jump, Label: children[1].GetValue()}, nil
}

// Specialized function to convert a "func_decl" node to a 'vm.FuncDecl'.
func (Parser) HandleFuncDecl(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, errors.Errorf("expected func_decl with 3 children, got %d", len(children))
	}

	name := children[1].GetValue()
	nLocals, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid local count '%s'", children[2].GetValue())
	}

	return FuncDecl{Name: name, NLocals: uint16(nLocals)}, nil
}

// Specialized function to convert a "return_op" node to a 'vm.ReturnOp'.
func (Parser) HandleReturnOp(node pc.Queryable) (Operation, error) {
	return ReturnOp{}, nil
}

// Specialized function to convert a "func_call" node to a 'vm.FuncCallOp'.
func (Parser) HandleFuncCall(node pc.Queryable) (Operation, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return nil, errors.Errorf("expected func_call with 3 children, got %d", len(children))
	}

	name := children[1].GetValue()
	nArgs, err := strconv.ParseUint(children[2].GetValue(), 10, 16)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid arg count '%s'", children[2].GetValue())
	}

	return FuncCallOp{Name: name, NArgs: uint16(nArgs)}, nil
}
