package asm

import (
	"bufio"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
	"github.com/pkg/errors"

	"hacktools.dev/n2t/internal/diag"
)

func errInvalidLine(cleaned string) error {
	return errors.Errorf("not a valid instruction: %q", cleaned)
}

func errUnrecognizedNode(name string) error {
	return errors.Errorf("unrecognized node %q", name)
}

func errUnexpectedToken(want, got string) error {
	return errors.Errorf("expected token %s, got %s", want, got)
}

// ----------------------------------------------------------------------------
// Parser Combinator(s)

// This section defines the Parser Combinator for every token & instruction of the Asm language.
//
// Each parser combinator manages a single instruction (A Inst, C Inst, Label Decl): the parser
// below feeds them one cleaned line at a time, so there's no need for a combinator spanning
// comments or multiple lines, unlike a whole-file grammar would need.

// Top level object, will generate the traversable AST based on the input plus the PCs below.
var ast = pc.NewAST("assembler", 0)

var (
	// Parser combinator for a single cleaned Assembler line (A, C or label declaration)
	pLine = ast.OrdChoice("line", nil, pAInst, pCInst, pLabelDecl)

	// Parser combinator for A Instructions
	pAInst = ast.And("a-inst", nil, pc.Atom("@", "@"), pLabel)
	// Parser combinator for new label declaration
	pLabelDecl = ast.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"))
	// Parser combinator for C Instructions
	pCInst = ast.And("c-inst", nil,
		ast.Maybe("maybe-assign", nil, ast.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp, // 'comp' should always be provided
		ast.Maybe("maybe-goto", nil, ast.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// Generic label parser (A Instruction + Label declaration)
	// NOTE: A label can be any sequence of letters, digits, and symbols (_, ., $, :).
	// NOTE: A label cannot begin with a leading digit (a symbol is indeed allowed).
	pLabel = ast.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Generic destination parser (C Instruction subsection)
	// NOTE: The order of the Atom is reversed w.r.t. the one provided in the translation table cause
	// if not the single destination section will match before in the PC (BFS Search algorithm)
	pDest = ast.OrdChoice("dest", nil,
		pc.Atom("AMD", "AMD"), pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic computation parser (C Instruction subsection)
	// NOTE: The order of the Atom is reversed w.r.t. the one provided in the translation table cause
	// if not the 'Constant and identifiers' part will match before the order (BFS Search algorithm)
	pComp = ast.OrdChoice("comp", nil,
		// - Bitwise register with register operations
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		// - Register with register operations
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		// - Increment and decrement operations
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		// - Binary and numerical negations
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		// - Constants and identities
		pc.Atom("0", "0"), pc.Atom("1", "1"), pc.Atom("-1", "-1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Generic jump parser (C Instruction subsection)
	pJump = ast.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// This section defines the Parser for the nand2tetris Asm language.
//
// Source is read line by line: each line is cleaned (comments stripped, whitespace
// removed, see CleanLine) and, if anything remains, fed through the PCs above to
// obtain a single Instruction. Parsing one line at a time (rather than the whole
// file as a single grammar) is what lets every diagnostic name the exact source
// line it came from, per the input path's 1-based line number.
//
// The library reads up the feature flags (as env vars):
// - PARSEC_DEBUG: Verbose logging to inspect which of the PCs gets triggered and match
// - EXPORT_AST:   Exports in the DEBUG_FOLDER a Graphviz representation of the AST
// - PRINT_AST:    Print on the stdout a textual representation of the AST
type Parser struct {
	reader io.Reader
	path   string // Name used to build diagnostics, e.g. the source file path
}

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable. 'path' names
// the input for diagnostics and need not be an actual filesystem path.
func NewParser(r io.Reader, path string) Parser {
	return Parser{reader: r, path: path}
}

// Parser entrypoint: scans line by line, classifying and parsing each
// surviving cleaned line into its Instruction, in source order.
func (p *Parser) Parse() (Program, error) {
	program := Program{}
	scanner := bufio.NewScanner(p.reader)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		cleaned, ok := CleanLine(scanner.Text())
		if !ok {
			continue
		}

		root, success := p.FromSource(cleaned)
		if !success {
			return nil, diag.At(p.path, lineNo, errInvalidLine(cleaned))
		}

		inst, err := p.FromAST(root)
		if err != nil {
			return nil, diag.At(p.path, lineNo, err)
		}
		program = append(program, inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, diag.Wrap(err, "reading source")
	}

	return program, nil
}

// Scans a single cleaned line and returns a traversable AST (Abstract Syntax
// Tree) rooted at "line" that can be visited to extract the Instruction it
// represents.
func (p *Parser) FromSource(cleaned string) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		ast.SetDebug()
	}

	root, _ := ast.Parsewith(pLine, pc.NewScanner([]byte(cleaned)))

	if os.Getenv("EXPORT_AST") != "" {
		file, err := os.Create(os.Getenv("DEBUG_FOLDER") + "/debug.ast.dot")
		if err == nil {
			file.WriteString(ast.Dotstring("\"Assembler AST\""))
			file.Close()
		}
	}
	if os.Getenv("PRINT_AST") != "" {
		ast.Prettyprint()
	}

	return root, root != nil
}

// This function takes the root node of a single line's AST and extracts the
// Instruction it represents.
func (p *Parser) FromAST(root pc.Queryable) (Instruction, error) {
	switch root.GetName() {
	case "a-inst":
		return p.HandleAInst(root)
	case "c-inst":
		return p.HandleCInst(root)
	case "label-decl":
		return p.HandleLabelDecl(root)
	default:
		return nil, errUnrecognizedNode(root.GetName())
	}
}

// Specialized function to convert a "a-inst" node to an 'asm.AInstruction'.
func (Parser) HandleAInst(inst pc.Queryable) (Instruction, error) {
	if inst.GetName() != "a-inst" {
		return nil, errUnrecognizedNode(inst.GetName())
	}

	symbol := inst.GetChildren()[1]
	if symbol.GetName() != "INT" && symbol.GetName() != "SYMBOL" {
		return nil, errUnexpectedToken("SYMBOL or INT", symbol.GetName())
	}

	return AInstruction{Location: symbol.GetValue()}, nil
}

// Specialized function to convert a "c-inst" node to an 'asm.CInstruction'.
func (Parser) HandleCInst(inst pc.Queryable) (Instruction, error) {
	if inst.GetName() != "c-inst" {
		return nil, errUnrecognizedNode(inst.GetName())
	}

	dest, comp, jump := inst.GetChildren()[0], inst.GetChildren()[1], inst.GetChildren()[2]
	out := CInstruction{Comp: comp.GetValue()}

	if dest.GetName() == "assign" && len(dest.GetChildren()) == 2 {
		out.Dest = dest.GetChildren()[0].GetValue()
	}
	if jump.GetName() == "goto" && len(jump.GetChildren()) == 2 {
		out.Jump = jump.GetChildren()[1].GetValue()
	}

	return out, nil
}

// Specialized function to extract from a "label-decl" node to an 'asm.LabelDecl'.
func (Parser) HandleLabelDecl(decl pc.Queryable) (Instruction, error) {
	if decl.GetName() != "label-decl" {
		return nil, errUnrecognizedNode(decl.GetName())
	}

	symbol := decl.GetChildren()[1]
	if symbol.GetName() != "SYMBOL" && symbol.GetName() != "INT" {
		return nil, errUnexpectedToken("SYMBOL", symbol.GetName())
	}

	return LabelDecl{Name: symbol.GetValue()}, nil
}
