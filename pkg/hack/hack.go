// Package hack is the in-memory representation of the Hack machine code
// instruction set: the binary-oriented counterpart of pkg/asm's textual
// Instruction AST, carrying enough information (LocationType) for the code
// generator to resolve every A Instruction address without consulting the
// original source text again.
package hack

import "fmt"

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the Hack instruction set.
//
// We declare a shared 'Instruction' interface for both A and C instructions as well
// as defining some useful constants for runtime assertions during the codegen phase
// such as the 'MaxAddressableMemory' that defines the upper limit to Memory capacity.

// Just used to put together A and C instructions struct, use type switch to disambiguate.
type Instruction interface{}

// Program is the full sequence of Hack instructions to encode, in source
// order. Label declarations never appear here: by the time a Program is
// built they have already been folded into a SymbolTable by the first pass
// (see pkg/asm.Lowerer).
type Program []Instruction

// SymbolTable maps a symbolic name to its resolved 15-bit address. It is
// filled by the first pass (labels, see pkg/asm.Lowerer) and then grown by
// the second pass (variables) of CodeGenerator. Built-in symbols live in
// BuiltInTable and are resolved from there.
type SymbolTable map[string]uint16

const MaxAddressableMemory uint16 = (1 << 15) // Number of addresses an A Instruction can index (one past the highest).

// FirstVariableAddress is where the second pass starts allocating RAM for
// previously unseen variable symbols.
const FirstVariableAddress uint16 = 16

// ----------------------------------------------------------------------------
// A Instructions

// In memory representation of an A Instruction for the Hack architecture spec.
//
// The A instruction has only one functionality in the Hack computer, it instructs
// the CPU to load a specific memory address from the computer memory (this includes
// both the RAM as well as the memory mapped I/O such as Keyboard and Screen).
//
// The location can be expressed in multiple way:
// - A raw memory address (e.g. 1, 2, 3)
// - A user defined label (e.g. LOOP, ADD, TEMP)
// - A built-in symbols from the Hack architecture spec (e.g. SP, THIS, THAT)
type AInstruction struct {
	LocType LocationType // The type of the location identified by 'LocName' field
	LocName string       // A generic "payload" (the label/builtin/raw symbol)
}

type LocationType uint8 // Enumeration for all the different type of location (built-in, label, raw)

const (
	Raw     LocationType = iota // Raw address literal (e.g. @2345, @8989)
	Label                       // User-defined location w/ a user given name (e.g. @MAIN, @LOOP)
	BuiltIn                     // Predefined associations by the Hack specs (@SCREEN, @KBD, @R1)
)

// ----------------------------------------------------------------------------
// C Instructions

// In memory representation of an C Instruction for the Hack architecture spec.
//
// The C instruction handles the computation side of the Hack computer, it instructs
// the CPU on what operation to execute and which register to use, also it allows to
// specify jump conditions to change the execution flow at runtime.
type CInstruction struct {
	Comp string // The 'computation' bit-codes, defines the calculation that the CPU should perform
	Dest string // The 'destination' bit-codes, defines if/where the result should be saved
	Jump string // The 'jump' bit-codes, define on what premise the jump to another instruction should occur
}

// ----------------------------------------------------------------------------
// Symbol table

// BuiltInTable is the architecture's predefined symbol table: the five VM
// pointer aliases, the sixteen general-purpose registers and the two
// memory-mapped I/O locations. R0..R15 are built from a loop, the same way
// assembler.py's SymbolTable constructor does, rather than sixteen
// duplicated map entries that all have to agree with each other.
var BuiltInTable = newBuiltInTable()

func newBuiltInTable() SymbolTable {
	table := SymbolTable{
		"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
		"SCREEN": 16384, "KBD": 24576,
	}
	for i := 0; i < 16; i++ {
		table[fmt.Sprintf("R%d", i)] = uint16(i)
	}
	return table
}
