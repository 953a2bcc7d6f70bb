package hack

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ----------------------------------------------------------------------------
// Translation tables

// This section contains the translation tables cornerstone of the codegen phase.
//
// BuiltInTable (declared in hack.go) resolves BuiltIn A instruction operands
// to their address. The three tables below resolve the bit-fields of a C
// instruction:
//	- 'CompTable': Specifies how to translate the 'Comp' opcode in C instructions
//  - 'DestTable': Specifies how to translate the 'Dest' opcode in C instructions
//  - 'JumpTable': Specifies how to translate the 'Jump' opcode in C instructions

var (
	CompTable = map[string]uint16{
		// - Constants and identities
		"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
		"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
		// - Binary and numerical negations
		"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
		"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
		// - Increment and decrement operations
		"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
		"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
		// - Register with register operations
		"D+A": 0b0000010, "D+M": 0b1000010,
		"D-A": 0b0010011, "D-M": 0b1010011,
		"A-D": 0b0000111, "M-D": 0b1000111,
		// - Bitwise register with register operations
		"D&A": 0b0000000, "D&M": 0b1000000,
		"D|A": 0b0010101, "D|M": 0b1010101,
	}

	DestTable = map[string]uint16{
		"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
		"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
	}

	JumpTable = map[string]uint16{
		"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
		"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
	}
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a set of 'hack.Instruction' and spits out their binary counterparts.
//
// In order to resolve user defined labels in A instructions, during
// initialization of the Code Generator a Symbol Table should be provided
// already seeded with every label bound by the first pass (see pkg/asm).
// The second pass that Generate performs is what assigns addresses to
// variable symbols, in first-seen order, starting at FirstVariableAddress.
type CodeGenerator struct {
	program    Program     // The set of instructions to convert to Hack binary format
	table      SymbolTable // Mapping to resolve user-defined labels to their underlying address
	nVarOffset uint16      // Internal offset to allocate memory for new variables

	Warnings []string // Non-fatal diagnostics collected while generating (e.g. address truncation)
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires both a non-nil Program 'p' (what we want to translate) as well as
// a non-nil Symbol Table 'st' holding the labels bound by the first pass, used
// to resolve user defined symbols. Built-in symbols need not be in 'st': a
// BuiltIn location is looked up in BuiltInTable directly.
func NewCodeGenerator(p Program, st SymbolTable) CodeGenerator {
	return CodeGenerator{program: p, table: st}
}

// Translates each instruction in the 'Program' to the Hack binary format.
//
// Each instruction passes through evaluation, resolution and then conversion
// to its 16-bit binary representation. Resolution failures for a C
// instruction's opcodes are fatal; an A instruction address that overflows
// the addressable 15 bits is truncated and recorded in cg.Warnings instead
// of failing the run, matching the reference assembler's behavior.
func (cg *CodeGenerator) Generate() ([]string, error) {
	hack := make([]string, 0, len(cg.program))

	for i, instruction := range cg.program {
		var generated string
		var err error

		switch tInstruction := instruction.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tInstruction)
		case CInstruction:
			generated, err = cg.GenerateCInst(tInstruction)
		default:
			err = errors.Errorf("unsupported instruction type %T", tInstruction)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i+1)
		}
		hack = append(hack, generated)
	}

	return hack, nil
}

// Specialized function to convert an A Instruction to the Hack format.
//
// As part of the conversion (for both built-in and user-defined labels)
// there's a lookup on their respective symbol tables in order to determine
// the 'real' location address. A Label address never found in the table is
// treated as a brand new variable and allocated the next free RAM slot
// starting at FirstVariableAddress, mirroring the second pass of the
// two-pass assembly algorithm.
func (cg *CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	found, address, overflow := false, uint16(0), false

	switch inst.LocType {
	case Raw: // Simply translate the raw address from 'string' to 'int'
		num, err := strconv.ParseUint(inst.LocName, 10, 32)
		if err != nil {
			return "", errors.Wrapf(err, "invalid numeric address '%s'", inst.LocName)
		}
		// Checked before the uint16 conversion, which would hide values of 2^16 and up.
		overflow = num >= uint64(MaxAddressableMemory)
		address, found = uint16(num), true
	case Label: // Lookup the label name in the provided SymbolTable
		address, found = cg.table[inst.LocName]
		if !found {
			// Assign a new memory location starting from FirstVariableAddress onwards
			address = FirstVariableAddress + cg.nVarOffset
			// And update the SymbolTable so that future references
			// gets resolved/points to the same locations in RAM
			cg.table[inst.LocName] = address
			cg.nVarOffset++
			found = true
		}
	case BuiltIn: // Lookup the registry name in the well-known table
		address, found = BuiltInTable[inst.LocName]
	}

	if !found {
		return "", errors.Errorf("unable to resolve address for location '%s'", inst.LocName)
	}
	// An A instruction always has the first bit set to zero (the opcode bit), leaving only
	// 15 bits to address the Hack computer memory: anything addressed at or past 2^15 doesn't
	// fit. Rather than rejecting the program outright we truncate to the low 15 bits and
	// surface a warning, the same tradeoff the reference assembler makes.
	if overflow || address >= MaxAddressableMemory {
		truncated := address & (MaxAddressableMemory - 1)
		cg.Warnings = append(cg.Warnings, "address '"+inst.LocName+"' overflows 15 bits, truncated")
		address = truncated
	}
	// So here we just need to convert the address to its 16 bit binary representation
	return fmt.Sprintf("%016b", address), nil
}

// Specialized function to convert a C Instruction to the Hack format.
//
// Each of the three bit-fields is resolved independently against its
// translation table; an unrecognized mnemonic in any field is fatal since,
// unlike an A instruction's address, there's no sensible fallback value.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	command := uint16(0b111 << 13) // Puts the initial '111' opcode at the start

	opcode, found := CompTable[inst.Comp]
	if !found {
		return "", errors.Errorf("unable to translate C instruction, unknown 'comp' opcode '%s'", inst.Comp)
	}
	command |= opcode << 6

	dest, found := DestTable[inst.Dest]
	if !found {
		return "", errors.Errorf("unable to translate C instruction, unknown 'dest' opcode '%s'", inst.Dest)
	}
	command |= dest << 3

	jump, found := JumpTable[inst.Jump]
	if !found {
		return "", errors.Errorf("unable to translate C instruction, unknown 'jump' opcode '%s'", inst.Jump)
	}
	command |= jump

	return fmt.Sprintf("%016b", command), nil
}
