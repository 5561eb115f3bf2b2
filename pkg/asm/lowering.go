package asm

import (
	"fmt"
	"strconv"

	"its-hmny.dev/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Asm Lowerer

// Lowerer turns a parsed 'asm.Program' into its 'hack.Program' counterpart
// plus the symbol table built up along the way. Since label declarations
// carry no address of their own — they name the instruction that follows
// them — the table can only be built by walking the program linearly and
// tracking how many real instructions have been emitted so far.
type Lowerer struct {
	program Program
}

// NewLowerer wraps 'p' (the program to lower) in a Lowerer.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower walks the wrapped program instruction by instruction, converting
// A/C Instructions to their Hack counterparts and recording each label
// declaration's address (the position of the next real instruction) in the
// returned symbol table.
func (l *Lowerer) Lower() (hack.Program, hack.SymbolTable, error) {
	if len(l.program) == 0 {
		return nil, nil, fmt.Errorf("the given 'program' is empty")
	}

	instructions, table := hack.Program{}, hack.SymbolTable{}

	for _, stmt := range l.program {
		switch tStmt := stmt.(type) {
		case AInstruction:
			hackInst, err := l.HandleAInst(tStmt)
			if hackInst == nil || err != nil {
				return nil, nil, err
			}
			instructions = append(instructions, hackInst)

		case CInstruction:
			hackInst, err := l.HandleCInst(tStmt)
			if hackInst == nil || err != nil {
				return nil, nil, err
			}
			instructions = append(instructions, hackInst)

		case LabelDecl:
			label, err := l.HandleLabelDecl(tStmt)
			if label == "" || err != nil {
				return nil, nil, err
			}
			// The label refers to the address of the *next* emitted instruction,
			// not its own position — label declarations don't occupy an address.
			table[label] = uint16(len(instructions))

		default:
			return nil, nil, fmt.Errorf("unrecognized instruction '%T'", stmt)
		}
	}

	return instructions, table, nil
}

// HandleAInst classifies the referenced location — built-in register/symbol,
// raw numeric address, or user-defined label — and tags the resulting
// 'hack.AInstruction' accordingly so the code generator can resolve it later.
func (Lowerer) HandleAInst(inst AInstruction) (hack.Instruction, error) {
	if _, found := hack.BuiltInTable[inst.Location]; found {
		return hack.AInstruction{LocType: hack.BuiltIn, LocName: inst.Location}, nil
	}
	if _, err := strconv.ParseInt(inst.Location, 10, 16); err == nil {
		return hack.AInstruction{LocType: hack.Raw, LocName: inst.Location}, nil
	}
	return hack.AInstruction{LocType: hack.Label, LocName: inst.Location}, nil
}

// HandleCInst carries a C Instruction's 'Comp'/'Dest'/'Jump' fields straight
// through to 'hack.CInstruction', rejecting shapes the parser should never
// have produced in the first place (missing comp, or both dest and jump
// present/absent together).
func (Lowerer) HandleCInst(inst CInstruction) (hack.Instruction, error) {
	if inst.Comp == "" {
		return nil, fmt.Errorf("'Comp' sub-instruction should always be provided")
	}

	switch {
	case inst.Dest != "" && inst.Jump == "":
		return hack.CInstruction{Dest: inst.Dest, Comp: inst.Comp}, nil
	case inst.Jump != "" && inst.Dest == "":
		return hack.CInstruction{Comp: inst.Comp, Jump: inst.Jump}, nil
	default:
		return nil, fmt.Errorf("expected either node 'Dest' or 'Jump' sub-instructions")
	}
}

// HandleLabelDecl extracts the label's identifier without validating it: a
// label named like a built-in symbol is recorded in the table like any other
// (only the textual 'asm.CodeGenerator' rejects such names).
func (Lowerer) HandleLabelDecl(inst LabelDecl) (string, error) {
	return inst.Name, nil
}
