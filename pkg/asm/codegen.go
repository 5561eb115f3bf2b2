package asm

import (
	"errors"
	"fmt"
	"strconv"

	"its-hmny.dev/nand2tetris/pkg/hack"
)

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator renders a parsed assembly program back to its textual Hack
// assembly form. Unlike the Lowerer (which resolves symbols down to
// 'hack.Instruction' values) this stays entirely at the textual level, so no
// symbol table is needed here: every 'asm.Statement' already carries enough
// information (a raw location, a mnemonic triple, a label name) to be printed
// as-is.
type CodeGenerator struct {
	program []Statement
}

// NewCodeGenerator wraps 'p' (the parsed program to render) in a CodeGenerator.
func NewCodeGenerator(p []Statement) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate walks the wrapped program and renders each statement to its
// one-line textual form, in source order, failing fast on the first
// malformed statement encountered.
func (cg *CodeGenerator) Generate() ([]string, error) {
	lines := make([]string, 0, len(cg.program))

	for _, statement := range cg.program {
		var line string
		var err error

		switch stmt := statement.(type) {
		case AInstruction:
			line, err = cg.GenerateAInst(stmt)
		case CInstruction:
			line, err = cg.GenerateCInst(stmt)
		case LabelDecl:
			line, err = cg.GenerateLabelDecl(stmt)
		}

		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// GenerateAInst renders an A Instruction as '@<location>', where 'location'
// is either a raw address, a built-in name, or a user-defined label — all
// three share the same textual shape at this stage. Raw addresses that do
// not fit the 15 bits available to an A Instruction are rejected.
func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", errors.New("unable ro produce empty label declaration")
	}
	if raw, err := strconv.ParseUint(stmt.Location, 10, 64); err == nil && raw >= uint64(hack.MaxAddressableMemory) {
		return "", fmt.Errorf("raw address '%s' is out of the addressable range", stmt.Location)
	}

	return fmt.Sprintf("@%s", stmt.Location), nil
}

// GenerateCInst renders a C Instruction as either 'dest=comp' or 'comp;jump'.
// Exactly one of 'Dest'/'Jump' must be set alongside the mandatory 'Comp' —
// this mirrors the mutually exclusive shape the parser itself produces.
func (cg *CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", errors.New("expected 'comp' directive in C Instruction")
	}

	switch {
	case stmt.Dest != "" && stmt.Jump == "":
		return fmt.Sprintf("%s=%s", stmt.Dest, stmt.Comp), nil
	case stmt.Jump != "" && stmt.Dest == "":
		return fmt.Sprintf("%s;%s", stmt.Comp, stmt.Jump), nil
	default:
		return "", errors.New("expected either 'dest' or 'jump' directive in C Instruction")
	}
}

// GenerateLabelDecl renders a label declaration as '(name)', rejecting an
// empty name and any attempt to shadow one of the Hack platform's built-in symbols.
func (cg *CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if stmt.Name == "" {
		return "", errors.New("unable to produce empty label declaration")
	}
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", fmt.Errorf("unable to override built-in label '%s'", stmt.Name)
	}

	return fmt.Sprintf("(%s)", stmt.Name), nil
}
