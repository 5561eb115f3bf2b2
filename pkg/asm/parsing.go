package asm

import (
	"fmt"
	"io"
	"os"

	pc "github.com/prataprc/goparsec"
)

// ----------------------------------------------------------------------------
// Parser Combinator(s)
//
// The assembly grammar is small and regular enough (instructions, labels,
// comments) that a combinator library composes it directly without a
// hand-written recursive descent step; contrast this with the Jack grammar,
// whose recursive statement/expression nesting doesn't reduce as cleanly to
// this style.

// Root of the traversable AST produced while parsing an assembly program.
var grammar = pc.NewAST("assembler", 0)

var (
	// A full program is a sequence of comments and instructions up to EOF.
	pProgram = grammar.ManyUntil("program", nil, grammar.OrdChoice("item", nil, pComment, pInstruction), pc.End())

	// A single instruction is one of: A Instruction, C Instruction, label declaration.
	pInstruction = grammar.OrdChoice("instruction", nil, pAInst, pCInst, pLabelDecl)
	// Line comments, starting with '//' and running to end of line.
	pComment = grammar.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))

	// '@<label>'
	pAInst = grammar.And("a-inst", nil, pc.Atom("@", "@"), pLabel)
	// '(<label>)'
	pLabelDecl = grammar.And("label-decl", nil, pc.Atom("(", "("), pLabel, pc.Atom(")", ")"))
	// '[dest=]comp[;jump]' — dest and jump are both optional but mutually independent.
	pCInst = grammar.And("c-inst", nil,
		grammar.Maybe("maybe-assign", nil, grammar.And("assign", nil, pDest, pc.Atom("=", "="))),
		pComp, // 'comp' is the only mandatory sub-instruction
		grammar.Maybe("maybe-goto", nil, grammar.And("goto", nil, pc.Atom(";", ";"), pJump)),
	)
)

var (
	// A label is either a raw integer or a symbol: letters/digits/(_.$:), never leading with a digit.
	pLabel = grammar.OrdChoice("label", nil, pc.Int(), pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "SYMBOL"))

	// Destination mnemonics, longest-first so e.g. "AM" doesn't get eaten by "A".
	pDest = grammar.OrdChoice("dest", nil,
		pc.Atom("AM", "AM"), pc.Atom("AD", "AD"), pc.Atom("MD", "MD"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Computation mnemonics, most-specific-first for the same reason as 'pDest'.
	pComp = grammar.OrdChoice("comp", nil,
		// bitwise register-with-register
		pc.Atom("D&A", "D&A"), pc.Atom("D&M", "D&M"),
		pc.Atom("D|A", "D|A"), pc.Atom("D|M", "D|M"),
		// register-with-register arithmetic
		pc.Atom("D+A", "D+A"), pc.Atom("D+M", "D+M"),
		pc.Atom("D-A", "D-A"), pc.Atom("D-M", "D-M"),
		pc.Atom("A-D", "A-D"), pc.Atom("M-D", "M-D"),
		// increment/decrement
		pc.Atom("D+1", "D+1"), pc.Atom("A+1", "A+1"), pc.Atom("M+1", "M+1"),
		pc.Atom("D-1", "D-1"), pc.Atom("A-1", "A-1"), pc.Atom("M-1", "M-1"),
		// negation (bitwise and numeric)
		pc.Atom("!D", "!D"), pc.Atom("!A", "!A"), pc.Atom("!M", "!M"),
		pc.Atom("-D", "-D"), pc.Atom("-A", "-A"), pc.Atom("-M", "-M"),
		// constants and identities
		pc.Atom("0", "0"), pc.Atom("1", "1"), pc.Atom("-1", "-1"),
		pc.Atom("D", "D"), pc.Atom("A", "A"), pc.Atom("M", "M"),
	)

	// Jump mnemonics.
	pJump = grammar.OrdChoice("jump", nil,
		pc.Atom("JNE", "JNE"), pc.Atom("JEQ", "JEQ"),
		pc.Atom("JGT", "JGT"), pc.Atom("JGE", "JGE"),
		pc.Atom("JLT", "JLT"), pc.Atom("JLE", "JLE"),
		pc.Atom("JMP", "JMP"),
	)
)

// ----------------------------------------------------------------------------
// Asm Parser

// Parser turns assembly source text into an 'asm.Program' in two steps:
// text -> AST (via the combinators above) and AST -> 'asm.Instruction' slice
// (via a DFS walk below). 'goparsec' reads a handful of env vars as feature
// flags, forwarded here unchanged: PARSEC_DEBUG, EXPORT_AST, PRINT_AST.
type Parser struct{ reader io.Reader }

// NewParser wraps 'r' (the source of assembly text) in a Parser.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parse reads the wrapped source in full, builds its AST, then extracts the
// resulting 'asm.Program' from it.
func (p *Parser) Parse() (Program, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return nil, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	tree, success := p.FromSource(content)
	if !success {
		return nil, fmt.Errorf("failed to parse AST from input content")
	}

	return p.FromAST(tree)
}

// FromSource runs the combinators over 'source' and returns the resulting
// traversable AST, honoring the goparsec debug/export feature flags.
func (p *Parser) FromSource(source []byte) (pc.Queryable, bool) {
	if os.Getenv("PARSEC_DEBUG") != "" {
		grammar.SetDebug()
	}

	root, _ := grammar.Parsewith(pProgram, pc.NewScanner(source))

	if os.Getenv("EXPORT_AST") != "" {
		file, _ := os.Create(fmt.Sprintf("%s/debug.ast.dot", os.Getenv("DEBUG_FOLDER")))
		defer file.Close()
		file.Write([]byte(grammar.Dotstring("\"Assembler AST\"")))
	}

	if os.Getenv("PRINT_AST") != "" {
		grammar.Prettyprint()
	}

	return root, true // success is implied by having reached 'EOF' above
}

// FromAST walks the root "program" node's children and converts each
// recognized subtree ("a-inst", "c-inst", "label-decl") into its
// 'asm.Instruction' counterpart, skipping comment nodes entirely.
func (p *Parser) FromAST(root pc.Queryable) (Program, error) {
	if root.GetName() != "program" {
		return nil, fmt.Errorf("expected node 'program', found %s", root.GetName())
	}

	program := Program{}

	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "a-inst":
			inst, err := p.HandleAInst(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "c-inst":
			inst, err := p.HandleCInst(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "label-decl":
			inst, err := p.HandleLabelDecl(child)
			if inst == nil || err != nil {
				return nil, err
			}
			program = append(program, inst)

		case "comment":
			continue

		default:
			return nil, fmt.Errorf("unrecognized node '%s'", child.GetName())
		}
	}

	return program, nil
}

// HandleAInst extracts the referenced location (a raw int or a symbol) from
// an "a-inst" subtree.
func (Parser) HandleAInst(inst pc.Queryable) (Instruction, error) {
	if inst.GetName() != "a-inst" {
		return nil, fmt.Errorf("expected node 'a-inst', found %s", inst.GetName())
	}

	location := inst.GetChildren()[1]
	if location.GetName() != "INT" && location.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected token 'SYMBOL' or 'INT', got %s", location.GetName())
	}

	return AInstruction{Location: location.GetValue()}, nil
}

// HandleCInst extracts the dest/comp/jump sub-instructions from a "c-inst"
// subtree, expecting exactly one of the optional "assign"/"goto" wrappers
// to actually be present (matching the grammar's 'pCInst' shape above).
func (Parser) HandleCInst(inst pc.Queryable) (Instruction, error) {
	if inst.GetName() != "c-inst" {
		return nil, fmt.Errorf("expected node 'c-inst', found %s", inst.GetName())
	}

	dest, comp, jump := inst.GetChildren()[0], inst.GetChildren()[1], inst.GetChildren()[2]

	if dest.GetName() == "assign" && len(dest.GetChildren()) == 2 {
		dest = dest.GetChildren()[0]
		return CInstruction{Dest: dest.GetValue(), Comp: comp.GetValue()}, nil
	}

	if jump.GetName() == "goto" || len(jump.GetChildren()) == 2 {
		jump = jump.GetChildren()[1]
		return CInstruction{Comp: comp.GetValue(), Jump: jump.GetValue()}, nil
	}

	return nil, fmt.Errorf("expected either node 'assign' or 'goto' not found")
}

// HandleLabelDecl extracts the label identifier from a "label-decl" subtree.
func (Parser) HandleLabelDecl(decl pc.Queryable) (Instruction, error) {
	if decl.GetName() != "label-decl" {
		return nil, fmt.Errorf("expected node 'a-inst', found %s", decl.GetName())
	}

	symbol := decl.GetChildren()[1]
	if symbol.GetName() != "SYMBOL" {
		return nil, fmt.Errorf("expected token 'SYMBOL', got %s", symbol.GetName())
	}

	return LabelDecl{Name: symbol.GetValue()}, nil
}
