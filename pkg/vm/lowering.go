package vm

import (
	"fmt"
	"sort"

	"its-hmny.dev/nand2tetris/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Program' (every parsed module/file of the translation unit)
// and produces its 'asm.Program' counterpart, ready to be fed to the Asm CodeGenerator.
//
// Modules are lowered in filename order (map iteration in Go is randomized, and the
// emitted label/variable names must be stable across runs). A single Lowerer instance
// is meant to be used for the whole invocation: the label counters are never reset
// between modules, since 'goto'/comparison labels must stay unique across the combined
// assembly output once every '.vm' file has been concatenated.
type Lowerer struct {
	program Program // Every parsed module, keyed by its file stem

	compCounter int // Monotonic id for comparison (eq/gt/lt) branch labels
	callCounter int // Monotonic id for call-site return-address labels

	fileStem    string // The module currently being lowered, used for 'static' addressing
	currentFunc string // The innermost 'function' declaration seen so far, used for label qualification
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires the argument Program 'p' to be non-nil.
func NewLowerer(p Program) Lowerer {
	return Lowerer{program: p}
}

// Lower triggers the lowering process for every module in the program, in a stable
// (sorted by file stem) order, and concatenates the result into a single 'asm.Program'.
func (l *Lowerer) Lower() (asm.Program, error) {
	stems := make([]string, 0, len(l.program))
	for stem := range l.program {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	program := asm.Program{}
	for _, stem := range stems {
		l.fileStem = stem
		l.currentFunc = fmt.Sprintf("%s$top-level", stem)

		lowered, err := l.lowerModule(l.program[stem])
		if err != nil {
			return nil, fmt.Errorf("module '%s': %w", stem, err)
		}
		program = append(program, lowered...)
	}

	return program, nil
}

// Lowers every operation of a single module, in source order, updating 'currentFunc'
// whenever a new 'function' declaration is encountered.
func (l *Lowerer) lowerModule(module Module) (asm.Program, error) {
	program := asm.Program{}

	for _, operation := range module {
		var lowered []asm.Statement
		var err error

		switch op := operation.(type) {
		case MemoryOp:
			lowered, err = l.lowerMemoryOp(op)
		case ArithmeticOp:
			lowered, err = l.lowerArithmeticOp(op)
		case LabelDecl:
			lowered, err = l.lowerLabelDecl(op)
		case GotoOp:
			lowered, err = l.lowerGotoOp(op)
		case FuncDecl:
			l.currentFunc = op.Name
			lowered, err = l.lowerFuncDecl(op)
		case FuncCallOp:
			lowered, err = l.lowerFuncCallOp(op)
		case ReturnOp:
			lowered, err = l.lowerReturnOp(op)
		default:
			err = fmt.Errorf("unrecognized operation '%T'", operation)
		}

		if err != nil {
			return nil, err
		}
		program = append(program, lowered...)
	}

	return program, nil
}

// ----------------------------------------------------------------------------
// Memory operations

// Hack built-in symbol holding the base address of each indirectly-addressed segment.
var segmentBase = map[SegmentType]string{
	Argument: "ARG", Local: "LCL", This: "THIS", That: "THAT",
}

// Lowers a 'push'/'pop' operation for the given segment, per the §4.6 segment rules.
func (l *Lowerer) lowerMemoryOp(op MemoryOp) ([]asm.Statement, error) {
	switch op.Segment {
	case Constant:
		if op.Operation == Pop {
			return nil, fmt.Errorf("illegal 'pop constant', the 'constant' segment is not writable")
		}
		return l.pushConstant(op.Offset), nil

	case Argument, Local, This, That:
		base := segmentBase[op.Segment]
		if op.Operation == Push {
			return l.pushIndirect(base, op.Offset), nil
		}
		return l.popIndirect(base, op.Offset), nil

	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
		}
		return l.directSegment(fmt.Sprint(3+op.Offset), op.Operation), nil

	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
		}
		return l.directSegment(fmt.Sprint(5+op.Offset), op.Operation), nil

	case Static:
		return l.directSegment(fmt.Sprintf("%s.%d", l.fileStem, op.Offset), op.Operation), nil

	default:
		return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
	}
}

// pushD is the stack-push idiom assuming the value to push already sits in register D.
// SP always points one past the top, so pushing writes at *SP and then increments SP.
func pushD() []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

func (l *Lowerer) pushConstant(n uint16) []asm.Statement {
	return append([]asm.Statement{
		asm.AInstruction{Location: fmt.Sprint(n)},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}, pushD()...)
}

// push segment i, segment addressed indirectly through a base pointer (argument, local, this, that).
func (l *Lowerer) pushIndirect(base string, offset uint16) []asm.Statement {
	return append([]asm.Statement{
		asm.AInstruction{Location: fmt.Sprint(offset)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: base},
		asm.CInstruction{Dest: "A", Comp: "D+M"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}, pushD()...)
}

// pop segment i, segment addressed indirectly through a base pointer (argument, local, this, that).
// Uses R13 as scratch space to stash the target address while the stack top is popped into D.
func (l *Lowerer) popIndirect(base string, offset uint16) []asm.Statement {
	return []asm.Statement{
		asm.AInstruction{Location: fmt.Sprint(offset)},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: base},
		asm.CInstruction{Dest: "D", Comp: "D+M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
}

// push/pop against a fixed memory cell (pointer, temp, static), addressed directly by label/address.
func (l *Lowerer) directSegment(location string, operation OperationType) []asm.Statement {
	if operation == Push {
		return append([]asm.Statement{
			asm.AInstruction{Location: location},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}, pushD()...)
	}

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: location},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
}

// ----------------------------------------------------------------------------
// Arithmetic operations

// Binary arithmetic/bitwise ops: 'M' holds the left operand, 'D' the right one.
var binaryCompOf = map[ArithOpType]string{
	Add: "D+M", Sub: "M-D", And: "D&M", Or: "D|M",
}

// Unary ops apply directly to the top-of-stack element.
var unaryCompOf = map[ArithOpType]string{
	Neg: "-M", Not: "!M",
}

// Comparisons branch on the sign of 'left - right' using the matching Hack jump mnemonic.
var comparisonJumpOf = map[ArithOpType]string{
	Eq: "JEQ", Gt: "JGT", Lt: "JLT",
}

func (l *Lowerer) lowerArithmeticOp(op ArithmeticOp) ([]asm.Statement, error) {
	if comp, ok := unaryCompOf[op.Operation]; ok {
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: comp},
		}, nil
	}

	if comp, ok := binaryCompOf[op.Operation]; ok {
		return []asm.Statement{
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "AM", Comp: "M-1"}, // SP--, A = right operand's address
			asm.CInstruction{Dest: "D", Comp: "M"},    // D = right operand
			asm.CInstruction{Dest: "A", Comp: "A-1"},  // A = left operand's address
			asm.CInstruction{Dest: "M", Comp: comp},   // in-place result, net SP already -1
		}, nil
	}

	if jump, ok := comparisonJumpOf[op.Operation]; ok {
		return l.lowerComparison(jump), nil
	}

	return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
}

// A comparison pops the right operand into D, computes 'left - right' into D, then
// branches on the requested condition. Loading the branch target overwrites 'A', so
// both paths re-address the left operand's slot through SP (already decremented once)
// and overwrite it with the Jack boolean: true is -1 (all ones), false is 0.
func (l *Lowerer) lowerComparison(jump string) []asm.Statement {
	id := l.compCounter
	l.compCounter++

	trueLabel := fmt.Sprintf("COMPARE_TRUE_%d", id)
	breakLabel := fmt.Sprintf("COMPARE_BREAK_%d", id)

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: trueLabel},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: breakLabel},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: trueLabel},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: breakLabel},
	}
}

// ----------------------------------------------------------------------------
// Program flow

// qualify prefixes a user label with the enclosing function, so identically named labels
// in different functions never collide once every module has been concatenated.
func (l *Lowerer) qualify(label string) string {
	return fmt.Sprintf("%s$%s", l.currentFunc, label)
}

func (l *Lowerer) lowerLabelDecl(op LabelDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty label declaration")
	}
	return []asm.Statement{asm.LabelDecl{Name: l.qualify(op.Name)}}, nil
}

func (l *Lowerer) lowerGotoOp(op GotoOp) ([]asm.Statement, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to produce empty jump label")
	}

	target := l.qualify(op.Label)
	if op.Jump == Unconditional {
		return []asm.Statement{
			asm.AInstruction{Location: target},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	return []asm.Statement{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: target},
		asm.CInstruction{Comp: "D", Jump: "JNE"},
	}, nil
}

// ----------------------------------------------------------------------------
// Function declaration, call and return

func (l *Lowerer) lowerFuncDecl(op FuncDecl) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function declaration")
	}

	program := []asm.Statement{asm.LabelDecl{Name: op.Name}}
	for i := uint16(0); i < op.NLocal; i++ {
		program = append(program, l.pushConstant(0)...)
	}
	return program, nil
}

// call g nArgs: pushes a fresh return-address, saves the caller's frame, repositions
// ARG/LCL for the callee and jumps to it; execution resumes at the return-address label.
func (l *Lowerer) lowerFuncCallOp(op FuncCallOp) ([]asm.Statement, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to produce empty function call")
	}

	id := l.callCounter
	l.callCounter++
	returnLabel := fmt.Sprintf("_RET_%s.%d_", l.currentFunc, id)

	program := []asm.Statement{
		asm.AInstruction{Location: returnLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	program = append(program, pushD()...)
	for _, saved := range []string{"LCL", "ARG", "THIS", "THAT"} {
		program = append(program, asm.AInstruction{Location: saved}, asm.CInstruction{Dest: "D", Comp: "M"})
		program = append(program, pushD()...)
	}

	program = append(program,
		// ARG = SP - nArgs - 5
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(op.NArgs)},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto g
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		// (return-address)
		asm.LabelDecl{Name: returnLabel},
	)

	return program, nil
}

// return: tears down the current frame and resumes the caller at the saved return address.
// THAT, THIS, ARG, LCL must be restored in that exact order so that 'FRAME' (stashed in R13)
// stays valid until its last use.
func (l *Lowerer) lowerReturnOp(ReturnOp) ([]asm.Statement, error) {
	return []asm.Statement{
		// R13 (FRAME) = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 (RET) = *(FRAME - 5)
		asm.AInstruction{Location: "5"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// *ARG = pop()
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "D", Comp: "M+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// THAT = *(FRAME - 1)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THAT"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// THIS = *(FRAME - 2)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "2"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "THIS"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// ARG = *(FRAME - 3)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "3"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = *(FRAME - 4)
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "4"},
		asm.CInstruction{Dest: "A", Comp: "D-A"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto RET
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}, nil
}
