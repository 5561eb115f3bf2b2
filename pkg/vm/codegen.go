package vm

import "fmt"

// ----------------------------------------------------------------------------
// Code Generator

// CodeGenerator renders a 'vm.Program' back to its textual VM form, one line
// per operation. This is the inverse of the parser and is exercised by the
// Jack compiler's 'compile' mode, which targets VM text rather than going
// straight to Hack assembly, so every module in the program keeps its own
// line slice in the returned map (keyed by module/class name).
type CodeGenerator struct {
	program Program
}

// NewCodeGenerator wraps 'p' (the program to render) in a CodeGenerator.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Generate renders every operation of every module to its one-line textual
// form, preserving per-module grouping and in-module order.
func (cg *CodeGenerator) Generate() (map[string][]string, error) {
	rendered := map[string][]string{}

	for modName, module := range cg.program {
		for _, operation := range module {
			var line string
			var err error

			switch op := operation.(type) {
			case MemoryOp:
				line, err = cg.GenerateMemoryOp(op)
			case ArithmeticOp:
				line, err = cg.GenerateArithmeticOp(op)
			case LabelDecl:
				line, err = cg.GenerateLabelDecl(op)
			case GotoOp:
				line, err = cg.GenerateGotoOp(op)
			case FuncDecl:
				line, err = cg.GenerateFuncDecl(op)
			case ReturnOp:
				line, err = cg.GenerateReturnOp(op)
			case FuncCallOp:
				line, err = cg.GenerateFuncCallOp(op)
			}

			if err != nil {
				return nil, err
			}
			rendered[modName] = append(rendered[modName], line)
		}
	}

	return rendered, nil
}

// GenerateMemoryOp renders a push/pop operation as '<op> <segment> <offset>',
// bounds-checking the offset for the segments that have a hard upper limit.
func (cg *CodeGenerator) GenerateMemoryOp(op MemoryOp) (string, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return "", fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return "", fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	return fmt.Sprintf("%s %s %d", string(op.Operation), string(op.Segment), op.Offset), nil
}

// GenerateArithmeticOp renders a unary/binary arithmetic-logical operation
// as its bare mnemonic (e.g. 'add', 'neg') — these take no operands.
func (cg *CodeGenerator) GenerateArithmeticOp(op ArithmeticOp) (string, error) {
	return string(op.Operation), nil
}

// GenerateLabelDecl renders a label declaration as 'label <name>'.
func (cg *CodeGenerator) GenerateLabelDecl(op LabelDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty label declaration")
	}

	return fmt.Sprintf("label %s", op.Name), nil
}

// GenerateGotoOp renders an unconditional/conditional jump as '<goto|if-goto> <label>'.
func (cg *CodeGenerator) GenerateGotoOp(op GotoOp) (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("unable to produce empty jump label")
	}

	return fmt.Sprintf("%s %s", string(op.Jump), op.Label), nil
}

// GenerateFuncDecl renders a function declaration as 'function <name> <nLocals>'.
func (cg *CodeGenerator) GenerateFuncDecl(op FuncDecl) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty function declaration")
	}

	return fmt.Sprintf("function %s %d", op.Name, op.NLocal), nil
}

// GenerateReturnOp renders a return operation — it carries no data, so the
// rendering is always the bare 'return' mnemonic.
func (cg *CodeGenerator) GenerateReturnOp(op ReturnOp) (string, error) {
	return "return", nil
}

// GenerateFuncCallOp renders a function call as 'call <name> <nArgs>'.
func (cg *CodeGenerator) GenerateFuncCallOp(op FuncCallOp) (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty function call")
	}

	return fmt.Sprintf("call %s %d", op.Name, op.NArgs), nil
}
