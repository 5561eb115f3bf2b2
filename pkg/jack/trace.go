package jack

import (
	"fmt"
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Diagnostic XML tracing
//
// Neither form below feeds the compile pipeline: they exist purely so the
// 'tokens'/'parse' modes of the Jack compiler CLI can show a human the lexer
// and parser's intermediate output, the way the course's reference tools do.

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func xmlEscape(s string) string { return xmlEscaper.Replace(s) }

// TokensToXML renders a flat token stream (EOF excluded) as one tag per token.
func TokensToXML(tokens []Token) string {
	var sb strings.Builder
	sb.WriteString("<tokens>\n")
	for _, tok := range tokens {
		if tok.Type == TokEOF {
			continue
		}
		sb.WriteString(fmt.Sprintf("<%s> %s </%s>\n", tok.Type, xmlEscape(tok.Value), tok.Type))
	}
	sb.WriteString("</tokens>\n")
	return sb.String()
}

// ClassToXML renders a parsed Class as a nested best-effort AST dump, indented
// by depth. It is intentionally simpler than the grammar's full production
// list: good enough to inspect what the parser built, not a spec'd format.
func ClassToXML(class Class) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<class name=%q>\n", class.Name))

	for _, field := range class.Fields.Entries() {
		writeVarDec(&sb, 1, field)
	}
	for _, sub := range class.Subroutines.Entries() {
		writeSubroutineDec(&sb, 1, sub)
	}

	sb.WriteString("</class>\n")
	return sb.String()
}

func indent(sb *strings.Builder, depth int) { sb.WriteString(strings.Repeat("  ", depth)) }

func writeVarDec(sb *strings.Builder, depth int, v Variable) {
	indent(sb, depth)
	sb.WriteString(fmt.Sprintf("<var kind=%q type=%q name=%q/>\n", v.Type, dataTypeLabel(v), v.Name))
}

func dataTypeLabel(v Variable) string {
	if v.DataType == Object {
		return v.ClassName
	}
	return string(v.DataType)
}

func writeSubroutineDec(sb *strings.Builder, depth int, sub Subroutine) {
	indent(sb, depth)
	sb.WriteString(fmt.Sprintf("<subroutineDec kind=%q name=%q return=%q>\n", sub.Type, sub.Name, sub.Return))

	indent(sb, depth+1)
	sb.WriteString("<parameters>\n")
	for _, arg := range sub.Arguments {
		writeVarDec(sb, depth+2, arg)
	}
	indent(sb, depth+1)
	sb.WriteString("</parameters>\n")

	indent(sb, depth+1)
	sb.WriteString("<body>\n")
	for _, stmt := range sub.Statements {
		writeStatement(sb, depth+2, stmt)
	}
	indent(sb, depth+1)
	sb.WriteString("</body>\n")

	indent(sb, depth)
	sb.WriteString("</subroutineDec>\n")
}

func writeStatement(sb *strings.Builder, depth int, stmt Statement) {
	switch s := stmt.(type) {
	case VarStmt:
		indent(sb, depth)
		sb.WriteString("<varStatement>\n")
		for _, v := range s.Vars {
			writeVarDec(sb, depth+1, v)
		}
		indent(sb, depth)
		sb.WriteString("</varStatement>\n")

	case LetStmt:
		indent(sb, depth)
		sb.WriteString("<letStatement>\n")
		writeExpression(sb, depth+1, "lhs", s.Lhs)
		writeExpression(sb, depth+1, "rhs", s.Rhs)
		indent(sb, depth)
		sb.WriteString("</letStatement>\n")

	case IfStmt:
		indent(sb, depth)
		sb.WriteString("<ifStatement>\n")
		writeExpression(sb, depth+1, "condition", s.Condition)
		indent(sb, depth+1)
		sb.WriteString("<then>\n")
		for _, inner := range s.ThenBlock {
			writeStatement(sb, depth+2, inner)
		}
		indent(sb, depth+1)
		sb.WriteString("</then>\n")
		if len(s.ElseBlock) > 0 {
			indent(sb, depth+1)
			sb.WriteString("<else>\n")
			for _, inner := range s.ElseBlock {
				writeStatement(sb, depth+2, inner)
			}
			indent(sb, depth+1)
			sb.WriteString("</else>\n")
		}
		indent(sb, depth)
		sb.WriteString("</ifStatement>\n")

	case WhileStmt:
		indent(sb, depth)
		sb.WriteString("<whileStatement>\n")
		writeExpression(sb, depth+1, "condition", s.Condition)
		for _, inner := range s.Block {
			writeStatement(sb, depth+1, inner)
		}
		indent(sb, depth)
		sb.WriteString("</whileStatement>\n")

	case DoStmt:
		indent(sb, depth)
		sb.WriteString("<doStatement>\n")
		writeExpression(sb, depth+1, "call", s.FuncCall)
		indent(sb, depth)
		sb.WriteString("</doStatement>\n")

	case ReturnStmt:
		indent(sb, depth)
		sb.WriteString("<returnStatement>\n")
		if s.Expr != nil {
			writeExpression(sb, depth+1, "value", s.Expr)
		}
		indent(sb, depth)
		sb.WriteString("</returnStatement>\n")

	default:
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("<unknownStatement type=%q/>\n", fmt.Sprintf("%T", stmt)))
	}
}

func writeExpression(sb *strings.Builder, depth int, tag string, expr Expression) {
	indent(sb, depth)
	switch e := expr.(type) {
	case VarExpr:
		sb.WriteString(fmt.Sprintf("<%s var=%q/>\n", tag, e.Var))

	case LiteralExpr:
		sb.WriteString(fmt.Sprintf("<%s literal=%q value=%q/>\n", tag, e.Type, e.Value))

	case ArrayExpr:
		sb.WriteString(fmt.Sprintf("<%s var=%q>\n", tag, e.Var))
		writeExpression(sb, depth+1, "index", e.Index)
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("</%s>\n", tag))

	case UnaryExpr:
		sb.WriteString(fmt.Sprintf("<%s op=%q>\n", tag, e.Type))
		writeExpression(sb, depth+1, "rhs", e.Rhs)
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("</%s>\n", tag))

	case BinaryExpr:
		sb.WriteString(fmt.Sprintf("<%s op=%q>\n", tag, e.Type))
		writeExpression(sb, depth+1, "lhs", e.Lhs)
		writeExpression(sb, depth+1, "rhs", e.Rhs)
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("</%s>\n", tag))

	case FuncCallExpr:
		name := e.FuncName
		if e.Var != "" {
			name = e.Var + "." + e.FuncName
		}
		sb.WriteString(fmt.Sprintf("<%s call=%q argc=%s>\n", tag, name, strconv.Itoa(len(e.Arguments))))
		for idx, arg := range e.Arguments {
			writeExpression(sb, depth+1, fmt.Sprintf("arg%d", idx), arg)
		}
		indent(sb, depth)
		sb.WriteString(fmt.Sprintf("</%s>\n", tag))

	default:
		sb.WriteString(fmt.Sprintf("<%s unknown=%q/>\n", tag, fmt.Sprintf("%T", expr)))
	}
}
