package jack_test

import (
	"strings"
	"testing"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func parse(t *testing.T, src string) (jack.Class, error) {
	t.Helper()
	parser, err := jack.NewParser(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error setting up parser: %v", err)
	}
	return parser.Parse()
}

func TestParseClass(t *testing.T) {
	t.Run("Empty class", func(t *testing.T) {
		class, err := parse(t, "class Main { }")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if class.Name != "Main" {
			t.Errorf("expected class name 'Main', got %q", class.Name)
		}
		if class.Fields.Size() != 0 || class.Subroutines.Size() != 0 {
			t.Errorf("expected an empty class, got %+v", class)
		}
	})

	t.Run("Fields and statics", func(t *testing.T) {
		class, err := parse(t, `
			class Point {
				field int x, y;
				static boolean initialized;
			}
		`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if class.Fields.Size() != 3 {
			t.Fatalf("expected 3 fields, got %d", class.Fields.Size())
		}

		x, ok := class.Fields.Get("x")
		if !ok || x.Type != jack.Field || x.DataType != jack.Int {
			t.Errorf("expected field 'x' of type int, got %+v (found=%v)", x, ok)
		}
		initialized, ok := class.Fields.Get("initialized")
		if !ok || initialized.Type != jack.Static || initialized.DataType != jack.Bool {
			t.Errorf("expected static 'initialized' of type boolean, got %+v (found=%v)", initialized, ok)
		}
	})

	t.Run("Redundant trailing tokens fail", func(t *testing.T) {
		if _, err := parse(t, "class Main { } class Other { }"); err == nil {
			t.Error("expected a 'RedundantToken' error, got nil")
		}
	})

	t.Run("Unterminated class fails", func(t *testing.T) {
		if _, err := parse(t, "class Main {"); err == nil {
			t.Error("expected an 'UnexpectedToken' error, got nil")
		}
	})
}

func TestParseSubroutine(t *testing.T) {
	class, err := parse(t, `
		class Point {
			field int x, y;

			constructor Point new(int ax, int ay) {
				let x = ax;
				let y = ay;
				return this;
			}

			method int getX() {
				return x;
			}

			function void main() {
				var Point p;
				let p = Point.new(1, 2);
				do Output.printInt(p.getX());
				return;
			}
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctor, ok := class.Subroutines.Get("new")
	if !ok || ctor.Type != jack.Constructor || len(ctor.Arguments) != 2 {
		t.Fatalf("expected constructor 'new' with 2 arguments, got %+v (found=%v)", ctor, ok)
	}
	if ctor.Arguments[0].Name != "ax" || ctor.Arguments[1].Name != "ay" {
		t.Errorf("expected arguments in declaration order [ax, ay], got %+v", ctor.Arguments)
	}

	getter, ok := class.Subroutines.Get("getX")
	if !ok || getter.Type != jack.Method || getter.Return != jack.Int {
		t.Fatalf("expected method 'getX' returning int, got %+v (found=%v)", getter, ok)
	}

	main, ok := class.Subroutines.Get("main")
	if !ok || main.Type != jack.Function {
		t.Fatalf("expected function 'main', got %+v (found=%v)", main, ok)
	}
	// var p, let, do, return -> 4 statements (the var dec surfaces as a VarStmt)
	if len(main.Statements) != 4 {
		t.Fatalf("expected 4 statements in 'main', got %d: %+v", len(main.Statements), main.Statements)
	}
	if _, isVarStmt := main.Statements[0].(jack.VarStmt); !isVarStmt {
		t.Errorf("expected first statement to be a VarStmt, got %T", main.Statements[0])
	}
}

func TestParseExpressions(t *testing.T) {
	test := func(name, src string, check func(t *testing.T, expr jack.Expression)) {
		t.Run(name, func(t *testing.T) {
			class, err := parse(t, `class Main { function void main() { return `+src+`; } }`)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			main, _ := class.Subroutines.Get("main")
			ret, isReturn := main.Statements[0].(jack.ReturnStmt)
			if !isReturn {
				t.Fatalf("expected a ReturnStmt, got %T", main.Statements[0])
			}
			check(t, ret.Expr)
		})
	}

	test("Integer literal", "42", func(t *testing.T, expr jack.Expression) {
		lit, ok := expr.(jack.LiteralExpr)
		if !ok || lit.Type != jack.Int || lit.Value != "42" {
			t.Errorf("expected LiteralExpr(Int, 42), got %+v", expr)
		}
	})

	test("Single tail binary operator, no precedence climbing", "1 + 2", func(t *testing.T, expr jack.Expression) {
		// No operator precedence: 'term (binop term)?' allows only ONE operator per
		// expression -- a third term ('1 + 2 * 3') would leave '* 3' dangling before
		// the statement's closing ';' and fail to parse, by design.
		bin, ok := expr.(jack.BinaryExpr)
		if !ok || bin.Type != jack.Plus {
			t.Fatalf("expected top-level BinaryExpr(Plus), got %+v", expr)
		}
	})

	t.Run("A second tail operator is a parse error", func(t *testing.T) {
		if _, err := parse(t, `class Main { function void main() { return 1 + 2 * 3; } }`); err == nil {
			t.Error("expected an 'UnexpectedToken' error for the dangling '* 3', got nil")
		}
	})

	test("Unary negation", "-x", func(t *testing.T, expr jack.Expression) {
		un, ok := expr.(jack.UnaryExpr)
		if !ok || un.Type != jack.Minus {
			t.Errorf("expected UnaryExpr(Minus), got %+v", expr)
		}
	})

	test("Array indexing", "arr[1]", func(t *testing.T, expr jack.Expression) {
		arr, ok := expr.(jack.ArrayExpr)
		if !ok || arr.Var != "arr" {
			t.Errorf("expected ArrayExpr(arr), got %+v", expr)
		}
	})

	test("External call", "Output.printInt(1, 2)", func(t *testing.T, expr jack.Expression) {
		call, ok := expr.(jack.FuncCallExpr)
		if !ok || !call.IsExtCall || call.Var != "Output" || call.FuncName != "printInt" || len(call.Arguments) != 2 {
			t.Errorf("expected external call Output.printInt/2, got %+v", expr)
		}
	})

	test("Parenthesized expression", "(1)", func(t *testing.T, expr jack.Expression) {
		lit, ok := expr.(jack.LiteralExpr)
		if !ok || lit.Value != "1" {
			t.Errorf("expected a plain LiteralExpr(1), got %+v", expr)
		}
	})
}

func TestParseIfElseAndWhile(t *testing.T) {
	class, err := parse(t, `
		class Main {
			function void main() {
				if (true) {
					let x = 1;
				} else {
					let x = 2;
				}
				while (x) {
					let x = 0;
				}
				return;
			}
		}
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	main, _ := class.Subroutines.Get("main")
	ifStmt, ok := main.Statements[0].(jack.IfStmt)
	if !ok || len(ifStmt.ThenBlock) != 1 || len(ifStmt.ElseBlock) != 1 {
		t.Fatalf("expected an IfStmt with one statement per branch, got %+v", main.Statements[0])
	}

	whileStmt, ok := main.Statements[1].(jack.WhileStmt)
	if !ok || len(whileStmt.Block) != 1 {
		t.Fatalf("expected a WhileStmt with one statement, got %+v", main.Statements[1])
	}
}
