package jack_test

import (
	"testing"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func TestTokenize(t *testing.T) {
	test := func(src string, expected []jack.Token, fail bool) {
		tokens, err := jack.Tokenize([]byte(src))
		if err != nil && !fail {
			t.Fatalf("expected to tokenize %q, got error: %v", src, err)
		}
		if err != nil {
			return
		}

		// 'Tokenize' always appends a trailing TokEOF, the 'expected' slice does not.
		if len(tokens) != len(expected)+1 {
			t.Fatalf("expected %d tokens (+EOF), got %d: %+v", len(expected), len(tokens)-1, tokens)
		}
		for i, exp := range expected {
			if tokens[i].Type != exp.Type || tokens[i].Value != exp.Value {
				t.Errorf("token %d: expected %+v, got %+v", i, exp, tokens[i])
			}
		}
		if tokens[len(tokens)-1].Type != jack.TokEOF {
			t.Errorf("expected trailing EOF token, got %+v", tokens[len(tokens)-1])
		}
	}

	t.Run("Keywords and symbols", func(t *testing.T) {
		test("class Main { }", []jack.Token{
			{Type: jack.TokKeyword, Value: "class"},
			{Type: jack.TokIdent, Value: "Main"},
			{Type: jack.TokSymbol, Value: "{"},
			{Type: jack.TokSymbol, Value: "}"},
		}, false)
	})

	t.Run("Int literals", func(t *testing.T) {
		test("0 1 32767", []jack.Token{
			{Type: jack.TokInt, Value: "0"},
			{Type: jack.TokInt, Value: "1"},
			{Type: jack.TokInt, Value: "32767"},
		}, false)

		test("007", nil, true)   // HeadZero
		test("32768", nil, true) // IntOverflow
	})

	t.Run("String literals", func(t *testing.T) {
		test(`"hello world"`, []jack.Token{{Type: jack.TokString, Value: "hello world"}}, false)
		test("\"unterminated", nil, true)
		test("\"broken\nstring\"", nil, true) // newline inside a string literal is not allowed
	})

	t.Run("Comments and whitespace are skipped", func(t *testing.T) {
		test("// a line comment\nlet /* inline */ x = 1;", []jack.Token{
			{Type: jack.TokKeyword, Value: "let"},
			{Type: jack.TokIdent, Value: "x"},
			{Type: jack.TokSymbol, Value: "="},
			{Type: jack.TokInt, Value: "1"},
			{Type: jack.TokSymbol, Value: ";"},
		}, false)

		test("/* unterminated comment", nil, true)
	})

	t.Run("Invalid characters", func(t *testing.T) {
		test("let x = 1 @ 2;", nil, true)
	})
}

func TestLexerLocations(t *testing.T) {
	tokens, err := jack.Tokenize([]byte("let\nx = 1;"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 'x' starts the second line, first column
	for _, tok := range tokens {
		if tok.Value == "x" && (tok.Loc.Row != 2 || tok.Loc.Col != 1) {
			t.Errorf("expected 'x' at 2:1, got %s", tok.Loc)
		}
	}
}
