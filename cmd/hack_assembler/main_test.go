package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Add.asm: the canonical 'compute 2+3' smoke test, self-contained so this test
// doesn't depend on the course's fixture tree being present on disk.
const addAsm = `@2
D=A
@3
D=D+A
@0
M=D
`

// Max.asm: reads two values from R0/R1, stores the larger one in R2. Exercises
// A-instruction symbol resolution, conditional jumps and label declarations.
const maxAsm = `@0
D=M
@1
D=D-M
@OUTPUT_FIRST
D;JGT
@1
D=M
@OUTPUT_D
0;JMP
(OUTPUT_FIRST)
@0
D=M
(OUTPUT_D)
@2
M=D
`

func TestHackAssembler(t *testing.T) {
	test := func(name, source string, wantLines int) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, name+".asm")
			output := filepath.Join(dir, name+".hack")

			require.NoError(t, os.WriteFile(input, []byte(source), 0644), "writing fixture")

			status := Handler([]string{input, output}, nil)
			require.Equal(t, 0, status, "unexpected exit status code")

			content, err := os.ReadFile(output)
			require.NoError(t, err, "reading output file")

			lines := splitNonEmptyLines(string(content))
			require.Len(t, lines, wantLines, "machine instructions: %v", lines)
			for _, line := range lines {
				if len(line) != 16 {
					t.Errorf("expected a 16 bit binary instruction, got %q (%d bits)", line, len(line))
				}
				for _, c := range line {
					if c != '0' && c != '1' {
						t.Errorf("expected only '0'/'1' characters, got %q", line)
					}
				}
			}
		})
	}

	test("Add", addAsm, 6)
	test("Max", maxAsm, 14)
}

func splitNonEmptyLines(s string) []string {
	lines := []string{}
	start := 0
	for i, c := range s {
		if c == '\n' {
			if line := s[start:i]; line != "" {
				lines = append(lines, line)
			}
			start = i + 1
		}
	}
	if start < len(s) && s[start:] != "" {
		lines = append(lines, s[start:])
	}
	return lines
}
