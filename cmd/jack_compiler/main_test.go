package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pointJack = `
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
}
`

const mainJack = `
class Main {
	function void main() {
		var Point p;
		let p = Point.new(1, 2);
		do Output.printInt(p.getX());
		return;
	}
}
`

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Point.jack"), []byte(pointJack), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main.jack"), []byte(mainJack), 0644))
}

func TestJackCompilerCompileMode(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	status := Handler([]string{dir}, map[string]string{})
	require.Equal(t, 0, status, "unexpected exit status code")

	pointVm, err := os.ReadFile(filepath.Join(dir, "Point.vm"))
	require.NoError(t, err, "reading Point.vm")
	assert.Contains(t, string(pointVm), "function Point.new")
	assert.Contains(t, string(pointVm), "call Memory.alloc 1", "constructor should allocate memory for its fields")

	mainVm, err := os.ReadFile(filepath.Join(dir, "Main.vm"))
	require.NoError(t, err, "reading Main.vm")
	assert.Contains(t, string(mainVm), "call Point.new 2")
}

func TestJackCompilerCompileModeIsDefault(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	// Passing 'compile' explicitly gives the same output as omitting the mode (see TestJackCompilerCompileMode).
	status := Handler([]string{"compile", dir}, map[string]string{})
	require.Equal(t, 0, status, "unexpected exit status code")
	_, err := os.Stat(filepath.Join(dir, "Main.vm"))
	assert.NoError(t, err, "expected Main.vm to be generated")
}

func TestJackCompilerTokensMode(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	status := Handler([]string{"tokens", dir}, map[string]string{})
	require.Equal(t, 0, status, "unexpected exit status code")

	content, err := os.ReadFile(filepath.Join(dir, "Point_tokens.xml"))
	require.NoError(t, err, "reading Point_tokens.xml")
	xml := string(content)
	assert.Contains(t, xml, "<tokens>")
	assert.Contains(t, xml, "</tokens>")
	assert.Contains(t, xml, "<keyword> class </keyword>", "leading 'class' keyword token")

	// 'tokens' mode is diagnostic only, it must never produce VM output.
	_, err = os.Stat(filepath.Join(dir, "Point.vm"))
	assert.Error(t, err, "expected no .vm output in 'tokens' mode")
}

func TestJackCompilerParseMode(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	status := Handler([]string{"parse", dir}, map[string]string{})
	require.Equal(t, 0, status, "unexpected exit status code")

	content, err := os.ReadFile(filepath.Join(dir, "Point_ast.xml"))
	require.NoError(t, err, "reading Point_ast.xml")
	assert.Contains(t, string(content), `<class name="Point">`)

	_, err = os.Stat(filepath.Join(dir, "Point.vm"))
	assert.Error(t, err, "expected no .vm output in 'parse' mode")
}

func TestJackCompilerOutputDirOption(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(outDir, 0755), "creating output directory")

	status := Handler([]string{dir}, map[string]string{"o": outDir})
	require.Equal(t, 0, status, "unexpected exit status code")
	_, err := os.Stat(filepath.Join(outDir, "Main.vm"))
	assert.NoError(t, err, "expected Main.vm to be generated in the '-o' directory")
}

func TestJackCompilerNoArgumentsFails(t *testing.T) {
	status := Handler([]string{}, map[string]string{})
	assert.NotEqual(t, 0, status, "expected a non-zero exit status with no arguments")
}
