package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"its-hmny.dev/nand2tetris/pkg/jack"
	"its-hmny.dev/nand2tetris/pkg/vm"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
The Jack Compiler compiles programs (composed of multiple classes/files) written in
the Jack language into VM modules that can be further elaborated. The Jack language
is a higher-level OOP language tailored for use with the Hack computer architecture.
`, "\n", " ")

// modes recognized as the (optional) first positional argument; anything else
// is assumed to be an input path and the mode defaults to 'compile'.
var modes = map[string]bool{"tokens": true, "parse": true, "compile": true}

var JackCompiler = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .jack file, and also lets the
	// leading 'mode' token (tokens|parse|compile) be omitted in favor of the default.
	WithArg(cli.NewArg("inputs", "Optional mode ('tokens'|'parse'|'compile') followed by the source (.jack) files or directories to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("o", "The output directory for generated files (defaults to alongside each input)").
		WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	mode := "compile"
	if modes[args[0]] {
		mode, args = args[0], args[1:]
	}
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// The first is the aggregation of all the Translation Units (TUs) found during the input walk (just the paths)
	// The second is the container of the full program (a basic collection of parsed modules that can be explored)
	// ! While the Jack language spec follows the same semantic as Java every file is a class and every class is a
	// ! jack.Module, that said in future or other language the same could not apply. By TU we identify the source
	// ! that needs to be parsed, by module we identify the biggest entity extractable from said file. In jack this
	// ! a class but for other language it may be a module (Go), a namespace (C#) or just some basic functions (C).
	TUs, program := []string{}, jack.Program{}

	for _, input := range args {
		filepath.Walk(input, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".jack" {
				return nil // We recurse on dirs and ignore other filetypes
			}

			TUs = append(TUs, path)
			return nil
		})
	}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		if mode == "tokens" {
			tokens, err := jack.Tokenize(content)
			if err != nil {
				fmt.Printf("ERROR: Unable to complete 'lexing' pass: %s\n", err)
				return -1
			}
			if err := writeTraceFile(tu, options["o"], "tokens", jack.TokensToXML(tokens)); err != nil {
				fmt.Printf("ERROR: %s\n", err)
				return -1
			}
			continue
		}

		// Instantiate a parser for the Jack program
		parser, err := jack.NewParser(bytes.NewReader(content))
		if err != nil {
			fmt.Printf("ERROR: Unable to setup 'parsing' pass: %s\n", err)
			return -1
		}

		// Removes root directory and file extension to use as module name
		filename, extension := path.Base(tu), path.Ext(tu)
		class, err := parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
		program[strings.TrimSuffix(filename, extension)] = class

		if mode == "parse" {
			if err := writeTraceFile(tu, options["o"], "ast", jack.ClassToXML(class)); err != nil {
				fmt.Printf("ERROR: %s\n", err)
				return -1
			}
		}
	}

	if mode != "compile" {
		return 0 // 'tokens' and 'parse' are diagnostic-only, they never reach codegen
	}

	// Instantiate a lowerer to convert the program from Jack to Vm
	lowerer := jack.NewLowerer(program)
	// Lowers the jack.Program to an in-memory/IR representation of its Vm counterpart 'vm.Program'.
	vmProgram, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	// Now, instantiates a code generator for the Vm (compiled) program
	codegen := vm.NewCodeGenerator(vmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	for _, tu := range TUs {
		// Removes root directory and file extension to use as module name
		filename, extension := path.Base(tu), path.Ext(tu)
		module, ok := compiled[strings.TrimSuffix(filename, extension)]
		if !ok {
			fmt.Printf("ERROR: Unable to compile module for class file '%s'\n", tu)
			return -1
		}

		outPath := fmt.Sprintf("%s.vm", strings.TrimSuffix(tu, extension))
		if outDir := options["o"]; outDir != "" {
			outPath = filepath.Join(outDir, strings.TrimSuffix(filename, extension)+".vm")
		}

		output, err := os.Create(outPath)
		if err != nil {
			fmt.Printf("ERROR: Unable to open output file: %s\n", err)
			return -1
		}
		defer output.Close()

		for _, ops := range module {
			line := fmt.Sprintf("%s\n", ops)
			output.Write([]byte(line))
		}
	}

	return 0
}

// writeTraceFile writes a diagnostic ('tokens'/'parse' mode) output file next to the
// input, or inside outDir (-o) if given, named "<stem>_<kind>.xml".
func writeTraceFile(tu string, outDir string, kind string, content string) error {
	filename, extension := path.Base(tu), path.Ext(tu)
	stem := strings.TrimSuffix(filename, extension)

	outName := fmt.Sprintf("%s_%s.xml", stem, kind)
	outPath := filepath.Join(filepath.Dir(tu), outName)
	if outDir != "" {
		outPath = filepath.Join(outDir, outName)
	}

	output, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("unable to open output file: %w", err)
	}
	defer output.Close()

	_, err = output.WriteString(content)
	return err
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
