package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"
	"its-hmny.dev/nand2tetris/pkg/asm"
	"its-hmny.dev/nand2tetris/pkg/vm"
)

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// Single positional argument: either a single .vm file or a directory of them.
	WithArg(cli.NewArg("input", "The bytecode (.vm) file or directory to be compiled")).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Forces the bootstrap prelude to be emitted").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("no-bootstrap", "Forces the bootstrap prelude to be omitted").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	// Allocates a 'vm.Program' struct to save all the parsed translation unit
	// (the .vm files) that will be parsed and lowered independently and then
	// sent to the codegen phases (that will create a monolithic compiled output).
	program := vm.Program{}

	info, err := os.Stat(args[0])
	if err != nil {
		fmt.Printf("ERROR: Unable to stat input path: %s\n", err)
		return -1
	}

	// A directory combines every '.vm' file found directly within it into a single
	// program; a bare file is translated on its own. This mirrors how a real Jack
	// build directory (one .vm per class) is meant to be assembled as a whole.
	inputs := []string{}
	defaultOutput, bootstrapDefault := "", false

	if info.IsDir() {
		entries, err := os.ReadDir(args[0])
		if err != nil {
			fmt.Printf("ERROR: Unable to read input directory: %s\n", err)
			return -1
		}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".vm" {
				inputs = append(inputs, filepath.Join(args[0], entry.Name()))
			}
		}

		dirName := filepath.Base(strings.TrimRight(args[0], "/"))
		defaultOutput = filepath.Join(args[0], dirName+".asm")
		bootstrapDefault = true
	} else {
		inputs = append(inputs, args[0])
		defaultOutput = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".asm"
		bootstrapDefault = false
	}

	// For every file provided (or discovered) we do the following things
	for _, input := range inputs {
		content, err := os.ReadFile(input)
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Parses the input file content and extract an AST (as a 'vm.Module') from it.
		program[strings.TrimSuffix(path.Base(input), path.Ext(input))], err = parser.Parse()
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
			return -1
		}
	}

	// Instantiate a lowerer to convert the program from Vm to Asm
	lowerer := vm.NewLowerer(program)
	// Lowers the vm.Program to an in-memory/IR representation of its Asm counterpart 'asm.Program'.
	asmProgram, err := lowerer.Lower()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lowering' pass: %s\n", err)
		return -1
	}

	// The directory case always bootstraps; the file case never does by default.
	// Both '--bootstrap' and '--no-bootstrap' are explicit overrides of that default.
	bootstrap := bootstrapDefault
	if _, forced := options["bootstrap"]; forced {
		bootstrap = true
	}
	if _, forced := options["no-bootstrap"]; forced {
		bootstrap = false
	}

	// When bootstrapping, prepends the following instructions to the final program:
	// - Sets the Stack Pointer to its base location at memory location 256
	// - Jump to the Sys.init function that (defined by the one of the 'vm.Module')
	if bootstrap {
		asmProgram = append([]asm.Instruction{
			asm.AInstruction{Location: "256"},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: "SP"},
			asm.CInstruction{Dest: "M", Comp: "D"},
			asm.AInstruction{Location: "Sys.init"},
			asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, asmProgram...)
	}

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'codegen' pass: %s\n", err)
		return -1
	}

	outputPath := defaultOutput
	if given, set := options["output"]; set && given != "" {
		outputPath = given
	}

	output, err := os.Create(outputPath)
	if err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	defer output.Close()

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
