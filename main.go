package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"tacvm/chunk"
	"tacvm/compiler"
	"tacvm/disasm"
	"tacvm/vm"
)

const version = "0.1.0"
const prompt = ">>> "

var (
	traceExecution = flag.Bool("t", false, "trace each instruction to stderr as it executes")
	disassemble    = flag.Bool("disassemble", false, "print the compiled chunk and exit, without running it")
)

func main() {
	flag.Usage = printUsage
	flag.BoolVar(traceExecution, "trace-execution", false, "same as -t")
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		printUsage()
		os.Exit(64)
	}

	if len(args) == 1 {
		os.Exit(runFile(args[0]))
	}
	os.Exit(repl(os.Stdin, os.Stdout, os.Stderr))
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "tacvm %s — a three-address-code interpreter\n\n", version)
	fmt.Fprintln(os.Stderr, "usage: tacvm [-t] [-disassemble] [script]")
	flag.PrintDefaults()
}

// runFile reads path once and feeds its full contents to the VM a
// single time, the same contract as this interpreter's original
// file runner: every statement shares one compile pass.
func runFile(path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tacvm: could not read %s: %s\n", path, err)
		return 74
	}

	if *disassemble {
		return disassembleOnly(path, string(content), os.Stdout, os.Stderr)
	}

	v := vm.New(os.Stdout, os.Stderr)
	v.SetTraceExecution(*traceExecution)

	if err := v.Interpret(string(content)); err != nil {
		return exitCodeFor(err)
	}
	return 0
}

// repl reads one line at a time and interprets each independently:
// labels and gotos never span two lines typed separately at the
// prompt, matching the behavior of the REPL this is ported from.
func repl(in io.Reader, out, errOut io.Writer) int {
	fmt.Fprintf(out, "tacvm %s\n", version)

	v := vm.New(out, errOut)
	v.SetTraceExecution(*traceExecution)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, prompt)
		if !sc.Scan() {
			return 0
		}

		line := sc.Text()
		if line == "" {
			continue
		}

		if *disassemble {
			disassembleOnly("repl", line, out, errOut)
			continue
		}

		// Errors here are already reported to errOut by Interpret; the
		// REPL keeps going so one bad line doesn't end the session.
		_ = v.Interpret(line)
	}
}

func disassembleOnly(name, source string, out, errOut io.Writer) int {
	c := chunk.New()
	if err := compiler.Compile(source, c, errOut); err != nil {
		return exitCodeFor(err)
	}
	disasm.Chunk(out, c, name)
	return 0
}

// exitCodeFor follows the sysexits.h convention this interpreter's
// runtime errors are modeled on: 65 for a rejected program (compile
// error), 70 for an internal software error discovered at runtime.
func exitCodeFor(err error) int {
	if errors.Is(err, compiler.ErrCompile) {
		return 65
	}
	if _, ok := errors.Cause(err).(*vm.RuntimeError); ok {
		return 70
	}
	return 70
}
