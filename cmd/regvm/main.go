// Package main provides the CLI entry point for regvm.
//
// Usage:
//
//	regvm run program.asm              # Execute an assembly file
//	regvm run program.asm -input d.csv # Seed the input queue from a data file
//	regvm run program.asm -trace       # Print an execution trace afterwards
//	regvm run program.mem -isa mem     # Run a memory-image program
//	regvm repl                         # Interactive console
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/akhildatla/regvm/pkg/isa"
	"github.com/akhildatla/regvm/pkg/loader"
	"github.com/akhildatla/regvm/pkg/repl"
	"github.com/akhildatla/regvm/pkg/trace"
	"github.com/akhildatla/regvm/pkg/vm"
)

// Version info set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	switch cmd := os.Args[1]; cmd {
	case "run":
		return runCommand(os.Args[2:])
	case "repl":
		return replCommand()
	case "version":
		fmt.Printf("regvm version %s\n", version)
		if commit != "none" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if date != "unknown" {
			fmt.Printf("  built:  %s\n", date)
		}
		return nil
	case "help", "-h", "--help":
		return printUsage()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	isaName := fs.String("isa", "basic", "instruction set (basic, mem)")
	big := fs.Bool("big", false, "arbitrary-precision registers and I/O")
	inputFile := fs.String("input", "", "seed the input queue from a CSV/JSON/Parquet file")
	column := fs.String("column", "", "input column name (default: first column)")
	doTrace := fs.Bool("trace", false, "print an execution trace after the run")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: regvm run <file>")
	}

	cfg := vm.Config{BigInt: *big, SuppressUnheardErrors: true}
	switch *isaName {
	case "basic":
		cfg.Parser = isa.Basic()
	case "mem":
		cfg.Parser = isa.Mem()
		cfg.Advance = vm.AdvanceNever
	default:
		return fmt.Errorf("unknown instruction set: %s", *isaName)
	}

	source, err := loader.Source(fs.Arg(0))
	if err != nil {
		return err
	}

	machine := vm.New(cfg)
	if err := machine.Load(source); err != nil {
		return err
	}

	var tr *trace.Tracer
	if *doTrace {
		tr = trace.Attach(machine)
	}

	if *inputFile != "" {
		inputs, err := loader.Inputs(*inputFile, *column)
		if err != nil {
			return err
		}
		for _, in := range inputs {
			if err := machine.EnqueueInput(in); err != nil {
				return err
			}
		}
	}

	if err := machine.Run(); err != nil {
		return err
	}

	for _, v := range machine.DequeueAllOutput() {
		fmt.Printf("%v\n", v)
	}

	switch machine.State() {
	case vm.StateBlocked:
		fmt.Fprintln(os.Stderr, "program blocked awaiting input")
	case vm.StateTerminated:
		if err := machine.Err(); err != nil {
			return fmt.Errorf("program crashed: %w", err)
		}
	}

	if tr != nil {
		fmt.Print(tr.Table())
	}

	return nil
}

func replCommand() error {
	repl.New().Start(os.Stdin, os.Stdout)
	return nil
}

func printUsage() error {
	fmt.Println("regvm - generic register-machine virtual machine")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  regvm run <file> [-isa basic|mem] [-big] [-input data.csv] [-column name] [-trace]")
	fmt.Println("  regvm repl")
	fmt.Println("  regvm version")
	return nil
}
