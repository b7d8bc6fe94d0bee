// Command ember is the CLI front-end for the runtime in pkg/vm: compile
// and run a script file, or drop into an interactive REPL. This
// restructures the teacher's flag-switch cmd/smog/main.go onto a small
// cobra command tree, the way golang-debug/cmd/viewcore wires cobra for
// its own subcommands.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emberlang/ember/pkg/compiler"
	"github.com/emberlang/ember/pkg/vm"
)

const version = "0.1.0"

var (
	debugFlag     bool
	timelimitFlag float64
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "ember",
		Short:   "ember runs scripts written against the ember runtime",
		Version: version,
	}
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"open the interactive breakpoint debugger on the first labelled break")
	root.PersistentFlags().Float64Var(&timelimitFlag, "timelimit", 0,
		"stop the VM after this many seconds of wall-clock time (0 disables)")

	root.AddCommand(newRunCmd(), newReplCmd(), newDisasmCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file> [-- args...]",
		Short: "compile and run a script file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptArgs := []string{}
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				scriptArgs = args[dash:]
				args = args[:dash]
			}
			if len(args) == 0 {
				return fmt.Errorf("ember: run needs a file")
			}
			return runFile(args[0], scriptArgs)
		},
	}
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "print a bytecode dump of every program a script compiles to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmFile(args[0])
		},
	}
}

// disasmFile compiles path without launching a VM and prints
// bytecode.Disassemble's dump for every object's programs, grounded on
// the teacher's disassembleFile but against this port's per-object
// program list instead of a single flat .sg blob (see DESIGN.md — there
// is no on-disk bytecode format here to load instead).
func disasmFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return err
	}
	unit, err := compiler.Compile(path, string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: compile error: %v\n", err)
		return err
	}
	for _, obj := range unit.Objects {
		fmt.Printf("=== object %q ===\n", obj.Name)
		for _, p := range obj.Programs {
			fmt.Print(vm.Disassemble(p))
		}
	}
	return nil
}

// runFile compiles path, launches a fresh VM, and ticks it to completion,
// matching the teacher's runSourceFile but against ember's Compile/Launch/
// Update cycle instead of smog's single-shot Run.
func runFile(path string, scriptArgs []string) error {
	v := vm.New()
	defer v.Close()
	v.SetScriptArgs(scriptArgs)

	if err := v.Compile(path); err != nil {
		fmt.Fprintf(os.Stderr, "ember: compile error: %v\n", err)
		return err
	}

	if debugFlag {
		if err := v.EnableDebugger(); err != nil {
			fmt.Fprintf(os.Stderr, "ember: can't start debugger: %v\n", err)
			return err
		}
	}

	if err := v.Launch(); err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return err
	}

	stop := watchdog(v, timelimitFlag)
	defer stop()

	for {
		active, err := v.Update()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ember: runtime error: %v\n", err)
			return err
		}
		if !active {
			return nil
		}
	}
}

// watchdog runs RequestExit after seconds of wall-clock time, on its own
// goroutine managed by an errgroup.Group so the caller can wait for it to
// unwind cleanly. A zero seconds disables it. The returned func must be
// called once Update stops being called, to let the goroutine exit
// instead of leaking past the run.
func watchdog(v *vm.VM, seconds float64) func() {
	if seconds <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		select {
		case <-time.After(time.Duration(seconds * float64(time.Second))):
			v.RequestExit()
		case <-done:
		}
		return nil
	})
	return func() {
		close(done)
		g.Wait()
	}
}

// runREPL reads one object declaration at a time, terminated by a blank
// line, and runs it to completion in its own VM. ember's grammar has no
// bare-expression production the way smog's Smalltalk-flavoured REPL did
// (spec.md's program is object_decl*), so a line that doesn't already
// start with "object" is wrapped in a throwaway one with a single "main"
// state, the same shape every script file has at its top level.
func runREPL() error {
	fmt.Printf("ember repl v%s\n", version)
	fmt.Println("enter an object declaration, or a bare statement to run inside one; blank line submits, :quit exits")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	n := 0

	prompt := func() {
		if buf.Len() == 0 {
			fmt.Print("ember> ")
		} else {
			fmt.Print("   ...> ")
		}
	}

	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if buf.Len() == 0 {
			switch trimmed {
			case ":quit", ":exit":
				return nil
			case "":
				prompt()
				continue
			}
		}

		if trimmed == "" {
			n++
			evalREPL(fmt.Sprintf("repl-%d", n), buf.String())
			buf.Reset()
			prompt()
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		prompt()
	}
	return scanner.Err()
}

func evalREPL(unitName, input string) {
	source := input
	if !strings.HasPrefix(strings.TrimSpace(input), "object") {
		source = fmt.Sprintf("object \"REPL\" {\n  state \"main\" {\n%s\n    Application.exit();\n  }\n}\n", input)
	}

	v := vm.New()
	defer v.Close()

	if err := v.CompileSource(unitName, source); err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		return
	}
	if err := v.Launch(); err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return
	}
	for {
		active, err := v.Update()
		if err != nil {
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
			return
		}
		if !active {
			return
		}
	}
}
