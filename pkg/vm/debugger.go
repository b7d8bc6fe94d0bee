package vm

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/emberlang/ember/pkg/interp"
)

// Debugger is the interactive breakpoint prompt `ember run --debug` opens
// whenever a labelled breakpoint nop fires (spec.md §9's
// "debug-breakpoint-via-nop"). This adapts the teacher's bufio.Scanner
// instruction-stepper (kristofer-smog/pkg/vm/debugger.go) to ember's
// cross-object call protocol, where there is no single global `ip` to
// single-step over — breaks are object/program-scoped, not
// instruction-scoped, so the commands inspect the stack and the current
// object's temp registers instead of a flat instruction list.
type Debugger struct {
	vm       *VM
	rl       *readline.Instance
	stepping bool
	disabled map[string]bool // label -> true once the user has "delete"d it
}

// NewDebugger builds a Debugger reading from the process's stdin/stdout
// through a readline.Instance, and wires it into vm's interpreter.
func NewDebugger(vm *VM) (*Debugger, error) {
	rl, err := readline.New("debug> ")
	if err != nil {
		return nil, fmt.Errorf("vm: debugger: %w", err)
	}
	d := &Debugger{vm: vm, rl: rl, disabled: make(map[string]bool)}
	vm.Interp.Breakpoint = d.onBreakpoint
	vm.debugger = d
	return d, nil
}

// Close releases the underlying readline session.
func (d *Debugger) Close() {
	if d.rl != nil {
		d.rl.Close()
	}
}

func (d *Debugger) onBreakpoint(env *interp.Env, programName, label string) {
	if d.disabled[label] {
		return
	}
	if !d.stepping && label == "" {
		return
	}

	fmt.Fprintf(d.rl.Stdout(), "\n=== breakpoint %q in %s (object %s) ===\n", label, programName, d.vm.NameOf(env.Self))
	d.showTemps(env)

	for {
		line, err := d.rl.Readline()
		if err != nil { // Ctrl-D / Ctrl-C
			return
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.stepping = false
			return
		case "step", "s":
			d.stepping = true
			return
		case "temps", "t":
			d.showTemps(env)
		case "stack", "st":
			d.showStack()
		case "object", "o":
			fmt.Fprintf(d.rl.Stdout(), "self=%d name=%s\n", env.Self, d.vm.NameOf(env.Self))
		case "delete", "d":
			d.disabled[label] = true
			fmt.Fprintf(d.rl.Stdout(), "breakpoint %q disabled for the rest of this run\n", label)
			return
		case "quit", "q":
			d.vm.RequestExit()
			return
		default:
			fmt.Fprintf(d.rl.Stdout(), "unknown command: %s (type 'help')\n", fields[0])
		}
	}
}

func (d *Debugger) showTemps(env *interp.Env) {
	fmt.Fprintln(d.rl.Stdout(), "temps:")
	for i, v := range env.Temp {
		fmt.Fprintf(d.rl.Stdout(), "  t[%d] = %s\n", i, v.ToString(d.vm.Pool))
	}
}

func (d *Debugger) showStack() {
	fmt.Fprintf(d.rl.Stdout(), "stack (sp=%d bp=%d):\n", d.vm.Stack.SP(), d.vm.Stack.BP())
	for i := d.vm.Stack.SP() - 1; i >= 0; i-- {
		v := d.vm.Stack.PeekAbs(i)
		fmt.Fprintf(d.rl.Stdout(), "  [%d] %s\n", i, v.ToString(d.vm.Pool))
	}
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.rl.Stdout(), "Debugger commands:")
	fmt.Fprintln(d.rl.Stdout(), "  help, h, ?        show this help")
	fmt.Fprintln(d.rl.Stdout(), "  continue, c       resume execution")
	fmt.Fprintln(d.rl.Stdout(), "  step, s           break again at the very next breakpoint hit")
	fmt.Fprintln(d.rl.Stdout(), "  temps, t          show this activation's temp registers")
	fmt.Fprintln(d.rl.Stdout(), "  stack, st         show the shared value stack")
	fmt.Fprintln(d.rl.Stdout(), "  object, o         show the current object's handle and name")
	fmt.Fprintln(d.rl.Stdout(), "  delete, d         disable this breakpoint for the rest of the run")
	fmt.Fprintln(d.rl.Stdout(), "  quit, q           terminate the VM")
}

// EnableDebugger turns on interactive breakpoints for vm, per `ember run
// --debug`. Returns an error if the terminal can't be put in raw mode
// (e.g. stdin isn't a tty).
func (vm *VM) EnableDebugger() error {
	_, err := NewDebugger(vm)
	return err
}
