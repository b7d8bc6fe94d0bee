package stdlib

import (
	"bufio"
	"fmt"
	"os"

	"github.com/emberlang/ember/pkg/interp"
	"github.com/emberlang/ember/pkg/value"
)

var consoleReader = bufio.NewReader(os.Stdin)

// installConsole binds the Console system object, grounded on
// original_source/runtime/sslib/console.c.
func installConsole(host Host) error {
	binds := []struct {
		name  string
		arity int
		fn    interp.NativeFunc
	}{
		{"print", 1, consolePrint},
		{"write", 1, consoleWrite},
		{"readline", 0, consoleReadline},
	}
	for _, b := range binds {
		if err := host.Bind("Console", b.name, b.arity, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func consolePrint(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	fmt.Println(args[0].ToString(it.Pool))
	return value.Null(), nil
}

func consoleWrite(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	fmt.Print(args[0].ToString(it.Pool))
	return value.Null(), nil
}

func consoleReadline(it *interp.Interpreter, self interp.Handle, args []value.Value) (value.Value, error) {
	line, _ := consoleReader.ReadString('\n')
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return value.String(it.Pool, line), nil
}
