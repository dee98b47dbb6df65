package project

import (
	"autotune/common/utils/sys"
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

type GCodeCommand struct {
	command     string
	commandline string
	params      map[string]string
	out         io.Writer
}

func NewGCodeCommand(out io.Writer, command, commandline string, params map[string]string) *GCodeCommand {
	return &GCodeCommand{command: command, commandline: commandline, params: params, out: out}
}

func (self *GCodeCommand) Get_command() string {
	return self.command
}

func (self *GCodeCommand) Get_commandline() string {
	return self.commandline
}

func (self *GCodeCommand) Get_command_parameters() map[string]string {
	return self.params
}

func (self *GCodeCommand) Has(name string) bool {
	_, ok := self.params[strings.ToUpper(name)]
	return ok
}

// Get returns the parameter value; a Sentinel default makes it required.
func (self *GCodeCommand) Get(name string, _default interface{}) string {
	v, ok := self.params[strings.ToUpper(name)]
	if !ok {
		if _, required := _default.(Sentinel); required {
			panic(fmt.Sprintf("Error on '%s': missing %s", self.commandline, name))
		}
		s, _ := _default.(string)
		return s
	}
	return v
}

func (self *GCodeCommand) Get_int(name string, _default interface{}, minval, maxval *int) int {
	if !self.Has(name) {
		if _, required := _default.(Sentinel); required {
			panic(fmt.Sprintf("Error on '%s': missing %s", self.commandline, name))
		}
		ret, _ := _default.(int)
		return ret
	}
	v := self.Get(name, nil)
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		panic(fmt.Sprintf("Error on '%s': unable to parse %s", self.commandline, v))
	}
	if minval != nil && n < *minval {
		panic(fmt.Sprintf("Error on '%s': %s must have minimum of %d", self.commandline, name, *minval))
	}
	if maxval != nil && n > *maxval {
		panic(fmt.Sprintf("Error on '%s': %s must have maximum of %d", self.commandline, name, *maxval))
	}
	return n
}

func (self *GCodeCommand) Respond_info(msg string, log bool) {
	if self.out == nil {
		return
	}
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	fmt.Fprintf(self.out, "// %s\n", strings.Join(lines, "\n// "))
}

type gcode_handler struct {
	fn   func(interface{}) error
	desc string
}

type mux_command struct {
	key    string
	values map[string]func(interface{}) error
}

// GCodeDispatch routes console command lines to registered handlers.
type GCodeDispatch struct {
	out          io.Writer
	handlers     map[string]*gcode_handler
	mux_commands map[string]*mux_command
}

func NewGCodeDispatch(out io.Writer) *GCodeDispatch {
	self := new(GCodeDispatch)
	self.out = out
	self.handlers = make(map[string]*gcode_handler)
	self.mux_commands = make(map[string]*mux_command)
	self.Register_command("HELP", self.cmd_HELP, false, cmd_HELP_help)
	return self
}

func (self *GCodeDispatch) Register_command(cmd string, handler func(interface{}) error, when_not_ready bool, desc string) {
	cmd = strings.ToUpper(cmd)
	if _, ok := self.handlers[cmd]; ok {
		panic(config_errorf("gcode command %s already registered", cmd))
	}
	self.handlers[cmd] = &gcode_handler{fn: handler, desc: desc}
}

// Register_mux_command dispatches cmd on the value of its key parameter.
func (self *GCodeDispatch) Register_mux_command(cmd string, key string, value string, handler func(interface{}) error, desc string) {
	cmd = strings.ToUpper(cmd)
	mux, ok := self.mux_commands[cmd]
	if !ok {
		mux = &mux_command{key: strings.ToUpper(key), values: make(map[string]func(interface{}) error)}
		self.mux_commands[cmd] = mux
		self.Register_command(cmd, func(argv interface{}) error {
			return self.cmd_mux(cmd, argv.(*GCodeCommand))
		}, false, desc)
	}
	if mux.key != strings.ToUpper(key) {
		panic(config_errorf("mux command %s %s %s may have only one key (%s)", cmd, key, value, mux.key))
	}
	if _, ok := mux.values[value]; ok {
		panic(config_errorf("mux command %s %s %s already registered", cmd, key, value))
	}
	mux.values[value] = handler
}

func (self *GCodeDispatch) cmd_mux(command string, gcmd *GCodeCommand) error {
	mux := self.mux_commands[command]
	key_param := gcmd.Get(mux.key, Sentinel{})
	handler, ok := mux.values[key_param]
	if !ok {
		return fmt.Errorf("The value '%s' is not valid for %s", key_param, mux.key)
	}
	return handler(gcmd)
}

// Parse_command_line splits "CMD KEY=VALUE ..." into the command and its
// upper-cased parameter names. Values may be quoted.
func Parse_command_line(line string) (string, map[string]string, error) {
	if i := strings.IndexAny(line, ";#"); i >= 0 {
		line = line[:i]
	}
	words, err := shlex.Split(line)
	if err != nil {
		return "", nil, fmt.Errorf("Malformed command '%s': %v", line, err)
	}
	if len(words) == 0 {
		return "", nil, nil
	}
	params := make(map[string]string)
	for _, word := range words[1:] {
		kv := strings.SplitN(word, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return "", nil, fmt.Errorf("Malformed command '%s': bad parameter '%s'", line, word)
		}
		params[strings.ToUpper(kv[0])] = kv[1]
	}
	return strings.ToUpper(words[0]), params, nil
}

// Run_script_line runs one console line. Handler panics are returned as errors.
func (self *GCodeDispatch) Run_script_line(line string) (err error) {
	defer sys.CatchPanic(&err)
	cmd, params, err := Parse_command_line(line)
	if err != nil || cmd == "" {
		return err
	}
	handler, ok := self.handlers[cmd]
	if !ok {
		return fmt.Errorf("Unknown command:\"%s\"", cmd)
	}
	return handler.fn(NewGCodeCommand(self.out, cmd, strings.TrimSpace(line), params))
}

const cmd_HELP_help = "Report the list of available extended G-Code commands"

func (self *GCodeDispatch) cmd_HELP(argv interface{}) error {
	gcmd := argv.(*GCodeCommand)
	cmds := make([]string, 0, len(self.handlers))
	for cmd := range self.handlers {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	var lines []string
	lines = append(lines, "Available extended commands:")
	for _, cmd := range cmds {
		if desc := self.handlers[cmd].desc; desc != "" {
			lines = append(lines, fmt.Sprintf("%-10s: %s", cmd, desc))
		}
	}
	gcmd.Respond_info(strings.Join(lines, "\n"), true)
	return nil
}

// Run_console runs the lines read from in until EOF or ctx is done. A failing
// command is reported with a "!! " prefix and does not stop the console.
func (self *GCodeDispatch) Run_console(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := self.Run_script_line(scanner.Text()); err != nil {
			fmt.Fprintf(self.out, "!! %s\n", err)
		}
	}
	return scanner.Err()
}
