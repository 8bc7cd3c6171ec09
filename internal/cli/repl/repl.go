package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Evaluator handles one plain input line and returns the text to print.
type Evaluator func(ctx context.Context, line string) (string, error)

// Command is a slash command.
type Command struct {
	Name  string
	Usage string
	Run   func(ctx context.Context, args []string) (string, error)
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	eval      Evaluator
	commands  map[string]Command
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt. An empty prompt prints nothing.
func WithPrompt(p string) Option {
	return func(r *REPL) {
		r.prompt = p
	}
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// WithCommand registers a slash command.
func WithCommand(cmd Command) Option {
	return func(r *REPL) {
		r.commands[cmd.Name] = cmd
	}
}

// New creates a new REPL instance.
func New(eval Evaluator, opts ...Option) *REPL {
	r := &REPL{
		input:    os.Stdin,
		output:   os.Stdout,
		prompt:   "seqlink> ",
		eval:     eval,
		commands: make(map[string]Command),
		history:  NewHistory("", 0),
	}
	for _, opt := range opts {
		opt(r)
	}

	names := []string{"/help", "/quit", "/exit"}
	for name := range r.commands {
		names = append(names, "/"+name)
	}
	r.completer = NewCompleter(names)
	return r
}

// Run reads lines until EOF, /quit or ctx is done. Evaluation errors are
// printed and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: history not loaded: %v\n", err)
	}
	defer r.history.Save()

	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		line = strings.TrimSpace(line)
		if line == "" {
			if eof {
				fmt.Fprintln(r.output)
				return nil
			}
			continue
		}

		r.history.Add(line)

		quit, execErr := r.execute(ctx, line)
		if execErr != nil {
			fmt.Fprintf(r.output, "error: %v\n", execErr)
		}
		if quit || eof {
			return nil
		}
	}
}

func (r *REPL) execute(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		out, err := r.eval(ctx, line)
		if err != nil {
			return false, err
		}
		if out != "" {
			fmt.Fprintln(r.output, out)
		}
		return false, nil
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch name {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		r.printHelp()
		return false, nil
	}

	cmd, ok := r.commands[strings.TrimPrefix(name, "/")]
	if !ok {
		if s := r.completer.Complete(name); len(s) > 0 {
			return false, fmt.Errorf("unknown command %s (did you mean %s?)", name, strings.Join(s, ", "))
		}
		return false, fmt.Errorf("unknown command %s, try /help", name)
	}
	out, err := cmd.Run(ctx, args)
	if err != nil {
		return false, err
	}
	if out != "" {
		fmt.Fprintln(r.output, out)
	}
	return false, nil
}

func (r *REPL) printHelp() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.output, "Type a message and press enter to send it.")
	for _, name := range names {
		fmt.Fprintf(r.output, "  /%-10s %s\n", name, r.commands[name].Usage)
	}
	fmt.Fprintf(r.output, "  /%-10s %s\n", "help", "show this help")
	fmt.Fprintf(r.output, "  /%-10s %s\n", "quit", "leave the chat")
}
