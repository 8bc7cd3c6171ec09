package repl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func upper(_ context.Context, line string) (string, error) {
	if line == "fail" {
		return "", errors.New("eval failed")
	}
	return strings.ToUpper(line), nil
}

func run(t *testing.T, input string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithIO(strings.NewReader(input), &out), WithPrompt("")}, opts...)
	if err := New(upper, opts...).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return out.String()
}

func TestREPL_Run_Exit(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"quit command", "/quit\nafter\n"},
		{"exit command", "/exit\nafter\n"},
		{"EOF", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := run(t, tt.input); strings.Contains(out, "AFTER") {
				t.Errorf("line after quit was evaluated: %q", out)
			}
		})
	}
}

func TestREPL_Run_Evaluates(t *testing.T) {
	out := run(t, "hello\n\n\nworld")
	if !strings.Contains(out, "HELLO\n") || !strings.Contains(out, "WORLD\n") {
		t.Errorf("output = %q", out)
	}
}

func TestREPL_Run_ErrorsContinue(t *testing.T) {
	out := run(t, "fail\nok\n")
	if !strings.Contains(out, "error: eval failed") {
		t.Errorf("missing error line: %q", out)
	}
	if !strings.Contains(out, "OK") {
		t.Errorf("loop stopped after error: %q", out)
	}
}

func TestREPL_Commands(t *testing.T) {
	var gotArgs []string
	cmd := Command{
		Name:  "close",
		Usage: "close the conversation",
		Run: func(_ context.Context, args []string) (string, error) {
			gotArgs = args
			return "closed", nil
		},
	}

	out := run(t, "/close now please\n/clo\n/zzz\n/help\n", WithCommand(cmd))

	if strings.Join(gotArgs, " ") != "now please" {
		t.Errorf("args = %v", gotArgs)
	}
	if !strings.Contains(out, "closed") {
		t.Errorf("command output missing: %q", out)
	}
	if !strings.Contains(out, "did you mean /close?") {
		t.Errorf("no suggestion for /clo: %q", out)
	}
	if !strings.Contains(out, "unknown command /zzz, try /help") {
		t.Errorf("unknown command message missing: %q", out)
	}
	if !strings.Contains(out, "close the conversation") {
		t.Errorf("help does not list commands: %q", out)
	}
}

func TestREPL_Prompt(t *testing.T) {
	var out bytes.Buffer
	r := New(upper, WithIO(strings.NewReader("a\n"), &out))
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "seqlink> ") {
		t.Errorf("output = %q, want default prompt", out.String())
	}
}

func TestREPL_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	r := New(upper, WithIO(strings.NewReader("never\n"), &out), WithPrompt(""))
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "NEVER") {
		t.Error("evaluated input after cancellation")
	}
}
