package notify

import (
	"context"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ReadlinePrompter asks a yes/no question on the terminal. It is meant to
// run before the full-screen UI takes over the terminal.
type ReadlinePrompter struct {
	Stdin  io.ReadCloser
	Stdout io.Writer
}

func (p ReadlinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	cfg := &readline.Config{
		Prompt:          question + " [y/N]: ",
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	}
	if p.Stdin != nil {
		cfg.Stdin = p.Stdin
	}
	if p.Stdout != nil {
		cfg.Stdout = p.Stdout
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return false, err
	}
	defer rl.Close()

	type answer struct {
		line string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		line, err := rl.Readline()
		done <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-done:
		if a.err == io.EOF || a.err == readline.ErrInterrupt {
			return false, nil
		}
		if a.err != nil {
			return false, a.err
		}
		return isYes(a.line), nil
	}
}

func isYes(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "1", "true", "on":
		return true
	default:
		return false
	}
}
