package participant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Console is a local human participant reading from an interactive
// stream, typically stdin. Invalid input is re-prompted indefinitely.
type Console struct {
	name  string
	out   io.Writer
	lines chan string
}

var _ Participant = (*Console)(nil)

// NewConsole creates a console participant. A background goroutine owns
// the reader so that blocking calls stay cancellable; it exits when the
// reader is exhausted.
func NewConsole(name string, in io.Reader, out io.Writer) *Console {
	c := &Console{
		name:  name,
		out:   out,
		lines: make(chan string),
	}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()
	return c
}

func (c *Console) Name() string { return c.name }

// Choose prompts until the reply is a listed option, a 1-based index into
// the displayed options, or "skip" when allowed.
func (c *Console) Choose(ctx context.Context, prompt string, options []string, allowSkip bool) (string, error) {
	display := append([]string(nil), options...)
	if allowSkip {
		display = append(display, Skip)
	}

	for {
		fmt.Fprintln(c.out, prompt)
		for i, opt := range display {
			fmt.Fprintf(c.out, "  %d. %s\n", i+1, opt)
		}
		fmt.Fprint(c.out, "> ")

		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		input := strings.TrimSpace(line)
		lower := strings.ToLower(input)

		if idx, err := strconv.Atoi(input); err == nil && idx >= 1 && idx <= len(display) {
			return display[idx-1], nil
		}
		if allowSkip && lower == Skip {
			return Skip, nil
		}
		matched := ""
		for _, opt := range options {
			if strings.ToLower(opt) == lower {
				matched = opt
				break
			}
		}
		if matched != "" {
			return matched, nil
		}
		fmt.Fprintln(c.out, "Invalid choice, try again.")
	}
}

func (c *Console) Speak(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	return c.readLine(ctx)
}

func (c *Console) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ErrCancelled
	case line, ok := <-c.lines:
		if !ok {
			// Input stream closed under us; treat like cancellation so
			// the engine shuts the session down in order.
			return "", ErrCancelled
		}
		return line, nil
	}
}
