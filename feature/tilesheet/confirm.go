package tilesheet

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer is the human decision channel: the hard gate before any remote
// mutation, plus free-form prompts (sheet sizes for a new family, upload
// warning decisions).
type Confirmer interface {
	// Acknowledge prints the prompt and reports whether the reply is the
	// exact word "continue" (case-insensitive). Anything else aborts.
	Acknowledge(prompt string) (bool, error)
	// ReadLine prints the prompt and returns one trimmed line of input.
	ReadLine(prompt string) (string, error)
}

type stdioConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdioConfirmer returns a Confirmer reading from in and prompting on out.
func NewStdioConfirmer(in io.Reader, out io.Writer) Confirmer {
	return &stdioConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *stdioConfirmer) ReadLine(prompt string) (string, error) {
	fmt.Fprintln(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *stdioConfirmer) Acknowledge(prompt string) (bool, error) {
	line, err := c.ReadLine(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "continue"), nil
}
