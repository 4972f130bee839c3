package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user for input missing from the command line.
type Prompter interface {
	// Prompt reads one line of visible input.
	Prompt(label string) (string, error)

	// Password reads one line without echo when possible.
	Password(label string) (string, error)
}

// ErrNoInput is returned when input ends before a value is read.
var ErrNoInput = errors.New("no input")

// TermPrompter prompts on a terminal. When in is not a terminal, passwords
// are read like any other line.
type TermPrompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewTermPrompter creates a prompter reading from in and writing labels to out.
func NewTermPrompter(in *os.File, out io.Writer) *TermPrompter {
	return &TermPrompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// Prompt implements Prompter.
func (p *TermPrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.reader.ReadString('\n')
	if err == io.EOF && line == "" {
		return "", ErrNoInput
	}
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password implements Prompter.
func (p *TermPrompter) Password(label string) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return p.Prompt(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
