package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// stdinLines is shared so consecutive reads from a pipe do not lose buffered input.
var stdinLines *bufio.Scanner

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readSecret reads one line from stdin without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	if stdinIsTerminal() {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes: one secret per line.
	if stdinLines == nil {
		stdinLines = bufio.NewScanner(os.Stdin)
	}
	if stdinLines.Scan() {
		return strings.TrimRight(stdinLines.Text(), "\r"), nil
	}
	if err := stdinLines.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// runForm runs an interactive form; an aborted form is reported as such.
func runForm(fields ...huh.Field) error {
	err := huh.NewForm(huh.NewGroup(fields...)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("canceled")
	}
	return err
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
