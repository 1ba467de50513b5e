package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readSecret reads a password without echo from a terminal, or one line from
// piped input.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given on stdin")
	}
	return line, nil
}

// readNewSecret is readSecret with a confirmation prompt on terminals
func readNewSecret(cmd *cobra.Command, prompt string) (string, error) {
	pass, err := readSecret(cmd, prompt)
	if err != nil || !isTerminal(cmd.InOrStdin()) {
		return pass, err
	}
	confirm, err := readSecret(cmd, "Confirm: ")
	if err != nil {
		return "", err
	}
	if confirm != pass {
		return "", errors.New("passphrases do not match")
	}
	return pass, nil
}
