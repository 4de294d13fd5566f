package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errNoInput = errors.New("no input")

// readLine prints prompt and returns the next trimmed line from scanner.
func readLine(scanner *bufio.Scanner, prompt string) (string, error) {
	printlnFn(prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(scanner.Text())
	if line == "" {
		return "", errNoInput
	}
	return line, nil
}

// readSecret reads a password from the terminal without echo.
func readSecret(prompt string) (string, error) {
	printlnFn(prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
