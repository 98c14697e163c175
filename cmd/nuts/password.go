package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/drobin/nuts-go/container"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

// passwordCallback builds the container.PasswordCallback the precedence
// order described for cmd/nuts demands: --password-from-fd wins over
// --password-from-file, which wins over an interactive TTY prompt.
func passwordCallback(c *cli.Context) container.PasswordCallback {
	if fdFlag := c.String("password-from-fd"); fdFlag != "" {
		return func() ([]byte, error) { return readPasswordFromFd(fdFlag) }
	}
	if path := c.String("password-from-file"); path != "" {
		return func() ([]byte, error) { return readPasswordFromFile(path) }
	}
	return readPasswordFromTTY
}

func readPasswordFromFd(fdFlag string) ([]byte, error) {
	fd, err := strconv.Atoi(fdFlag)
	if err != nil {
		return nil, fmt.Errorf("--password-from-fd: %w", err)
	}
	f := os.NewFile(uintptr(fd), "password-fd")
	if f == nil {
		return nil, fmt.Errorf("--password-from-fd %d: not an open file descriptor", fd)
	}
	defer f.Close()
	return readPasswordLine(f)
}

func readPasswordFromFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readPasswordLine(f)
}

func readPasswordLine(f *os.File) ([]byte, error) {
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("password source is empty")
	}
	return []byte(strings.TrimRight(scanner.Text(), "\r\n")), nil
}

func readPasswordFromTTY() ([]byte, error) {
	fmt.Fprint(os.Stderr, "password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}
