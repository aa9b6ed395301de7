package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fahmaliyi/passvault/vault"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// EnsureDir creates the vault directory with owner-only permissions.
func EnsureDir(dir string) error {
	return errors.Wrapf(os.MkdirAll(dir, 0700), "create %s", dir)
}

// SecretReader reads one secret, prompting on out. On a terminal echo is
// disabled; otherwise one line is taken from in with only its line
// terminator removed. No other trimming is applied.
type SecretReader func(prompt string) ([]byte, error)

func NewSecretReader(in *bufio.Reader, out io.Writer, fd int, isTerminal bool) SecretReader {
	return func(prompt string) ([]byte, error) {
		fmt.Fprint(out, prompt)
		if isTerminal {
			pw, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return pw, errors.Wrap(err, "read passphrase")
		}
		line, err := in.ReadBytes('\n')
		if err != nil && (err != io.EOF || len(line) == 0) {
			return nil, errors.Wrap(err, "read passphrase")
		}
		return trimEOL(line), nil
	}
}

// StdinSecretReader reads from os.Stdin, masking input when it is a
// terminal.
func StdinSecretReader(in *bufio.Reader, out io.Writer) SecretReader {
	fd := int(os.Stdin.Fd())
	return NewSecretReader(in, out, fd, term.IsTerminal(fd))
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	return bytes.TrimSuffix(b, []byte("\r"))
}

// PromptNewPassphrase asks twice and compares the raw inputs.
func PromptNewPassphrase(read SecretReader) ([]byte, error) {
	first, err := read("Set master passphrase: ")
	if err != nil {
		return nil, err
	}
	second, err := read("Confirm master passphrase: ")
	if err != nil {
		vault.Zero(first)
		return nil, err
	}
	defer vault.Zero(second)
	if !bytes.Equal(first, second) {
		vault.Zero(first)
		return nil, ErrPassphraseMismatch
	}
	return first, nil
}

// await runs fn on its own goroutine so a cancelled ctx can abandon a
// blocked read. Only one read is ever in flight.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
