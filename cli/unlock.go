package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fahmaliyi/passvault/vault"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// Unlock sets the master passphrase of a fresh vault or verifies it on an
// existing one. fresh reports that a new passphrase was set, so the vault
// differs from the file it was loaded from. A cancelled ctx abandons the
// prompt.
func Unlock(ctx context.Context, v *vault.Vault, read SecretReader, out io.Writer, params *vault.KDFParams) (sess *vault.Session, fresh bool, err error) {
	if !v.IsInitialized() {
		fmt.Fprintln(out, "No master passphrase set. Setting up a new one.")
		pass, err := await(ctx, func() ([]byte, error) { return PromptNewPassphrase(read) })
		if err != nil {
			return nil, false, err
		}
		defer vault.Zero(pass)
		sess, err := v.SetPassphrase(pass, params)
		return sess, err == nil, err
	}

	pass, err := await(ctx, func() ([]byte, error) { return read("Enter master passphrase: ") })
	if err != nil {
		return nil, false, err
	}
	defer vault.Zero(pass)
	sess, err = v.VerifyPassphrase(pass)
	return sess, false, errors.Wrap(err, "unlock")
}

// TerminalState holds the stdin terminal mode captured at startup so it
// can be put back when the process exits in the middle of a masked read.
type TerminalState struct {
	fd    int
	state *term.State
}

// SaveTerminal captures the stdin terminal mode. When stdin is not a
// terminal Restore does nothing.
func SaveTerminal() *TerminalState {
	fd := int(os.Stdin.Fd())
	ts := &TerminalState{fd: fd}
	if term.IsTerminal(fd) {
		if st, err := term.GetState(fd); err == nil {
			ts.state = st
		}
	}
	return ts
}

func (t *TerminalState) Restore() {
	if t == nil || t.state == nil {
		return
	}
	_ = term.Restore(t.fd, t.state)
}
