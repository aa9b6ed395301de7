package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fahmaliyi/passvault/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipedReader(input string) (SecretReader, *bytes.Buffer) {
	in := bufio.NewReader(strings.NewReader(input))
	out := &bytes.Buffer{}
	return NewSecretReader(in, out, -1, false), out
}

// A fresh vault asks for the passphrase twice and sets it.
func TestUnlockFresh(t *testing.T) {
	read, _ := pipedReader("hunter2\nhunter2\n")
	v := vault.Empty()

	sess, fresh, err := Unlock(context.Background(), v, read, io.Discard, testKDF)
	require.NoError(t, err)
	defer sess.Destroy()
	assert.True(t, fresh)
	assert.True(t, v.IsInitialized())

	again, err := v.VerifyPassphrase([]byte("hunter2"))
	require.NoError(t, err)
	again.Destroy()
}

// Mismatched confirmation leaves the vault uninitialized.
func TestUnlockFreshMismatch(t *testing.T) {
	read, _ := pipedReader("hunter2\nhunter3\n")
	v := vault.Empty()

	_, _, err := Unlock(context.Background(), v, read, io.Discard, testKDF)
	assert.ErrorIs(t, err, ErrPassphraseMismatch)
	assert.False(t, v.IsInitialized())
}

// An existing vault verifies the passphrase once.
func TestUnlockExisting(t *testing.T) {
	v := vault.Empty()
	s, err := v.SetPassphrase([]byte("hunter2"), testKDF)
	require.NoError(t, err)
	s.Destroy()

	read, out := pipedReader("hunter2\n")
	sess, fresh, err := Unlock(context.Background(), v, read, io.Discard, testKDF)
	require.NoError(t, err)
	defer sess.Destroy()
	assert.False(t, fresh)
	assert.True(t, sess.Alive())
	assert.Contains(t, out.String(), "Enter master passphrase: ")

	read, _ = pipedReader("wrong\n")
	_, _, err = Unlock(context.Background(), v, read, io.Discard, testKDF)
	assert.ErrorIs(t, err, vault.ErrAuthFailed)
}

// A cancelled context ends a prompt that is still waiting for input.
func TestUnlockCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	read := NewSecretReader(bufio.NewReader(pr), io.Discard, -1, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := Unlock(ctx, vault.Empty(), read, io.Discard, testKDF)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Unlock did not return after cancel")
	}
}

// Restore on a non-terminal state is a no-op.
func TestTerminalStateRestoreNoop(t *testing.T) {
	var ts *TerminalState
	ts.Restore()
	(&TerminalState{fd: -1}).Restore()
}
