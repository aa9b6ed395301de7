package vault

import (
	"errors"
	"fmt"
)

var (
	ErrFormat     = errors.New("vault: malformed store file")
	ErrAuthFailed = errors.New("vault: authentication failed")
	ErrIO         = errors.New("vault: i/o failure")
	ErrCrypto     = errors.New("vault: crypto primitive misuse")

	ErrNotInitialized     = errors.New("vault: no master passphrase set")
	ErrAlreadyInitialized = errors.New("vault: master passphrase already set")
	ErrNotFound           = errors.New("vault: entry not found")
	ErrSessionClosed      = errors.New("vault: session destroyed")

	errMissingKDFSalt = errors.New("kdf salt missing")
	errBadKDFParams   = errors.New("kdf parameters must be positive")
	errKDFTooCostly   = errors.New("kdf parameters exceed limits")
	errBadNonce       = errors.New("nonce has wrong length")
	errBadKeyLen      = errors.New("key must be 32 bytes")
	errBadTextLen     = errors.New("text length out of range")

	errIncorrectPassphrase = errors.New("incorrect passphrase")
	errPartialVerifier     = errors.New("verifier, verifier salt and kdf must be set together")
	errBadVerifier         = errors.New("verifier must be 32 bytes with a non-empty salt")
	errMissingCiphertext   = errors.New("password ciphertext missing")
)

// Error pairs one of the sentinel kinds above with the operation that
// failed and its underlying cause. errors.Is matches both Kind and Err.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}
