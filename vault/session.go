package vault

import (
	"github.com/awnumar/memguard"
)

// Session holds the entry key for the lifetime of one unlocked run. The
// key lives in a locked, read-only memguard buffer and is wiped by
// Destroy. A Session is obtained only from SetPassphrase,
// VerifyPassphrase or ChangePassphrase.
type Session struct {
	buf *memguard.LockedBuffer
}

// newSession moves key into protected memory and wipes the source slice.
func newSession(key []byte) *Session {
	buf := memguard.NewBufferFromBytes(key)
	buf.Freeze()
	return &Session{buf: buf}
}

// Alive reports whether the key is still held.
func (s *Session) Alive() bool {
	return s != nil && s.buf != nil && s.buf.IsAlive()
}

// Destroy wipes the key. It is safe to call more than once and on nil.
func (s *Session) Destroy() {
	if s == nil || s.buf == nil {
		return
	}
	s.buf.Destroy()
}

func (s *Session) key() ([]byte, error) {
	if !s.Alive() {
		return nil, ErrSessionClosed
	}
	return s.buf.Bytes(), nil
}

// Seal builds a new Entry under the session key. A nil username stores
// none.
func (s *Session) Seal(password, username []byte) (*Entry, error) {
	k, err := s.key()
	if err != nil {
		return nil, err
	}
	return NewEntry(password, username, k)
}

// Open decrypts e under the session key.
func (s *Session) Open(e *Entry) (*Plaintext, error) {
	k, err := s.key()
	if err != nil {
		return nil, err
	}
	return e.Decrypt(k)
}
