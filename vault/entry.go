package vault

// NewEntry seals password, and username when non-nil, under key with one
// freshly drawn nonce.
//
// Both fields share the nonce as separately labelled AEAD messages. The
// nonce is drawn here once per entry; nothing else may set Entry.Nonce.
func NewEntry(password, username, key []byte) (*Entry, error) {
	if len(key) != KeyLen {
		return nil, newError(ErrCrypto, "new entry", errBadKeyLen)
	}
	nonce, err := randBytes(NonceLen)
	if err != nil {
		return nil, newError(ErrCrypto, "new entry", err)
	}

	pct, err := aeadSeal(key, nonce, password, adPassword)
	if err != nil {
		return nil, err
	}
	e := &Entry{PasswordCT: pct, Nonce: nonce}

	if username != nil {
		uct, err := aeadSeal(key, nonce, username, adUsername)
		if err != nil {
			return nil, err
		}
		e.UsernameCT = uct
	}
	return e, nil
}

// HasUsername reports whether the entry was stored with a username.
func (e *Entry) HasUsername() bool {
	return e.UsernameCT != nil
}

// Decrypt opens both ciphertexts. If either fails authentication the
// result is ErrAuthFailed and no plaintext is returned.
func (e *Entry) Decrypt(key []byte) (*Plaintext, error) {
	if len(key) != KeyLen {
		return nil, newError(ErrCrypto, "decrypt entry", errBadKeyLen)
	}
	pw, err := aeadOpen(key, e.Nonce, e.PasswordCT, adPassword)
	if err != nil {
		return nil, err
	}
	out := &Plaintext{Password: nonNil(pw)}

	if e.UsernameCT != nil {
		user, err := aeadOpen(key, e.Nonce, e.UsernameCT, adUsername)
		if err != nil {
			out.Wipe()
			return nil, err
		}
		out.Username = nonNil(user)
	}
	return out, nil
}

// aead.Open returns nil for an empty message; keep "present but empty"
// distinct from "absent".
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
