package vault

import (
	"crypto/subtle"
	"encoding/json"
	"sort"
)

// Vault is the in-memory credential store: the master passphrase
// verifier and the named entries. It is not safe for concurrent use.
type Vault struct {
	verifier     []byte
	verifierSalt []byte
	kdf          *KDFParams
	entries      map[string]*Entry
}

// Empty returns an uninitialized vault with no entries.
func Empty() *Vault {
	return &Vault{entries: make(map[string]*Entry)}
}

// IsInitialized reports whether a master passphrase has been set.
func (v *Vault) IsInitialized() bool {
	return v.verifier != nil
}

// SetPassphrase sets the master passphrase of an uninitialized vault and
// returns the session for it. params carries the Argon2id cost; a fresh
// salt is drawn regardless of params.Salt. A nil params uses the defaults.
func (v *Vault) SetPassphrase(passphrase []byte, params *KDFParams) (*Session, error) {
	if v.IsInitialized() {
		return nil, ErrAlreadyInitialized
	}
	verifier, salt, kdf, key, err := newCredentials(passphrase, params)
	if err != nil {
		return nil, err
	}
	v.verifier, v.verifierSalt, v.kdf = verifier, salt, kdf
	return newSession(key), nil
}

// VerifyPassphrase checks passphrase against the stored verifier in
// constant time and derives the session key on success.
func (v *Vault) VerifyPassphrase(passphrase []byte) (*Session, error) {
	if !v.IsInitialized() {
		return nil, ErrNotInitialized
	}
	if !v.matches(passphrase) {
		return nil, newError(ErrAuthFailed, "verify passphrase", errIncorrectPassphrase)
	}
	key, err := DeriveKey(passphrase, v.kdf)
	if err != nil {
		return nil, err
	}
	return newSession(key), nil
}

func (v *Vault) matches(passphrase []byte) bool {
	sum := SaltedHash(passphrase, v.verifierSalt)
	return subtle.ConstantTimeCompare(sum[:], v.verifier) == 1
}

// ChangePassphrase re-keys every entry under newPassphrase. The old
// passphrase must verify. On any failure the vault is left unchanged.
func (v *Vault) ChangePassphrase(oldPassphrase, newPassphrase []byte, params *KDFParams) (*Session, error) {
	old, err := v.VerifyPassphrase(oldPassphrase)
	if err != nil {
		return nil, err
	}
	defer old.Destroy()

	verifier, salt, kdf, key, err := newCredentials(newPassphrase, params)
	if err != nil {
		return nil, err
	}
	next := newSession(key)

	rekeyed := make(map[string]*Entry, len(v.entries))
	for name, e := range v.entries {
		pt, err := old.Open(e)
		if err != nil {
			next.Destroy()
			return nil, err
		}
		ne, err := next.Seal(pt.Password, pt.Username)
		pt.Wipe()
		if err != nil {
			next.Destroy()
			return nil, err
		}
		rekeyed[name] = ne
	}

	v.verifier, v.verifierSalt, v.kdf = verifier, salt, kdf
	v.entries = rekeyed
	return next, nil
}

func newCredentials(passphrase []byte, params *KDFParams) (verifier, salt []byte, kdf *KDFParams, key []byte, err error) {
	if params == nil {
		params = DefaultKDFParams()
	}
	salt, err = RandBytes(VerifierSaltLen)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	kdfSalt, err := RandBytes(KDFSaltLen)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	kdf = &KDFParams{Time: params.Time, Memory: params.Memory, Threads: params.Threads, Salt: kdfSalt}
	key, err = DeriveKey(passphrase, kdf)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	sum := SaltedHash(passphrase, salt)
	return sum[:], salt, kdf, key, nil
}

// Put inserts or replaces the entry stored under name.
func (v *Vault) Put(name string, e *Entry) {
	v.entries[name] = e
}

func (v *Vault) Get(name string) (*Entry, bool) {
	e, ok := v.entries[name]
	return e, ok
}

// Remove deletes name and reports whether it existed.
func (v *Vault) Remove(name string) bool {
	if _, ok := v.entries[name]; !ok {
		return false
	}
	delete(v.entries, name)
	return true
}

// ListNames returns all entry names in lexicographic order.
func (v *Vault) ListNames() []string {
	names := make([]string, 0, len(v.entries))
	for name := range v.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (v *Vault) Len() int { return len(v.entries) }

// Encode serializes the vault. Byte fields are base64 encoded.
func (v *Vault) Encode() ([]byte, error) {
	fv := fileVault{
		Verifier:     v.verifier,
		VerifierSalt: v.verifierSalt,
		KDF:          v.kdf,
		Entries:      v.entries,
	}
	data, err := json.MarshalIndent(fv, "", "  ")
	if err != nil {
		return nil, newError(ErrFormat, "encode", err)
	}
	return data, nil
}

// Decode parses a serialized vault and checks its invariants.
func Decode(data []byte) (*Vault, error) {
	var fv fileVault
	if err := json.Unmarshal(data, &fv); err != nil {
		return nil, newError(ErrFormat, "decode", err)
	}
	if (fv.Verifier == nil) != (fv.VerifierSalt == nil) || (fv.Verifier == nil) != (fv.KDF == nil) {
		return nil, newError(ErrFormat, "decode", errPartialVerifier)
	}
	if fv.Verifier != nil {
		if len(fv.Verifier) != len(Hash(nil)) {
			return nil, newError(ErrFormat, "decode", errBadVerifier)
		}
		if len(fv.VerifierSalt) == 0 {
			return nil, newError(ErrFormat, "decode", errBadVerifier)
		}
		if err := fv.KDF.check(); err != nil {
			return nil, newError(ErrFormat, "decode", err)
		}
	}

	v := Empty()
	v.verifier, v.verifierSalt, v.kdf = fv.Verifier, fv.VerifierSalt, fv.KDF
	for name, e := range fv.Entries {
		if e == nil || e.PasswordCT == nil {
			return nil, newError(ErrFormat, "decode entry "+name, errMissingCiphertext)
		}
		if len(e.Nonce) != NonceLen {
			return nil, newError(ErrFormat, "decode entry "+name, errBadNonce)
		}
		v.entries[name] = e
	}
	return v, nil
}
