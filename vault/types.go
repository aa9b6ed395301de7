package vault

const (
	KeyLen          = 32
	NonceLen        = 12
	VerifierSaltLen = 32
	KDFSaltLen      = 16

	// keyInfo is the HKDF info string for the entry encryption key.
	keyInfo = "passvault entry key v1"
)

// AEAD associated data per field. Binding the field label keeps the
// password and username ciphertexts of one entry from being swapped.
var (
	adPassword = []byte("p")
	adUsername = []byte("u")
)

// Entry is one stored secret. Both ciphertexts are sealed under the same
// nonce as independent AEAD messages.
type Entry struct {
	PasswordCT []byte `json:"password_ct"`
	UsernameCT []byte `json:"username_ct"`
	Nonce      []byte `json:"nonce"`
}

// Plaintext is the decrypted view of an Entry. Username is nil when the
// entry was stored without one.
type Plaintext struct {
	Password []byte
	Username []byte
}

// Wipe zeroes both fields.
func (p *Plaintext) Wipe() {
	if p == nil {
		return
	}
	zero(p.Password)
	zero(p.Username)
}

type KDFParams struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	Salt    []byte `json:"salt,omitempty"`
}

// fileVault is the on-disk layout of a Vault.
type fileVault struct {
	Verifier     []byte            `json:"master_verifier"`
	VerifierSalt []byte            `json:"master_verifier_salt"`
	KDF          *KDFParams        `json:"kdf"`
	Entries      map[string]*Entry `json:"entries"`
}
