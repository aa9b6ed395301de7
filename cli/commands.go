package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fahmaliyi/passvault/vault"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrPassphraseMismatch = errors.New("passphrases do not match")
	errUsage              = errors.New("invalid command")
)

// Shell is the line-oriented command loop over one unlocked vault.
type Shell struct {
	Vault   *vault.Vault
	Store   *vault.Store
	Session *vault.Session

	In         *bufio.Reader
	Out        io.Writer
	ReadSecret SecretReader
	Clipboard  Clipboard

	GenerateLength int
	ClipboardClear time.Duration
	KDF            *vault.KDFParams

	// Browse runs the interactive browser. Tests replace it.
	Browse func(ctx context.Context, sh *Shell) error

	dirty bool
	clip  pendingClear
}

const usage = `
-------------------------------
Commands:
add <name> <username> <password>        -- add entry to store ("-" for no username)
add <name>                              -- add entry, prompting for the fields
generate <name> <username> [length]     -- generate password for entry and add to store
get <name>                              -- show entry
copy <name>                             -- copy password to clipboard
rm <name>                               -- remove entry from store
list                                    -- list all entries
browse                                  -- interactive browser
passwd                                  -- change master passphrase
save                                    -- write store to disk
help                                    -- show this guide
exit                                    -- save and exit
-------------------------------`

func (s *Shell) PrintGuide() {
	fmt.Fprintln(s.Out, usage)
}

// Dirty reports whether the vault has unsaved changes.
func (s *Shell) Dirty() bool { return s.dirty }

// MarkDirty flags changes made outside the shell, such as a passphrase set
// before the loop starts.
func (s *Shell) MarkDirty() { s.dirty = true }

// Run reads commands until exit, end of input or ctx cancellation. It does
// not persist on return; the caller owns the final save.
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprint(s.Out, "> ")
		line, err := await(ctx, func() (string, error) { return s.In.ReadString('\n') })
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				fmt.Fprintln(s.Out)
				return nil
			}
			return err
		}

		done, err := s.Exec(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintln(s.Out, errStyle.Render(describe(err)))
		}
		if done {
			return nil
		}
	}
}

// Exec runs one command line. done is true for exit.
func (s *Shell) Exec(ctx context.Context, line string) (done bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	log.Debug().Str("command", args[0]).Msg("exec")

	switch cmd, args := args[0], args[1:]; cmd {
	case "add":
		return false, s.add(ctx, args)
	case "generate", "gen":
		return false, s.generate(args)
	case "get":
		return false, s.get(args)
	case "copy", "cp":
		return false, s.copy(args)
	case "rm":
		return false, s.remove(args)
	case "list", "ls":
		s.list()
		return false, nil
	case "browse":
		return false, s.browse(ctx)
	case "passwd":
		return false, s.passwd(ctx)
	case "save":
		return false, s.Save()
	case "help":
		s.PrintGuide()
		return false, nil
	case "exit", "quit", "q":
		return true, nil
	default:
		return false, errUsage
	}
}

func (s *Shell) generate(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	length := s.GenerateLength
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 || n > vault.MaxTextLen {
			return errors.Errorf("invalid length %q (1..%d)", args[2], vault.MaxTextLen)
		}
		length = n
	}
	var username []byte
	if args[1] != "-" {
		username = []byte(args[1])
	}

	password, err := vault.RandomText(length)
	if err != nil {
		return err
	}
	if err := s.put(args[0], []byte(password), username); err != nil {
		return err
	}
	fmt.Fprintf(s.Out, "Generated password: [%s]\n", password)
	return nil
}

func (s *Shell) put(name string, password, username []byte) error {
	e, err := s.Session.Seal(password, username)
	if err != nil {
		return errors.Wrapf(err, "encrypt %s", name)
	}
	s.Vault.Put(name, e)
	s.dirty = true
	return nil
}

func (s *Shell) open(name string) (*vault.Plaintext, error) {
	e, ok := s.Vault.Get(name)
	if !ok {
		return nil, vault.ErrNotFound
	}
	pt, err := s.Session.Open(e)
	return pt, errors.Wrapf(err, "decrypt %s", name)
}

func (s *Shell) get(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pt, err := s.open(args[0])
	if err != nil {
		return err
	}
	defer pt.Wipe()

	fmt.Fprintf(s.Out, "Name: %s\n", args[0])
	fmt.Fprintf(s.Out, "Username: %s\n", pt.Username)
	fmt.Fprintf(s.Out, "Password: %s\n", pt.Password)
	return nil
}

func (s *Shell) copy(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pt, err := s.open(args[0])
	if err != nil {
		return err
	}
	defer pt.Wipe()

	if err := s.clip.copy(s.Clipboard, string(pt.Password), s.ClipboardClear); err != nil {
		return errors.Wrap(err, "clipboard")
	}
	fmt.Fprintf(s.Out, "Password copied to clipboard. Clearing in %s...\n", s.ClipboardClear)
	return nil
}

func (s *Shell) remove(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := s.deleteEntry(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, "Entry removed!")
	return nil
}

func (s *Shell) deleteEntry(name string) error {
	if !s.Vault.Remove(name) {
		return vault.ErrNotFound
	}
	s.dirty = true
	return nil
}

func (s *Shell) list() {
	names := s.Vault.ListNames()
	if len(names) == 0 {
		fmt.Fprintln(s.Out, "(no entries)")
		return
	}
	for _, name := range names {
		fmt.Fprintln(s.Out, name)
	}
}

func (s *Shell) browse(ctx context.Context) error {
	if s.Browse == nil {
		return errors.New("browser unavailable")
	}
	return s.Browse(ctx, s)
}

func (s *Shell) passwd(ctx context.Context) error {
	current, err := await(ctx, func() ([]byte, error) { return s.ReadSecret("Current master passphrase: ") })
	if err != nil {
		return err
	}
	defer vault.Zero(current)

	next, err := await(ctx, func() ([]byte, error) { return PromptNewPassphrase(s.ReadSecret) })
	if err != nil {
		return err
	}
	defer vault.Zero(next)

	sess, err := s.Vault.ChangePassphrase(current, next, s.KDF)
	if err != nil {
		return err
	}
	s.Session.Destroy()
	s.Session = sess
	s.dirty = true
	fmt.Fprintln(s.Out, "Master passphrase changed!")
	return nil
}

// Save persists the vault to the primary file.
func (s *Shell) Save() error {
	if err := s.Store.Persist(s.Vault); err != nil {
		return errors.Wrap(err, "save")
	}
	s.dirty = false
	fmt.Fprintln(s.Out, "Store saved!")
	return nil
}

// SaveIfDirty persists the vault when it changed since load or the last
// save and reports whether it wrote.
func (s *Shell) SaveIfDirty() (bool, error) {
	if !s.dirty {
		log.Debug().Msg("no unsaved changes")
		return false, nil
	}
	if err := s.Store.Persist(s.Vault); err != nil {
		return false, errors.Wrap(err, "save")
	}
	s.dirty = false
	return true, nil
}

// Close blanks the clipboard if a copied password is still on it and
// wipes the session key. It is safe to call more than once.
func (s *Shell) Close() {
	s.clip.Flush()
	s.Session.Destroy()
}

// describe turns an error into the message shown at the prompt.
func describe(err error) string {
	switch {
	case errors.Is(err, errUsage):
		return "Invalid command! Type 'help' for the command list."
	case errors.Is(err, vault.ErrNotFound):
		return "Entry not found!"
	case errors.Is(err, vault.ErrAuthFailed):
		return "Authentication failed: " + err.Error()
	case errors.Is(err, ErrPassphraseMismatch):
		return "Passphrases do not match!"
	default:
		return "Error: " + err.Error()
	}
}
