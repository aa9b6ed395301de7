package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fahmaliyi/passvault/vault"
)

// add stores an entry from "add <name> <username> <password>", or prompts
// for the fields when only the name is given.
func (s *Shell) add(ctx context.Context, args []string) error {
	var name string
	var username, password []byte
	switch len(args) {
	case 1:
		var err error
		name = args[0]
		username, password, err = s.promptEntry(ctx)
		if err != nil {
			return err
		}
	case 3:
		name, password = args[0], []byte(args[2])
		if args[1] != "-" {
			username = []byte(args[1])
		}
	default:
		return errUsage
	}
	defer vault.Zero(password)

	if err := s.put(name, password, username); err != nil {
		return err
	}
	fmt.Fprintln(s.Out, "Entry added!")
	return nil
}

// promptEntry asks for a username line and a masked password. A blank
// username means none.
func (s *Shell) promptEntry(ctx context.Context) (username, password []byte, err error) {
	line, err := s.prompt(ctx, "Username (blank for none): ")
	if err != nil {
		return nil, nil, err
	}
	if line = strings.TrimSpace(line); line != "" {
		username = []byte(line)
	}
	password, err = await(ctx, func() ([]byte, error) { return s.ReadSecret("Password: ") })
	if err != nil {
		return nil, nil, err
	}
	return username, password, nil
}

func (s *Shell) prompt(ctx context.Context, p string) (string, error) {
	fmt.Fprint(s.Out, p)
	line, err := await(ctx, func() (string, error) { return s.In.ReadString('\n') })
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return string(trimEOL([]byte(line))), nil
}
