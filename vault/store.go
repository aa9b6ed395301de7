package vault

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const filePerm = 0600

// Store persists a Vault to a primary file and keeps a load-time snapshot
// of it in a backup file.
type Store struct {
	Primary string
	Backup  string
}

func NewStore(primary, backup string) *Store {
	return &Store{Primary: primary, Backup: backup}
}

// OpenOrInit returns the vault stored at Primary, creating an empty one
// when the file is missing.
//
// A zero-length primary is treated as a crashed write. If a backup exists
// it is copied over the primary and restored is true; the vault is nil and
// the caller is expected to stop so the operator can re-run against the
// restored file. Without a backup, or with an empty one, a fresh empty
// vault is written.
func (s *Store) OpenOrInit() (v *Vault, restored bool, err error) {
	info, err := os.Stat(s.Primary)
	switch {
	case os.IsNotExist(err):
		log.Info().Str("path", s.Primary).Msg("store does not exist, creating")
		return s.initEmpty()
	case err != nil:
		return nil, false, newError(ErrIO, "stat primary", err)
	case info.Size() > 0:
		v, err := s.Load()
		return v, false, err
	}

	binfo, err := os.Stat(s.Backup)
	switch {
	case err == nil && binfo.Size() > 0:
		log.Warn().Str("primary", s.Primary).Str("backup", s.Backup).Msg("store is empty, restoring from backup")
		if err := s.restore(); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	case err != nil && !os.IsNotExist(err):
		return nil, false, newError(ErrIO, "stat backup", err)
	}

	log.Info().Str("path", s.Primary).Msg("store is empty and no usable backup exists, creating")
	return s.initEmpty()
}

func (s *Store) initEmpty() (*Vault, bool, error) {
	v := Empty()
	if err := s.write(s.Primary, v); err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// restore overwrites Primary with the bytes of Backup.
func (s *Store) restore() error {
	data, err := os.ReadFile(s.Backup)
	if err != nil {
		return newError(ErrIO, "read backup", err)
	}
	if err := atomicWriteFile(s.Primary, data, filePerm); err != nil {
		return newError(ErrIO, "restore primary", err)
	}
	return nil
}

// Load reads and decodes Primary.
func (s *Store) Load() (*Vault, error) {
	data, err := os.ReadFile(s.Primary)
	if err != nil {
		return nil, newError(ErrIO, "read primary", err)
	}
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", s.Primary).Int("entries", v.Len()).Bool("initialized", v.IsInitialized()).Msg("store loaded")
	return v, nil
}

// SnapshotBackup overwrites Backup with v. It is meant to run once, right
// after Load and before any mutation.
func (s *Store) SnapshotBackup(v *Vault) error {
	if err := s.write(s.Backup, v); err != nil {
		return err
	}
	log.Debug().Str("path", s.Backup).Msg("backup written")
	return nil
}

// Persist overwrites Primary with v.
func (s *Store) Persist(v *Vault) error {
	if err := s.write(s.Primary, v); err != nil {
		return err
	}
	log.Info().Str("path", s.Primary).Int("entries", v.Len()).Msg("store saved")
	return nil
}

func (s *Store) write(path string, v *Vault) error {
	data, err := v.Encode()
	if err != nil {
		return err
	}
	if err := atomicWriteFile(path, data, filePerm); err != nil {
		return newError(ErrIO, "write "+path, err)
	}
	return nil
}

// atomicWriteFile replaces path with data through a synced temp file in
// the same directory, so a crash leaves either the old or the new file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(dir, ".passvault-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
