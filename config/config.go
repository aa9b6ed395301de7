package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fahmaliyi/passvault/vault"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultDirName  = ".passvault"
	DefaultFileName = "config.json"
)

type Config struct {
	Dir            string `json:"dir"`
	Primary        string `json:"primary"`
	Backup         string `json:"backup"`
	LogLevel       string `json:"log_level"`
	GenerateLength int    `json:"generate_length"`
	ClipboardClear string `json:"clipboard_clear"`
	KDFTime        uint32 `json:"kdf_time"`
	KDFMemory      uint32 `json:"kdf_memory"`
	KDFThreads     uint8  `json:"kdf_threads"`
}

// Default returns the configuration used when no file is present. Dir is
// left empty and resolved against the home directory by Load.
func Default() *Config {
	kdf := vault.DefaultKDFParams()
	return &Config{
		Primary:        "store.json",
		Backup:         "store-bak.json",
		LogLevel:       "info",
		GenerateLength: 32,
		ClipboardClear: "30s",
		KDFTime:        kdf.Time,
		KDFMemory:      kdf.Memory,
		KDFThreads:     kdf.Threads,
	}
}

// DefaultPath returns ~/.passvault/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName), nil
}

// Load reads the JSON file at path over the defaults. A missing file is
// not an error. PASSVAULT_DIR and PASSVAULT_LOG_LEVEL override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if dir := os.Getenv("PASSVAULT_DIR"); dir != "" {
		cfg.Dir = dir
	}
	if level := os.Getenv("PASSVAULT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = filepath.Join(home, DefaultDirName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Primary == "" || c.Backup == "" {
		return errors.New("config: primary and backup paths must be set")
	}
	if c.PrimaryPath() == c.BackupPath() {
		return errors.New("config: primary and backup must differ")
	}
	if c.GenerateLength <= 0 || c.GenerateLength > vault.MaxTextLen {
		return errors.Errorf("config: generate_length must be in 1..%d, got %d", vault.MaxTextLen, c.GenerateLength)
	}
	if _, err := c.ClipboardTimeout(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "config: log_level")
	}
	if err := c.KDF().Check(); err != nil {
		return errors.Wrap(err, "config: kdf_time, kdf_memory, kdf_threads")
	}
	return nil
}

// PrimaryPath resolves Primary against Dir unless it is absolute.
func (c *Config) PrimaryPath() string { return c.resolve(c.Primary) }

func (c *Config) BackupPath() string { return c.resolve(c.Backup) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func (c *Config) ClipboardTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.ClipboardClear)
	if err != nil {
		return 0, errors.Wrap(err, "config: clipboard_clear")
	}
	if d <= 0 {
		return 0, errors.New("config: clipboard_clear must be positive")
	}
	return d, nil
}

// KDF returns the Argon2id cost used when a new passphrase is set.
func (c *Config) KDF() *vault.KDFParams {
	return &vault.KDFParams{Time: c.KDFTime, Memory: c.KDFMemory, Threads: c.KDFThreads}
}
