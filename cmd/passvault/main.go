package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/fahmaliyi/passvault/cli"
	"github.com/fahmaliyi/passvault/config"
	"github.com/fahmaliyi/passvault/vault"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func usage() {
	fmt.Fprint(os.Stderr, "Passvault keeps named credentials in a local encrypted file.\n\n")
	fmt.Fprint(os.Stderr, "Usage:\n\n\tpassvault [FLAGS]\n\n")
	fmt.Fprint(os.Stderr, "Type 'help' at the prompt for the command list.\n\nThe flags are:\n\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// version
const (
	major = "1"
	minor = "0"
	patch = "0"
)

func printVersion() {
	fmt.Printf("passvault v%s.%s.%s\n", major, minor, patch)
	os.Exit(0)
}

var terminal = cli.SaveTerminal()

// Command line flags.
var (
	configPath = flag.String("config", "", "path to the config file (default ~/.passvault/config.json)")
	dirFlag    = flag.String("dir", "", "directory holding the store files")
	debug      = flag.Bool("debug", false, "enable debug logging")
	version    = flag.Bool("version", false, "print version")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		printVersion()
	}
	if flag.NArg() != 0 {
		usage()
	}

	cfg, err := loadConfig()
	if err != nil {
		fatal(nil, errors.Wrap(err, "load config"))
	}
	setupLogging(cfg)

	clearAfter, err := cfg.ClipboardTimeout()
	if err != nil {
		fatal(nil, err)
	}
	if err := cli.EnsureDir(cfg.Dir); err != nil {
		fatal(nil, err)
	}

	store := vault.NewStore(cfg.PrimaryPath(), cfg.BackupPath())
	v, restored, err := store.OpenOrInit()
	if err != nil {
		fatal(nil, errors.Wrap(err, "open store"))
	}
	if restored {
		fmt.Println("Store was empty and has been restored from the backup. Run passvault again.")
		exitSafe(nil, "")
	}
	if err := store.SnapshotBackup(v); err != nil {
		fatal(nil, errors.Wrap(err, "write backup"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	readSecret := cli.StdinSecretReader(in, os.Stdout)

	sess, fresh, err := cli.Unlock(ctx, v, readSecret, os.Stdout, cfg.KDF())
	if errors.Is(err, context.Canceled) {
		exitSafe(nil, "Interrupted.")
	} else if err != nil {
		fatal(nil, err)
	}

	sh := &cli.Shell{
		Vault:          v,
		Store:          store,
		Session:        sess,
		In:             in,
		Out:            os.Stdout,
		ReadSecret:     readSecret,
		Clipboard:      cli.SystemClipboard,
		GenerateLength: cfg.GenerateLength,
		ClipboardClear: clearAfter,
		KDF:            cfg.KDF(),
		Browse:         cli.RunTUI,
	}
	if fresh {
		sh.MarkDirty()
	}

	sh.PrintGuide()
	runErr := sh.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		fmt.Println()
		log.Info().Msg("interrupted, saving")
	} else if runErr != nil {
		log.Error().Err(runErr).Msg("command loop failed")
	}
	sh.Close()

	saved, err := sh.SaveIfDirty()
	if err != nil {
		fatal(nil, err)
	}
	if saved {
		fmt.Println("Store saved!")
	}
	exitSafe(nil, "")
}

func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if *dirFlag != "" {
		cfg.Dir = *dirFlag
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(out).With().Timestamp().Str("session", uuid.NewString()).Logger()
}

func fatal(sess *vault.Session, err error) {
	log.Error().Err(err).Msg("fatal")
	exitSafe(sess, fmt.Sprintf("Error: %v", err))
}

// exitSafe wipes key material, puts the terminal mode back and exits. A
// non-empty msg is printed to stderr and the exit status is 1.
func exitSafe(sess *vault.Session, msg string) {
	sess.Destroy()
	memguard.Purge()
	terminal.Restore()
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	os.Exit(0)
}
