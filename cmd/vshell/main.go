package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"vshell/internal/archive"
	"vshell/internal/audit"
	"vshell/internal/config"
	"vshell/internal/fs"
	"vshell/internal/logging"
	"vshell/internal/shell"
	"vshell/internal/tui"
	"vshell/internal/vfs"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	logger = logging.GetLogger()
)

type options struct {
	archivePath string
	configPath  string
	scriptPath  string
	logFile     string
	mountPoint  string
	initArchive bool
	verbose     bool
	plain       bool
}

func main() {
	if err := run(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("vshell", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "XML or YAML document seeding files and directories")
	flagSet.StringVar(&opts.scriptPath, "script", "", "run the commands in this file instead of an interactive session")
	flagSet.StringVar(&opts.logFile, "log-file", "action_log.csv", "CSV file receiving one row per command")
	flagSet.StringVar(&opts.mountPoint, "mount", "", "serve the filesystem over FUSE at this directory")
	flagSet.BoolVar(&opts.initArchive, "init", false, "create an empty archive if it does not exist")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flagSet.BoolVar(&opts.plain, "plain", false, "read commands line by line even on a terminal")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return errors.New("expected exactly one archive path")
	}
	opts.archivePath = args[0]

	configureLogging(opts)

	logger.Info("Starting vshell...")
	logger.Debug("Archive: %s", opts.archivePath)
	logger.Debug("Config: %s", opts.configPath)
	logger.Debug("Log file: %s", opts.logFile)

	engine, err := openFilesystem(opts)
	if err != nil {
		return err
	}

	if opts.mountPoint != "" {
		return serveMount(engine, opts.mountPoint)
	}

	sh := shell.New(engine, audit.NewLog(opts.logFile))

	if opts.scriptPath != "" {
		logger.Info("Running script %s", opts.scriptPath)
		f, err := os.Open(opts.scriptPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open script %s", opts.scriptPath)
		}
		defer f.Close()
		return sh.Run(f, os.Stdout, true)
	}

	if !opts.plain && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		// Diagnostics would corrupt the full-screen view.
		logger.SetOutput(io.Discard)
		return tui.Run(sh)
	}
	return sh.Run(os.Stdin, os.Stdout, false)
}

// configureLogging keeps interactive sessions quiet unless asked otherwise.
func configureLogging(opts options) {
	switch {
	case opts.verbose:
		logger.SetLevel(logging.LevelDebug)
	case os.Getenv("LOG_LEVEL") == "" && os.Getenv("FUSE_DEBUG") == "" && opts.mountPoint == "":
		logger.SetLevel(logging.LevelWarn)
	}
}

func openFilesystem(opts options) (*vfs.VirtualFS, error) {
	store, err := archive.NewStore(opts.archivePath)
	if err != nil {
		return nil, err
	}

	if opts.initArchive && !store.Exists() {
		logger.Info("Creating empty archive %s", store.Path())
		if err := store.Save(nil); err != nil {
			return nil, errors.Wrap(err, "failed to initialize archive")
		}
	}

	var seed *vfs.Seed
	if opts.configPath != "" {
		seed, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	return vfs.New(store, seed)
}

func serveMount(engine *vfs.VirtualFS, mountPoint string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fs.NewFS(engine).Serve(ctx, mountPoint)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `vshell - a shell over a filesystem stored in a zip archive.

Every change is written back to the archive immediately. Commands are
logged to a CSV file (--log-file).

Usage:
  vshell [flags] <archive.zip>

Examples:
  # Interactive session, creating the archive if needed
  vshell --init fs.zip

  # Seed files from a config document and replay a script
  vshell --config seed.xml --script commands.txt fs.zip

  # Browse the archive with ordinary tools
  vshell --mount /mnt/vshell fs.zip

Flags:
`)
	flagSet.PrintDefaults()
}
