// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/logtest/lib/config"
	"github.com/bureau-foundation/logtest/lib/envelope"
	"github.com/bureau-foundation/logtest/lib/logtest"
	"github.com/bureau-foundation/logtest/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the parsed command line.
type options struct {
	showVersion bool
	debug       bool
	quiet       bool
	unitTest    string
	configPath  string
	casesPath   string

	// Overrides, applied only when the flag was given.
	socketPath string
	location   string
	logFormat  string
	initConf   string
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("logtest", pflag.ContinueOnError)
	flagSet.BoolVarP(&opts.showVersion, "version", "V", false, "print the installed daemon version and licence, then exit")
	flagSet.BoolVarP(&opts.debug, "debug", "d", false, "log requests and replies; interactive mode also dumps each reply")
	flagSet.BoolVarP(&opts.quiet, "quiet", "q", false, "print nothing but errors")
	flagSet.StringVarP(&opts.unitTest, "unit-test", "U", "", "expected rule:level:decoder of the last log line; sets the exit status")
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&opts.casesPath, "cases", "", "run the JSONC test-case file non-interactively")
	flagSet.StringVar(&opts.socketPath, "socket", "", "daemon log-test socket (overrides socket_path)")
	flagSet.StringVar(&opts.location, "location", "", "log location reported to the daemon (overrides location)")
	flagSet.StringVar(&opts.logFormat, "log-format", "", "log format reported to the daemon (overrides log_format)")
	flagSet.StringVar(&opts.initConf, "init-conf", "", "installation metadata file read by -V (overrides init_conf)")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// run is the whole program behind main, with its environment passed in
// so tests can drive it. It returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	flagSet := newFlagSet(&opts)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return 0
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		fmt.Fprintf(stderr, "error: unexpected argument: %s\n", rest[0])
		return 1
	}

	logger := newLogger(stderr, logLevel(opts))

	cfg, err := loadConfig(opts, flagSet)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	if opts.showVersion {
		return printVersion(stdout, cfg, logger)
	}

	if opts.unitTest != "" && opts.casesPath != "" {
		logger.Error("-U and --cases cannot be combined")
		return 1
	}

	var expected *logtest.Tuple
	if opts.unitTest != "" {
		tuple, err := logtest.ParseTuple(opts.unitTest)
		if err != nil {
			logger.Error("unit test configuration has wrong syntax", "value", opts.unitTest, "error", err)
			return 1
		}
		expected = &tuple
	}

	session, err := newSession(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	defer closeSession(session, logger)

	renderer := logtest.NewRenderer(stdout, isTerminal(stdout))
	if opts.casesPath != "" {
		return runCases(ctx, session, cfg.SocketPath, opts.casesPath, opts.quiet, renderer, stdout, logger)
	}

	loop := &interactiveLoop{
		session:    session,
		socketPath: cfg.SocketPath,
		renderer:   renderer,
		expected:   expected,
		quiet:      opts.quiet,
		dump:       opts.debug,
		dumpOut:    stderr,
		color:      isTerminal(stderr),
		logger:     logger,
	}
	return loop.run(ctx, stdin)
}

// cleanupTimeout bounds removing the session on exit, so a hung daemon
// cannot keep the process from exiting.
const cleanupTimeout = 5 * time.Second

// closeSession removes the last session the daemon assigned. It is
// deferred in run, so it also runs after an interrupt, when ctx is
// already cancelled; the removal therefore gets a context of its own.
func closeSession(session *logtest.Session, logger *slog.Logger) {
	token := session.Token()
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := session.Close(ctx); err != nil {
		logger.Warn("removing session failed", "token", token, "error", err)
	}
}

func logLevel(opts options) slog.Level {
	switch {
	case opts.quiet:
		return slog.LevelError
	case opts.debug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// newLogger writes human-readable text when stderr is a terminal and
// JSON records otherwise.
func newLogger(stderr io.Writer, level slog.Level) *slog.Logger {
	var handler slog.Handler
	options := &slog.HandlerOptions{Level: level}
	if isTerminal(stderr) {
		handler = slog.NewTextHandler(stderr, options)
	} else {
		handler = slog.NewJSONHandler(stderr, options)
	}
	return slog.New(handler)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig(opts options, flagSet *pflag.FlagSet) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("socket") {
		cfg.SocketPath = opts.socketPath
	}
	if flagSet.Changed("location") {
		cfg.Location = opts.location
	}
	if flagSet.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flagSet.Changed("init-conf") {
		cfg.InitConf = opts.initConf
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSession(cfg *config.Config, logger *slog.Logger) (*logtest.Session, error) {
	dialTimeout, err := cfg.DialTimeout()
	if err != nil {
		return nil, err
	}
	exchangeTimeout, err := cfg.ExchangeTimeout()
	if err != nil {
		return nil, err
	}
	transport := logtest.NewSocketTransport(cfg.SocketPath, logtest.TransportConfig{
		DialTimeout:     dialTimeout,
		ExchangeTimeout: exchangeTimeout,
		Logger:          logger,
	})
	return logtest.NewSession(transport, logtest.SessionConfig{
		Location:  cfg.Location,
		LogFormat: cfg.LogFormat,
		Origin:    envelope.Origin{Name: cfg.Origin.Name, Module: cfg.Origin.Module},
		Logger:    logger,
	}), nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `logtest %s: test log lines against the analysis daemon's decoders and rules.

Type one log per line. Each line is analysed in the same daemon session,
so correlation rules see earlier lines. Press Ctrl-D to finish.

Usage:
  logtest [flags]

Examples:
  # Interactive session against the local daemon
  logtest

  # Check that a line is decoded by sshd and fires rule 5715 at level 3
  echo 'Jan  1 00:00:00 host sshd[1]: Accepted password for root' | logtest -U 5715:3:sshd

  # Run a suite of named cases
  logtest --cases rules/sshd.jsonc

Flags:
`, version.Short())
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
