package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"dfcode.dev/internal/codeclient"
	"dfcode.dev/internal/config"
	"dfcode.dev/internal/library"
	"dfcode.dev/internal/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "dfcode: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// app carries what every command needs. Connections are opened lazily so
// offline commands never dial.
type app struct {
	cfg    config.Config
	logger *log.Logger
	out    io.Writer

	sess *codeclient.Session
	tx   *transcript.SessionLog
	lib  *library.Store
}

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

func run(ctx context.Context, args []string, stdout io.Writer, getenv func(string) string) error {
	fs := pflag.NewFlagSet("dfcode", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(stdout)
	configPath := fs.StringP("config", "c", "", "config file (default: dfcode.yaml if present)")
	url := fs.String("url", "", "companion websocket url")
	timeout := fs.Duration("timeout", 0, "reply timeout per command")
	libPath := fs.String("library", "", "template library database")
	txDir := fs.String("transcript", "", "directory for session transcripts (empty disables)")
	author := fs.String("author", "", "author recorded on template items")
	verbose := fs.BoolP("verbose", "v", false, "log session activity to stderr")
	fs.Usage = func() { printUsage(stdout, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stdout, fs)
		return usagef("missing command")
	}

	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath, false)
	} else {
		cfg, err = config.Load("dfcode.yaml", true)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	if s := strings.TrimSpace(*url); s != "" {
		cfg.CompanionURL = s
	}
	if *timeout > 0 {
		cfg.TimeoutMs = int(*timeout / time.Millisecond)
	}
	if *libPath != "" {
		cfg.LibraryPath = *libPath
	}
	if *txDir != "" {
		cfg.TranscriptDir = *txDir
	}
	if *author != "" {
		cfg.Author = *author
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "[dfcode] ", log.LstdFlags|log.Lmicroseconds)
	}

	name := rest[0]
	cmd, ok := lookup(name)
	if !ok {
		return usagef("unknown command %q (see dfcode --help)", name)
	}
	a := &app{cfg: cfg, logger: logger, out: stdout}
	defer a.close()
	return cmd.run(ctx, a, rest[1:])
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "usage: dfcode [flags] <command> [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-28s %s\n", c.usage, c.summary)
	}
	fmt.Fprintf(w, "\nflags:\n%s", fs.FlagUsages())
}

// session dials the companion on first use.
func (a *app) session(ctx context.Context) (*codeclient.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}
	cc := codeclient.Config{
		URL:     a.cfg.CompanionURL,
		Timeout: a.cfg.Timeout(),
		Logger:  a.logger,
	}
	if a.cfg.TranscriptDir != "" {
		id := fmt.Sprintf("%s-%d", time.Now().UTC().Format("20060102T150405"), os.Getpid())
		a.tx = transcript.NewSessionLog(a.cfg.TranscriptDir, id)
		cc.Recorder = a.tx
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	s, err := codeclient.Dial(dialCtx, cc)
	if err != nil {
		return nil, err
	}
	// A fresh connection starts with the default scope only; adopt what the
	// player already granted.
	if _, err := s.QueryScopes(ctx); err != nil {
		a.logger.Printf("scopes query: %v", err)
	}
	a.sess = s
	return s, nil
}

func (a *app) library() (*library.Store, error) {
	if a.lib != nil {
		return a.lib, nil
	}
	a.logger.Printf("library=%s", a.cfg.LibraryPath)
	lib, err := library.Open(a.cfg.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	a.lib = lib
	return lib, nil
}

func (a *app) close() {
	if a.sess != nil {
		_ = a.sess.Close()
	}
	if a.tx != nil {
		if err := a.tx.Close(); err != nil {
			a.logger.Printf("transcript close: %v", err)
		}
	}
	if a.lib != nil {
		_ = a.lib.Close()
	}
}
