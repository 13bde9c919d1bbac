// Package main is the entry point for the email sender.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/config"
	"github.com/shineum/email-sender-lite/internal/dispatch"
	"github.com/shineum/email-sender-lite/internal/email"
	"github.com/shineum/email-sender-lite/internal/server"
	"github.com/shineum/email-sender-lite/internal/tool"
	"github.com/shineum/email-sender-lite/internal/transport"
	"github.com/shineum/email-sender-lite/internal/transport/ses"
	"github.com/shineum/email-sender-lite/internal/transport/smtps"
	"github.com/shineum/email-sender-lite/internal/transport/stdout"
)

const usage = `usage: email-sender [-config file] <command> [flags]

commands:
  send             send one message
  test-connection  dial and authenticate a configured account
  serve            serve send and test-connection over HTTP
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("email-sender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to YAML configuration file (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	// One-shot commands keep stdout for the result alone; logs and dry-run
	// output go to stderr.
	diag := stderr
	if cmd == "serve" {
		diag = stdout
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level, diag)

	handler := dispatch.New(newRegistry(cfg, diag), slog.Default())
	t := tool.New(account.StaticStore(cfg.Accounts), handler, slog.Default())

	switch cmd {
	case "send":
		err = runSend(ctx, t, cmdArgs, stdout, stderr)
	case "test-connection":
		err = runTestConnection(ctx, cfg, handler, cmdArgs, stdout, stderr)
	case "serve":
		err = runServe(ctx, cfg, t)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errStatus):
		return 1
	case err != nil:
		slog.Error("command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

// errStatus marks a command that completed but reported an error result.
var errStatus = errors.New("error status")

func runSend(ctx context.Context, t *tool.Tool, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("account", "", "sender account name (default account if empty)")
	fs.String("to", "", "comma-separated To recipients")
	fs.String("cc", "", "comma-separated Cc recipients")
	fs.String("bcc", "", "comma-separated Bcc recipients")
	fs.String("subject", email.DefaultSubject, "message subject")
	fs.String("body", "", "message body")
	fs.String("mail-type", email.DefaultMailType, "body type: plain or html")
	fs.String("encoding", email.DefaultEncoding, "body and subject charset")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	// Only flags given on the command line become parameters, so the
	// request defaults apply to the rest.
	names := map[string]string{
		"account":   tool.ParamSenderAccount,
		"to":        tool.ParamTo,
		"cc":        tool.ParamCc,
		"bcc":       tool.ParamBcc,
		"subject":   tool.ParamSubject,
		"body":      tool.ParamBody,
		"mail-type": tool.ParamMailType,
		"encoding":  tool.ParamEncoding,
	}
	params := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		params[names[f.Name]] = f.Value.String()
	})

	out := t.Invoke(ctx, params)
	if out.IsText() {
		fmt.Fprintln(stdout, out.Text)
		return errStatus
	}
	if err := writeJSON(stdout, out.Result); err != nil {
		return err
	}
	if !out.Result.OK() {
		return errStatus
	}
	return nil
}

func runTestConnection(ctx context.Context, cfg *config.Config, h *dispatch.Handler, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("test-connection", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("account", "", "account name (default account if empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	acct, err := account.Resolve(cfg.Accounts, *name)
	if err != nil {
		fmt.Fprintln(stdout, tool.DescribeResolveError(err))
		return errStatus
	}

	res := h.TestConnection(ctx, acct)
	if err := writeJSON(stdout, res); err != nil {
		return err
	}
	if res.Status != email.StatusSuccess {
		return errStatus
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, t *tool.Tool) error {
	slog.Info("starting email-sender",
		"listen", cfg.HTTP.Listen,
		"accounts", len(cfg.Accounts),
		"auth_enabled", cfg.AuthEnabled(),
		"timeout", cfg.Transport.Timeout,
	)

	// Start the server (blocks until context is cancelled)
	var opts []server.Option
	if cfg.AuthEnabled() {
		opts = append(opts, server.WithAuth(cfg.HTTP.Username, cfg.HTTP.Password))
	}
	srv := server.New(cfg.HTTP.Listen, t, slog.Default(), opts...)
	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}

	slog.Info("email-sender stopped")
	return nil
}

// newRegistry wires every transport an account may name. Dry-run output
// goes to dryRun.
func newRegistry(cfg *config.Config, dryRun io.Writer) transport.Registry {
	return transport.NewRegistry(
		smtps.New(cfg.Transport.Timeout),
		ses.New(),
		stdout.NewWithWriter(dryRun),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output to w and
// the specified log level.
func setupLogger(level string, w io.Writer) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
