// Package habitctl implements the streakly admin command line: token minting,
// password hashing, VAPID key generation and remote backup/restore.
package habitctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/streakly/internal/auth"
	"github.com/mmynk/streakly/internal/config"
	"github.com/mmynk/streakly/internal/export"
	"github.com/mmynk/streakly/internal/push"
	"github.com/mmynk/streakly/internal/service"
)

const usage = `usage: habitctl <command> [flags]

commands:
  token          mint a bearer token from the server config
  hash-password  print a bcrypt hash for auth.password_hash
  vapid          generate a VAPID key pair
  export         download a backup (-format json) or report (-format pdf)
  import         restore a backup file
  notify         broadcast a push notification
`

// ErrUsage is returned for an unknown or missing command.
var ErrUsage = errors.New("invalid usage")

// Env holds the process dependencies of a command.
type Env struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	HTTPClient connect.HTTPClient
	Now        func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Stdin == nil {
		e.Stdin = os.Stdin
	}
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.Stderr == nil {
		e.Stderr = os.Stderr
	}
	if e.HTTPClient == nil {
		e.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// Run executes the command named by args[0].
func Run(ctx context.Context, args []string, env Env) error {
	env = env.withDefaults()
	if len(args) == 0 {
		fmt.Fprint(env.Stderr, usage)
		return ErrUsage
	}

	fs := flag.NewFlagSet("habitctl "+args[0], flag.ContinueOnError)
	fs.SetOutput(env.Stderr)

	switch args[0] {
	case "token":
		return runToken(fs, args[1:], env)
	case "hash-password":
		return runHashPassword(fs, args[1:], env)
	case "vapid":
		return runVAPID(fs, args[1:], env)
	case "export":
		return runExport(ctx, fs, args[1:], env)
	case "import":
		return runImport(ctx, fs, args[1:], env)
	case "notify":
		return runNotify(ctx, fs, args[1:], env)
	case "help", "-h", "--help":
		fmt.Fprint(env.Stdout, usage)
		return nil
	default:
		fmt.Fprint(env.Stderr, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
}

func runToken(fs *flag.FlagSet, args []string, env Env) error {
	configPath := fs.String("config", os.Getenv("STREAKLY_CONFIG"), "path to the server config file")
	subject := fs.String("subject", "admin", "token subject")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Generate(&auth.Principal{Subject: *subject})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.Stdout, token)
	return err
}

func runHashPassword(fs *flag.FlagSet, args []string, env Env) error {
	password := fs.String("password", "", "password to hash (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw := *password
	if pw == "" {
		line, err := bufio.NewReader(env.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		pw = strings.TrimRight(line, "\r\n")
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Stdout, "%sAUTH_PASSWORD_HASH=%s\n", config.EnvPrefix, hash)
	return err
}

func runVAPID(fs *flag.FlagSet, args []string, env Env) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	privateKey, publicKey, err := push.GenerateVAPIDKeys()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.Stdout, "%sPUSH_VAPID_PUBLIC_KEY=%s\n%sPUSH_VAPID_PRIVATE_KEY=%s\n",
		config.EnvPrefix, publicKey, config.EnvPrefix, privateKey)
	return err
}

// remoteFlags registers the flags shared by commands that call a server.
func remoteFlags(fs *flag.FlagSet) (server, token *string) {
	server = fs.String("server", "http://localhost:8080", "streakly server URL")
	token = fs.String("token", os.Getenv("STREAKLY_TOKEN"), "bearer token")
	return server, token
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

// openOutput returns the writer for path, or stdout for "" and "-".
func openOutput(path string, env Env) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return env.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func runExport(ctx context.Context, fs *flag.FlagSet, args []string, env Env) error {
	server, token := remoteFlags(fs)
	format := fs.String("format", "json", "json or pdf")
	out := fs.String("o", "", "output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "json" && *format != "pdf" {
		return fmt.Errorf("%w: unknown format %q", ErrUsage, *format)
	}

	client := service.NewClient[service.ExportRequest, service.ExportResponse](env.HTTPClient, *server, service.DataServiceExportProcedure)
	resp, err := client.CallUnary(ctx, withToken(&service.ExportRequest{}, *token))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	doc := resp.Msg.Document

	w, closeFn, err := openOutput(*out, env)
	if err != nil {
		return err
	}
	if *format == "pdf" {
		err = export.WritePDF(w, doc.Habits, doc.Completions, env.Now())
	} else {
		err = export.Encode(w, doc)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	return err
}

func runImport(ctx context.Context, fs *flag.FlagSet, args []string, env Env) error {
	server, token := remoteFlags(fs)
	file := fs.String("file", "", "backup file to restore (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", ErrUsage)
	}

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open %s: %w", *file, err)
	}
	defer f.Close()

	doc, err := export.Decode(f)
	if err != nil {
		return err
	}

	client := service.NewClient[service.ImportRequest, service.ImportResponse](env.HTTPClient, *server, service.DataServiceImportProcedure)
	if _, err := client.CallUnary(ctx, withToken(&service.ImportRequest{Document: doc}, *token)); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	_, err = fmt.Fprintf(env.Stdout, "imported %d habits, %d completions, %d achievements\n",
		len(doc.Habits), len(doc.Completions), len(doc.Achievements))
	return err
}

func runNotify(ctx context.Context, fs *flag.FlagSet, args []string, env Env) error {
	server, token := remoteFlags(fs)
	title := fs.String("title", "", "notification title (required)")
	body := fs.String("body", "", "notification body")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return fmt.Errorf("%w: -title is required", ErrUsage)
	}

	client := service.NewClient[service.SendNotificationRequest, service.SendNotificationResponse](env.HTTPClient, *server, service.PushServiceSendNotificationProcedure)
	resp, err := client.CallUnary(ctx, withToken(&service.SendNotificationRequest{Title: *title, Body: *body}, *token))
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	r := resp.Msg.Report
	_, err = fmt.Fprintf(env.Stdout, "attempted=%d delivered=%d failed=%d pruned=%d\n", r.Attempted, r.Delivered, r.Failed, r.Pruned)
	return err
}
