// Command propbind loads a layered property stack and prints or serves the
// properties under a prefix.
//
// Usage:
//
//	propbind [flags] [-- --key=value ...]
//
// Layers, lowest precedence first: -file (in order), -dotenv, -redis-addr,
// -env-prefix, then the --key=value arguments after "--".
//
//	propbind -file application.yaml -prefix app.info
//	propbind -file application.yaml -prefix server -- --server.port=9090
//	propbind -file base.yaml -file prod.yaml -env-prefix APP_ -json -sources
//	propbind -file application.yaml -serve :8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Azhovan/propbind"
	"github.com/Azhovan/propbind/sourceargs"
	"github.com/Azhovan/propbind/sourcedotenv"
	"github.com/Azhovan/propbind/sourceenv"
	"github.com/Azhovan/propbind/sourcefile"
	"github.com/Azhovan/propbind/sourceredis"
	"github.com/redis/go-redis/v9"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	files     stringList
	dotenv    string
	envPrefix string
	redisAddr string
	redisKey  string
	prefix    string
	asJSON    bool
	sources   bool
	snapshot  string
	serve     string
	logLevel  string
	logFormat string
	args      []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("propbind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.files, "file", "YAML, JSON or TOML file (repeatable, later files win)")
	fs.StringVar(&opts.dotenv, "dotenv", "", ".env file to load")
	fs.StringVar(&opts.envPrefix, "env-prefix", "", "load environment variables starting with this prefix")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address holding a property hash")
	fs.StringVar(&opts.redisKey, "redis-key", "propbind", "Redis hash key")
	fs.StringVar(&opts.prefix, "prefix", "", "print only properties under this prefix")
	fs.BoolVar(&opts.asJSON, "json", false, "print as JSON")
	fs.BoolVar(&opts.sources, "sources", false, "include the source of each property")
	fs.StringVar(&opts.snapshot, "snapshot", "", "write a snapshot to this path ({{timestamp}} is expanded)")
	fs.StringVar(&opts.serve, "serve", "", "serve /info and /props on this address instead of printing")
	fs.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "text", "text or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.args = fs.Args()
	return opts, nil
}

// newLogger builds the command's logger.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// newLoader stacks the configured sources. The returned cleanup closes any
// client opened for them.
func newLoader(opts *options, logger *slog.Logger) (*propbind.Loader, func()) {
	loader := propbind.NewLoader().WithLogger(logger)
	cleanup := func() {}

	for _, path := range opts.files {
		loader.WithSource(sourcefile.New(path, sourcefile.Options{Required: true}))
	}
	if opts.dotenv != "" {
		loader.WithSource(sourcedotenv.New(opts.dotenv, sourcedotenv.Options{}))
	}
	if opts.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		loader.WithSource(sourceredis.New(client, opts.redisKey, sourceredis.Options{}))
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis client", slog.Any("error", err))
			}
		}
	}
	if opts.envPrefix != "" {
		loader.WithSource(sourceenv.New(sourceenv.Options{Prefix: opts.envPrefix}))
	}
	if len(opts.args) > 0 {
		loader.WithSource(sourceargs.New(opts.args))
	}

	return loader, cleanup
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, opts.logLevel, opts.logFormat)

	loader, cleanup := newLoader(opts, logger)
	sources, err := loader.Load(ctx)
	cleanup()
	if err != nil {
		return fmt.Errorf("load properties: %w", err)
	}
	logger.Debug("property sources loaded", slog.Any("layers", sources.Names()))

	if opts.snapshot != "" {
		snap, err := propbind.CreateSnapshot(sources, opts.prefix)
		if err != nil {
			return fmt.Errorf("create snapshot: %w", err)
		}
		path, err := propbind.WriteSnapshot(snap, opts.snapshot)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		logger.Info("snapshot written", slog.String("path", path), slog.Int("properties", snap.Properties.Len()))
	}

	if opts.serve != "" {
		return serve(ctx, opts.serve, newRouter(sources, logger, newRegistry()), logger)
	}

	var dumpOpts []propbind.DumpOption
	if opts.asJSON {
		dumpOpts = append(dumpOpts, propbind.AsJSON())
	}
	if opts.sources {
		dumpOpts = append(dumpOpts, propbind.WithSources())
	}
	return propbind.Dump(stdout, sources, opts.prefix, dumpOpts...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "propbind:", err)
		os.Exit(1)
	}
}
