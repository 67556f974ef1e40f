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
	"path/filepath"
	"strings"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"luacsv/internal/dataset"
	"luacsv/internal/publish"
)

// Options holds the command-line flags.
type Options struct {
	Command    string
	Files      listFlag
	Date       bool
	ConfigPath string
	LuaDir     string
	FormatDir  string
	OutDir     string
	XLSX       bool
	Parquet    bool
	Publish    bool
	FailFast   bool
	Write      bool
	LogLevel   string
	LogFormat  string
}

// listFlag collects a repeatable, comma-separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
	return nil
}

// ExitError carries a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

var commands = map[string]bool{"convert": true, "headers": true, "list": true}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv)
	stop()
	if err != nil {
		exitErr(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	opts, set, err := parseOptions(args, stderr)
	if err != nil {
		return err
	}
	if opts == nil {
		return nil
	}

	logger, err := newLogger(stderr, opts.LogFormat, logLevel(opts.LogLevel, getenv, stderr))
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	slog.SetDefault(logger)

	cfg, err := dataset.Load(opts.ConfigPath, getenv)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts, set)
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner := &dataset.Runner{Config: cfg, Logger: logger}
	names := resolveDatasets(opts.Files)

	switch opts.Command {
	case "list":
		return listDatasets(stdout, cfg, names)
	case "headers":
		return writeHeaders(ctx, stdout, runner, names, opts.Write)
	}

	if opts.Publish {
		pub, err := newPublisher(ctx, cfg.Publish, getenv)
		if err != nil {
			return err
		}
		runner.Publisher = pub
		logger.Info("publishing enabled", "bucket", cfg.Publish.Bucket, "run", pub.RunID())
	}

	sum, err := runner.Run(ctx, names)
	logger.Info("batch finished", "converted", len(sum.Results), "failed", len(sum.Failed))
	return err
}

func parseOptions(args []string, stderr io.Writer) (*Options, map[string]bool, error) {
	opts := &Options{Command: "convert"}
	if len(args) > 0 && commands[args[0]] {
		opts.Command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("luacsv "+opts.Command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, `Convert Lua config tables to CSV/TSV.

Usage:
  luacsv [convert|headers|list] [options] [dataset ...]

Commands:
  convert   convert the given datasets, or every discovered one (default)
  headers   print the field names found in a Lua table (-write stores them as format/<name>.csv)
  list      print discovered datasets and how each is converted

Options:
`)
		fs.PrintDefaults()
	}
	fs.Var(&opts.Files, "file", "dataset base name(s), repeatable or comma-separated (default: discover from the format dir)")
	fs.BoolVar(&opts.Date, "date", false, "append _YYYYMMDD to output file names")
	fs.StringVar(&opts.ConfigPath, "config", "", "config file (default: $LUACSV_CONFIG or ./"+dataset.DefaultConfigFile+")")
	fs.StringVar(&opts.LuaDir, "lua", "", "directory holding <name>.lua.txt inputs")
	fs.StringVar(&opts.FormatDir, "format", "", "directory holding <name>.csv/.xlsx header files")
	fs.StringVar(&opts.OutDir, "out", "", "output directory")
	fs.BoolVar(&opts.XLSX, "xlsx", false, "also write .xlsx")
	fs.BoolVar(&opts.Parquet, "parquet", false, "also write .parquet")
	fs.BoolVar(&opts.Publish, "publish", false, "upload outputs to the configured bucket")
	fs.BoolVar(&opts.FailFast, "fail-fast", false, "stop the batch at the first failed dataset")
	fs.BoolVar(&opts.Write, "write", false, "headers: write format/<name>.csv instead of printing")
	fs.StringVar(&opts.LogLevel, "log-level", "", "debug|info|warn|error (default: $LUACSV_LOG_LEVEL, $LOG_LEVEL or info)")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "text|json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, nil
		}
		return nil, nil, &ExitError{Code: 2, Message: err.Error()}
	}
	opts.Files = append(opts.Files, fs.Args()...)

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return opts, set, nil
}

// applyOverrides copies explicitly set flags over the loaded config.
func applyOverrides(cfg *dataset.Config, opts *Options, set map[string]bool) {
	if set["lua"] {
		cfg.Dirs.Lua = opts.LuaDir
	}
	if set["format"] {
		cfg.Dirs.Format = opts.FormatDir
	}
	if set["out"] {
		cfg.Dirs.Output = opts.OutDir
	}
	if set["date"] {
		cfg.DateSuffix = opts.Date
	}
	if set["xlsx"] {
		cfg.Outputs.XLSX = opts.XLSX
	}
	if set["parquet"] {
		cfg.Outputs.Parquet = opts.Parquet
	}
	if set["fail-fast"] {
		cfg.FailFast = opts.FailFast
	}
}

// resolveDatasets accepts dataset names as well as paths to their inputs or
// header files (lua/x.lua.txt, format/x.csv) and reduces them to names.
func resolveDatasets(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		name := filepath.Base(strings.TrimSpace(s))
		for _, suffix := range []string{".lua.txt", ".lua", ".csv", ".xlsx"} {
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				break
			}
		}
		if name != "" && name != "." {
			out = append(out, name)
		}
	}
	return out
}

func listDatasets(w io.Writer, cfg *dataset.Config, names []string) error {
	if len(names) == 0 {
		found, err := dataset.Discover(cfg)
		if err != nil {
			return err
		}
		names = found
	}
	for _, name := range names {
		job, err := cfg.Job(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", job.Name, job.Kind, job.Mode, job.Input)
	}
	return nil
}

func writeHeaders(ctx context.Context, w io.Writer, r *dataset.Runner, names []string, write bool) error {
	if len(names) == 0 {
		return &ExitError{Code: 2, Message: "headers: at least one dataset is required (-file or argument)"}
	}
	for _, name := range names {
		if write {
			path, err := r.WriteHeaders(ctx, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, path)
			continue
		}
		header, err := r.Headers(ctx, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, strings.Join(header, ","))
	}
	return nil
}

func newPublisher(ctx context.Context, cfg dataset.Publish, getenv func(string) string) (*publish.Publisher, error) {
	if !cfg.Enabled() {
		return nil, &ExitError{Code: 2, Message: "-publish needs publish.bucket in the config"}
	}
	pub, err := publish.New(publish.Config{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
		AccessKey: getenv("LUACSV_S3_ACCESS_KEY"),
		SecretKey: getenv("LUACSV_S3_SECRET_KEY"),
	})
	if err != nil {
		return nil, err
	}
	if err := pub.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return pub, nil
}

func exitErr(err error) {
	var ee *ExitError
	if errors.As(err, &ee) {
		fmt.Fprintln(os.Stderr, ee.Message)
		os.Exit(ee.Code)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
