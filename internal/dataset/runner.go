package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"luacsv/internal/luatable"
	"luacsv/internal/project"
	"luacsv/internal/tabular"
)

// Publisher receives the files written for a dataset.
type Publisher interface {
	Upload(ctx context.Context, dataset string, paths []string) ([]string, error)
}

// Runner converts datasets described by Config.
type Runner struct {
	Config    *Config
	Logger    *slog.Logger
	Publisher Publisher // optional
	Now       func() time.Time
}

// Result describes one converted dataset.
type Result struct {
	Dataset string
	Rows    int
	Skipped int // entries dropped by the tolerant scanner
	Outputs []string
	Objects []string
}

// Summary is the outcome of a batch.
type Summary struct {
	Results []Result
	Failed  []string
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run converts names, or every discovered dataset when names is empty.
// A failed dataset is logged and the batch moves on; the returned error
// joins all failures. With Config.FailFast the batch stops at the first
// failure instead.
func (r *Runner) Run(ctx context.Context, names []string) (Summary, error) {
	var sum Summary
	if len(names) == 0 {
		found, err := Discover(r.Config)
		if err != nil {
			return sum, err
		}
		names = found
	}

	log := r.logger()
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.Convert(ctx, name)
		if err != nil {
			log.Error("conversion failed", "dataset", name, "error", err)
			sum.Failed = append(sum.Failed, name)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			if r.Config.FailFast {
				break
			}
			continue
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, errors.Join(errs...)
}

// Convert runs one dataset through parse, projection and rendering, then
// publishes the written files when a Publisher is set.
func (r *Runner) Convert(ctx context.Context, name string) (Result, error) {
	res := Result{Dataset: name}
	job, err := r.Config.Job(name)
	if err != nil {
		return res, err
	}
	log := r.logger().With("dataset", name)

	header := job.Header
	if job.HeaderFile != "" {
		header, err = tabular.ReadHeader(job.HeaderFile)
		if err != nil {
			return res, err
		}
	}

	records, err := r.parse(job, log, &res)
	if err != nil {
		return res, err
	}

	var rows []project.Row
	switch job.Kind {
	case KindNested:
		rows = project.Nested(records, job.Nested)
	case KindHalo:
		rows = project.Halo(records)
	default:
		rows = project.Flat(records, header)
	}
	res.Rows = len(rows)

	base := filepath.Join(r.Config.Dirs.Output, name)
	if r.Config.DateSuffix {
		base += "_" + r.now().Format("20060102")
	}
	formats := tabular.Formats{XLSX: r.Config.Outputs.XLSX, Parquet: r.Config.Outputs.Parquet}
	res.Outputs, err = tabular.Render(base, tabular.Table{Header: header, Rows: rows}, formats)
	if err != nil {
		return res, err
	}
	log.Info("converted", "rows", res.Rows, "outputs", res.Outputs)

	if r.Publisher != nil {
		res.Objects, err = r.Publisher.Upload(ctx, name, res.Outputs)
		if err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
		log.Info("published", "objects", len(res.Objects))
	}
	return res, nil
}

func (r *Runner) parse(job Job, log *slog.Logger, res *Result) ([]luatable.Record, error) {
	src, err := os.ReadFile(job.Input)
	if err != nil {
		return nil, err
	}
	records, err := luatable.Parse(string(src), job.Mode,
		luatable.WithRepair(job.Repair),
		luatable.WithSkipHandler(func(e *luatable.PartialEntryError) {
			res.Skipped++
			log.Warn("entry skipped", "entry", e.Entry, "offset", e.Offset, "reason", e.Msg)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", job.Input, err)
	}
	log.Debug("parsed", "records", len(records), "mode", job.Mode.String())
	return records, nil
}

// Headers derives the column list of a dataset from its decoded records.
func (r *Runner) Headers(ctx context.Context, name string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job, err := r.Config.Job(name)
	if err != nil {
		return nil, err
	}
	var res Result
	records, err := r.parse(job, r.logger().With("dataset", name), &res)
	if err != nil {
		return nil, err
	}
	header := project.DeriveHeader(records)
	if len(header) == 0 {
		return nil, fmt.Errorf("%s: no fields found", job.Input)
	}
	return header, nil
}

// WriteHeaders derives the columns of name and stores them as its header
// file in the format directory.
func (r *Runner) WriteHeaders(ctx context.Context, name string) (string, error) {
	header, err := r.Headers(ctx, name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.Config.Dirs.Format, name+".csv")
	if err := tabular.WriteHeader(path, header); err != nil {
		return "", err
	}
	r.logger().Info("header written", "dataset", name, "path", path, "columns", len(header))
	return path, nil
}
