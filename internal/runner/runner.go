// =============================================================================
// Receivables Reconciler - Run Orchestration
// =============================================================================
//
// This module orchestrates one reconciliation run, from locating the three
// source exports to writing the ledger.
//
// RUN PIPELINE:
//   1. Resolve source paths (explicit paths win over input_dir discovery)
//   2. Load the three tables concurrently
//   3. Reconcile (schema check, merge, withholdings, balances, aging)
//   4. Write the ledger in every configured format
//   5. Write the run summary
//   6. Archive the sources (only when requested)
//
// Load and schema failures abort the run and are written to an error log
// in the output directory. Sources are never archived after a failure.
//
// =============================================================================

package runner

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cobranzas/receivables-reconciler/internal/config"
	"github.com/cobranzas/receivables-reconciler/internal/export"
	"github.com/cobranzas/receivables-reconciler/internal/ledger"
	"github.com/cobranzas/receivables-reconciler/internal/tableio"
	"github.com/cobranzas/receivables-reconciler/internal/types"
	"github.com/cobranzas/receivables-reconciler/pkg/utils"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// SOURCES AND RESULT
// =============================================================================

// Sources holds the paths of the three exports. Empty paths are discovered
// in the input directory through the configured patterns.
type Sources struct {
	Invoices    string
	Collections string
	Clients     string
}

// Result is the outcome of one run.
type Result struct {
	Sources Sources

	// Ledger is nil when the run failed before reconciliation.
	Ledger *ledger.Result

	Summary export.Summary

	// OutputFiles lists the written ledger files. Empty on dry runs.
	OutputFiles []string

	SummaryFile string
	ErrorLog    string
	Archived    []string
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes reconciliation runs for one configuration.
type Runner struct {
	cfg   *config.MainConfig
	opts  ledger.Options
	log   logrus.FieldLogger
	files *utils.FileManager

	// DryRun reconciles without writing any file or archiving.
	DryRun bool

	// Archive moves the sources to the archive directory after success.
	Archive bool
}

// New creates a Runner.
func New(cfg *config.MainConfig, opts ledger.Options, log logrus.FieldLogger) *Runner {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Runner{
		cfg:   cfg,
		opts:  opts,
		log:   log,
		files: utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir),
	}
}

// Run executes the run pipeline.
func (r *Runner) Run(src Sources) (*Result, error) {
	start := time.Now()
	result := &Result{}

	in, resolved, err := r.Load(src)
	result.Sources = resolved
	if err != nil {
		result.ErrorLog = r.logFailure("load", err)
		return result, err
	}

	rec, err := ledger.Reconcile(in, r.opts, r.log)
	if err != nil {
		result.ErrorLog = r.logFailure("schema", err)
		return result, err
	}
	result.Ledger = rec
	result.Summary = export.Summarize(rec, r.opts)

	if r.DryRun {
		r.log.WithField("rows", len(rec.Rows)).Info("dry run, no files written")
		return result, nil
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return result, err
	}

	params := map[string]string{"date": r.opts.Today.Format("20060102")}
	base := r.files.GenerateOutputFileName(r.cfg.Output.NameFormat, "", params)

	for _, format := range r.cfg.Output.Formats {
		path := filepath.Join(r.cfg.OutputDir, base+"."+format)
		if err := r.write(format, path, rec, &result.Summary); err != nil {
			result.ErrorLog = r.logFailure("output", err)
			return result, err
		}
		result.OutputFiles = append(result.OutputFiles, path)
		r.log.WithField("file", path).Info("ledger written")
	}

	result.Summary.StartTime = start
	result.Summary.EndTime = time.Now()
	if r.cfg.Output.WriteSummary == nil || *r.cfg.Output.WriteSummary {
		path := filepath.Join(r.cfg.OutputDir, base+"_resumen.txt")
		if err := export.WriteSummary(result.Summary, path, result.OutputFiles); err != nil {
			r.log.WithError(err).Warn("failed to write summary")
		} else {
			result.SummaryFile = path
		}
	}

	if r.Archive {
		for _, p := range []string{resolved.Invoices, resolved.Collections, resolved.Clients} {
			archived, err := r.files.ArchiveInputFile(p)
			if err != nil {
				r.log.WithError(err).WithField("file", p).Warn("failed to archive source")
				continue
			}
			result.Archived = append(result.Archived, archived)
		}
	}

	return result, nil
}

func (r *Runner) write(format, path string, rec *ledger.Result, summary *export.Summary) error {
	switch format {
	case "xlsx":
		return export.WriteXLSX(path, rec.Rows, summary)
	case "csv":
		return export.WriteCSV(path, rec.Rows)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// =============================================================================
// LOADING
// =============================================================================

type loadJob struct {
	name     string
	path     string
	settings config.SourceSettings
	target   **types.Table
}

type loadResult struct {
	job   loadJob
	table *types.Table
	err   error
}

// Load resolves the source paths and reads the three tables concurrently.
// Every failing dataset is reported, not just the first.
func (r *Runner) Load(src Sources) (ledger.Inputs, Sources, error) {
	var in ledger.Inputs
	resolved := src

	jobs := []loadJob{
		{"invoices", src.Invoices, r.cfg.Sources.Invoices, &in.Invoices},
		{"collections", src.Collections, r.cfg.Sources.Collections, &in.Collections},
		{"clients", src.Clients, r.cfg.Sources.Clients, &in.Clients},
	}
	paths := []*string{&resolved.Invoices, &resolved.Collections, &resolved.Clients}

	var errs []error
	for i := range jobs {
		if jobs[i].path != "" {
			continue
		}
		p, err := r.files.DiscoverInputFile(jobs[i].settings.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", jobs[i].name, err))
			continue
		}
		jobs[i].path = p
		*paths[i] = p
	}
	if len(errs) > 0 {
		return in, resolved, errors.Join(errs...)
	}

	var wg sync.WaitGroup
	results := make(chan loadResult, len(jobs))

	for _, job := range jobs {
		wg.Add(1)
		go func(job loadJob) {
			defer wg.Done()
			table, err := tableio.Load(job.path, job.name, job.settings)
			results <- loadResult{job: job, table: table, err: err}
		}(job)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.job.name, res.err))
			continue
		}
		*res.job.target = res.table
		r.log.WithFields(logrus.Fields{
			"dataset": res.job.name,
			"file":    res.job.path,
			"rows":    res.table.Len(),
		}).Debug("source loaded")
	}

	if len(errs) > 0 {
		// channel order is not deterministic
		sortErrors(errs)
		return in, resolved, errors.Join(errs...)
	}
	return in, resolved, nil
}

func sortErrors(errs []error) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
}

// =============================================================================
// FAILURE LOGGING
// =============================================================================

// logFailure logs err and writes it to the error log. It returns the log
// path, or "" on dry runs or when the log could not be written.
func (r *Runner) logFailure(kind string, err error) string {
	config.LogError(r.log, "runner", "Run", kind, err)
	if r.DryRun {
		return ""
	}

	var entries []utils.ErrorLogEntry
	now := time.Now()

	var schemaErr *ledger.SchemaError
	for _, e := range unwrapJoined(err) {
		entry := utils.ErrorLogEntry{Timestamp: now, ErrorType: kind, ErrorMessage: e.Error()}
		if errors.As(e, &schemaErr) {
			entry.Dataset = schemaErr.Dataset
			entry.FileName = schemaErr.File
		}
		entries = append(entries, entry)
	}

	if err := r.files.EnsureDirectories(); err != nil {
		r.log.WithError(err).Warn("failed to prepare output directory")
		return ""
	}
	path, werr := r.files.WriteErrorLog(entries)
	if werr != nil {
		r.log.WithError(werr).Warn("failed to write error log")
		return ""
	}
	return path
}

// unwrapJoined flattens errors.Join trees through single %w wrappers.
func unwrapJoined(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner)
			}
			return
		}
		if single := errors.Unwrap(e); single != nil {
			if _, ok := single.(interface{ Unwrap() []error }); ok {
				walk(single)
				return
			}
		}
		out = append(out, e)
	}
	walk(err)
	return out
}
