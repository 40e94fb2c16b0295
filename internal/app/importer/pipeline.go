package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/heartmarshall/dictnorm/internal/align"
	"github.com/heartmarshall/dictnorm/internal/app/importer/layout"
	"github.com/heartmarshall/dictnorm/internal/domain"
	"github.com/heartmarshall/dictnorm/internal/script"
	"github.com/heartmarshall/dictnorm/pkg/ctxutil"
)

const defaultBatchSize = 500

// Config holds import pipeline settings.
type Config struct {
	BatchSize int
	DryRun    bool
}

// Result holds the outcome of one import run.
type Result struct {
	Rows        int
	Entries     []domain.Entry
	Diagnostics []domain.Diagnostic
	Skipped     int
	Inserted    int
	InputDigest string
	RunID       string
	Duration    time.Duration
}

// Pipeline converts one source table per run.
type Pipeline struct {
	log    *slog.Logger
	layout layout.Layout
	conv   script.Converter
	sink   Sink
	diag   io.Writer
	cfg    Config
	asm    align.Assembler

	resolve func(align.Block) ([]align.Pair, error)
}

// NewPipeline creates a new Pipeline. diag receives one line per diagnostic
// and may be nil.
func NewPipeline(log *slog.Logger, lay layout.Layout, conv script.Converter, sink Sink, diag io.Writer, cfg Config) *Pipeline {
	return &Pipeline{
		log:    log,
		layout: lay,
		conv:   conv,
		sink:   sink,
		diag:   diag,
		cfg:    cfg,
		asm:    align.Assembler{SplitSenses: lay.SplitSenses()},

		resolve: align.Resolve,
	}
}

// Run reads the table at path, converts it and appends the entries to the
// sink. Diagnostics are written even when the run aborts; entries are not.
func (p *Pipeline) Run(ctx context.Context, path string) (Result, error) {
	in, err := ReadInput(path)
	if err != nil {
		return Result{}, err
	}

	// A run ID set by the caller is already on the caller's logger.
	log := p.log
	runID := ctxutil.RunIDFromCtx(ctx)
	if runID == "" {
		ctx, runID = ctxutil.EnsureRunID(ctx)
		log = log.With(slog.String("run_id", runID))
	}

	log.Info("starting import",
		slog.String("input", path),
		slog.String("layout", p.layout.Name()),
		slog.String("source", p.layout.SourceTag()),
		slog.String("digest", in.Digest),
	)

	res, err := p.Convert(ctx, bytes.NewReader(in.Data))
	res.InputDigest = in.Digest
	res.RunID = runID

	if werr := p.writeDiagnostics(log, res.Diagnostics); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		var abort *AbortError
		if errors.As(err, &abort) {
			log.Error("import aborted",
				slog.Int("row", abort.Row),
				slog.String("headword", abort.Headword),
				slog.String("error", abort.Err.Error()),
			)
		}
		return res, err
	}

	if !p.cfg.DryRun {
		res.Inserted, err = batchProcess(res.Entries, p.cfg.BatchSize, func(batch []domain.Entry) (int, error) {
			return p.sink.AppendEntries(ctx, batch)
		})
		if err != nil {
			return res, fmt.Errorf("append entries: %w", err)
		}
	}

	log.Info("import completed",
		slog.Int("rows", res.Rows),
		slog.Int("entries", len(res.Entries)),
		slog.Int("inserted", res.Inserted),
		slog.Int("skipped", res.Skipped),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Bool("dry_run", p.cfg.DryRun),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// Convert parses a tab-separated table held in memory. It never touches the
// sink: entries and diagnostics come back in input order.
func (p *Pipeline) Convert(ctx context.Context, r io.Reader) (res Result, err error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1 // layouts check their own cell count
	reader.LazyQuotes = true

	defer func() { res.Duration = time.Since(start) }()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		res.Rows++

		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, fmt.Errorf("read row %d: %w", res.Rows, err)
			}
			res.addDiagnostic(domain.Diagnostic{
				Severity: domain.SeveritySkipped,
				Row:      perr.StartLine,
				Reason:   fmt.Errorf("%w: %v", layout.ErrMalformedRow, perr.Err).Error(),
			})
			continue
		}

		line, _ := reader.FieldPos(0)
		entries, diags, err := p.convertRow(line, cells)
		for _, d := range diags {
			res.addDiagnostic(d)
		}
		if err != nil {
			return res, err
		}
		res.Entries = append(res.Entries, entries...)
	}

	return res, nil
}

func (r *Result) addDiagnostic(d domain.Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	if d.Skips() {
		r.Skipped++
	}
}

// convertRow turns one row into entries. A returned error stops the run;
// row-level problems come back as diagnostics.
func (p *Pipeline) convertRow(line int, cells []string) ([]domain.Entry, []domain.Diagnostic, error) {
	ext, err := p.layout.Extract(cells)
	if err != nil {
		return nil, []domain.Diagnostic{newDiagnostic(line, ext.Headword, err, ext.Context)}, nil
	}

	var diags []domain.Diagnostic
	for _, w := range ext.Warnings {
		diags = append(diags, domain.Diagnostic{
			Severity: domain.SeverityWeird,
			Row:      line,
			Headword: ext.Headword,
			Reason:   w,
		})
	}

	entries := make([]domain.Entry, 0, len(ext.Blocks))
	for _, b := range ext.Blocks {
		pairs, err := p.resolve(b)
		if errors.Is(err, align.ErrSideMismatch) {
			return nil, diags, &AbortError{Row: line, Headword: b.Headword, Err: err}
		}
		if err != nil {
			diags = append(diags, newDiagnostic(line, b.Headword, err, strings.Join(b.Readings, "\n")))
			continue
		}

		variants, err := script.Variants(p.conv, b.Headword)
		if err != nil {
			return nil, diags, fmt.Errorf("row %d: %w", line, err)
		}

		e := p.asm.Assemble(b.Headword, variants, p.layout.SourceTag(), pairs)
		if err := e.Validate(); err != nil {
			diags = append(diags, newDiagnostic(line, b.Headword, err, ""))
			continue
		}
		entries = append(entries, e)
	}

	return entries, diags, nil
}

// newDiagnostic classifies a row error. Group count failures are UNKNOWN and
// carry the raw groups; every other row error is SKIPPED.
func newDiagnostic(line int, headword string, err error, context string) domain.Diagnostic {
	severity := domain.SeveritySkipped

	var ge *align.GroupError
	if errors.As(err, &ge) {
		severity = domain.SeverityUnknown
		context = align.FormatGroups(ge.Groups)
	}

	return domain.Diagnostic{
		Severity: severity,
		Row:      line,
		Headword: headword,
		Reason:   err.Error(),
		Context:  context,
	}
}

func (p *Pipeline) writeDiagnostics(log *slog.Logger, diags []domain.Diagnostic) error {
	for _, d := range diags {
		log.Warn("row diagnostic",
			slog.String("severity", string(d.Severity)),
			slog.Int("row", d.Row),
			slog.String("headword", d.Headword),
			slog.String("reason", d.Reason),
		)
		if p.diag == nil {
			continue
		}
		if _, err := fmt.Fprintln(p.diag, d.String()); err != nil {
			return fmt.Errorf("write diagnostics: %w", err)
		}
	}
	return nil
}

// batchProcess splits items into batches and calls fn for each batch.
// Returns the total count returned by fn across all batches.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
