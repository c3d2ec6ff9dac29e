// Package monitor runs one monthly crawl, reconcile and report cycle.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Park-MinJe/monthly-audit-report/internal/config"
	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/metrics"
	"github.com/Park-MinJe/monthly-audit-report/internal/opengov"
	"github.com/Park-MinJe/monthly-audit-report/internal/orgs"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
	"github.com/Park-MinJe/monthly-audit-report/internal/report"
	"github.com/Park-MinJe/monthly-audit-report/internal/state"
	"github.com/Park-MinJe/monthly-audit-report/internal/status"
	"github.com/Park-MinJe/monthly-audit-report/internal/xlsx"
)

// DocumentSource is the disclosure site.
type DocumentSource interface {
	Crawl(ctx context.Context, ym quarter.YearMonth) ([]domain.Document, opengov.Stats)
	Attachments(ctx context.Context, documentID string) ([]domain.Attachment, error)
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// Summarizer turns a payload into report text. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, provider string, payload any) string
}

// SheetParser parses a spreadsheet into capped records.
type SheetParser func(data []byte, maxRowsPerSheet int) (*xlsx.Workbook, error)

// Result describes a finished run.
type Result struct {
	RunID          string
	Month          quarter.YearMonth
	ReportPath     string
	ReportLink     string
	Documents      int
	MonthDocuments int
	Statuses       status.Table
	Crawl          opengov.Stats
}

// Runner wires the collaborators of a run.
type Runner struct {
	cfg        *config.Config
	source     DocumentSource
	summarizer Summarizer
	parse      SheetParser
	log        logger.Logger
	now        func() time.Time
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock replaces the KST clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithSheetParser replaces xlsx.Parse.
func WithSheetParser(p SheetParser) Option {
	return func(r *Runner) { r.parse = p }
}

// NewRunner builds a Runner.
func NewRunner(cfg *config.Config, source DocumentSource, summarizer Summarizer, log logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	r := &Runner{
		cfg:        cfg,
		source:     source,
		summarizer: summarizer,
		parse:      xlsx.Parse,
		log:        log,
		now:        quarter.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run produces the report for the month before now.
// Only configuration problems and failures to write the report or the seen
// state are returned; everything else is logged and reflected in the report.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	rec := metrics.NewRecorder()

	res, err := r.run(ctx, rec)

	rec.ObserveRun(time.Since(start), err == nil, time.Now())
	if path := r.cfg.MetricsTextfilePath; path != "" {
		if werr := rec.WriteTextfile(path); werr != nil {
			r.log.Warn("Failed to write metrics textfile", logger.String("path", path), logger.Error(werr))
		}
	}
	return res, err
}

func (r *Runner) run(ctx context.Context, rec *metrics.Recorder) (*Result, error) {
	now := r.now()
	today := quarter.DateOf(now)
	target := quarter.PreviousMonth(now)
	quarters := quarter.ReportQuarters(today)

	runID := uuid.NewString()
	log := r.log.With(logger.RunID(runID), logger.String("month", target.String()))
	ctx = logger.WithContext(ctx, log)

	log.Info("Run started",
		logger.String("today", quarter.FormatDate(today)),
		logger.Int("buffer_days", r.cfg.QuarterBufferDays),
		logger.Int("lookback_count", r.cfg.QuarterLookbackCount),
		logger.String("summary_provider", r.cfg.SummaryProvider),
	)

	roster, err := orgs.LoadRoster(r.cfg.OrgsPath)
	if err != nil {
		log.Error("Failed to load organization roster", logger.Error(err))
		return nil, err
	}
	seen, err := state.Load(r.cfg.SeenStatePath)
	if err != nil {
		log.Error("Failed to load seen state", logger.Error(err))
		return nil, &domain.ConfigError{Source: r.cfg.SeenStatePath, Err: err}
	}
	log.Info("Inputs loaded", logger.Int("organizations", len(roster)), logger.Int("seen_keys", seen.Len()))

	docs, stats := r.source.Crawl(ctx, target)
	rec.ObserveCrawl(stats)

	table := status.Reconcile(docs, roster, quarters, today, r.cfg.QuarterBufferDays)
	rec.ObserveStatuses(table)

	monthDocs := filterMonth(docs, target)
	rec.MonthDocuments.Set(float64(len(monthDocs)))
	log.Info("Documents classified",
		logger.Int("documents", len(docs)),
		logger.Int("month_documents", len(monthDocs)),
	)

	proc := &attachmentProcessor{
		seen:       seen,
		source:     r.source,
		parse:      r.parse,
		summarizer: r.summarizer,
		provider:   r.cfg.SummaryProvider,
		maxRows:    r.cfg.MaxRowsPerSheet,
		metrics:    rec,
	}
	reports := r.documentReports(ctx, monthDocs, roster, proc)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before writing report: %w", err)
	}

	md := report.Render(report.Input{
		Month:         target,
		Documents:     reports,
		Organizations: orgs.Names(roster),
		Quarters:      quarters,
		Statuses:      table,
		BufferDays:    r.cfg.QuarterBufferDays,
	})
	path, err := report.Write(r.cfg.ReportDir, target, md)
	if err != nil {
		log.Error("Failed to write report", logger.Error(err))
		return nil, err
	}

	if err := seen.Save(r.cfg.SeenStatePath); err != nil {
		log.Error("Failed to save seen state", logger.Error(err))
		return nil, err
	}

	res := &Result{
		RunID:          runID,
		Month:          target,
		ReportPath:     path,
		ReportLink:     report.Link(r.cfg.ReportBaseURL, path),
		Documents:      len(docs),
		MonthDocuments: len(monthDocs),
		Statuses:       table,
		Crawl:          stats,
	}
	log.Info(report.CompletionMessage(path),
		logger.String("link", res.ReportLink),
		logger.Int("seen_keys", seen.Len()),
	)
	return res, nil
}

func (r *Runner) documentReports(ctx context.Context, docs []domain.Document, roster []orgs.Organization, proc *attachmentProcessor) []domain.DocumentReport {
	log := logger.FromContext(ctx)

	var out []domain.DocumentReport
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		org, ok := orgs.Match(roster, doc.Title)
		if !ok {
			continue
		}

		dr := domain.DocumentReport{Organization: org.Name, Document: doc}
		atts, err := r.source.Attachments(ctx, doc.ID)
		if err != nil {
			log.Warn("Failed to list attachments", logger.String("document_id", doc.ID), logger.Error(err))
			dr.AttachmentError = err.Error()
			out = append(out, dr)
			continue
		}
		for _, att := range atts {
			dr.Attachments = append(dr.Attachments, proc.process(ctx, org.Name, doc, att))
		}
		out = append(out, dr)
	}
	return out
}

// filterMonth keeps documents whose publish date falls inside ym. Undated
// documents are left out.
func filterMonth(docs []domain.Document, ym quarter.YearMonth) []domain.Document {
	var out []domain.Document
	for _, d := range docs {
		if d.HasPublishDate() && quarter.InMonth(d.PublishDate, ym) {
			out = append(out, d)
		}
	}
	return out
}
