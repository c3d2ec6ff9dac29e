package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/metrics"
	"github.com/Park-MinJe/monthly-audit-report/internal/state"
	"github.com/Park-MinJe/monthly-audit-report/internal/summarize"
)

// IsSpreadsheet reports whether a filename is handled as an xlsx workbook.
func IsSpreadsheet(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// attachmentProcessor handles each attachment at most once across runs.
type attachmentProcessor struct {
	seen       *state.SeenSet
	source     DocumentSource
	parse      SheetParser
	summarizer Summarizer
	provider   string
	maxRows    int
	metrics    *metrics.Recorder
}

// process returns the report line for att. The seen key is recorded in
// every path that reaches a download attempt or skips as unsupported.
func (p *attachmentProcessor) process(ctx context.Context, org string, doc domain.Document, att domain.Attachment) domain.AttachmentReport {
	log := logger.FromContext(ctx).With(
		logger.String("document_id", doc.ID),
		logger.String("filename", att.Filename),
	)
	key := state.Key(doc.ID, att.URL)
	out := domain.AttachmentReport{Attachment: att, Kind: domain.AttachmentSpreadsheet}

	if !IsSpreadsheet(att.Filename) {
		p.seen.Add(key)
		p.metrics.ObserveAttachment(string(domain.AttachmentUnsupported), metrics.OutcomeUnsupported)
		out.Kind = domain.AttachmentUnsupported
		return out
	}

	if p.seen.Contains(key) {
		p.metrics.ObserveAttachment(string(domain.AttachmentSpreadsheet), metrics.OutcomeCached)
		log.Debug("Attachment already processed")
		return out
	}
	defer p.seen.Add(key)

	data, err := p.source.Download(ctx, att.URL)
	if err != nil {
		return p.failed(log, out, err)
	}
	wb, err := p.parse(data, p.maxRows)
	if err != nil {
		return p.failed(log, out, err)
	}

	out.Summary = p.summarizer.Summarize(ctx, p.provider, summarize.NewPayload(org, doc, att, wb))
	p.metrics.ObserveAttachment(string(domain.AttachmentSpreadsheet), metrics.OutcomeSummarized)
	log.Info("Attachment processed",
		logger.Int("sheets", wb.Stats.SheetCount),
		logger.Int("rows", wb.Stats.TotalRowsLoaded),
	)
	return out
}

func (p *attachmentProcessor) failed(log logger.Logger, out domain.AttachmentReport, err error) domain.AttachmentReport {
	log.Warn("Attachment processing failed", logger.Error(err))
	p.metrics.ObserveAttachment(string(domain.AttachmentSpreadsheet), metrics.OutcomeFailed)
	out.Summary = fmt.Sprintf("(xlsx 처리 실패: %v)", err)
	return out
}
