// Package report renders and writes the monthly Markdown upload report.
package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
	"github.com/Park-MinJe/monthly-audit-report/internal/status"
)

const (
	noMonthDocuments   = "- (해당 월 공개 문서 없음)\n"
	noAttachments      = "- (첨부 없음)\n\n"
	unmatchedOrg       = "(기관 매칭 실패)"
	unknownDate        = "unknown"
	unknownStatus      = "UNKNOWN"
	unsupportedSuffix  = " — 지원하지 않는 파일입니다"
	unknownDeadlineTag = "?"
)

// Input is everything the report shows.
type Input struct {
	Month         quarter.YearMonth
	Documents     []domain.DocumentReport
	Organizations []string
	Quarters      []quarter.YearQuarter
	Statuses      status.Table
	BufferDays    int
}

// Render builds the report Markdown.
func Render(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# OpenGov 업로드 점검 리포트 (%s)\n\n", in.Month)
	b.WriteString("- 실행: 매월 1일 09:00(KST)\n")
	b.WriteString("- 월별 리포트는 **직전 월** 기준으로 생성\n")
	fmt.Fprintf(&b, "- 분기 누락 집계: **분기 종료 + %d일 버퍼**\n\n", in.BufferDays)

	writeQuarterTable(&b, in)

	b.WriteString("## 이번 리포트에 포함된 문서/첨부(직전 월 공개 기준)\n\n")
	if len(in.Documents) == 0 {
		b.WriteString(noMonthDocuments)
		return b.String()
	}
	for _, d := range in.Documents {
		writeDocument(&b, d)
	}
	return b.String()
}

func writeQuarterTable(b *strings.Builder, in Input) {
	b.WriteString("## 분기별 업로드 상태(기관별)\n\n")

	b.WriteString("|**기관명**|")
	for _, yq := range in.Quarters {
		deadline := unknownDeadlineTag
		if dl, err := yq.Deadline(in.BufferDays); err == nil {
			deadline = quarter.FormatDate(dl)
		}
		fmt.Fprintf(b, "**%d Q%d** (마감 %s)|", yq.Year, yq.Quarter, deadline)
	}
	b.WriteString("\n|-|")
	for range in.Quarters {
		b.WriteString("-|")
	}

	names := slices.Clone(in.Organizations)
	slices.Sort(names)
	for _, org := range names {
		fmt.Fprintf(b, "\n|%s|", org)
		for _, yq := range in.Quarters {
			b.WriteString(statusCell(in.Statuses, org, yq))
			b.WriteString("|")
		}
	}
	b.WriteString("\n")
}

func statusCell(t status.Table, org string, yq quarter.YearQuarter) string {
	st, ok := t.Lookup(org, yq)
	if !ok {
		return unknownStatus
	}
	if st == status.Late || st == status.Missing {
		return "***" + string(st) + "***"
	}
	return string(st)
}

func writeDocument(b *strings.Builder, d domain.DocumentReport) {
	org := d.Organization
	if org == "" {
		org = unmatchedOrg
	}

	fmt.Fprintf(b, "### %s\n\n", org)
	fmt.Fprintf(b, "- 문서: [%s](%s)\n", d.Document.Title, d.Document.URL)
	fmt.Fprintf(b, "- 공개일: %s\n", publishDate(d.Document))
	fmt.Fprintf(b, "- nid: `%s`\n\n", d.Document.ID)
	b.WriteString("#### 첨부\n\n")

	if d.AttachmentError != "" {
		fmt.Fprintf(b, "- (첨부 목록 조회 실패: %s)\n\n", d.AttachmentError)
		return
	}
	if len(d.Attachments) == 0 {
		b.WriteString(noAttachments)
		return
	}

	for _, a := range d.Attachments {
		fmt.Fprintf(b, "- [%s](%s)", a.Attachment.Filename, a.Attachment.URL)
		if a.Kind == domain.AttachmentUnsupported {
			b.WriteString(unsupportedSuffix + "\n")
			continue
		}
		b.WriteString("\n")
		if summary := strings.TrimSpace(a.Summary); summary != "" {
			fmt.Fprintf(b, "  - 요약:\n\n```\n%s\n```\n", summary)
		}
	}
	b.WriteString("\n")
}

func publishDate(d domain.Document) string {
	if !d.HasPublishDate() {
		return unknownDate
	}
	return d.PublishDate.Format(time.DateOnly)
}
