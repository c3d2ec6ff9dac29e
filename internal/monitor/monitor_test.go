package monitor_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Park-MinJe/monthly-audit-report/internal/config"
	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/monitor"
	"github.com/Park-MinJe/monthly-audit-report/internal/opengov"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
	"github.com/Park-MinJe/monthly-audit-report/internal/status"
	"github.com/Park-MinJe/monthly-audit-report/internal/summarize"
)

type fakeSource struct {
	docs        []domain.Document
	attachments map[string][]domain.Attachment
	listErr     map[string]error
	files       map[string][]byte
	downloadErr error

	crawled    int
	listed     []string
	downloaded []string
}

func (f *fakeSource) Crawl(_ context.Context, _ quarter.YearMonth) ([]domain.Document, opengov.Stats) {
	f.crawled++
	return f.docs, opengov.Stats{TotalCount: len(f.docs), PagesFetched: 1, Documents: len(f.docs)}
}

func (f *fakeSource) Attachments(_ context.Context, id string) ([]domain.Attachment, error) {
	f.listed = append(f.listed, id)
	if err := f.listErr[id]; err != nil {
		return nil, err
	}
	return f.attachments[id], nil
}

func (f *fakeSource) Download(_ context.Context, url string) ([]byte, error) {
	f.downloaded = append(f.downloaded, url)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.files[url], nil
}

type fakeSummarizer struct {
	payloads []summarize.Payload
}

func (f *fakeSummarizer) Summarize(_ context.Context, provider string, payload any) string {
	p := payload.(summarize.Payload)
	f.payloads = append(f.payloads, p)
	return provider + " summary of " + p.Attachment.Filename
}

func writeRoster(t *testing.T, dir string, names ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "orgs_nm"))
	for i, n := range names {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, n))
	}
	path := filepath.Join(dir, "config", "managed_orgs.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, f.SaveAs(path))
	return path
}

func spreadsheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"일자", "금액"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2025-03-02", 52000}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	return &config.Config{
		OrgsPath:             writeRoster(t, dir, "서울교통공사", "Seoul Metro"),
		SeenStatePath:        filepath.Join(dir, "state", "seen.json"),
		ReportDir:            filepath.Join(dir, "reports"),
		ReportBaseURL:        "https://example.org/audit/",
		QuarterBufferDays:    30,
		QuarterLookbackCount: 8,
		MaxRowsPerSheet:      2000,
		SummaryProvider:      "openai",
		MetricsTextfilePath:  filepath.Join(dir, "metrics", "opengov.prom"),
	}
}

func clock(t time.Time) monitor.Option {
	return monitor.WithClock(func() time.Time { return t })
}

const (
	xlsxURL = "https://opengov.seoul.go.kr/og/com/download.php?uri=/a/q1.xlsx"
	hwpURL  = "https://opengov.seoul.go.kr/og/com/download.php?uri=/a/q1.hwp"
)

func sampleSource(t *testing.T) *fakeSource {
	t.Helper()
	return &fakeSource{
		docs: []domain.Document{
			{ID: "1", Title: "서울교통공사 2025년 1분기 업무추진비", URL: "https://opengov.seoul.go.kr/public/1", PublishDate: quarter.Date(2025, time.March, 14)},
			{ID: "2", Title: "Seoul Metro 2024년 4분기", URL: "https://opengov.seoul.go.kr/public/2", PublishDate: quarter.Date(2025, time.February, 10)},
			{ID: "3", Title: "미등록기관 2025년 1분기", URL: "https://opengov.seoul.go.kr/public/3", PublishDate: quarter.Date(2025, time.March, 20)},
			{ID: "4", Title: "서울교통공사 공지", URL: "https://opengov.seoul.go.kr/public/4"},
		},
		attachments: map[string][]domain.Attachment{
			"1": {
				{DocumentID: "1", Filename: "Q1.XLSX", URL: xlsxURL},
				{DocumentID: "1", Filename: "q1.hwp", URL: hwpURL},
			},
		},
		files: map[string][]byte{xlsxURL: spreadsheet(t)},
	}
}

var april1 = time.Date(2025, time.April, 1, 9, 0, 0, 0, quarter.KST)

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	src := sampleSource(t)
	sum := &fakeSummarizer{}

	res, err := monitor.NewRunner(cfg, src, sum, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, quarter.YearMonth{Year: 2025, Month: time.March}, res.Month)
	assert.Equal(t, filepath.Join(cfg.ReportDir, "2025-03.md"), res.ReportPath)
	assert.Equal(t, "https://example.org/audit/"+filepath.ToSlash(res.ReportPath), res.ReportLink)
	assert.Equal(t, 4, res.Documents)
	assert.Equal(t, 2, res.MonthDocuments)
	assert.Equal(t, []string{"1"}, src.listed, "only roster-matched month documents are opened")
	assert.Equal(t, []string{xlsxURL}, src.downloaded)

	require.Len(t, sum.payloads, 1)
	assert.Equal(t, "서울교통공사", sum.payloads[0].Organization)
	assert.Equal(t, 1, sum.payloads[0].Stats.TotalRowsLoaded)

	md, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# OpenGov 업로드 점검 리포트 (2025-03)")
	assert.Contains(t, string(md), "- [Q1.XLSX]("+xlsxURL+")\n  - 요약:\n\n```\nopenai summary of Q1.XLSX\n```\n")
	assert.Contains(t, string(md), "- [q1.hwp]("+hwpURL+") — 지원하지 않는 파일입니다\n")
	assert.NotContains(t, string(md), "미등록기관")

	raw, err := os.ReadFile(cfg.SeenStatePath)
	require.NoError(t, err)
	var seen struct {
		SeenKeys []string `json:"seen_keys"`
	}
	require.NoError(t, json.Unmarshal(raw, &seen))
	assert.Equal(t, []string{"1|" + hwpURL, "1|" + xlsxURL}, seen.SeenKeys)

	st, ok := res.Statuses.Lookup("서울교통공사", quarter.YearQuarter{Year: 2025, Quarter: 1})
	require.True(t, ok)
	assert.Equal(t, status.OK, st)
	assert.Len(t, res.Statuses, 8)

	prom, err := os.ReadFile(cfg.MetricsTextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "opengov_monitor_run_success 1")
}

func TestRun_SecondRunSkipsProcessedSpreadsheets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	sum := &fakeSummarizer{}

	_, err := monitor.NewRunner(cfg, sampleSource(t), sum, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	again := sampleSource(t)
	res, err := monitor.NewRunner(cfg, again, sum, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, sum.payloads, 1, "no second summarization")
	assert.Empty(t, again.downloaded, "no second download")

	md, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "- [Q1.XLSX]("+xlsxURL+")\n- [q1.hwp]")
	assert.NotContains(t, string(md), "요약:")
}

func TestRun_DownloadFailureIsReportedAndMarkedSeen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	src := sampleSource(t)
	src.downloadErr = errors.New("connection reset")

	res, err := monitor.NewRunner(cfg, src, &fakeSummarizer{}, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	md, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "```\n(xlsx 처리 실패: connection reset)\n```")

	raw, err := os.ReadFile(cfg.SeenStatePath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "1|"+xlsxURL)
}

func TestRun_ParseFailureIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	src := sampleSource(t)
	src.files[xlsxURL] = []byte("<html>login required</html>")
	sum := &fakeSummarizer{}

	res, err := monitor.NewRunner(cfg, src, sum, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	md, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "(xlsx 처리 실패: open workbook:")
	assert.Empty(t, sum.payloads)
}

func TestRun_AttachmentListingFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	src := sampleSource(t)
	src.listErr = map[string]error{"1": errors.New("detail page timeout")}

	res, err := monitor.NewRunner(cfg, src, &fakeSummarizer{}, logger.NewNop(), clock(april1)).Run(context.Background())
	require.NoError(t, err)

	md, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "- (첨부 목록 조회 실패: detail page timeout)")
}

func TestRun_MissingRosterAbortsBeforeCrawling(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.OrgsPath = filepath.Join(dir, "missing.xlsx")
	src := sampleSource(t)

	_, err := monitor.NewRunner(cfg, src, &fakeSummarizer{}, logger.NewNop(), clock(april1)).Run(context.Background())

	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Zero(t, src.crawled)
	_, statErr := os.Stat(filepath.Join(cfg.ReportDir, "2025-03.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_QuarterStatusScenarios(t *testing.T) {
	t.Parallel()

	q1 := quarter.YearQuarter{Year: 2025, Quarter: 1}
	undated := []domain.Document{{ID: "10", Title: "Seoul Metro 2025년 1분기 업무추진비"}}

	tests := []struct {
		name string
		now  time.Time
		docs []domain.Document
		want status.Status
	}{
		{"undated document counts as on time", time.Date(2025, time.May, 15, 9, 0, 0, 0, quarter.KST), undated, status.OK},
		{"before deadline", time.Date(2025, time.April, 1, 9, 0, 0, 0, quarter.KST), nil, status.Pending},
		{"after deadline", time.Date(2025, time.May, 1, 9, 0, 0, 0, quarter.KST), nil, status.Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t, t.TempDir())
			cfg.MetricsTextfilePath = ""
			src := &fakeSource{docs: tt.docs}

			res, err := monitor.NewRunner(cfg, src, &fakeSummarizer{}, logger.NewNop(), clock(tt.now)).Run(context.Background())
			require.NoError(t, err)

			st, ok := res.Statuses.Lookup("Seoul Metro", q1)
			require.True(t, ok)
			assert.Equal(t, tt.want, st)
		})
	}
}

func TestIsSpreadsheet(t *testing.T) {
	t.Parallel()

	assert.True(t, monitor.IsSpreadsheet("a.xlsx"))
	assert.True(t, monitor.IsSpreadsheet("A.XLSX"))
	assert.False(t, monitor.IsSpreadsheet("a.xls"))
	assert.False(t, monitor.IsSpreadsheet("a.xlsx.pdf"))
}
