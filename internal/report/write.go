package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
)

// Path returns where the report for ym is written.
func Path(dir string, ym quarter.YearMonth) string {
	return filepath.Join(dir, ym.String()+".md")
}

// Write saves content to {dir}/{YYYY-MM}.md, replacing any earlier report
// for the same month, and returns the path.
func Write(dir string, ym quarter.YearMonth, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := Path(dir, ym)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Link joins baseURL and the report path with forward slashes.
// It returns "" when baseURL is blank.
func Link(baseURL, path string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return ""
	}
	return base + "/" + filepath.ToSlash(path)
}

// CompletionMessage is the one-line notice logged after a report is written.
func CompletionMessage(path string) string {
	return fmt.Sprintf("[OpenGov 점검] %s 생성 완료", path)
}
