package opengov_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
)

const detailPage = `<html><body>
<div class="files">
  <a href="/og/com/download.php?uri=%2Fdata%2F2025%2Fexpense_q1.xlsx&amp;dname=%25EC%2597%2585%25EB%25AC%25B4%25EC%25B6%2594%25EC%25A7%2584%25EB%25B9%2584.xlsx">다운로드</a>
  <a href="/og/com/download.php?uri=%2Fdata%2F2025%2Fnotice.hwp">다운로드</a>
  <a href="/og/com/download.php?id=77"> 붙임 문서.pdf </a>
  <a href="/og/com/download.php?id=78"></a>
  <a href="/og/com/download.php?uri=%2Fdata%2F2025%2Fnotice.hwp">다시 다운로드</a>
  <a href="/other/link">ignore</a>
</div>
</body></html>`

func TestAttachments(t *testing.T) {
	t.Parallel()

	site := newFakeSite()
	site.details["5001"] = detailPage
	srv := httptest.NewServer(site)
	defer srv.Close()

	atts, err := newCrawler(t, srv, 1).Attachments(context.Background(), "5001")
	require.NoError(t, err)

	require.Len(t, atts, 4)
	assert.Equal(t, "업무추진비.xlsx", atts[0].Filename)
	assert.Equal(t, "notice.hwp", atts[1].Filename)
	assert.Equal(t, "붙임 문서.pdf", atts[2].Filename)
	assert.Equal(t, "attachment", atts[3].Filename)

	assert.Equal(t, srv.URL+"/og/com/download.php?id=77", atts[2].URL)
	for _, a := range atts {
		assert.Equal(t, "5001", a.DocumentID)
	}
}

func TestAttachments_DetailPageMissing(t *testing.T) {
	t.Parallel()

	site := newFakeSite()
	srv := httptest.NewServer(site)
	defer srv.Close()

	_, err := newCrawler(t, srv, 1).Attachments(context.Background(), "404")

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 404, fetchErr.StatusCode)
}

func TestDownload(t *testing.T) {
	t.Parallel()

	site := newFakeSite()
	srv := httptest.NewServer(site)
	defer srv.Close()

	body, err := newCrawler(t, srv, 1).Download(context.Background(), srv.URL+"/og/com/download.php?uri=a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "PK-a.xlsx", string(body))
}
