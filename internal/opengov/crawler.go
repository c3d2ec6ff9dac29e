// Package opengov crawls the Seoul OpenGov expense disclosure listing and
// document detail pages.
package opengov

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/extract"
	"github.com/Park-MinJe/monthly-audit-report/internal/logger"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
	"github.com/Park-MinJe/monthly-audit-report/internal/retry"
)

// Defaults for Options.
const (
	DefaultBaseURL         = "https://opengov.seoul.go.kr"
	DefaultItemsPerPage    = 50
	DefaultMaxPages        = 300
	DefaultStopAfterEmpty  = 2
	DefaultTimeout         = 30 * time.Second
	MinDownloadTimeout     = 60 * time.Second
	DefaultUserAgent       = "opengov-monitor/1.0 (+github-actions)"
	DefaultPoliteDelay     = 200 * time.Millisecond
	DefaultRetryDelay      = time.Second
	defaultPageBodyLimit   = 10 << 20
	defaultAttachmentLimit = 64 << 20
)

const (
	rowSelector          = "table tbody tr"
	documentLinkSelector = "a[href*='/public/']"
	downloadLinkSelector = "a[href*='/og/com/download.php']"
	defaultAttachment    = "attachment"
)

var documentIDPattern = regexp.MustCompile(`/public/(\d+)`)

// Options configures a Crawler.
type Options struct {
	BaseURL        string
	ItemsPerPage   int
	MaxPages       int
	StopAfterEmpty int
	Timeout        time.Duration
	// DownloadTimeout applies to attachment downloads; it is never below MinDownloadTimeout.
	DownloadTimeout time.Duration
	UserAgent       string
	PoliteDelay     time.Duration
	RetryDelay      time.Duration
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.ItemsPerPage <= 0 {
		o.ItemsPerPage = DefaultItemsPerPage
	}
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.StopAfterEmpty <= 0 {
		o.StopAfterEmpty = DefaultStopAfterEmpty
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	o.DownloadTimeout = max(o.DownloadTimeout, o.Timeout, MinDownloadTimeout)
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.PoliteDelay <= 0 {
		o.PoliteDelay = DefaultPoliteDelay
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	return o
}

// Stats summarizes one crawl.
type Stats struct {
	SearchYear   int
	TotalCount   int // -1 when the probe failed
	PageBudget   int
	PagesFetched int
	PagesFailed  int
	EmptyPages   int
	Documents    int
}

// Crawler reads the listing and detail pages. It is not safe for concurrent use.
type Crawler struct {
	opts       Options
	base       *url.URL
	pages      Fetcher
	files      Fetcher
	strategies []CountStrategy
	log        logger.Logger
}

// New builds a Crawler over colly collectors.
func New(opts Options, log logger.Logger) (*Crawler, error) {
	opts = opts.WithDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &domain.ConfigError{Source: "OPENGOV_BASE_URL", Err: fmt.Errorf("invalid base url %q", opts.BaseURL)}
	}

	return &Crawler{
		opts:       opts,
		base:       base,
		pages:      newCollyFetcher(opts.UserAgent, opts.Timeout, defaultPageBodyLimit),
		files:      newCollyFetcher(opts.UserAgent, opts.DownloadTimeout, defaultAttachmentLimit),
		strategies: DefaultCountStrategies(),
		log:        log,
	}, nil
}

// Options returns the effective options.
func (c *Crawler) Options() Options { return c.opts }

// SearchYear is the year keyword used for the report month. January and
// February reports still search the previous year.
func SearchYear(ym quarter.YearMonth) int {
	if ym.Month <= time.February {
		return ym.Year - 1
	}
	return ym.Year
}

// ListURL returns the listing URL for year and page.
func (c *Crawler) ListURL(year, page int) string {
	return fmt.Sprintf("%s/expense/list?items_per_page=%d&dept%%5B0%%5D=delegation&ym%%5Byear%%5D=all&ym%%5Bmonth%%5D=all&searchKeyword=%d%%EB%%85%%84&page=%d",
		c.opts.BaseURL, c.opts.ItemsPerPage, year, page)
}

// DetailURL returns the detail page URL for a document.
func (c *Crawler) DetailURL(documentID string) string {
	return c.opts.BaseURL + "/public/" + url.PathEscape(documentID)
}

// Crawl collects distinct documents for the report month's search year.
// Pages are fetched in order until the page budget is spent or
// StopAfterEmpty consecutive pages have no rows. A page that fails twice is
// skipped without counting as empty. Crawl never fails; a cancelled ctx ends
// it early with whatever was collected.
func (c *Crawler) Crawl(ctx context.Context, ym quarter.YearMonth) ([]domain.Document, Stats) {
	year := SearchYear(ym)
	log := c.log.With(logger.Int("search_year", year))
	stats := Stats{SearchYear: year, TotalCount: -1}

	budget := c.opts.MaxPages
	first, total, strategy, err := c.probe(ctx, year)
	if err != nil {
		log.Warn("Total count probe failed, using page ceiling",
			logger.Int("max_pages", budget),
			logger.Error(err),
		)
	} else {
		stats.TotalCount = total
		budget = PageBudget(total, c.opts.ItemsPerPage)
		log.Info("Total count found",
			logger.Int("total", total),
			logger.String("strategy", strategy),
			logger.Int("pages", budget),
		)
	}
	if first != nil {
		stats.PagesFetched++
	}
	stats.PageBudget = budget

	var docs []domain.Document
	seen := make(map[string]struct{})
	emptyStreak := 0

	for page := 1; page <= budget; page++ {
		if ctx.Err() != nil {
			log.Warn("Crawl cancelled", logger.Int("page", page))
			break
		}

		doc := first
		if page > 1 || doc == nil {
			if page == 1 {
				// The failed probe was the first attempt at page 1.
				doc, err = c.retryListPage(ctx, year, page)
			} else {
				doc, err = c.fetchListPage(ctx, year, page)
			}
			if err != nil {
				stats.PagesFailed++
				log.Warn("Skipping list page", logger.Int("page", page), logger.Error(err))
				continue
			}
			stats.PagesFetched++
		}

		rows := doc.Find(rowSelector)
		if rows.Length() == 0 {
			stats.EmptyPages++
			emptyStreak++
			if emptyStreak >= c.opts.StopAfterEmpty {
				log.Info("Stopping after consecutive empty pages",
					logger.Int("page", page),
					logger.Int("empty_streak", emptyStreak),
				)
				break
			}
			continue
		}
		emptyStreak = 0

		rows.Each(func(_ int, tr *goquery.Selection) {
			d, ok := c.parseRow(tr)
			if !ok {
				return
			}
			if _, dup := seen[d.ID]; dup {
				return
			}
			seen[d.ID] = struct{}{}
			docs = append(docs, d)
		})
		log.Debug("List page processed", logger.Int("page", page), logger.Int("rows", rows.Length()))

		sleep(ctx, c.opts.PoliteDelay)
	}

	stats.Documents = len(docs)
	log.Info("Crawl finished",
		logger.Int("documents", stats.Documents),
		logger.Int("pages_fetched", stats.PagesFetched),
		logger.Int("pages_failed", stats.PagesFailed),
	)
	return docs, stats
}

// probe fetches page 1 and reads the total count. The page is returned
// whenever it was fetched so the crawl can reuse it.
func (c *Crawler) probe(ctx context.Context, year int) (*goquery.Document, int, string, error) {
	doc, err := c.fetchDocument(ctx, c.ListURL(year, 1))
	if err != nil {
		return nil, 0, "", &domain.ProbeError{Err: err}
	}
	total, strategy, ok := TotalCount(doc, c.strategies)
	if !ok {
		return doc, 0, "", &domain.ProbeError{Err: domain.ErrNoTotalCount}
	}
	return doc, total, strategy, nil
}

func (c *Crawler) fetchListPage(ctx context.Context, year, page int) (*goquery.Document, error) {
	cfg := retry.Once(c.opts.RetryDelay)
	cfg.OnRetry = func(_ int, err error) {
		c.log.Debug("Retrying list page", logger.Int("page", page), logger.Error(err))
	}

	var doc *goquery.Document
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		d, err := c.fetchDocument(ctx, c.ListURL(year, page))
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	return doc, err
}

// retryListPage makes the one retry left for a page whose first attempt failed.
func (c *Crawler) retryListPage(ctx context.Context, year, page int) (*goquery.Document, error) {
	sleep(ctx, c.opts.RetryDelay)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.log.Debug("Retrying list page", logger.Int("page", page))
	return c.fetchDocument(ctx, c.ListURL(year, page))
}

func (c *Crawler) parseRow(tr *goquery.Selection) (domain.Document, bool) {
	a := tr.Find(documentLinkSelector).First()
	if a.Length() == 0 {
		return domain.Document{}, false
	}
	href, _ := a.Attr("href")
	m := documentIDPattern.FindStringSubmatch(href)
	if m == nil {
		return domain.Document{}, false
	}

	d := domain.Document{
		ID:    m[1],
		Title: joinedText(a, ""),
		URL:   c.resolve(href),
	}
	if pub, ok := extract.LooseDate(joinedText(tr, " ")); ok {
		d.PublishDate = pub
	}
	return d, true
}

func (c *Crawler) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
