package opengov

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
)

// Fetcher returns the body of a GET request.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// collyFetcher runs each request on a clone of a base collector so that
// callbacks and context stay per request while the HTTP backend is shared.
type collyFetcher struct {
	base *colly.Collector
}

func newCollyFetcher(userAgent string, timeout time.Duration, maxBodySize int) *collyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
	)
	c.SetRequestTimeout(timeout)
	return &collyFetcher{base: c}
}

func (f *collyFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	c := f.base.Clone()
	c.Context = ctx

	var (
		body     []byte
		status   int
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(rawURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if fetchErr != nil {
		return nil, &domain.FetchError{URL: rawURL, StatusCode: status, Err: fetchErr}
	}
	return body, nil
}

func (c *Crawler) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := c.pages.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}
