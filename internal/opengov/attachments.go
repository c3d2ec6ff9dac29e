package opengov

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
)

// Attachments lists the download links on a document's detail page, in page
// order, without duplicate URLs.
func (c *Crawler) Attachments(ctx context.Context, documentID string) ([]domain.Attachment, error) {
	doc, err := c.fetchDocument(ctx, c.DetailURL(documentID))
	if err != nil {
		return nil, err
	}

	var out []domain.Attachment
	seen := make(map[string]struct{})
	doc.Find(downloadLinkSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		full := c.resolve(href)
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		out = append(out, domain.Attachment{
			DocumentID: documentID,
			Filename:   attachmentFilename(href, joinedText(a, "")),
			URL:        full,
		})
	})
	return out, nil
}

// Download fetches an attachment body.
func (c *Crawler) Download(ctx context.Context, rawURL string) ([]byte, error) {
	return c.files.Fetch(ctx, rawURL)
}

// attachmentFilename prefers the dname query parameter, then the last segment
// of uri, then the link text.
func attachmentFilename(href, linkText string) string {
	if u, err := url.Parse(href); err == nil {
		q := u.Query()
		if v := q.Get("dname"); v != "" {
			if decoded, err := url.PathUnescape(v); err == nil {
				return decoded
			}
			return v
		}
		if v := q.Get("uri"); v != "" {
			if tail := v[strings.LastIndex(v, "/")+1:]; tail != "" {
				return tail
			}
		}
	}
	if t := strings.TrimSpace(linkText); t != "" {
		return t
	}
	return defaultAttachment
}
