package summarize

import (
	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
	"github.com/Park-MinJe/monthly-audit-report/internal/xlsx"
)

// AttachmentRef names the file a payload was parsed from.
type AttachmentRef struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Payload is the JSON document handed to a provider.
type Payload struct {
	Organization string                   `json:"org"`
	DocumentID   string                   `json:"nid"`
	Title        string                   `json:"title"`
	PublishDate  *string                  `json:"pub_date"`
	Attachment   AttachmentRef            `json:"attachment"`
	Stats        xlsx.Stats               `json:"stats"`
	Sheets       map[string][]xlsx.Record `json:"sheets"`
}

// NewPayload assembles the payload for one parsed attachment.
func NewPayload(org string, doc domain.Document, att domain.Attachment, wb *xlsx.Workbook) Payload {
	p := Payload{
		Organization: org,
		DocumentID:   doc.ID,
		Title:        doc.Title,
		Attachment:   AttachmentRef{Filename: att.Filename, URL: att.URL},
		Stats:        wb.Stats,
		Sheets:       wb.Sheets,
	}
	if doc.HasPublishDate() {
		d := quarter.FormatDate(doc.PublishDate)
		p.PublishDate = &d
	}
	return p
}
