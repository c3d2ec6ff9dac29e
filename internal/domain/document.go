// Package domain holds the value types shared by the crawler, the reconciler and the report.
package domain

import "time"

// Document is one disclosure posting on the listing site.
type Document struct {
	ID    string
	Title string
	URL   string
	// PublishDate is the calendar date at UTC midnight, zero when it could not be read.
	PublishDate time.Time
}

// HasPublishDate reports whether the listing row carried a readable date.
func (d Document) HasPublishDate() bool { return !d.PublishDate.IsZero() }

// Attachment is a downloadable file linked from a document's detail page.
type Attachment struct {
	DocumentID string
	Filename   string
	URL        string
}

// AttachmentKind says how an attachment was handled.
type AttachmentKind string

const (
	AttachmentSpreadsheet AttachmentKind = "xlsx"
	AttachmentUnsupported AttachmentKind = "unsupported"
)

// AttachmentReport is the per-attachment line of the monthly report.
type AttachmentReport struct {
	Attachment Attachment
	Kind       AttachmentKind
	// Summary is empty for unsupported files and for spreadsheets handled in an earlier run.
	Summary string
}

// DocumentReport groups a month document with its matched organization and attachments.
type DocumentReport struct {
	Organization string
	Document     Document
	Attachments  []AttachmentReport
	// AttachmentError is set when the detail page could not be read.
	AttachmentError string
}
