// Package status reconciles crawled documents into a per-organization, per-quarter upload status.
package status

import (
	"time"

	"github.com/Park-MinJe/monthly-audit-report/internal/domain"
	"github.com/Park-MinJe/monthly-audit-report/internal/extract"
	"github.com/Park-MinJe/monthly-audit-report/internal/orgs"
	"github.com/Park-MinJe/monthly-audit-report/internal/quarter"
)

// Status is the upload state of one organization for one quarter.
type Status string

const (
	OK      Status = "OK"
	Late    Status = "LATE"
	Pending Status = "PENDING"
	Missing Status = "MISSING"
)

// All lists every status in display order.
var All = []Status{OK, Late, Pending, Missing}

// Key identifies one cell of the status table.
type Key struct {
	Organization string
	Year         int
	Quarter      int
}

// Table maps every organization and reporting quarter to a status.
type Table map[Key]Status

// Lookup returns the status for org and yq.
func (t Table) Lookup(org string, yq quarter.YearQuarter) (Status, bool) {
	s, ok := t[Key{Organization: org, Year: yq.Year, Quarter: yq.Quarter}]
	return s, ok
}

// Counts tallies the table by status.
func (t Table) Counts() map[Status]int {
	out := make(map[Status]int, len(All))
	for _, s := range t {
		out[s]++
	}
	return out
}

// Merge combines two observations for the same key. OK wins over anything.
func Merge(a, b Status) Status {
	if a == OK || b == OK {
		return OK
	}
	return Late
}

// Observe classifies a single document. ok is false when the title names
// no roster organization or carries no year and quarter.
func Observe(doc domain.Document, roster []orgs.Organization, bufferDays int) (Key, Status, bool) {
	org, found := orgs.Match(roster, doc.Title)
	if !found {
		return Key{}, "", false
	}
	yq, found := extract.YearQuarter(doc.Title)
	if !found {
		return Key{}, "", false
	}
	deadline, err := yq.Deadline(bufferDays)
	if err != nil {
		return Key{}, "", false
	}

	key := Key{Organization: org.Name, Year: yq.Year, Quarter: yq.Quarter}
	if !doc.HasPublishDate() || !doc.PublishDate.After(deadline) {
		return key, OK, true
	}
	return key, Late, true
}

// Reconcile builds the full status table for roster over quarters.
// Documents are the whole crawl, not only the report month. A cell with no
// observation is Pending while today is on or before its deadline, else Missing.
func Reconcile(docs []domain.Document, roster []orgs.Organization, quarters []quarter.YearQuarter, today time.Time, bufferDays int) Table {
	observed := make(map[Key]Status)
	for _, doc := range docs {
		key, st, ok := Observe(doc, roster, bufferDays)
		if !ok {
			continue
		}
		if prev, seen := observed[key]; seen {
			st = Merge(prev, st)
		}
		observed[key] = st
	}

	today = quarter.DateOf(today)
	out := make(Table, len(roster)*len(quarters))
	for _, org := range roster {
		for _, yq := range quarters {
			key := Key{Organization: org.Name, Year: yq.Year, Quarter: yq.Quarter}
			if st, ok := observed[key]; ok {
				out[key] = st
				continue
			}
			deadline, err := yq.Deadline(bufferDays)
			if err != nil {
				continue
			}
			if today.After(deadline) {
				out[key] = Missing
			} else {
				out[key] = Pending
			}
		}
	}
	return out
}
