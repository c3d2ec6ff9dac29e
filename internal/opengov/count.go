package opengov

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// totalCountSelector points at the <strong> holding the result count on a listing page.
const totalCountSelector = "html > body > div:nth-of-type(2) > div > div > div:nth-of-type(2) > div > div > " +
	"div > div > div:nth-of-type(3) > div > div:nth-of-type(1) > div:nth-of-type(1) > strong"

var (
	numberPattern       = regexp.MustCompile(`[\d,]+`)
	searchResultPattern = regexp.MustCompile(`검색결과\s*:\s*([\d,]+)`)
)

// CountStrategy reads the total result count from a listing page.
type CountStrategy struct {
	Name  string
	Count func(doc *goquery.Document) (int, bool)
}

// SelectorCount reads the first number inside the element matched by selector.
func SelectorCount(selector string) CountStrategy {
	return CountStrategy{
		Name: "selector",
		Count: func(doc *goquery.Document) (int, bool) {
			el := doc.Find(selector).First()
			if el.Length() == 0 {
				return 0, false
			}
			return parseCount(numberPattern.FindString(joinedText(el, "")))
		},
	}
}

// TextCount matches pattern against the page text; the first group is the count.
func TextCount(pattern *regexp.Regexp) CountStrategy {
	return CountStrategy{
		Name: "text",
		Count: func(doc *goquery.Document) (int, bool) {
			m := pattern.FindStringSubmatch(joinedText(doc.Selection, " "))
			if len(m) < 2 {
				return 0, false
			}
			return parseCount(m[1])
		},
	}
}

// DefaultCountStrategies tries the counter element first, then the "검색결과: N" label.
func DefaultCountStrategies() []CountStrategy {
	return []CountStrategy{
		SelectorCount(totalCountSelector),
		TextCount(searchResultPattern),
	}
}

// TotalCount returns the result of the first strategy that succeeds.
func TotalCount(doc *goquery.Document, strategies []CountStrategy) (total int, strategy string, ok bool) {
	for _, s := range strategies {
		if n, found := s.Count(doc); found {
			return n, s.Name, true
		}
	}
	return 0, "", false
}

// PageBudget is ceil(total/itemsPerPage), at least 1.
func PageBudget(total, itemsPerPage int) int {
	per := max(itemsPerPage, 1)
	return max(1, (total+per-1)/per)
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}
