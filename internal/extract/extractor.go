// Package extract turns rendered listing pages into school records.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
	"github.com/udisescan/udisescan/internal/record"
)

// Context carries the region identity stamped onto every extracted record.
type Context struct {
	State      string
	StateID    string
	District   string
	DistrictID string
}

// Containers with less text than this are treated as layout noise, not
// records.
const (
	minContainerText = 10
	minContainerHTML = 50
)

var (
	udiseRe  = regexp.MustCompile(`(?i)UDISE\s*(?:Code)?\s*[:\-]?\s*(\d{9,12})`)
	pinRe    = regexp.MustCompile(`(?i)PIN\s*(?:Code)?\s*[:\-]?\s*(\d{6})`)
	barePin  = regexp.MustCompile(`\b(\d{6})\b`)
	labelSep = regexp.MustCompile(`\s*[:\-]\s*`)
)

// Labeled categorical fields looked up inside each record container.
var labelFields = map[string]string{
	"Operational Status": "operational_status",
	"School Category":    "school_category",
	"School Management":  "school_management",
	"School Type":        "school_type",
	"Location":           "location",
	"Address":            "address",
}

// Extractor parses listing snapshots using the portal selector profile.
type Extractor struct {
	prof profile.Profile
	now  func() time.Time
}

// New creates an extractor for the given profile.
func New(prof profile.Profile) *Extractor {
	return &Extractor{prof: prof, now: time.Now}
}

// Extract returns the records found on one rendered listing page. A record
// missing every essential field (name, identifier, detail link) is dropped,
// never emitted as an all-sentinel row.
func (e *Extractor) Extract(html string, rctx Context) ([]record.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	containers := e.findContainers(doc)
	if len(containers) == 0 {
		logger.Debug("no record containers on page", "district", rctx.District)
		return nil, nil
	}

	records := make([]record.Record, 0, len(containers))
	dropped := 0
	for _, c := range containers {
		rec := e.extractOne(c, rctx)
		if !rec.HasEssentials() {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	if dropped > 0 {
		logger.Debug("dropped containers without essential fields", "count", dropped)
	}
	return records, nil
}

// findContainers applies the prioritized container queries, stopping at the
// first query that yields a non-trivial result set.
func (e *Extractor) findContainers(doc *goquery.Document) []*goquery.Selection {
	for _, q := range e.prof.RecordContainers {
		var found []*goquery.Selection
		doc.Find(q).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			inner, _ := s.Html()
			if len(text) > minContainerText || len(inner) > minContainerHTML {
				found = append(found, s)
			}
		})
		if len(found) > 0 {
			logger.Debug("record containers located", "selector", q, "count", len(found))
			return found
		}
	}
	return nil
}

func (e *Extractor) extractOne(s *goquery.Selection, rctx Context) record.Record {
	text := strings.TrimSpace(s.Text())
	inner, _ := s.Html()

	rec := record.Record{
		"state":           rctx.State,
		"state_id":        rctx.StateID,
		"district":        rctx.District,
		"district_id":     rctx.DistrictID,
		"extraction_date": e.now().Format(time.RFC3339),
	}

	if name := schoolName(s); name != "" {
		rec["school_name"] = name
	}
	if m := udiseRe.FindStringSubmatch(text); m != nil {
		rec["udise_code"] = m[1]
	}
	if link := detailLink(s); link != "" {
		rec["know_more_link"] = link
	}
	if email := Email(inner); email != "" {
		rec["email"] = email
	}
	if pin := pinCode(text); pin != "" {
		rec["pincode"] = pin
	}

	for label, field := range labelFields {
		if v := labelValue(text, label); v != "" {
			rec[field] = v
		}
	}
	return rec
}

// schoolName takes the first heading-like element with usable text.
func schoolName(s *goquery.Selection) string {
	var name string
	s.Find("h5, h4, .schoolName, .accordion-button, a strong").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		t := strings.TrimSpace(h.Text())
		// Strip a trailing UDISE fragment when the heading carries both.
		if i := strings.Index(strings.ToUpper(t), "UDISE"); i > 0 {
			t = strings.TrimSpace(t[:i])
		}
		if len(t) > 3 {
			name = t
			return false
		}
		return true
	})
	return name
}

// detailLink finds the "Know More" detail-page href.
func detailLink(s *goquery.Selection) string {
	var link string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.Contains(href, record.DetailMarker) {
			link = href
			return false
		}
		if strings.Contains(strings.ToLower(strings.TrimSpace(a.Text())), "know more") {
			link = href
			return false
		}
		return true
	})
	return link
}

// labelValue extracts "<label> : <value>" from flattened container text.
// The value runs to the next newline, pipe, or known label.
func labelValue(text, label string) string {
	idx := strings.Index(strings.ToLower(text), strings.ToLower(label))
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(label):]
	if loc := labelSep.FindStringIndex(rest); loc != nil && loc[0] == 0 {
		rest = rest[loc[1]:]
	} else {
		return ""
	}
	if cut := strings.IndexAny(rest, "\n|"); cut >= 0 {
		rest = rest[:cut]
	}
	// A following "Label :" fragment means we ran into the next pair.
	if m := labelSep.FindStringIndex(rest); m != nil {
		if sp := strings.LastIndex(rest[:m[0]], "  "); sp >= 0 {
			rest = rest[:sp]
		}
	}
	v := strings.TrimSpace(rest)
	if len(v) > 120 {
		v = strings.TrimSpace(v[:120])
	}
	return v
}

func pinCode(text string) string {
	if m := pinRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	// Fall back to a bare 6-digit group near an Address label.
	if idx := strings.Index(strings.ToLower(text), "address"); idx >= 0 {
		if m := barePin.FindStringSubmatch(text[idx:]); m != nil {
			return m[1]
		}
	}
	return ""
}
