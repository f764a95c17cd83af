// Package detail extracts enrichment fields from per-school detail pages.
package detail

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/udisescan/udisescan/internal/logger"
	"github.com/udisescan/udisescan/internal/profile"
	"github.com/udisescan/udisescan/internal/record"
)

// Extraction status values written to the extraction_status column.
const (
	StatusSuccess = "SUCCESS"
	StatusPartial = "PARTIAL"
	StatusFailed  = "FAILED"
)

// Basic Details panel labels mapped to output fields.
var basicFields = map[string]string{
	"Academic Year":           "academic_year",
	"Location":                "location",
	"School Category":         "school_category",
	"Class From":              "class_from",
	"Class To":                "class_to",
	"School Type":             "school_type",
	"Year of Establishment":   "year_of_establishment",
	"National Management":     "national_management",
	"State Management":        "state_management",
	"Affiliation Board Sec.":  "affiliation_board_sec",
	"Affiliation Board HSec.": "affiliation_board_hsec",
}

// Fields counted toward the extraction-quality indicators beyond the two
// critical counters.
var additionalFields = []string{
	"total_boys", "total_girls", "male_teachers", "female_teachers",
	"school_category", "school_type", "location", "academic_year",
}

var (
	schoolIDRe = regexp.MustCompile(`/(\d+)/\d+$`)

	// Source-level fallbacks for when the rendered DOM does not match the
	// expected panel structure.
	blueColFallbacks = map[string]string{
		"location":              `(?i)Location</p></div><div[^>]*class="blueCol[^>]*>([^<]+)`,
		"school_category":       `(?i)School Category</p></div><div[^>]*class="blueCol[^>]*>([^<]+)`,
		"school_type":           `(?i)School Type</p></div><div[^>]*class="blueCol[^>]*>([^<]+)`,
		"year_of_establishment": `(?i)Year of Establishment</p></div><div[^>]*class="blueCol[^>]*>([^<]+)`,
	}
	counterFallbacks = map[string][]string{
		"total_students": {
			`(?is)Total Students[^>]*</p>\s*<p[^>]*class="H3Value[^>]*>\s*(\d+)\s*</p>`,
			`(?i)Total Students[^>]*>\s*(\d+)\s*<`,
			`(?i)Total Students[:\s]*(\d+)`,
		},
		"total_teachers": {
			`(?is)Total Teachers[^>]*</p>\s*<p[^>]*class="H3Value[^>]*>\s*(\d+)\s*</p>`,
		},
		"male_teachers": {
			`(?is)Male[^>]*</p>\s*<p[^>]*class="H3Value[^>]*>\s*(\d+)\s*</p>`,
		},
		"female_teachers": {
			`(?is)Female[^>]*</p>\s*<p[^>]*class="H3Value[^>]*>\s*(\d+)\s*</p>`,
		},
	}
)

// Parser turns detail-page snapshots into enrichment records.
type Parser struct {
	prof profile.Profile
	now  func() time.Time
}

// NewParser creates a parser for the given selector profile.
func NewParser(prof profile.Profile) *Parser {
	return &Parser{prof: prof, now: time.Now}
}

// Parse extracts the detail fields from one rendered page. The record always
// carries the extraction-quality indicators; callers never get a nil record
// from a parseable document.
func (p *Parser) Parse(html, title, url string) (record.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("detail page unparseable: %w", err)
	}

	rec := record.Record{
		"extraction_timestamp": p.now().Format(time.RFC3339),
	}

	p.basicDetails(doc, html, rec)
	p.enrollment(doc, html, rec)
	p.teachers(doc, html, rec)
	rec["detail_school_name"] = schoolName(title, url)

	if rec.Get("class_from") != record.Sentinel && rec.Get("class_to") != record.Sentinel {
		rec["class_range"] = rec["class_from"] + " To " + rec["class_to"]
	}

	Score(rec)
	return rec, nil
}

// basicDetails walks the info panel's title/value pairs, then patches gaps
// from the raw markup.
func (p *Parser) basicDetails(doc *goquery.Document, html string, rec record.Record) {
	doc.Find(p.prof.DetailInfoCols).Each(func(_ int, col *goquery.Selection) {
		title := strings.TrimSpace(col.Find(p.prof.DetailInfoTitle).First().Text())
		value := strings.TrimSpace(col.Find(p.prof.DetailInfoValue).First().Text())
		if field, ok := basicFields[title]; ok && value != "" {
			rec[field] = value
		}
	})

	for field, pattern := range blueColFallbacks {
		if rec.Get(field) != record.Sentinel {
			continue
		}
		if m := regexp.MustCompile(pattern).FindStringSubmatch(html); m != nil {
			rec[field] = strings.TrimSpace(m[1])
		}
	}
}

// enrollment reads the student counters: each .H3Value is classified by its
// parent's label text.
func (p *Parser) enrollment(doc *goquery.Document, html string, rec record.Record) {
	doc.Find(".bg-white " + p.prof.DetailCounters).Each(func(_ int, el *goquery.Selection) {
		value := strings.TrimSpace(el.Text())
		if !isDigits(value) {
			return
		}
		label := strings.ToLower(strings.TrimSpace(el.Parent().Text()))
		switch {
		case strings.Contains(label, "total students"):
			rec["total_students"] = value
		case strings.Contains(label, "boys") && !strings.Contains(label, "total"):
			rec["total_boys"] = value
		case strings.Contains(label, "girls"):
			rec["total_girls"] = value
		}
	})

	p.counterFallback(html, rec, "total_students")
}

// teachers reads the counters under the Teacher section heading, classifying
// each by its enclosing list item. When no heading is found, counters with
// teacher-mentioning ancestors are classified instead, and source-level
// patterns cover the rest.
func (p *Parser) teachers(doc *goquery.Document, html string, rec record.Record) {
	doc.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), "teacher") {
			return true
		}
		h.Parent().Find(p.prof.DetailCounters).Each(func(_ int, el *goquery.Selection) {
			value := strings.TrimSpace(el.Text())
			if !isDigits(value) {
				return
			}
			label := strings.ToLower(strings.TrimSpace(el.Closest("li").Text()))
			if label == "" {
				label = strings.ToLower(strings.TrimSpace(el.Parent().Text()))
			}
			// "female" before "male": the former contains the latter.
			switch {
			case strings.Contains(label, "total"):
				rec["total_teachers"] = value
			case strings.Contains(label, "female"):
				rec["female_teachers"] = value
			case strings.Contains(label, "male"):
				rec["male_teachers"] = value
			}
		})
		return false
	})

	if rec.Get("total_teachers") == record.Sentinel {
		doc.Find(p.prof.DetailCounters).Each(func(_ int, el *goquery.Selection) {
			value := strings.TrimSpace(el.Text())
			if !isDigits(value) {
				return
			}
			label := teacherContext(el)
			if label == "" {
				return
			}
			switch {
			case strings.Contains(label, "total teachers"):
				rec["total_teachers"] = value
			case strings.Contains(label, "female"):
				rec["female_teachers"] = value
			case strings.Contains(label, "male"):
				rec["male_teachers"] = value
			case rec.Get("total_teachers") == record.Sentinel:
				// A teacher-context number with no finer label is taken as
				// the total rather than discarded.
				rec["total_teachers"] = value
			}
		})
	}

	for _, field := range []string{"total_teachers", "male_teachers", "female_teachers"} {
		p.counterFallback(html, rec, field)
	}
}

func (p *Parser) counterFallback(html string, rec record.Record, field string) {
	if rec.Get(field) != record.Sentinel {
		return
	}
	for _, pattern := range counterFallbacks[field] {
		if m := regexp.MustCompile(pattern).FindStringSubmatch(html); m != nil {
			rec[field] = strings.TrimSpace(m[1])
			logger.Debug("counter recovered from raw markup", "field", field)
			return
		}
	}
}

// teacherContext returns the lowercased text of the nearest ancestor that
// mentions teachers, searching two levels so page-wide containers do not
// capture unrelated counters.
func teacherContext(el *goquery.Selection) string {
	node := el.Parent()
	for i := 0; i < 2 && node.Length() > 0; i++ {
		text := strings.ToLower(strings.TrimSpace(node.Text()))
		if strings.Contains(text, "teacher") {
			return text
		}
		node = node.Parent()
	}
	return ""
}

// schoolName derives the detail-page school name from the document title,
// falling back to an identifier built from the URL's school id.
func schoolName(title, url string) string {
	t := strings.TrimSpace(title)
	if t != "" && t != "Know Your School" && !strings.Contains(t, "UDISE") {
		t = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(t, "Know Your School", ""), "-", " "))
		if len(t) > 3 {
			return t
		}
	}
	if m := schoolIDRe.FindStringSubmatch(url); m != nil {
		return "School_ID_" + m[1]
	}
	return "School_ID_unknown"
}

// Score stamps the extraction-quality indicators onto the record: SUCCESS
// with both critical counters, PARTIAL with one, FAILED with none.
func Score(rec record.Record) {
	critical := 0
	fields := 0

	if rec.Get("total_students") != record.Sentinel {
		critical++
		fields++
	}
	if rec.Get("total_teachers") != record.Sentinel {
		critical++
		fields++
	}
	if name := rec.Get("detail_school_name"); name != record.Sentinel && !strings.HasPrefix(name, "School_ID_") {
		fields++
	}
	for _, f := range additionalFields {
		if rec.Get(f) != record.Sentinel {
			fields++
		}
	}

	switch {
	case critical >= 2:
		rec["extraction_status"] = StatusSuccess
	case critical == 1:
		rec["extraction_status"] = StatusPartial
	default:
		rec["extraction_status"] = StatusFailed
	}
	rec["fields_extracted"] = strconv.Itoa(fields)
	rec["critical_fields_extracted"] = strconv.Itoa(critical)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
