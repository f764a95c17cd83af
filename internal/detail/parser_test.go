package detail

import (
	"strconv"
	"testing"

	"github.com/udisescan/udisescan/internal/profile"
	"github.com/udisescan/udisescan/internal/record"
)

const detailPage = `
<html><body>
<div class="innerPad">
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">Academic Year</p></div>
    <div class="blueCol">2024-25</div>
  </div>
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">Location</p></div>
    <div class="blueCol">Urban</div>
  </div>
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">School Category</p></div>
    <div class="blueCol">1-Primary</div>
  </div>
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">Class From</p></div>
    <div class="blueCol">1</div>
  </div>
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">Class To</p></div>
    <div class="blueCol">5</div>
  </div>
  <div class="schoolInfoCol">
    <div class="title"><p class="fw-600">Year of Establishment</p></div>
    <div class="blueCol">1956</div>
  </div>
</div>
<div class="bg-white">
  <div><p>Total Students</p><p class="H3Value">240</p></div>
  <div><p>Boys</p><p class="H3Value">130</p></div>
  <div><p>Girls</p><p class="H3Value">110</p></div>
</div>
<section>
  <h2>Teacher</h2>
  <ul>
    <li>Total Teachers <p class="H3Value">12</p></li>
    <li>Male <p class="H3Value">4</p></li>
    <li>Female <p class="H3Value">8</p></li>
  </ul>
</section>
</body></html>`

func TestParse_FullDetailPage(t *testing.T) {
	p := NewParser(profile.Default())
	rec, err := p.Parse(detailPage, "GHS Vyttila", "https://kys.udiseplus.gov.in/#/schooldetail/1001/32")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	checks := map[string]string{
		"academic_year":         "2024-25",
		"location":              "Urban",
		"school_category":       "1-Primary",
		"class_from":            "1",
		"class_to":              "5",
		"class_range":           "1 To 5",
		"year_of_establishment": "1956",
		"total_students":        "240",
		"total_boys":            "130",
		"total_girls":           "110",
		"total_teachers":        "12",
		"male_teachers":         "4",
		"female_teachers":       "8",
		"detail_school_name":    "GHS Vyttila",
		"extraction_status":     StatusSuccess,
	}
	for field, want := range checks {
		if got := rec.Get(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}

	if got := rec.Get("critical_fields_extracted"); got != "2" {
		t.Errorf("critical_fields_extracted = %q, want 2", got)
	}
	if n, _ := strconv.Atoi(rec.Get("fields_extracted")); n < 8 {
		t.Errorf("fields_extracted = %d, want at least 8", n)
	}
}

func TestParse_RegexFallbackForBasicDetails(t *testing.T) {
	// No schoolInfoCol structure, only raw markup in the observed shape.
	html := `<div>School Category</p></div><div class="blueCol">2-Upper Primary</div>` +
		`<div>Year of Establishment</p></div><div class="blueCol">1987</div>`

	p := NewParser(profile.Default())
	rec, err := p.Parse(html, "", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := rec.Get("school_category"); got != "2-Upper Primary" {
		t.Errorf("school_category = %q, want regex fallback value", got)
	}
	if got := rec.Get("year_of_establishment"); got != "1987" {
		t.Errorf("year_of_establishment = %q", got)
	}
}

func TestParse_CounterRegexFallback(t *testing.T) {
	html := `<p>Total Students</p> <p class="H3Value">316</p>` +
		`<p>Total Teachers</p> <p class="H3Value">14</p>`

	p := NewParser(profile.Default())
	rec, err := p.Parse(html, "", "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := rec.Get("total_students"); got != "316" {
		t.Errorf("total_students = %q", got)
	}
	if got := rec.Get("total_teachers"); got != "14" {
		t.Errorf("total_teachers = %q", got)
	}
	if got := rec.Get("extraction_status"); got != StatusSuccess {
		t.Errorf("extraction_status = %q, want %s", got, StatusSuccess)
	}
}

func TestParse_SchoolNameFallsBackToURLID(t *testing.T) {
	p := NewParser(profile.Default())

	rec, err := p.Parse("<html></html>", "Know Your School", "https://kys.udiseplus.gov.in/#/schooldetail/4711/32")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := rec.Get("detail_school_name"); got != "School_ID_4711" {
		t.Errorf("detail_school_name = %q, want URL-derived fallback", got)
	}
}

func TestScore_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		students string
		teachers string
		want     string
	}{
		{"both critical", "240", "12", StatusSuccess},
		{"students only", "240", record.Sentinel, StatusPartial},
		{"teachers only", record.Sentinel, "12", StatusPartial},
		{"neither", record.Sentinel, record.Sentinel, StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record.Record{
				"total_students": tt.students,
				"total_teachers": tt.teachers,
			}
			Score(rec)
			if got := rec.Get("extraction_status"); got != tt.want {
				t.Errorf("extraction_status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScore_PlaceholderNameNotCounted(t *testing.T) {
	rec := record.Record{"detail_school_name": "School_ID_123"}
	Score(rec)
	if got := rec.Get("fields_extracted"); got != "0" {
		t.Errorf("fields_extracted = %q, placeholder name must not count", got)
	}
}

func TestEligible(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://kys.udiseplus.gov.in/#/schooldetail/1/32", true},
		{"http://example.com/x", true},
		{record.Sentinel, false},
		{"", false},
		{"schooldetail/relative/path", false},
	}
	for _, tt := range tests {
		r := record.Record{"know_more_link": tt.link}
		if got := Eligible(r); got != tt.want {
			t.Errorf("Eligible(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}
