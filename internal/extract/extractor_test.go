package extract

import (
	"testing"

	"github.com/udisescan/udisescan/internal/profile"
)

var testCtx = Context{
	State:      "KERALA",
	StateID:    "32",
	District:   "ERNAKULAM",
	DistrictID: "3207",
}

const listingPage = `
<html><body>
<div class="accordion-body">
  <h5>GOVT HS VYTTILA UDISE Code : 32070100101</h5>
  <p>Operational Status : Functional</p>
  <p>School Category : 1-Primary</p>
  <p>School Management : Department of Education</p>
  <p>School Type : Co-Ed</p>
  <p>Location : Urban</p>
  <p>Address : Vyttila Junction, Kochi PIN Code : 682019</p>
  <p>Email : ghs.vyttila@education.kerala.gov.in</p>
  <a href="https://kys.udiseplus.gov.in/#/schooldetail/1001/32">Know More</a>
</div>
<div class="accordion-body">
  <h5>ST MARY'S LPS</h5>
  <p>UDISE Code : 32070100102</p>
  <a href="https://kys.udiseplus.gov.in/#/schooldetail/1002/32">Know More</a>
</div>
</body></html>`

func TestExtract_FullRecord(t *testing.T) {
	e := New(profile.Default())
	recs, err := e.Extract(listingPage, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	r := recs[0]
	checks := map[string]string{
		"state":              "KERALA",
		"state_id":           "32",
		"district":           "ERNAKULAM",
		"district_id":        "3207",
		"school_name":        "GOVT HS VYTTILA",
		"udise_code":         "32070100101",
		"operational_status": "Functional",
		"school_category":    "1-Primary",
		"school_type":        "Co-Ed",
		"location":           "Urban",
		"pincode":            "682019",
		"email":              "ghs.vyttila@education.kerala.gov.in",
		"know_more_link":     "https://kys.udiseplus.gov.in/#/schooldetail/1001/32",
	}
	for field, want := range checks {
		if got := r.Get(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
}

func TestExtract_SchoolNameStripsTrailingUDISEFragment(t *testing.T) {
	e := New(profile.Default())
	recs, err := e.Extract(listingPage, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := recs[0].Get("school_name"); got != "GOVT HS VYTTILA" {
		t.Errorf("school_name = %q, UDISE fragment must be stripped", got)
	}
}

func TestExtract_NoiseContainersIgnored(t *testing.T) {
	html := `
	<div class="accordion-body">x</div>
	<div class="accordion-body">
	  <h5>REAL SCHOOL NAME HERE</h5>
	  <p>UDISE Code : 32070100109</p>
	</div>`

	e := New(profile.Default())
	recs, err := e.Extract(html, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want noise container dropped", len(recs))
	}
}

func TestExtract_AllEssentialsMissingDiscarded(t *testing.T) {
	// Long enough to pass the noise filter, but carries no name, code, or
	// detail link.
	html := `<div class="accordion-body">
	  <p>Operational Status : Functional and some more filler text</p>
	  <p>Location : Urban</p>
	</div>`

	e := New(profile.Default())
	recs, err := e.Extract(html, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want all-sentinel record discarded", len(recs))
	}
}

func TestExtract_FallbackContainerQuery(t *testing.T) {
	html := `<table><tbody>
	  <tr><td>GOVT UPS EDAPPALLY</td><td>UDISE Code : 32070100105</td>
	      <td><a href="/x/schooldetail/9/32">Know More</a></td></tr>
	</tbody></table>`

	e := New(profile.Default())
	recs, err := e.Extract(html, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records from table fallback, want 1", len(recs))
	}
	if got := recs[0].Get("udise_code"); got != "32070100105" {
		t.Errorf("udise_code = %q", got)
	}
}

func TestExtract_NoContainersYieldsNothing(t *testing.T) {
	e := New(profile.Default())
	recs, err := e.Extract("<html><body><p>loading...</p></body></html>", testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records from empty page", len(recs))
	}
}

func TestExtract_DetailLinkByAnchorText(t *testing.T) {
	html := `<div class="accordion-body">
	  <h5>SCHOOL WITH ODD LINK</h5>
	  <p>UDISE Code : 32070100107</p>
	  <a href="https://kys.udiseplus.gov.in/#/profile/55/32">know more</a>
	</div>`

	e := New(profile.Default())
	recs, err := e.Extract(html, testCtx)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(recs) != 1 {
		t.Fatal("expected one record")
	}
	if got := recs[0].Get("know_more_link"); got != "https://kys.udiseplus.gov.in/#/profile/55/32" {
		t.Errorf("know_more_link = %q, want anchor-text match", got)
	}
	if recs[0].DetailEligible() {
		t.Error("link without the detail path fragment must not be detail-eligible")
	}
}

func TestRecordsDroppedNeverPartiallyEmitted(t *testing.T) {
	e := New(profile.Default())
	recs, _ := e.Extract(listingPage, testCtx)
	for _, r := range recs {
		if !r.HasEssentials() {
			t.Fatalf("emitted record without essentials: %v", r)
		}
	}
}
