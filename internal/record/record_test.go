package record

import (
	"strings"
	"testing"
)

func TestGet_MissingAndEmptyYieldSentinel(t *testing.T) {
	r := Record{"school_name": "GHS Test", "email": ""}

	if got := r.Get("school_name"); got != "GHS Test" {
		t.Errorf("Get(school_name) = %q", got)
	}
	if got := r.Get("email"); got != Sentinel {
		t.Errorf("Get(email) on empty value = %q, want sentinel", got)
	}
	if got := r.Get("udise_code"); got != Sentinel {
		t.Errorf("Get(udise_code) on missing key = %q, want sentinel", got)
	}
}

func TestDetailEligible(t *testing.T) {
	tests := []struct {
		name string
		link string
		want bool
	}{
		{"detail link", "https://kys.udiseplus.gov.in/#/schooldetail/123/45", true},
		{"other link", "https://example.com/somewhere", false},
		{"sentinel", Sentinel, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{"know_more_link": tt.link}
			if got := r.DetailEligible(); got != tt.want {
				t.Errorf("DetailEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasEssentials(t *testing.T) {
	if (Record{}).HasEssentials() {
		t.Error("empty record should not have essentials")
	}
	if !(Record{"udise_code": "123456789"}).HasEssentials() {
		t.Error("record with udise_code should have essentials")
	}
	if (Record{"email": "a@b.in", "district": "X"}).HasEssentials() {
		t.Error("record with only non-essential fields should not pass")
	}
}

func TestListingHeader_ExactOrder(t *testing.T) {
	want := "has_know_more_link,phase2_ready,state,state_id,district,district_id," +
		"extraction_date,udise_code,school_name,know_more_link,email," +
		"operational_status,school_category,school_management,school_type," +
		"school_location,address,pin_code"
	if got := strings.Join(ListingHeader, ","); got != want {
		t.Errorf("header order changed:\n got  %s\n want %s", got, want)
	}
}

func TestListingRow_MappingAndBooleans(t *testing.T) {
	r := Record{
		"state":          "KERALA",
		"state_id":       "32",
		"district":       "ERNAKULAM",
		"district_id":    "3207",
		"school_name":    "GHS Vyttila",
		"udise_code":     "32070100101",
		"know_more_link": "https://kys.udiseplus.gov.in/#/schooldetail/100/32",
		"location":       "Urban",
		"pincode":        "682019",
	}
	row := ListingRow(r)
	if len(row) != len(ListingHeader) {
		t.Fatalf("row has %d fields, want %d", len(row), len(ListingHeader))
	}

	byCol := map[string]string{}
	for i, col := range ListingHeader {
		byCol[col] = row[i]
	}

	if byCol["has_know_more_link"] != "True" || byCol["phase2_ready"] != "True" {
		t.Errorf("derived booleans = %q/%q, want True/True",
			byCol["has_know_more_link"], byCol["phase2_ready"])
	}
	if byCol["has_know_more_link"] != byCol["phase2_ready"] {
		t.Error("both derived booleans must always be equal")
	}
	if byCol["school_location"] != "Urban" {
		t.Errorf("school_location = %q, want renamed location value", byCol["school_location"])
	}
	if byCol["pin_code"] != "682019" {
		t.Errorf("pin_code = %q, want renamed pincode value", byCol["pin_code"])
	}
	if byCol["address"] != "Urban" {
		t.Errorf("address = %q, want fallback to location", byCol["address"])
	}
	if byCol["operational_status"] != Sentinel {
		t.Errorf("absent field = %q, want sentinel", byCol["operational_status"])
	}
}

func TestListingRow_NonDetailLinkBooleansFalse(t *testing.T) {
	r := Record{
		"school_name":    "GHS Test",
		"know_more_link": "https://example.com/profile/1",
	}
	row := ListingRow(r)
	if row[0] != "False" || row[1] != "False" {
		t.Errorf("booleans = %q/%q, want False/False for non-detail link", row[0], row[1])
	}
}

func TestDetailRow_DetailValuesWinWhenPresent(t *testing.T) {
	base := Record{
		"state":           "KERALA",
		"udise_code":      "32070100101",
		"school_name":     "GHS Vyttila",
		"know_more_link":  "https://kys.udiseplus.gov.in/#/schooldetail/100/32",
		"school_category": "Listing Category",
	}
	det := Record{
		"school_category":   "1-Primary",
		"total_students":    "240",
		"extraction_status": "SUCCESS",
	}

	row := DetailRow(base, det)
	if len(row) != len(DetailHeader) {
		t.Fatalf("row has %d fields, want %d", len(row), len(DetailHeader))
	}
	byCol := map[string]string{}
	for i, col := range DetailHeader {
		byCol[col] = row[i]
	}

	if byCol["school_category"] != "1-Primary" {
		t.Errorf("school_category = %q, want detail-page value", byCol["school_category"])
	}
	if byCol["total_students"] != "240" {
		t.Errorf("total_students = %q", byCol["total_students"])
	}
	if byCol["total_teachers"] != Sentinel {
		t.Errorf("absent detail field = %q, want sentinel", byCol["total_teachers"])
	}
	if byCol["has_know_more_link"] != "True" {
		t.Errorf("has_know_more_link = %q, want True", byCol["has_know_more_link"])
	}
}

func TestDetailRow_SentinelDetailDoesNotClobberBase(t *testing.T) {
	base := Record{"school_category": "3-Higher Secondary", "know_more_link": Sentinel}
	det := Record{"school_category": Sentinel}

	row := DetailRow(base, det)
	byCol := map[string]string{}
	for i, col := range DetailHeader {
		byCol[col] = row[i]
	}
	if byCol["school_category"] != "3-Higher Secondary" {
		t.Errorf("school_category = %q, sentinel detail value must not overwrite", byCol["school_category"])
	}
}
