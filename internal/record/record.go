// Package record defines the flat school record and its CSV schema mapping.
package record

import "strings"

// Sentinel marks a field that could not be extracted. Output columns stay
// homogeneous strings; there is no null.
const Sentinel = "N/A"

// DetailMarker is the path fragment a usable detail link must carry.
const DetailMarker = "schooldetail"

// Record is a flat mapping of named fields to string values, created
// transiently from a rendered page and serialized immediately.
type Record map[string]string

// Get returns the value for key, or the sentinel if absent or empty.
func (r Record) Get(key string) string {
	if v, ok := r[key]; ok && v != "" {
		return v
	}
	return Sentinel
}

// DetailEligible reports whether the record carries a usable detail-page
// link. Both derived boolean columns are computed from this, identically.
func (r Record) DetailEligible() bool {
	link := r.Get("know_more_link")
	return link != Sentinel && strings.Contains(link, DetailMarker)
}

// HasEssentials reports whether at least one essential field was extracted.
// A record failing this never reaches output.
func (r Record) HasEssentials() bool {
	return r.Get("school_name") != Sentinel ||
		r.Get("udise_code") != Sentinel ||
		r.Get("know_more_link") != Sentinel
}

// ListingHeader is the fixed Phase 1 column order. Once written to a file it
// is never rewritten.
var ListingHeader = []string{
	"has_know_more_link", "phase2_ready", "state", "state_id", "district", "district_id",
	"extraction_date", "udise_code", "school_name", "know_more_link", "email",
	"operational_status", "school_category", "school_management", "school_type",
	"school_location", "address", "pin_code",
}

// ListingRow maps a record onto ListingHeader. Renamed columns
// (location→school_location, pincode→pin_code) and the two derived booleans
// are resolved here; everything else maps by name with the sentinel default.
func ListingRow(r Record) []string {
	eligible := boolString(r.DetailEligible())

	row := make([]string, 0, len(ListingHeader))
	for _, col := range ListingHeader {
		switch col {
		case "has_know_more_link", "phase2_ready":
			row = append(row, eligible)
		case "school_location":
			row = append(row, r.Get("location"))
		case "pin_code":
			row = append(row, r.Get("pincode"))
		case "address":
			if v := r.Get("address"); v != Sentinel {
				row = append(row, v)
			} else {
				row = append(row, r.Get("location"))
			}
		default:
			row = append(row, r.Get(col))
		}
	}
	return row
}

// DetailHeader is the Phase 2 column order: the full listing schema followed
// by the detail-page enrichment fields and extraction-quality indicators.
var DetailHeader = append(append([]string{}, ListingHeader...),
	"detail_school_name", "academic_year", "location",
	"class_from", "class_to", "class_range",
	"year_of_establishment", "national_management", "state_management",
	"affiliation_board_sec", "affiliation_board_hsec",
	"total_students", "total_boys", "total_girls", "enrollment_class_range",
	"total_teachers", "male_teachers", "female_teachers",
	"extraction_status", "extraction_timestamp",
	"fields_extracted", "critical_fields_extracted",
)

// DetailRow maps a merged listing+detail record onto DetailHeader. Detail
// values for school_category and school_type replace the listing values when
// present, matching what the detail page reports.
func DetailRow(base Record, detail Record) []string {
	merged := make(Record, len(base)+len(detail))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range detail {
		if v != "" && v != Sentinel {
			merged[k] = v
		} else if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}

	row := make([]string, 0, len(DetailHeader))
	for i, col := range DetailHeader {
		if i < len(ListingHeader) {
			switch col {
			case "has_know_more_link", "phase2_ready":
				row = append(row, boolString(base.DetailEligible()))
			case "school_location":
				row = append(row, merged.Get("school_location"))
			case "pin_code":
				row = append(row, merged.Get("pin_code"))
			default:
				row = append(row, merged.Get(col))
			}
			continue
		}
		row = append(row, merged.Get(col))
	}
	return row
}

func boolString(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
