// Package profile defines the portal selector profile.
//
// The portal's DOM is not a stable API. All CSS selectors and text patterns
// the scraper depends on live in one profile so a markup change is a config
// edit, not a code change.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds every selector and pattern used against the portal.
type Profile struct {
	// Entry navigation.
	VisitPortalText   string `yaml:"visit_portal_text"`
	AdvanceSearchID   string `yaml:"advance_search_id"`
	AdvanceSearchPath string `yaml:"advance_search_path"`

	// Dropdowns. State and district share one select class; the district
	// dropdown is the second match once a state is chosen.
	RegionSelect   string `yaml:"region_select"`
	PageSizeSelect string `yaml:"page_size_select"`
	PageSizeValue  string `yaml:"page_size_value"`

	// Search action. Tried in order.
	SearchButtons []string `yaml:"search_buttons"`

	// Result listing. Container queries tried in order; the first query
	// yielding a non-trivial set wins.
	RecordContainers []string `yaml:"record_containers"`
	ResultIndicators []string `yaml:"result_indicators"`

	// Pagination.
	NextControls []string `yaml:"next_controls"`

	// Detail pages.
	DetailInfoCols  string `yaml:"detail_info_cols"`
	DetailInfoTitle string `yaml:"detail_info_title"`
	DetailInfoValue string `yaml:"detail_info_value"`
	DetailCounters  string `yaml:"detail_counters"`
}

// Default returns the selector profile for the UDISE Plus portal as observed.
func Default() Profile {
	return Profile{
		VisitPortalText:   "Visit Portal",
		AdvanceSearchID:   "#advanceSearch",
		AdvanceSearchPath: "advance",
		RegionSelect:      "select.form-select.select",
		PageSizeSelect:    "select.form-select.w11110",
		PageSizeValue:     "100",
		SearchButtons: []string{
			"button.purpleBtn",
			"button[class*='purpleBtn']",
		},
		RecordContainers: []string{
			".accordion-body",
			".accordion-item",
			"[class*='accordion']",
			"table tbody tr",
		},
		ResultIndicators: []string{
			".accordion-body",
			".accordion-item",
			"[class*='accordion']",
			".pagination",
			"table tbody tr",
		},
		NextControls: []string{
			"a.nextBtn",
			"a[class*='nextBtn']",
			".pagination a[aria-label='Next']",
		},
		DetailInfoCols:  ".innerPad .schoolInfoCol",
		DetailInfoTitle: ".title p.fw-600",
		DetailInfoValue: ".blueCol",
		DetailCounters:  ".H3Value",
	}
}

// FromFile loads a profile from a YAML file. Unset fields keep their defaults.
func FromFile(path string) (Profile, error) {
	p := Default()

	data, err := os.ReadFile(path) //#nosec G304 -- user-specified profile file
	if err != nil {
		return p, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to parse profile: %w", err)
	}

	if len(p.RecordContainers) == 0 {
		return p, fmt.Errorf("profile must define at least one record container selector")
	}
	if len(p.NextControls) == 0 {
		return p, fmt.Errorf("profile must define at least one next control selector")
	}
	return p, nil
}
