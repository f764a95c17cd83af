package portal

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Region is one state or district as presented by a portal dropdown.
//
// The portal encodes option values inconsistently: some dropdowns carry a
// JSON composite like {"stateName":"KERALA","stateId":"32"}, others a bare
// numeric id. Raw preserves the value exactly as rendered so selection can
// try the composite first.
type Region struct {
	Name string
	ID   string
	Raw  string
}

// ParseRegion builds a Region from a dropdown option's value and label. Both
// value encodings parse; the visible label always wins as the display name
// when the value carries none.
func ParseRegion(value, label string) Region {
	r := Region{
		Name: strings.TrimSpace(label),
		Raw:  strings.TrimSpace(value),
	}

	if strings.HasPrefix(r.Raw, "{") {
		var composite map[string]any
		if err := json.Unmarshal([]byte(r.Raw), &composite); err == nil {
			for k, v := range composite {
				var s string
				switch t := v.(type) {
				case string:
					s = t
				case float64:
					s = strconv.FormatFloat(t, 'f', -1, 64)
				default:
					continue
				}
				lk := strings.ToLower(k)
				switch {
				case strings.HasSuffix(lk, "id"):
					r.ID = s
				case strings.HasSuffix(lk, "name") && r.Name == "":
					r.Name = s
				}
			}
			return r
		}
	}

	r.ID = r.Raw
	return r
}

// Placeholder reports whether this option is a non-selectable prompt row
// ("Select State", empty value) rather than a real region.
func (r Region) Placeholder() bool {
	if r.Raw == "" || r.Raw == "0" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(r.Name), "select ")
}
