package extract

import (
	"regexp"
	"strings"
)

// Email patterns over raw container markup, in priority order. First match
// wins.
var emailPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)mailto:([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`),
	regexp.MustCompile(`(?i)\bEmail\s*[:\-]?\s*([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`),
	regexp.MustCompile(`([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`),
	regexp.MustCompile(`(?i)([A-Za-z0-9._%+\-]+\s*\[at\]\s*[A-Za-z0-9.\-]+\s*\[dot\]\s*[A-Za-z]{2,})`),
}

// Email extracts a contact address from raw markup, trying each pattern
// variant in priority order.
func Email(markup string) string {
	for _, re := range emailPatterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			addr := strings.TrimSpace(m[1])
			addr = strings.ReplaceAll(addr, " [at] ", "@")
			addr = strings.ReplaceAll(addr, "[at]", "@")
			addr = strings.ReplaceAll(addr, " [dot] ", ".")
			addr = strings.ReplaceAll(addr, "[dot]", ".")
			return strings.ToLower(addr)
		}
	}
	return ""
}
