package browser

import (
	"os/exec"

	"github.com/udisescan/udisescan/internal/logger"
)

// Common Chrome/Chromium binary names across different systems
var chromeBinaryNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	// macOS paths
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	// Common Linux paths
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	// Windows paths
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// findChromePath resolves the Chrome binary to launch. An explicit override
// wins; otherwise PATH lookup and common install locations are tried in
// order. Empty means let the driver pick its default.
func findChromePath(override string) string {
	if override != "" {
		if path, err := exec.LookPath(override); err == nil {
			return path
		}
		logger.Warn("configured Chrome binary not found, falling back to auto-detect", "path", override)
	}
	for _, name := range chromeBinaryNames {
		if path, err := exec.LookPath(name); err == nil {
			logger.Debug("found Chrome binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, browser start may fail")
	return ""
}
