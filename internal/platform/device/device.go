// Package device turns a User-Agent into a short label for audit records, so
// a warden can tell which gate terminal or phone submitted a request.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <platform>", falling back to the
// operating system when the platform is empty.
func ParseUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := ua.Platform()
	if platform == "" {
		platform = ua.OS()
	}
	if platform == "" {
		platform = "Unknown Platform"
	}

	label := browser + " on " + platform
	if ua.Mobile() {
		label += " (mobile)"
	}
	return strings.Join(strings.Fields(label), " ")
}
