package scraper

import (
	"strings"

	"github.com/corpix/uarand"
)

// DefaultUserAgent is a desktop Chromium user agent.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// uaDraws bounds how many random user agents are drawn looking for a
// Chromium desktop one.
const uaDraws = 20

// UserAgent returns configured when set. Otherwise it draws a random
// desktop Chrome user agent, so the header agrees with the Chromium engine
// actually driving the session.
func UserAgent(configured string) string {
	if configured != "" {
		return configured
	}
	for range uaDraws {
		ua := uarand.GetRandom()
		if strings.Contains(ua, "Chrome/") && !strings.Contains(ua, "Mobile") && !strings.Contains(ua, "Edg") {
			return ua
		}
	}
	return DefaultUserAgent
}
