// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import "math/rand"

// browserUserAgents is the pool used when no explicit User-Agent is
// configured. Search engines serve the full results markup only to
// browser-looking agents.
var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/125.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/127.0",
}

// UserAgent returns the configured agent, or a random browser agent when
// the configured one is empty.
func UserAgent(configured string) string {
	if configured != "" {
		return configured
	}
	return browserUserAgents[rand.Intn(len(browserUserAgents))]
}
