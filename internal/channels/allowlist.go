// Package channels provides the conversation transports a session is driven
// through: the terminal console and a WebSocket endpoint.
package channels

import (
	"net/url"
	"strings"
)

// Allowlist decides which browser origins may open a WebSocket session.
// An empty list allows every origin.
type Allowlist struct {
	entries []string
}

func NewAllowlist(entries []string) Allowlist {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, strings.ToLower(e))
		}
	}
	return Allowlist{entries: out}
}

// Allows checks origin against the list. origin may be a full URL
// ("https://desk.example.com") or a bare host; entries match either form.
// A missing origin is treated as a non-browser client and allowed.
func (a Allowlist) Allows(origin string) bool {
	if len(a.entries) == 0 || origin == "" {
		return true
	}
	origin = strings.ToLower(origin)
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, allowed := range a.entries {
		if allowed == origin || allowed == host {
			return true
		}
	}
	return false
}
