// Package privacy reduces client provenance to what is safe to log and audit.
package privacy

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/mssola/useragent"
)

// AnonymizeIP truncates an address to its network: /24 for IPv4 and /48 for
// IPv6. Returns "unknown" for empty input and "invalid" when it does not parse.
func AnonymizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()
	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// ClientAgent is a coarse description of a user agent.
type ClientAgent struct {
	Browser string `json:"browser"`
	Major   string `json:"major_version"`
	OS      string `json:"os"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot"`
}

func (c ClientAgent) String() string {
	platform := "desktop"
	if c.Mobile {
		platform = "mobile"
	}
	if c.Bot {
		platform = "bot"
	}
	return fmt.Sprintf("%s/%s (%s; %s)", c.Browser, c.Major, c.OS, platform)
}

// SummarizeUserAgent keeps the browser family, its major version and the OS.
// Full user agent strings are too identifying to fan out to audit sinks.
func SummarizeUserAgent(raw string) ClientAgent {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ClientAgent{Browser: "unknown", Major: "unknown", OS: "unknown"}
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")
	return ClientAgent{
		Browser: orUnknown(browser),
		Major:   orUnknown(major),
		OS:      orUnknown(ua.OS()),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

func orUnknown(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}
