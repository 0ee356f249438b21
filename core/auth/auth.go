package auth

import (
	"net/netip"
	"strings"
)

// IsOriginAllowed reports whether ip matches an entry of whitelist. Entries
// are single addresses or CIDR ranges; malformed entries never match.
// IPv4-mapped IPv6 addresses are compared as IPv4.
func IsOriginAllowed(ip string, whitelist []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	for _, entry := range whitelist {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				continue
			}
			if prefix.Masked().Contains(addr) {
				return true
			}
			continue
		}
		allowed, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		if allowed.Unmap() == addr {
			return true
		}
	}
	return false
}
