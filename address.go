package clarifyr

import "net/netip"

// IsPublicAddr reports whether addr may be fetched when private hosts are
// blocked. Loopback, private, link-local and unspecified addresses are not
// public; IPv4-mapped IPv6 addresses are judged by their IPv4 form.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() && !addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() && !addr.IsLinkLocalMulticast() &&
		!addr.IsUnspecified()
}
