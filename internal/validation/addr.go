package validation

import (
	"net"
	"strconv"
)

// ValidateListenAddr validates a host:port listen address. An empty host
// binds every interface.
func ValidateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return invalid("invalid listen address %q: %v", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return invalid("invalid port in listen address %q", addr)
	}
	if host != "" && net.ParseIP(host) == nil && host != "localhost" {
		return invalid("listen host %q must be an IP address or localhost", host)
	}
	return nil
}
