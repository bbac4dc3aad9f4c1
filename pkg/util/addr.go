package util

import (
	"net"
	"strconv"
	"strings"
)

// CanonicalNodeKey builds the canonical "host:port" identity used for a
// Node in every registry/aggregate map (spec.md §3). IPv6 hosts are
// bracketed the way net.JoinHostPort already does; this wrapper exists so
// every call site normalizes the host first (trimming any brackets the
// caller may have already added) and renders the port as a plain decimal.
func CanonicalNodeKey(host string, port int) string {
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitNodeKey reverses CanonicalNodeKey, returning the bare host (without
// brackets) and integer port.
func SplitNodeKey(key string) (host string, port int, err error) {
	h, p, err := net.SplitHostPort(key)
	if err != nil {
		return "", 0, err
	}
	portNum, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, err
	}
	return h, portNum, nil
}

// IsIPv6 reports whether host parses as an IPv6 literal.
func IsIPv6(host string) bool {
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	ip := net.ParseIP(host)
	return ip != nil && strings.Contains(host, ":")
}
