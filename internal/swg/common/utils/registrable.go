package utils

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrNoDomain signals that a host string has no registrable domain (empty,
// malformed, bare IP literal, or a name with no known public suffix).
var ErrNoDomain = errors.New("no registrable domain")

// RegistrableDomain reduces a request host to its registrable domain
// (eTLD+1) using public-suffix-list semantics, so multi-label suffixes like
// co.uk are handled correctly. Pure and idempotent:
//
//	RegistrableDomain("www.a.example.co.uk:443") == "example.co.uk"
func RegistrableDomain(host string) (string, error) {
	name := CanonicalHost(host)
	if name == "" {
		return "", ErrNoDomain
	}
	if net.ParseIP(name) != nil {
		return "", fmt.Errorf("%w: ip literal %q", ErrNoDomain, name)
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDomain, err)
	}
	return etld1, nil
}

// CanonicalHost returns a host in canonical form:
// - Lowercased and trimmed of surrounding whitespace
// - Port stripped when present
// - No IPv6 brackets, no trailing dots
func CanonicalHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	return host
}
