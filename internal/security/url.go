// Package security checks outbound URLs configured for sinks and notifications.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// CheckHTTPURL requires an absolute http(s) URL. Link-local and unspecified
// hosts are refused since they only ever reach cloud metadata services or
// nothing at all; loopback and private hosts are allowed for self-hosted
// backends.
func CheckHTTPURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	host := parsed.Hostname()
	if host == "" {
		return nil, fmt.Errorf("URL must have a host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return nil, fmt.Errorf("requests to link-local addresses are not allowed")
		}
		if ip.IsUnspecified() {
			return nil, fmt.Errorf("requests to unspecified addresses are not allowed")
		}
	}
	return parsed, nil
}

// CheckPublicURL is CheckHTTPURL plus a ban on localhost, loopback and
// private network addresses. Hostnames are not resolved.
func CheckPublicURL(rawURL string) error {
	parsed, err := CheckHTTPURL(rawURL)
	if err != nil {
		return err
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "localhost" || host == "localhost.localdomain" {
		return fmt.Errorf("requests to localhost are not allowed")
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	if ip.IsLoopback() {
		return fmt.Errorf("requests to loopback addresses are not allowed")
	}
	if ip.IsPrivate() {
		return fmt.Errorf("requests to private network addresses are not allowed")
	}
	return nil
}
