package channel

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Target describes where and how the channel dials.
type Target struct {
	// Address is the gRPC dial target.
	Address string
	// Secure reports whether the endpoint asked for TLS.
	Secure bool
	// ServerName is the host used for TLS verification.
	ServerName string
}

// ParseTarget normalizes a configured endpoint. "https://host" becomes
// "host:443" with TLS, "http://host" becomes "host:80", and bare
// "host:port" targets pass through unchanged.
func ParseTarget(endpoint string) (Target, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Target{}, fmt.Errorf("endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		host, _, err := net.SplitHostPort(endpoint)
		if err != nil {
			return Target{}, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
		}
		return Target{Address: endpoint, ServerName: host}, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return Target{}, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Hostname() == "" {
		return Target{}, fmt.Errorf("endpoint %q has no host", endpoint)
	}

	var secure bool
	var defaultPort string
	switch strings.ToLower(u.Scheme) {
	case "https":
		secure, defaultPort = true, "443"
	case "http":
		defaultPort = "80"
	default:
		return Target{}, fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}

	port := u.Port()
	if port == "" {
		port = defaultPort
	}
	return Target{
		Address:    net.JoinHostPort(u.Hostname(), port),
		Secure:     secure,
		ServerName: u.Hostname(),
	}, nil
}
