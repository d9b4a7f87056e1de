// Package clientcreds selects the transport security used by the palace
// channel. The choice is made from configuration when the client is built;
// a Provider that reports no bundle yields a plaintext channel.
package clientcreds

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc/credentials"
)

// Provider optionally supplies transport credentials for the channel.
type Provider interface {
	// TransportCredentials returns the bundle and true, or false when the
	// channel should run without transport security.
	TransportCredentials() (credentials.TransportCredentials, bool, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (credentials.TransportCredentials, bool, error)

// TransportCredentials implements Provider.
func (fn ProviderFunc) TransportCredentials() (credentials.TransportCredentials, bool, error) {
	return fn()
}

// None is the provider for development builds: no transport security.
type None struct{}

// TransportCredentials implements Provider.
func (None) TransportCredentials() (credentials.TransportCredentials, bool, error) {
	return nil, false, nil
}

// SystemTLS verifies the server against the host's root pool.
type SystemTLS struct {
	ServerName string
}

// TransportCredentials implements Provider.
func (p SystemTLS) TransportCredentials() (credentials.TransportCredentials, bool, error) {
	return credentials.NewTLS(&tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: p.ServerName,
	}), true, nil
}

// Files loads a CA bundle and an optional client key pair from disk.
type Files struct {
	CAFile     string
	CertFile   string
	KeyFile    string
	ServerName string
}

// TransportCredentials implements Provider.
func (p Files) TransportCredentials() (credentials.TransportCredentials, bool, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: p.ServerName,
	}
	if caFile := strings.TrimSpace(p.CAFile); caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, false, fmt.Errorf("read CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, false, fmt.Errorf("CA bundle %s has no certificates", caFile)
		}
		cfg.RootCAs = pool
	}

	certFile, keyFile := strings.TrimSpace(p.CertFile), strings.TrimSpace(p.KeyFile)
	if (certFile == "") != (keyFile == "") {
		return nil, false, fmt.Errorf("client certificate and key must be configured together")
	}
	if certFile != "" {
		pair, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, false, fmt.Errorf("load client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}
	return credentials.NewTLS(cfg), true, nil
}

// Config names the credential material available to a build.
type Config struct {
	CAFile   string `env:"PALACE_SYNC_TLS_CA_FILE"`
	CertFile string `env:"PALACE_SYNC_TLS_CERT_FILE"`
	KeyFile  string `env:"PALACE_SYNC_TLS_KEY_FILE"`
}

// FromConfig picks a provider: explicit files first, then the system pool
// when the endpoint asks for TLS, otherwise none.
func FromConfig(cfg Config, secure bool, serverName string) Provider {
	if strings.TrimSpace(cfg.CAFile) != "" || strings.TrimSpace(cfg.CertFile) != "" || strings.TrimSpace(cfg.KeyFile) != "" {
		return Files{CAFile: cfg.CAFile, CertFile: cfg.CertFile, KeyFile: cfg.KeyFile, ServerName: serverName}
	}
	if secure {
		return SystemTLS{ServerName: serverName}
	}
	return None{}
}
