package crypto

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
)

// LoadCustomCA loads a custom CA certificate and returns a TLS config that
// trusts it next to the system roots.
func LoadCustomCA(caPath string) (*tls.Config, error) {
	// Read the CA certificate file
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", caPath, err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil || caCertPool == nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate from %s", caPath)
	}

	tlsConfig := &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}

	return tlsConfig, nil
}

// NewHTTPClient returns a client without timeout. With an empty caPath the
// default transport is used; otherwise the transport also trusts caPath.
func NewHTTPClient(caPath string) (*http.Client, error) {
	if caPath == "" {
		return &http.Client{}, nil
	}

	tlsConfig, err := LoadCustomCA(caPath)
	if err != nil {
		return nil, err
	}

	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
	} else {
		transport = transport.Clone()
	}
	transport.TLSClientConfig = tlsConfig

	return &http.Client{Transport: transport}, nil
}
