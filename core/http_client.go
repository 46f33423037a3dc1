package core

import (
	"crypto/tls"
	"net/http"
	"time"
)

// GetHTTPClient returns an HTTP client configured for outbound provider calls.
//
// The timeout bounds the whole request including body read. When the config
// allows self-signed certificates the client skips TLS verification, which is
// only intended for lab deployments behind private endpoints.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg != nil && cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
