// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultConnectTimeout bounds dialing and the TLS handshake.
const DefaultConnectTimeout = 10 * time.Second

// NewStreamingHTTPClient returns an HTTP client for long-lived streamed
// responses. There is no overall timeout; the turn's context ends a stream.
// connectTimeout <= 0 selects DefaultConnectTimeout.
func NewStreamingHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   connectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: connectTimeout,
			// SECURITY: no downgrade below TLS 1.2, verification always on
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
}
