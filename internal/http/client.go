package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/hausakte/hausakte/internal/constants"
)

// NewPooledClient creates the shared HTTP client for backend calls.
//
// The same client is used for listings, downloads and bulk mutations so
// connection reuse works across all of them. No overall client timeout
// is set; each operation carries its own deadline via context.
func NewPooledClient() *nethttp.Client {
	tr := &nethttp.Transport{
		Proxy: nethttp.ProxyFromEnvironment,

		// Bulk operations fan out several requests to the same host.
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 32,
		MaxConnsPerHost:     32,
		IdleConnTimeout:     constants.HTTPIdleConnTimeout,

		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,

		ForceAttemptHTTP2: true,
	}

	_ = http2.ConfigureTransport(tr)

	// Runtime toggle for HTTP/2, useful when a middlebox breaks multiplexing.
	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{
		Transport: tr,
		Timeout:   0,
	}
}
