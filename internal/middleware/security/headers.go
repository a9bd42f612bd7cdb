// Package security sets response headers for the JSON API.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP            string
	ReferrerPolicy string
	XFrameOptions  string
	// CacheControl is applied to every response when set.
	CacheControl string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// DefaultHeadersConfig suits an API that only ever returns JSON.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
		XFrameOptions:         "DENY",
		CacheControl:          "no-store",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

// Headers returns middleware applying config to every response.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apply(w.Header(), config, r.TLS != nil)
			next.ServeHTTP(w, r)
		})
	}
}

func apply(h http.Header, c HeadersConfig, tls bool) {
	h.Set("X-Content-Type-Options", "nosniff")
	if c.XFrameOptions != "" {
		h.Set("X-Frame-Options", c.XFrameOptions)
	}
	if c.CSP != "" {
		h.Set("Content-Security-Policy", c.CSP)
	}
	if c.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", c.ReferrerPolicy)
	}
	if c.CacheControl != "" {
		h.Set("Cache-Control", c.CacheControl)
	}

	// HSTS only means something over TLS.
	if tls && c.HSTSMaxAge > 0 {
		v := fmt.Sprintf("max-age=%d", c.HSTSMaxAge)
		if c.HSTSIncludeSubdomains {
			v += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", v)
	}
}
