package http

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig tunes the outbound client shared by the model connectors.
// Zero durations fall back to the defaults below.
type ClientConfig struct {
	ConnTimeout           time.Duration
	RequestTimeout        time.Duration
	KeepAlive             time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int

	// BearerToken is sent as "Authorization: Bearer <token>" when set
	BearerToken string

	// LogRequests reports every round trip at debug level on the context logger
	LogRequests bool
}

const (
	defaultConnTimeout           = 10 * time.Second
	defaultKeepAlive             = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 60 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultMaxIdleConnsPerHost   = 10
	maxIdleConns                 = 100
)

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// NewClient builds an *http.Client. RequestTimeout zero means no client-side
// deadline, so long generations are bounded by the caller's context only.
func NewClient(cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   orDefault(cfg.ConnTimeout, defaultConnTimeout),
		KeepAlive: orDefault(cfg.KeepAlive, defaultKeepAlive),
	}

	var transport http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   orDefault(cfg.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost),
		TLSHandshakeTimeout:   orDefault(cfg.TLSHandshakeTimeout, defaultTLSHandshakeTimeout),
		ResponseHeaderTimeout: orDefault(cfg.ResponseHeaderTimeout, defaultResponseHeaderTimeout),
		IdleConnTimeout:       orDefault(cfg.IdleConnTimeout, defaultIdleConnTimeout),
	}

	if cfg.LogRequests {
		transport = &logTransport{next: transport}
	}
	// outermost, so the logged headers show the redacted token
	if cfg.BearerToken != "" {
		transport = &bearerTransport{token: cfg.BearerToken, next: transport}
	}

	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
}
