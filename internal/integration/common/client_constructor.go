package common

import (
	"net/http"

	"github.com/futig/traffic-law-assistant/internal/config"
	pkgHTTP "github.com/futig/traffic-law-assistant/pkg/http"
)

// NewHTTPClient builds the outbound client for a model provider
func NewHTTPClient(cfg config.HTTPClientConfig) *http.Client {
	return pkgHTTP.NewClient(pkgHTTP.ClientConfig{
		ConnTimeout:           cfg.ConnTimeout,
		RequestTimeout:        cfg.RequestTimeout,
		KeepAlive:             cfg.KeepAlive,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		BearerToken:           cfg.Token,
		LogRequests:           true,
	})
}

// NewBaseConnector is a JSON connector bound to cfg.Url
func NewBaseConnector(cfg config.HTTPClientConfig) *pkgHTTP.Connector {
	return pkgHTTP.NewConnector(cfg.Url, NewHTTPClient(cfg))
}
