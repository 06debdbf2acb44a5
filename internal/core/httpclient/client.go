// Package httpclient configures the HTTP client used to call upstream services.
package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/icholy/digest"
)

type Options struct {
	Timeout  time.Duration
	Username string
	Password string
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithDigest answers HTTP Digest challenges with the given credentials.
func WithDigest(user, pass string) Option {
	return func(o *Options) {
		o.Username = user
		o.Password = pass
	}
}

// NewOutbound creates a new outbound http client
func NewOutbound(opts ...Option) *http.Client {
	o := Options{Timeout: 30 * time.Second}
	for _, f := range opts {
		f(&o)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	var rt http.RoundTripper = transport
	if o.Username != "" {
		rt = &digest.Transport{
			Username:  o.Username,
			Password:  o.Password,
			Transport: transport,
		}
	}
	return &http.Client{
		Transport: rt,
		Timeout:   o.Timeout,
	}
}
