// Package ytclient builds YouTube clients that present a browser request
// signature.
package ytclient

import (
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
)

// Signature is the set of headers sent with every request.
type Signature struct {
	UserAgent      string
	AcceptLanguage string
}

type headerTransport struct {
	sig  Signature
	base http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.sig.UserAgent != "" {
		req.Header.Set("User-Agent", t.sig.UserAgent)
	}
	if t.sig.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", t.sig.AcceptLanguage)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns an http.Client that stamps sig onto each request.
// A zero timeout leaves the deadline to the caller's context.
func NewHTTPClient(sig Signature, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{sig: sig, base: http.DefaultTransport},
	}
}

// New returns a YouTube client using sig.
func New(sig Signature) *youtube.Client {
	return &youtube.Client{HTTPClient: NewHTTPClient(sig, 0)}
}
