package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"
	"golang.org/x/net/http2"
)

// Proto identifies the application protocol a client is pinned to.
// Values follow the ALPN protocol identifiers.
type Proto string

const (
	ProtoHTTP1 Proto = "http/1.1"
	ProtoHTTP2 Proto = "h2"
	ProtoHTTP3 Proto = "h3"
)

// BrowserUserAgent is sent on every request so servers treat the probe
// and the test downloads like an ordinary desktop browser fetch.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config describes a single protocol-pinned client.
type Config struct {
	Proto           Proto
	Secure          bool
	FollowRedirects bool
	Timeout         time.Duration
	RootCAs         *x509.CertPool // nil means system roots
}

// New builds an http.Client locked to exactly one protocol variant.
// The variant must not be negotiated away by the transport, otherwise
// a test download would measure the wrong protocol.
func New(cfg Config) (*http.Client, error) {
	var transport http.RoundTripper

	switch cfg.Proto {
	case ProtoHTTP1:
		tr := &http.Transport{
			ForceAttemptHTTP2: false,
			// An empty map keeps the HTTP/2 upgrade path closed even if a
			// TLS config advertising h2 ever leaks in.
			TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
		}
		if cfg.Secure {
			tr.TLSClientConfig = &tls.Config{
				RootCAs:    cfg.RootCAs,
				NextProtos: []string{"http/1.1"},
			}
		}
		transport = tr

	case ProtoHTTP2:
		if !cfg.Secure {
			return nil, fmt.Errorf("protocol %q requires TLS", cfg.Proto)
		}
		transport = &http2.Transport{
			TLSClientConfig: &tls.Config{
				RootCAs: cfg.RootCAs,
			},
		}

	case ProtoHTTP3:
		if !cfg.Secure {
			return nil, fmt.Errorf("protocol %q requires TLS", cfg.Proto)
		}
		transport = &http3.RoundTripper{
			TLSClientConfig: &tls.Config{
				RootCAs:    cfg.RootCAs,
				NextProtos: []string{http3.NextProtoH3},
			},
		}

	default:
		return nil, fmt.Errorf("unsupported protocol variant: %q", cfg.Proto)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// ApplyBrowserHeaders makes a request look like a desktop Chrome fetch.
// Accept-Encoding stays identity so Content-Length matches the bytes
// actually read from the body.
func ApplyBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity")
}
