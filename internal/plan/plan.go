package plan

import (
	"github.com/NikitaDmitryuk/polyfetch/internal/httpclient"
	"github.com/NikitaDmitryuk/polyfetch/internal/probe"
	"github.com/NikitaDmitryuk/polyfetch/internal/target"
)

// Variant is the display label of one protocol test.
type Variant string

const (
	VariantPlainHTTP1 Variant = "HTTP/1.1 (Plain)"
	VariantTLSHTTP1   Variant = "HTTP/1.1 (TLS)"
	VariantTLSHTTP2   Variant = "HTTP/2 (TLS)"
	VariantQUICHTTP3  Variant = "HTTP/3 (QUIC)"
)

// Proto maps the variant to the protocol its client is pinned to.
func (v Variant) Proto() httpclient.Proto {
	switch v {
	case VariantTLSHTTP2:
		return httpclient.ProtoHTTP2
	case VariantQUICHTTP3:
		return httpclient.ProtoHTTP3
	default:
		return httpclient.ProtoHTTP1
	}
}

// Secure reports whether the variant runs over TLS or QUIC.
func (v Variant) Secure() bool {
	return v != VariantPlainHTTP1
}

// Entry is one download test of the plan.
type Entry struct {
	URL             string
	Variant         Variant
	FollowRedirects bool
}

// Build maps observed capabilities to the ordered download plan. Only
// observed capabilities produce entries, and the fixed order keeps the
// console rows stable between runs.
//
// The plaintext test keeps redirects visible because many sites answer
// port 80 only with a redirect to https; the TLS tests follow them.
func Build(t target.Target, caps probe.Capabilities) []Entry {
	entries := make([]Entry, 0, 4)

	if caps.PlainHTTP {
		entries = append(entries, Entry{
			URL:             t.PlainURL(),
			Variant:         VariantPlainHTTP1,
			FollowRedirects: false,
		})
	}

	if caps.HTTPS {
		if caps.HTTP1TLS {
			entries = append(entries, Entry{
				URL:             t.SecureURL(),
				Variant:         VariantTLSHTTP1,
				FollowRedirects: true,
			})
		}
		if caps.HTTP2TLS {
			entries = append(entries, Entry{
				URL:             t.SecureURL(),
				Variant:         VariantTLSHTTP2,
				FollowRedirects: true,
			})
		}
		if caps.HTTP3Advertised {
			entries = append(entries, Entry{
				URL:             t.SecureURL(),
				Variant:         VariantQUICHTTP3,
				FollowRedirects: true,
			})
		}
	}

	return entries
}
