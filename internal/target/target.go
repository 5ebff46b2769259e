package target

import (
	"net/url"
	"strings"

	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

// Target is the parsed destination of a run. Only the hostname and path
// survive parsing: the scheme decides nothing because every protocol
// variant is probed regardless, and an explicit port is dropped in favor
// of the default port of each variant.
type Target struct {
	Hostname string
	Path     string
}

// Resolve parses a raw command line argument into a Target. Bare
// hostnames are accepted and the path defaults to "/".
func Resolve(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, utils.WrapError(utils.ErrInvalidURL, "empty target", nil)
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, utils.WrapError(err, "cannot parse target", map[string]any{
			"target": raw,
		})
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return Target{}, utils.WrapError(utils.ErrInvalidURL, "no hostname in target", map[string]any{
			"target": raw,
		})
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	return Target{Hostname: hostname, Path: path}, nil
}

// PlainURL is the cleartext URL fetched by the plain HTTP variant.
func (t Target) PlainURL() string {
	return "http://" + t.hostPart() + t.Path
}

// SecureURL is the URL fetched by all TLS and QUIC variants.
func (t Target) SecureURL() string {
	return "https://" + t.hostPart() + t.Path
}

func (t Target) hostPart() string {
	// IPv6 literals need brackets back after url.Hostname stripped them.
	if strings.Contains(t.Hostname, ":") {
		return "[" + t.Hostname + "]"
	}
	return t.Hostname
}
