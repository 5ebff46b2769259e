package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/httpclient"
	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
)

// Capabilities lists what the target server was observed to support.
type Capabilities struct {
	PlainHTTP       bool
	HTTPS           bool
	HTTP1TLS        bool
	HTTP2TLS        bool
	HTTP3Advertised bool
}

// Prober runs the capability checks against one host. Ports, roots and
// the HEAD client are overridable so checks can run against local
// listeners.
type Prober struct {
	Timeout   time.Duration
	HTTPPort  int
	HTTPSPort int
	RootCAs   *x509.CertPool

	// HeadClient performs the Alt-Svc request. Nil means a
	// browser-fingerprint client built on first use.
	HeadClient *http.Client

	Reporter Reporter
}

func NewProber(cfg *pfconfig.Config, reporter Reporter) *Prober {
	return &Prober{
		Timeout:   cfg.ProbeSettings.Timeout,
		HTTPPort:  cfg.ProbeSettings.HTTPPort,
		HTTPSPort: cfg.ProbeSettings.HTTPSPort,
		Reporter:  reporter,
	}
}

// Probe runs all checks in order and reports every outcome. A failed
// check is recorded as an absent capability, never returned as an
// error, so one closed port cannot end the run.
func (p *Prober) Probe(ctx context.Context, hostname string) Capabilities {
	caps := Capabilities{}

	p.Reporter.Header(lang.CheckingCapabilitiesMsgID, hostname)

	p.checkPlainHTTP(ctx, hostname, &caps)
	p.checkTLS(ctx, hostname, &caps)
	if caps.HTTPS {
		p.checkAltSvc(ctx, hostname, &caps)
	}

	logutils.Log.WithFields(map[string]any{
		"host":  hostname,
		"plain": caps.PlainHTTP,
		"https": caps.HTTPS,
		"h1":    caps.HTTP1TLS,
		"h2":    caps.HTTP2TLS,
		"h3":    caps.HTTP3Advertised,
	}).Debug("Capability probe finished")

	return caps
}

func (p *Prober) checkPlainHTTP(ctx context.Context, hostname string, caps *Capabilities) {
	dialer := &net.Dialer{Timeout: p.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(p.HTTPPort)))
	if err != nil {
		logutils.Log.WithError(err).Debugf("Plain HTTP check failed for %s", hostname)
		p.Reporter.Failure(lang.HTTPPortClosedMsgID, p.HTTPPort)
		return
	}
	conn.Close()

	caps.PlainHTTP = true
	p.Reporter.Success(lang.HTTPPortOpenMsgID, p.HTTPPort)
}

func (p *Prober) checkTLS(ctx context.Context, hostname string, caps *Capabilities) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.Timeout},
		Config: &tls.Config{
			ServerName: hostname,
			NextProtos: []string{"h2", "http/1.1"},
			RootCAs:    p.RootCAs,
		},
	}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(hostname, strconv.Itoa(p.HTTPSPort)))
	if err != nil {
		logutils.Log.WithError(err).Debugf("TLS check failed for %s", hostname)
		p.Reporter.Failure(lang.HTTPSPortFailedMsgID, p.HTTPSPort, err)
		return
	}
	defer conn.Close()

	alpn := conn.(*tls.Conn).ConnectionState().NegotiatedProtocol

	caps.HTTPS = true
	switch alpn {
	case "h2":
		caps.HTTP2TLS = true
		// Servers that negotiate h2 are assumed to still accept
		// HTTP/1.1, almost all deployed stacks do.
		caps.HTTP1TLS = true
	case "http/1.1":
		caps.HTTP1TLS = true
	}

	shown := alpn
	if shown == "" {
		shown = "none"
	}
	p.Reporter.Success(lang.HTTPSPortOpenMsgID, p.HTTPSPort, shown)
}

func (p *Prober) checkAltSvc(ctx context.Context, hostname string, caps *Capabilities) {
	client := p.HeadClient
	if client == nil {
		client = httpclient.NewFingerprintClient(p.Timeout, p.RootCAs)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.originURL(hostname), nil)
	if err != nil {
		p.Reporter.Failure(lang.HTTP3CheckFailedMsgID, err)
		return
	}
	httpclient.ApplyBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		logutils.Log.WithError(err).Debugf("Alt-Svc check failed for %s", hostname)
		p.Reporter.Failure(lang.HTTP3CheckFailedMsgID, err)
		return
	}
	defer resp.Body.Close()

	altSvc := resp.Header.Get("Alt-Svc")
	if altSvc != "" && (strings.Contains(altSvc, "h3") || strings.Contains(altSvc, "quic")) {
		caps.HTTP3Advertised = true
		p.Reporter.Success(lang.HTTP3AdvertisedMsgID, altSvc)
		return
	}

	p.Reporter.Warn(lang.HTTP3NotAdvertisedMsgID)
}

// originURL builds the HEAD target. Alt-Svc is advertised on the origin
// root, not on the download path.
func (p *Prober) originURL(hostname string) string {
	if p.HTTPSPort != 443 {
		return "https://" + net.JoinHostPort(hostname, strconv.Itoa(p.HTTPSPort))
	}
	if strings.Contains(hostname, ":") {
		return "https://[" + hostname + "]"
	}
	return "https://" + hostname
}
