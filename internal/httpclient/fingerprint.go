package httpclient

import (
	"bufio"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// fingerprintTransport performs requests over a TLS session whose
// ClientHello mimics desktop Chrome. It opens a fresh connection per
// request, which is all the capability probe needs.
type fingerprintTransport struct {
	helloID     utls.ClientHelloID
	rootCAs     *x509.CertPool
	dialTimeout time.Duration
}

// NewFingerprintClient returns a client for probe requests to sites
// whose bot mitigation would answer a stock Go client differently.
func NewFingerprintClient(timeout time.Duration, rootCAs *x509.CertPool) *http.Client {
	return &http.Client{
		Transport: &fingerprintTransport{
			helloID:     utls.HelloChrome_Auto,
			rootCAs:     rootCAs,
			dialTimeout: timeout,
		},
		Timeout: timeout,
	}
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return nil, fmt.Errorf("fingerprint transport supports https only, got %q", req.URL.Scheme)
	}

	host := req.URL.Hostname()
	port := req.URL.Port()
	if port == "" {
		port = "443"
	}

	dialer := &net.Dialer{Timeout: t.dialTimeout}
	rawConn, err := dialer.DialContext(req.Context(), "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, err
	}

	conn := utls.UClient(rawConn, &utls.Config{
		ServerName: host,
		RootCAs:    t.rootCAs,
	}, t.helloID)

	if err := conn.HandshakeContext(req.Context()); err != nil {
		rawConn.Close()
		return nil, err
	}

	// The server picks the protocol; complete the request with whichever
	// stack matches the negotiated ALPN value.
	if conn.ConnectionState().NegotiatedProtocol == "h2" {
		tr := &http2.Transport{}
		clientConn, err := tr.NewClientConn(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		resp, err := clientConn.RoundTrip(req)
		if err != nil {
			conn.Close()
			return nil, err
		}
		resp.Body = &bodyWithConn{ReadCloser: resp.Body, conn: conn}
		return resp, nil
	}

	// HTTP/1.1, or no ALPN answer at all.
	if err := req.Write(conn); err != nil {
		conn.Close()
		return nil, err
	}
	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		conn.Close()
		return nil, err
	}
	resp.Body = &bodyWithConn{ReadCloser: resp.Body, conn: conn}
	return resp, nil
}

// bodyWithConn ties the connection lifetime to the response body, so
// closing the body releases the socket of this one-shot connection.
type bodyWithConn struct {
	io.ReadCloser
	conn net.Conn
}

func (b *bodyWithConn) Close() error {
	err := b.ReadCloser.Close()
	if cerr := b.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
