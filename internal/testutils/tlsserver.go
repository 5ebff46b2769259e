package testutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http"
	"testing"
	"time"

	"golang.org/x/net/http2"
)

// LocalTLSServer is an HTTPS server on a loopback port with a
// throwaway certificate, plus the pool that makes clients trust it.
type LocalTLSServer struct {
	Port int
	Pool *x509.CertPool
}

// NewLocalTLSServer starts an HTTPS server with the given ALPN
// preference order. When h2 is offered the server genuinely speaks
// HTTP/2 on it, so negotiated protocols behave like production stacks.
func NewLocalTLSServer(t *testing.T, alpn []string, handler http.Handler) *LocalTLSServer {
	t.Helper()

	cert, pool := selfSignedCert(t)

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   alpn,
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start TLS listener: %v", err)
	}

	server := &http.Server{Handler: handler}
	for _, proto := range alpn {
		if proto == http2.NextProtoTLS {
			if err := http2.ConfigureServer(server, &http2.Server{}); err != nil {
				t.Fatalf("Failed to configure HTTP/2: %v", err)
			}
		}
	}

	go func() {
		_ = server.Serve(tls.NewListener(listener, tlsConfig))
	}()

	t.Cleanup(func() {
		server.Close()
	})

	return &LocalTLSServer{
		Port: listener.Addr().(*net.TCPAddr).Port,
		Pool: pool,
	}
}

func selfSignedCert(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "polyfetch test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}
