package probe

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/testutils"
)

func TestMain(m *testing.M) {
	logutils.InitLogger("debug")
	m.Run()
}

type reporterCall struct {
	kind string
	id   lang.MessageID
}

// recordingReporter captures report lines so tests can assert which
// outcomes were shown without parsing styled console output.
type recordingReporter struct {
	mu    sync.Mutex
	calls []reporterCall
}

func (r *recordingReporter) record(kind string, id lang.MessageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reporterCall{kind: kind, id: id})
}

func (r *recordingReporter) Header(id lang.MessageID, _ ...any)  { r.record("header", id) }
func (r *recordingReporter) Success(id lang.MessageID, _ ...any) { r.record("success", id) }
func (r *recordingReporter) Warn(id lang.MessageID, _ ...any)    { r.record("warn", id) }
func (r *recordingReporter) Failure(id lang.MessageID, _ ...any) { r.record("failure", id) }

func (r *recordingReporter) has(kind string, id lang.MessageID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.kind == kind && c.id == id {
			return true
		}
	}
	return false
}

func (r *recordingReporter) first() reporterCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return reporterCall{}
	}
	return r.calls[0]
}

func newTestProber(t *testing.T, httpPort, httpsPort int) (*Prober, *recordingReporter) {
	t.Helper()

	reporter := &recordingReporter{}
	prober := &Prober{
		Timeout:   500 * time.Millisecond,
		HTTPPort:  httpPort,
		HTTPSPort: httpsPort,
		Reporter:  reporter,
	}
	return prober, reporter
}

// poolClient builds a HEAD client trusting the local test certificate.
func poolClient(server *testutils.LocalTLSServer) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: server.Pool},
		},
		Timeout: 2 * time.Second,
	}
}

func TestProbe_NothingReachable(t *testing.T) {
	prober, reporter := newTestProber(t, testutils.ClosedPort(t), testutils.ClosedPort(t))

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if caps != (Capabilities{}) {
		t.Errorf("Expected no capabilities, got %+v", caps)
	}
	if first := reporter.first(); first.kind != "header" || first.id != lang.CheckingCapabilitiesMsgID {
		t.Errorf("Expected the header line first, got %+v", first)
	}
	if !reporter.has("failure", lang.HTTPPortClosedMsgID) {
		t.Error("Expected a closed-port line for plain HTTP")
	}
	if !reporter.has("failure", lang.HTTPSPortFailedMsgID) {
		t.Error("Expected a failure line for HTTPS")
	}
	if reporter.has("warn", lang.HTTP3NotAdvertisedMsgID) || reporter.has("failure", lang.HTTP3CheckFailedMsgID) {
		t.Error("HTTP/3 check must be skipped when HTTPS is down")
	}
}

func TestProbe_PlainOnly(t *testing.T) {
	prober, reporter := newTestProber(t, testutils.TCPListener(t), testutils.ClosedPort(t))

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if !caps.PlainHTTP {
		t.Error("Expected plain HTTP to be detected")
	}
	if caps.HTTPS || caps.HTTP1TLS || caps.HTTP2TLS || caps.HTTP3Advertised {
		t.Errorf("Expected only plain HTTP, got %+v", caps)
	}
	if !reporter.has("success", lang.HTTPPortOpenMsgID) {
		t.Error("Expected an open-port line for plain HTTP")
	}
}

func TestProbe_TLSHTTP1Only(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	prober, reporter := newTestProber(t, testutils.ClosedPort(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	expected := Capabilities{HTTPS: true, HTTP1TLS: true}
	if caps != expected {
		t.Errorf("Expected %+v, got %+v", expected, caps)
	}
	if !reporter.has("success", lang.HTTPSPortOpenMsgID) {
		t.Error("Expected an HTTPS open line")
	}
	if !reporter.has("warn", lang.HTTP3NotAdvertisedMsgID) {
		t.Error("Expected a not-advertised line for HTTP/3")
	}
}

func TestProbe_H2ImpliesH1(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"h2", "http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	prober, _ := newTestProber(t, testutils.ClosedPort(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if !caps.HTTP2TLS {
		t.Error("Expected HTTP/2 to be negotiated")
	}
	if !caps.HTTP1TLS {
		t.Error("An HTTP/2 server must also be recorded as HTTP/1.1 capable")
	}
}

func TestProbe_AltSvcAdvertised(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"h2", "http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", `h3=":443"; ma=86400`)
		w.WriteHeader(http.StatusOK)
	}))

	prober, reporter := newTestProber(t, testutils.ClosedPort(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if !caps.HTTP3Advertised {
		t.Error("Expected HTTP/3 to be detected from Alt-Svc")
	}
	if !reporter.has("success", lang.HTTP3AdvertisedMsgID) {
		t.Error("Expected an advertised line for HTTP/3")
	}
}

func TestProbe_AltSvcWithoutH3Token(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", `spdy/3="alt.example.com:443"`)
		w.WriteHeader(http.StatusOK)
	}))

	prober, reporter := newTestProber(t, testutils.ClosedPort(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if caps.HTTP3Advertised {
		t.Error("Alt-Svc without h3 or quic must not count as HTTP/3")
	}
	if !reporter.has("warn", lang.HTTP3NotAdvertisedMsgID) {
		t.Error("Expected a not-advertised line for HTTP/3")
	}
}

func TestProbe_AltSvcCheckFailureIsNonFatal(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hijacker, ok := w.(http.Hijacker)
		if !ok {
			t.Error("Handler cannot hijack the connection")
			return
		}
		conn, _, err := hijacker.Hijack()
		if err != nil {
			return
		}
		conn.Close()
	}))

	prober, reporter := newTestProber(t, testutils.ClosedPort(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	if !caps.HTTPS || !caps.HTTP1TLS {
		t.Errorf("TLS capabilities must survive a failed HTTP/3 check, got %+v", caps)
	}
	if caps.HTTP3Advertised {
		t.Error("A failed check must leave the HTTP/3 flag unset")
	}
	if !reporter.has("failure", lang.HTTP3CheckFailedMsgID) {
		t.Error("Expected a check-failed line for HTTP/3")
	}
}

func TestProbe_FullyCapable(t *testing.T) {
	server := testutils.NewLocalTLSServer(t, []string{"h2", "http/1.1"}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Alt-Svc", `h3=":443"; ma=2592000`)
		w.WriteHeader(http.StatusOK)
	}))

	prober, _ := newTestProber(t, testutils.TCPListener(t), server.Port)
	prober.RootCAs = server.Pool
	prober.HeadClient = poolClient(server)

	caps := prober.Probe(context.Background(), "127.0.0.1")

	expected := Capabilities{
		PlainHTTP:       true,
		HTTPS:           true,
		HTTP1TLS:        true,
		HTTP2TLS:        true,
		HTTP3Advertised: true,
	}
	if caps != expected {
		t.Errorf("Expected %+v, got %+v", expected, caps)
	}
}
