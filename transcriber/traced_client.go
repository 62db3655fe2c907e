package transcriber

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// TracedClient is an HTTP client with a small keep-alive pool that times
// each phase of a request. Both cloud backends share its transport.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient() *TracedClient {
	return &TracedClient{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        2,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     120 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// HTTP exposes the pooled client for SDKs that bring their own request
// code.
func (c *TracedClient) HTTP() *http.Client { return c.client }

type TracedResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *NetworkMetrics
}

// requestClock records timestamps from httptrace callbacks and turns them
// into NetworkMetrics.
type requestClock struct {
	m *NetworkMetrics

	getConn, dns, connect, handshake time.Time
	gotConn, headers, sent, first    time.Time
}

func (rc *requestClock) trace() *httptrace.ClientTrace {
	m := rc.m
	return &httptrace.ClientTrace{
		GetConn: func(string) { rc.getConn = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			rc.gotConn = time.Now()
			m.ConnWait = rc.gotConn.Sub(rc.getConn)
			m.ConnReused = info.Reused
		},
		DNSStart:          func(httptrace.DNSStartInfo) { rc.dns = time.Now() },
		DNSDone:           func(httptrace.DNSDoneInfo) { m.DNS = time.Since(rc.dns) },
		ConnectStart:      func(string, string) { rc.connect = time.Now() },
		ConnectDone:       func(string, string, error) { m.TCP = time.Since(rc.connect) },
		TLSHandshakeStart: func() { rc.handshake = time.Now() },
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			m.TLS = time.Since(rc.handshake)
			m.TLSProtocol = tls.VersionName(cs.Version)
		},
		WroteHeaders: func() {
			rc.headers = time.Now()
			m.ReqHeaders = rc.headers.Sub(rc.gotConn)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			rc.sent = time.Now()
			m.ReqBody = rc.sent.Sub(rc.headers)
		},
		GotFirstResponseByte: func() {
			rc.first = time.Now()
			m.TTFB = rc.first.Sub(rc.sent)
		},
	}
}

// Do sends req and reads the whole body.
func (c *TracedClient) Do(req *http.Request) (*TracedResponse, error) {
	rc := &requestClock{m: &NetworkMetrics{}}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), rc.trace()))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	rc.m.Download = time.Since(rc.first)
	rc.m.Total = time.Since(start)

	return &TracedResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Metrics:    rc.m,
	}, nil
}

// WarmConnection opens a pooled connection ahead of the first request and
// returns the TLS handshake time, or 0 when the request failed.
func (c *TracedClient) WarmConnection(req *http.Request) time.Duration {
	rc := &requestClock{m: &NetworkMetrics{}}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), rc.trace()))
	resp, err := c.client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return rc.m.TLS
}
