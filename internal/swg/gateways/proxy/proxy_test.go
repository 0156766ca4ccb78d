package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/swgd/internal/swg/domain"
)

// stubEvaluator blocks the configured domains and allows everything else.
type stubEvaluator struct {
	blocked map[string]bool
	page    string
}

func (s *stubEvaluator) Evaluate(_ context.Context, host string) domain.Verdict {
	name := strings.Split(host, ":")[0]
	if s.blocked[name] {
		return domain.Verdict{
			Domain: name,
			Action: domain.ActionBlock,
			Page:   []byte(s.page),
		}
	}
	return domain.AllowVerdict(name)
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_RejectsBadCAPair(t *testing.T) {
	_, err := New(Options{Addr: ":0", CACert: []byte("not pem"), CAKey: []byte("not pem")})
	assert.Error(t, err)
}

func TestOnRequest_SubstitutesBlockResponse(t *testing.T) {
	s, err := New(Options{Addr: ":0"})
	require.NoError(t, err)

	ev := &stubEvaluator{blocked: map[string]bool{"instagram.com": true}, page: "<h1>denied</h1>"}
	handle := s.onRequest(ev)

	req := httptest.NewRequest(http.MethodGet, "http://instagram.com/feed", nil)
	_, resp := handle(req, nil)

	require.NotNil(t, resp, "blocked request must get a substituted response")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<h1>denied</h1>", string(body))
}

func TestOnRequest_PassesAllowedRequestsThrough(t *testing.T) {
	s, err := New(Options{Addr: ":0"})
	require.NoError(t, err)

	handle := s.onRequest(&stubEvaluator{})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	returned, resp := handle(req, nil)

	assert.Nil(t, resp, "allowed request must pass through unmodified")
	assert.Same(t, req, returned)
}

func TestServer_BlockedRequestEndToEnd(t *testing.T) {
	s, err := New(Options{Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	ev := &stubEvaluator{blocked: map[string]bool{"blocked.example.com": true}, page: "<h1>denied</h1>"}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, ev))
	defer func() { _ = s.Stop() }()

	proxyURL, err := url.Parse("http://" + s.Address())
	require.NoError(t, err)

	client := &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		Timeout:   2 * time.Second,
	}
	// The blocked verdict short-circuits before any origin dial, so this
	// needs no network egress.
	resp, err := client.Get("http://blocked.example.com/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "denied")
}

func TestServer_AddressBeforeAndAfterStart(t *testing.T) {
	s, err := New(Options{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", s.Address())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx, &stubEvaluator{}))
	defer func() { _ = s.Stop() }()

	assert.NotEqual(t, "127.0.0.1:0", s.Address(), "Address must report the bound port")
}

func TestServer_StopWithoutStart(t *testing.T) {
	s, err := New(Options{Addr: ":0"})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}
