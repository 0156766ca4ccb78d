// Package proxy binds the decision engine to the goproxy interception
// library. goproxy owns all TLS and proxying mechanics (CONNECT handling,
// certificate generation, forwarding); this adapter only translates each
// intercepted request into an Evaluate call and maps the verdict back to
// "pass through" or "substitute the block response".
package proxy

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/elazarl/goproxy"

	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/domain"
	"github.com/haukened/swgd/internal/swg/services/engine"
)

const shutdownTimeout = 5 * time.Second

// Options defines configuration parameters for the interception server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// CACert and CAKey optionally replace goproxy's built-in interception
	// CA with a PEM-encoded pair. Both or neither.
	CACert []byte
	CAKey  []byte
	Logger log.Logger
}

// Server implements engine.Transport over an HTTP(S)-intercepting proxy.
type Server struct {
	addr   string
	logger log.Logger
	ln     net.Listener
	srv    *http.Server
}

// New creates an interception server. When a CA pair is supplied it is
// installed as the signing CA for MITM'd connections.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		return nil, errors.New("proxy listen address is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if len(opts.CACert) > 0 || len(opts.CAKey) > 0 {
		if err := setCA(opts.CACert, opts.CAKey); err != nil {
			return nil, fmt.Errorf("installing interception CA: %w", err)
		}
	}
	return &Server{addr: opts.Addr, logger: opts.Logger}, nil
}

// Start binds the listener and begins intercepting. All requests, including
// those inside MITM'd TLS tunnels, flow through the handler.
func (s *Server) Start(ctx context.Context, handler engine.Evaluator) error {
	p := goproxy.NewProxyHttpServer()
	p.OnRequest().HandleConnect(goproxy.AlwaysMitm)
	p.OnRequest().DoFunc(s.onRequest(handler))

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding proxy listener: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: p, BaseContext: func(net.Listener) context.Context { return ctx }}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(map[string]any{"error": err.Error()}, "Proxy server terminated")
		}
	}()

	s.logger.Info(map[string]any{"address": ln.Addr().String()}, "Interception proxy listening")
	return nil
}

// onRequest adapts one intercepted request to a verdict. Blocked requests
// never reach the origin: the proxy returns the substituted response and
// stops all further handling.
func (s *Server) onRequest(handler engine.Evaluator) func(*http.Request, *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	return func(req *http.Request, _ *goproxy.ProxyCtx) (*http.Request, *http.Response) {
		verdict := handler.Evaluate(req.Context(), req.Host)
		if verdict.Blocked() {
			return req, goproxy.NewResponse(req, "text/html", domain.BlockStatusCode, string(verdict.Page))
		}
		return req, nil
	}
}

// Stop gracefully shuts the proxy down.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Address returns the bound address once started, the configured address
// otherwise.
func (s *Server) Address() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// setCA installs a custom interception CA into goproxy's connect actions.
func setCA(certPEM, keyPEM []byte) error {
	ca, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return err
	}
	if ca.Leaf, err = x509.ParseCertificate(ca.Certificate[0]); err != nil {
		return err
	}
	goproxy.GoproxyCa = ca
	goproxy.OkConnect = &goproxy.ConnectAction{Action: goproxy.ConnectAccept, TLSConfig: goproxy.TLSConfigFromCA(&ca)}
	goproxy.MitmConnect = &goproxy.ConnectAction{Action: goproxy.ConnectMitm, TLSConfig: goproxy.TLSConfigFromCA(&ca)}
	goproxy.HTTPMitmConnect = &goproxy.ConnectAction{Action: goproxy.ConnectHTTPMitm, TLSConfig: goproxy.TLSConfigFromCA(&ca)}
	goproxy.RejectConnect = &goproxy.ConnectAction{Action: goproxy.ConnectReject, TLSConfig: goproxy.TLSConfigFromCA(&ca)}
	return nil
}

var _ engine.Transport = (*Server)(nil)
