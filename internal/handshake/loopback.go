// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// CallbackPath is served by the loopback server.
const CallbackPath = "/callback"

//go:embed templates/callback.html
var callbackHTML string

var callbackTemplate = template.Must(template.New("callback").Parse(callbackHTML))

// Dispatcher receives messages produced by the loopback server.
type Dispatcher interface {
	Dispatch(origin string, msg Message) error
}

// LoopbackServer receives the authorization redirect on 127.0.0.1 and turns
// it into a dispatched window message. It serves any number of handshakes
// until stopped.
type LoopbackServer struct {
	port       int
	dispatcher Dispatcher
	logger     *logger.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewLoopbackServer(port int, log *logger.Logger) *LoopbackServer {
	return &LoopbackServer{port: port, logger: log}
}

// SetDispatcher binds the server to the broker receiving its messages.
func (s *LoopbackServer) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	s.dispatcher = d
	s.mu.Unlock()
}

// Start listens on 127.0.0.1:<port>; port 0 picks a free one. The server
// stops when ctx is cancelled.
func (s *LoopbackServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	s.mu.Lock()
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Err(err).Msg("callback server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info().Str("address", listener.Addr().String()).Msg("callback server started")
	return nil
}

// Origin is the origin the authorization redirect arrives from.
func (s *LoopbackServer) Origin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// RedirectURI is the callback URL to register with the authorization server.
func (s *LoopbackServer) RedirectURI() string {
	return s.Origin() + CallbackPath
}

func (s *LoopbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	query := r.URL.Query()
	msg := Message{
		Type:  MessageCallback,
		State: query.Get("state"),
		Code:  query.Get("code"),
	}
	if errCode := query.Get("error"); errCode != "" {
		msg = Message{Type: MessageError, State: msg.State, Error: errCode}
		if description := query.Get("error_description"); description != "" {
			msg.Error = description
		}
	} else if msg.State == "" || msg.Code == "" {
		msg = Message{Type: MessageError, State: msg.State, Error: "missing state or code"}
	}

	status := http.StatusOK
	pageError := msg.Error
	if err := s.dispatch(requestOrigin(r), msg); err != nil {
		status = http.StatusBadRequest
		if pageError == "" {
			pageError = err.Error()
		}
	}
	if msg.Type == MessageError {
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := callbackTemplate.Execute(w, map[string]string{"Error": pageError}); err != nil {
		s.logger.Err(err).Msg("error rendering callback page")
	}
}

func (s *LoopbackServer) dispatch(origin string, msg Message) error {
	s.mu.Lock()
	d := s.dispatcher
	s.mu.Unlock()

	if d == nil {
		return ErrHandlerCleanedUp
	}
	return d.Dispatch(origin, msg)
}

// requestOrigin prefers the Origin header and falls back to the Host header.
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return "http://" + r.Host
}

// Stop gracefully shuts down the server.
func (s *LoopbackServer) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.mu.Unlock()

	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
