// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package handshake correlates authorization windows with their callbacks.
//
// Every in-flight handshake is registered in a table keyed by its state. A
// single dispatcher routes incoming window messages to the matching entry:
//
//	Open(state) ──► pending[state] ◄── Dispatch(origin, {callback, state, code})
//	                    │
//	                    ├── window closed (poll)  ──► ErrPopupClosed
//	                    ├── timeout               ──► ErrHandshakeTimeout
//	                    └── Cleanup()             ──► ErrHandlerCleanedUp
//
// The closure poll and timeout of a handshake stop as soon as it settles.
package handshake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-multi-account/internal/logger"
)

// Default timings of a handshake.
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTimeout      = 120 * time.Second
)

type outcome struct {
	result Result
	err    error
}

type pending struct {
	state  string
	window Window
	phase  Phase
	done   chan outcome
}

// Broker is the correlation table of pending handshakes.
type Broker struct {
	mu      sync.Mutex
	pending map[string]*pending

	opener Opener

	// origin is the origin messages are expected to come from.
	origin string
	// strict rejects messages from other origins instead of logging them.
	strict bool

	pollInterval time.Duration
	timeout      time.Duration

	logger *logger.Logger
}

// Option customizes a Broker.
type Option func(*Broker)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(b *Broker) { b.pollInterval = d }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(b *Broker) { b.timeout = d }
}

// WithStrictOrigin makes Dispatch reject messages from unexpected origins.
func WithStrictOrigin(strict bool) Option {
	return func(b *Broker) { b.strict = strict }
}

func NewBroker(opener Opener, origin string, log *logger.Logger, opts ...Option) *Broker {
	b := &Broker{
		pending:      make(map[string]*pending),
		opener:       opener,
		origin:       origin,
		pollInterval: DefaultPollInterval,
		timeout:      DefaultTimeout,
		logger:       log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open starts a handshake and blocks until it settles. When existing is not
// nil it is navigated to authorizeURL instead of opening a new window.
func (b *Broker) Open(ctx context.Context, authorizeURL, state string, existing Window) (Result, error) {
	if state == "" {
		return Result{}, fmt.Errorf("%w: empty state", ErrPopupOpenFailed)
	}

	p := &pending{state: state, phase: PhaseInit, done: make(chan outcome, 1)}

	b.mu.Lock()
	if _, ok := b.pending[state]; ok {
		b.mu.Unlock()
		return Result{}, ErrDuplicateState
	}
	b.pending[state] = p
	b.mu.Unlock()

	window, err := b.openWindow(ctx, authorizeURL, existing)
	if err != nil {
		b.remove(state)
		return Result{}, err
	}

	b.mu.Lock()
	p.window = window
	if p.phase == PhaseInit {
		p.phase = PhasePopupOpened
	}
	b.mu.Unlock()

	return b.await(ctx, p)
}

func (b *Broker) openWindow(ctx context.Context, authorizeURL string, existing Window) (Window, error) {
	if existing != nil {
		if err := existing.Navigate(ctx, authorizeURL); err != nil {
			b.logger.Err(err).Msg("error navigating authorization window")
			return nil, fmt.Errorf("%w: %w", ErrPopupNavigateFailed, err)
		}
		return existing, nil
	}

	window, err := b.opener.Open(ctx, authorizeURL)
	if err != nil || window == nil {
		b.logger.Err(err).Msg("error opening authorization window")
		return nil, fmt.Errorf("%w: %w", ErrPopupOpenFailed, err)
	}
	return window, nil
}

func (b *Broker) await(ctx context.Context, p *pending) (Result, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	b.mu.Lock()
	if p.phase == PhasePopupOpened {
		p.phase = PhaseAwaitingCallback
	}
	b.mu.Unlock()

	for {
		select {
		case out := <-p.done:
			return out.result, out.err
		case <-ticker.C:
			if p.window.Closed() {
				b.settle(p.state, outcome{err: ErrPopupClosed})
			}
		case <-timer.C:
			b.settle(p.state, outcome{err: ErrHandshakeTimeout})
		case <-ctx.Done():
			b.settle(p.state, outcome{err: ctx.Err()})
		}
	}
}

// settle removes the handshake and delivers its outcome. Only the first
// settle of a state has an effect.
func (b *Broker) settle(state string, out outcome) bool {
	b.mu.Lock()
	p, ok := b.pending[state]
	if !ok {
		b.mu.Unlock()
		return false
	}
	delete(b.pending, state)
	if out.err == nil {
		p.phase = PhaseResolved
	} else {
		p.phase = PhaseRejected
	}
	b.mu.Unlock()

	p.done <- out
	return true
}

func (b *Broker) remove(state string) {
	b.mu.Lock()
	delete(b.pending, state)
	b.mu.Unlock()
}

// Dispatch routes one window message to its pending handshake.
//
// A callback resolves the handshake with the same state and asks its window
// to close. A scoped error rejects only its handshake; an unscoped error
// rejects all of them.
func (b *Broker) Dispatch(origin string, msg Message) error {
	if !originMatches(b.origin, origin) {
		b.logger.Warn().
			Str("expected_origin", b.origin).
			Str("origin", origin).
			Bool("strict", b.strict).
			Msg("handshake message origin mismatch")
		if b.strict {
			return ErrOriginMismatch
		}
	}

	switch msg.Type {
	case MessageCallback:
		return b.resolve(msg)
	case MessageError:
		b.reject(msg)
		return nil
	default:
		b.logger.Debug().Str("type", string(msg.Type)).Msg("ignoring handshake message")
		return nil
	}
}

func (b *Broker) resolve(msg Message) error {
	b.mu.Lock()
	p, ok := b.pending[msg.State]
	var window Window
	if ok {
		window = p.window
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Warn().Str("state", msg.State).Msg("callback for unknown handshake")
		return ErrUnknownState
	}

	if !b.settle(msg.State, outcome{result: Result{State: msg.State, Code: msg.Code}}) {
		return ErrUnknownState
	}

	if window != nil {
		if err := window.Post(Message{Type: MessageClosePopup}); err != nil {
			b.logger.Debug().Err(err).Msg("error asking window to close")
		}
	}
	return nil
}

func (b *Broker) reject(msg Message) {
	if msg.State != "" {
		b.settle(msg.State, outcome{err: &AuthorizationError{State: msg.State, Message: msg.Error}})
		return
	}

	b.rejectAll(&AuthorizationError{Message: msg.Error})
}

func (b *Broker) rejectAll(err error) {
	b.mu.Lock()
	states := make([]string, 0, len(b.pending))
	for state := range b.pending {
		states = append(states, state)
	}
	b.mu.Unlock()

	for _, state := range states {
		b.settle(state, outcome{err: err})
	}
}

// Cleanup rejects every pending handshake with ErrHandlerCleanedUp.
func (b *Broker) Cleanup() {
	b.rejectAll(ErrHandlerCleanedUp)
}

// Phase returns the phase of the handshake with state while it is in
// flight.
func (b *Broker) Phase(state string) (Phase, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[state]
	if !ok {
		return 0, false
	}
	return p.phase, true
}

// Pending returns the number of handshakes in flight.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
