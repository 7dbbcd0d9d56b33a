// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package session holds the client's active bearer credential.
//
// Every outbound request reads the [Context] at send time, so swapping the
// credential during an account switch takes effect for the next request
// without rebuilding any client.
package session

import "sync/atomic"

// Credentials is an immutable snapshot of the active session.
type Credentials struct {
	// AccountID is the account the bearer token belongs to.
	AccountID string
	// BearerToken is sent as "Authorization: Bearer <token>".
	BearerToken string
	// CSRFToken is sent as the X-CSRF-Token header when set.
	CSRFToken string
}

// Context is safe for concurrent use. The zero value holds no credentials.
type Context struct {
	current atomic.Pointer[Credentials]
}

// New returns an empty Context.
func New() *Context {
	return &Context{}
}

// Load returns the current snapshot.
func (c *Context) Load() Credentials {
	if p := c.current.Load(); p != nil {
		return *p
	}
	return Credentials{}
}

func (c *Context) BearerToken() string {
	return c.Load().BearerToken
}

func (c *Context) CSRFToken() string {
	return c.Load().CSRFToken
}

func (c *Context) AccountID() string {
	return c.Load().AccountID
}

// Swap installs next and returns the previous snapshot.
func (c *Context) Swap(next Credentials) Credentials {
	prev := c.current.Swap(&next)
	if prev == nil {
		return Credentials{}
	}
	return *prev
}

// Restore puts back a snapshot returned by Swap.
func (c *Context) Restore(prev Credentials) {
	c.current.Store(&prev)
}

// RotateCSRF replaces only the CSRF token. An empty token is ignored.
func (c *Context) RotateCSRF(token string) {
	if token == "" {
		return
	}
	for {
		old := c.current.Load()
		next := Credentials{CSRFToken: token}
		if old != nil {
			next.AccountID = old.AccountID
			next.BearerToken = old.BearerToken
		}
		if c.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Clear drops every credential.
func (c *Context) Clear() {
	c.current.Store(nil)
}
