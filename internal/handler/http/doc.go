// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the HTTP surface of the multi-account server: the
// web sign-in handshake pages, the multi-account API, the minimal account
// endpoints used by the client, Prometheus metrics and build info.
//
// Request tracing, access logging, bearer and cookie authentication, per-IP
// throttling and response compression are middlewares of this package.
package http
