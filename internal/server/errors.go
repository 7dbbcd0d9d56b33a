// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// ErrNoListeners is returned by NewServer when the configuration names
// neither an HTTP nor a gRPC address.
var ErrNoListeners = errors.New("server: no HTTP or gRPC address configured")
