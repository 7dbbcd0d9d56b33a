// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handler

import "errors"

// ErrNoTransports is returned by NewHandlers when neither transport has an
// address to serve on.
var ErrNoTransports = errors.New("handler: no transport configured")
