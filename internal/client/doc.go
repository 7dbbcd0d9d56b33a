// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the interactive account switcher runtime.
//
// It runs the loopback callback server, the periodic account hydration and
// the terminal UI for the lifetime of one process.
package client
