// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync/atomic"
)

// OpenBrowser opens url in the default web browser without waiting for it.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()

	return nil
}

// BrowserOpener opens authorization windows as browser tabs.
type BrowserOpener struct {
	// launch defaults to OpenBrowser.
	launch func(url string) error
}

func NewBrowserOpener() *BrowserOpener {
	return &BrowserOpener{launch: OpenBrowser}
}

func (o *BrowserOpener) Open(ctx context.Context, url string) (Window, error) {
	w := &browserWindow{launch: o.launch}
	if err := w.Navigate(ctx, url); err != nil {
		return nil, err
	}
	return w, nil
}

// browserWindow is a browser tab the client cannot observe. It reports
// closed only after the broker asked it to close, or Close was called.
type browserWindow struct {
	launch func(url string) error
	closed atomic.Bool
}

func (w *browserWindow) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed.Load() {
		return ErrPopupClosed
	}
	return w.launch(url)
}

func (w *browserWindow) Closed() bool {
	return w.closed.Load()
}

func (w *browserWindow) Post(msg Message) error {
	if msg.Type == MessageClosePopup {
		w.closed.Store(true)
	}
	return nil
}

func (w *browserWindow) Close() error {
	w.closed.Store(true)
	return nil
}
