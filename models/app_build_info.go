// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strings"

// NotAvailable stands in for build metadata that was not injected.
const NotAvailable = "N/A"

// AppBuildInfo holds the version, date and commit injected into a binary
// with -ldflags.
type AppBuildInfo struct {
	version string
	date    string
	commit  string
}

func NewAppBuildInfo(version, date, commit string) AppBuildInfo {
	return AppBuildInfo{
		version: strings.TrimSpace(version),
		date:    strings.TrimSpace(date),
		commit:  strings.TrimSpace(commit),
	}
}

// BuildVersion returns the release version or NotAvailable.
func (a AppBuildInfo) BuildVersion() string { return orNotAvailable(a.version) }

func (a AppBuildInfo) BuildDate() string { return orNotAvailable(a.date) }

func (a AppBuildInfo) BuildCommit() string { return orNotAvailable(a.commit) }

// String renders the banner printed by both binaries on start.
func (a AppBuildInfo) String() string {
	return "Build version: " + a.BuildVersion() + "\n" +
		"Build date: " + a.BuildDate() + "\n" +
		"Build commit: " + a.BuildCommit() + "\n"
}

func orNotAvailable(v string) string {
	if v == "" {
		return NotAvailable
	}
	return v
}
