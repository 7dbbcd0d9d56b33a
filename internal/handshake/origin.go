// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

import (
	"net/url"
	"strings"
)

// originMatches compares two origins exactly and then by host only, so
// scheme and port differences are tolerated.
func originMatches(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	if strings.EqualFold(expected, actual) {
		return true
	}

	return hostOf(expected) != "" && strings.EqualFold(hostOf(expected), hostOf(actual))
}

func hostOf(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Hostname()
}
