// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ResourceOwner is the resolved owner of an OAuth access token. It is built
// once at the trust boundary so handlers never probe the owner's shape.
type ResourceOwner struct {
	User    User
	Account Account
}

// UserID is a shortcut for the owning user's identifier.
func (o ResourceOwner) UserID() int64 {
	return o.User.UserID
}
