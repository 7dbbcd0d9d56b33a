// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// User is the local identity that signs in to the web interface and owns
// OAuth grants. Every user has exactly one public [Account].
type User struct {
	// UserID is the internal unique identifier of the user.
	UserID int64 `json:"-"`

	// AccountID references the public account profile of the user.
	AccountID int64 `json:"account_id"`

	// Email is the sign-in address. Never exposed outside trusted boundaries.
	Email string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}

// Account is the public profile of a [User]. It is the identity the client
// switches between.
type Account struct {
	ID          int64     `json:"-"`
	Username    string    `json:"username"`
	Domain      string    `json:"-"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the Account model.
func (a Account) TableName() string {
	return "accounts"
}

// Acct returns the account handle: the bare username for local accounts and
// username@domain for remote ones.
func (a Account) Acct() string {
	if a.Domain == "" {
		return a.Username
	}
	return a.Username + "@" + a.Domain
}
