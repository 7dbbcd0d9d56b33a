// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"errors"
	"time"
)

// EncryptedPayload is a credential encrypted with the vault key. Both fields
// are hex encoded.
type EncryptedPayload struct {
	IV         string `json:"iv"`
	CipherText string `json:"cipherText"`
}

// IsZero reports whether the payload carries no ciphertext.
func (p EncryptedPayload) IsZero() bool {
	return p.IV == "" && p.CipherText == ""
}

// AccountEntry is the locally known metadata for one account.
type AccountEntry struct {
	ID          string     `json:"id"`
	Acct        string     `json:"acct"`
	DisplayName string     `json:"displayName"`
	Avatar      string     `json:"avatar"`
	VaultRef    string     `json:"encryptedTokenRef"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
}

// RecordKind tags a persisted vault record.
type RecordKind int

const (
	// RecordLegacy is a bare encrypted payload stored before metadata was
	// kept next to the credential.
	RecordLegacy RecordKind = iota + 1
	// RecordFull carries both the credential and the account metadata.
	RecordFull
)

// ErrMalformedRecord is returned when a stored record matches neither layout.
var ErrMalformedRecord = errors.New("malformed vault record")

// VaultRecord is the tagged union persisted per account id.
type VaultRecord struct {
	Kind    RecordKind
	Payload EncryptedPayload
	Entry   *AccountEntry
}

// LegacyRecord builds a record without metadata.
func LegacyRecord(payload EncryptedPayload) VaultRecord {
	return VaultRecord{Kind: RecordLegacy, Payload: payload}
}

// FullRecord builds a record with metadata.
func FullRecord(payload EncryptedPayload, entry AccountEntry) VaultRecord {
	return VaultRecord{Kind: RecordFull, Payload: payload, Entry: &entry}
}

// Upgrade attaches entry to a legacy record. Full records are returned as is.
func (r VaultRecord) Upgrade(entry AccountEntry) VaultRecord {
	if r.Kind == RecordFull && r.Entry != nil {
		return r
	}
	return FullRecord(r.Payload, entry)
}

// NeedsUpgrade reports whether the record still lacks metadata.
func (r VaultRecord) NeedsUpgrade() bool {
	return r.Kind != RecordFull || r.Entry == nil
}

type fullRecordJSON struct {
	Token *EncryptedPayload `json:"token"`
	Entry *AccountEntry     `json:"entry,omitempty"`
}

// MarshalJSON writes full records as {token, entry} and legacy records as the
// bare payload.
func (r VaultRecord) MarshalJSON() ([]byte, error) {
	if r.Kind == RecordLegacy {
		return json.Marshal(r.Payload)
	}
	payload := r.Payload
	return json.Marshal(fullRecordJSON{Token: &payload, Entry: r.Entry})
}

// UnmarshalJSON accepts both layouts. A {token} record without entry is
// decoded as legacy.
func (r *VaultRecord) UnmarshalJSON(data []byte) error {
	var full fullRecordJSON
	if err := json.Unmarshal(data, &full); err != nil {
		return err
	}
	if full.Token != nil {
		if full.Entry == nil {
			*r = LegacyRecord(*full.Token)
			return nil
		}
		*r = FullRecord(*full.Token, *full.Entry)
		return nil
	}

	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if payload.IsZero() {
		return ErrMalformedRecord
	}
	*r = LegacyRecord(payload)
	return nil
}

// MergeAccountEntry builds an entry from server-reported account fields,
// falling back to the locally known entry for every empty field.
func MergeAccountEntry(view AccountView, fallback *AccountEntry, now time.Time) AccountEntry {
	var local AccountEntry
	if fallback != nil {
		local = *fallback
	}

	entry := AccountEntry{
		ID:          firstNonEmpty(view.ID, local.ID),
		Acct:        firstNonEmpty(view.Acct, view.Username, local.Acct),
		DisplayName: firstNonEmpty(view.DisplayName, view.Username, local.DisplayName),
		Avatar:      firstNonEmpty(view.Avatar, local.Avatar),
		VaultRef:    local.VaultRef,
		LastUsedAt:  &now,
	}
	if entry.Acct == "" {
		entry.Acct = entry.ID
	}
	return entry
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
