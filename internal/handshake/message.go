// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package handshake

// MessageType is the "type" field of a callback window message.
type MessageType string

const (
	MessageCallback   MessageType = "multi-account-callback"
	MessageError      MessageType = "multi-account-error"
	MessageClosePopup MessageType = "close-popup"
)

// Message is exchanged between the authorization window and the broker.
type Message struct {
	Type  MessageType `json:"type"`
	State string      `json:"state,omitempty"`
	Code  string      `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Result is the outcome of a resolved handshake.
type Result struct {
	State string
	Code  string
}

// Phase is the lifecycle step of one pending handshake.
type Phase int

const (
	PhaseInit Phase = iota
	PhasePopupOpened
	PhaseAwaitingCallback
	PhaseResolved
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "INIT"
	case PhasePopupOpened:
		return "POPUP_OPENED"
	case PhaseAwaitingCallback:
		return "AWAITING_CALLBACK"
	case PhaseResolved:
		return "RESOLVED"
	case PhaseRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}
