// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/crypto"
	"github.com/MKhiriev/go-multi-account/internal/session"
	"github.com/MKhiriev/go-multi-account/internal/store"
)

// ClientServices groups the switcher client's services.
type ClientServices struct {
	VaultService  VaultService
	SwitchService SwitchService
	SwitchLogger  SwitchLogger
	ReloadManager ReloadManager
	HydrateJob    HydrateJob
}

// NewClientServices wires the client services. reload is called after every
// successful switch; it may be nil.
func NewClientServices(
	localStore *store.ClientStorages,
	serverAdapter adapter.ServerAdapter,
	sess *session.Context,
	vault crypto.Vault,
	handshaker Handshaker,
	forwardTelemetry bool,
	reload ReloadFunc,
) *ClientServices {
	var telemetry adapter.ServerAdapter
	if forwardTelemetry {
		telemetry = serverAdapter
	}

	switchLog := NewSwitchLogger(telemetry)
	reloadManager := NewReloadManager(reload, switchLog)
	vaultSvc := NewVaultService(localStore.CredentialStore, vault, serverAdapter)
	switchSvc := NewSwitchService(
		vaultSvc,
		serverAdapter,
		sess,
		localStore.ActiveAccountStore,
		localStore.AccountCache,
		handshaker,
		switchLog,
		reloadManager,
	)

	return &ClientServices{
		VaultService:  vaultSvc,
		SwitchService: switchSvc,
		SwitchLogger:  switchLog,
		ReloadManager: reloadManager,
		HydrateJob:    NewHydrateJob(switchSvc),
	}
}
