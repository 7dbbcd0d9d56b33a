// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-multi-account/internal/adapter"
	"github.com/MKhiriev/go-multi-account/internal/client"
	"github.com/MKhiriev/go-multi-account/internal/config"
	"github.com/MKhiriev/go-multi-account/internal/crypto"
	"github.com/MKhiriev/go-multi-account/internal/handshake"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/internal/service"
	"github.com/MKhiriev/go-multi-account/internal/session"
	"github.com/MKhiriev/go-multi-account/internal/store"
	"github.com/MKhiriev/go-multi-account/internal/tui"
	"github.com/MKhiriev/go-multi-account/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	buildInfo := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)
	fmt.Print(buildInfo)

	cfg, err := config.GetClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		os.Exit(1)
	}

	// stdout belongs to the terminal UI
	log := logger.NewClientLogger("multi-account-client", cfg.App.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New()

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, sess, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	localStorage, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}
	defer func() {
		if err := localStorage.Close(); err != nil {
			log.Err(err).Msg("close local storage")
		}
	}()

	vault := crypto.NewVault(crypto.NewFileKeyStore(cfg.Vault.Dir, cfg.Vault.Passphrase))

	loopback := handshake.NewLoopbackServer(cfg.Adapter.CallbackPort, log)
	broker := handshake.NewBroker(
		handshake.NewBrowserOpener(),
		loopback.Origin(),
		log,
		handshake.WithStrictOrigin(cfg.Adapter.StrictOrigin),
	)
	loopback.SetDispatcher(broker)
	defer broker.Cleanup()

	services := service.NewClientServices(
		localStorage,
		serverAdapter,
		sess,
		vault,
		broker,
		cfg.Adapter.ForwardTelemetry,
		client.LogReload,
	)

	ui, err := tui.New(services, buildInfo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	app, err := client.NewApp(ui, loopback, services.HydrateJob, service.DefaultHydrateInterval, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	if err = app.Run(ctx); err != nil {
		log.Err(err).Msg("client run error")
		fmt.Fprintln(os.Stderr, err)
		return
	}
}
