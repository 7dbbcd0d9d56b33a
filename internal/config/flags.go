// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"time"
)

// NetAddress is a host:port flag value. An empty host listens on every
// interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-grpc-address grpc health server address in format [host]:[port]
//	-base-url public server root
//	-d database DSN
//	-kv kv backend (memory|valkey)
//	-kv-address valkey address
//	-c/-config json file path with configs
//	-client-id multi-account OAuth client id
//	-client-secret multi-account OAuth client secret
//	-redirect-uri multi-account OAuth redirect uri
//	-refresh-flow enable refresh credentials
//	-session-sign-key web sign-in signing key
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-server client: server root URL
//	-vault-dir client: vault directory
//	-callback-port client: loopback callback port
func ParseFlags() *StructuredConfig {
	// flag.CommandLine exits on a parse error
	cfg, _ := parseFlagSet(flag.CommandLine, os.Args[1:])
	return cfg
}

// parseFlagSet registers every flag on fs and parses args.
func parseFlagSet(fs *flag.FlagSet, args []string) (*StructuredConfig, error) {
	var serverAddress, grpcServerAddress NetAddress
	var baseURL string
	var databaseDSN string
	var kvBackend, kvAddress string
	var jsonConfigPath string
	var clientID, clientSecret, redirectURI string
	var refreshFlow bool
	var sessionSignKey string
	var requestTimeout time.Duration
	var adapterAddress string
	var vaultDir string
	var callbackPort int

	fs.Var(&serverAddress, "a", "Net address host:port")
	fs.Var(&grpcServerAddress, "grpc-address", "Net grpc health server address host:port")
	fs.StringVar(&baseURL, "base-url", "", "Public server root URL")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&kvBackend, "kv", "", "Key-value backend: memory or valkey")
	fs.StringVar(&kvAddress, "kv-address", "", "Valkey address host:port")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&clientID, "client-id", "", "Multi-account OAuth client id")
	fs.StringVar(&clientSecret, "client-secret", "", "Multi-account OAuth client secret")
	fs.StringVar(&redirectURI, "redirect-uri", "", "Multi-account OAuth redirect uri")
	fs.BoolVar(&refreshFlow, "refresh-flow", false, "Enable multi-account refresh credentials")
	fs.StringVar(&sessionSignKey, "session-sign-key", "", "Web sign-in signing key")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVar(&adapterAddress, "server", "", "Server root URL used by the client")
	fs.StringVar(&vaultDir, "vault-dir", "", "Client vault directory")
	fs.IntVar(&callbackPort, "callback-port", 0, "Client loopback callback port")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			SessionSignKey: sessionSignKey,
		},
		MultiAccount: MultiAccount{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURI:  redirectURI,
			RefreshFlow:  refreshFlow,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			KV: KV{
				Backend: kvBackend,
				Address: kvAddress,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			GRPCAddress:    grpcServerAddress.String(),
			RequestTimeout: requestTimeout,
			BaseURL:        baseURL,
		},
		Adapter: Adapter{
			HTTPAddress:    adapterAddress,
			RequestTimeout: requestTimeout,
			CallbackPort:   callbackPort,
		},
		Vault: Vault{
			Dir: vaultDir,
		},
		JSONFilePath: jsonConfigPath,
	}, nil
}

var (
	errAddressFormat = errors.New("need address in a form `host:port`")
	errAddressPort   = errors.New("port must be in 1..65535")
	errAddressHost   = errors.New("host must be localhost or an IP address")
)

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set accepts host:port, [ipv6]:port and :port.
func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return errAddressFormat
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return errAddressPort
	}

	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return errAddressHost
	}

	a.Host = host
	a.Port = port
	return nil
}
