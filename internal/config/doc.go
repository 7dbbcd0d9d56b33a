// Package config provides configuration loading, merging, and validation
// facilities for the multi-account server and the switcher client.
//
// Configuration is assembled from multiple sources. For every field the first
// source with a non-zero value wins:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetStructuredConfig] for the server and
// [GetClientConfig] for the client.
package config
