// Package config loads nezhatop settings and resolves them into a Dashboard.
//
// # Overview
//
// Settings live in a TOML file, by default ~/.config/nezhatop/config.toml:
//
//	host = "demo.example.com"
//	tls = true
//	token = "abc"               # or username + password
//	poll_interval = "5s"
//	feed = "poll"               # or "stream"
//
//	[log]
//	level = "info"
//	file = "~/.local/state/nezhatop/nezhatop.log"
//
//	[history]
//	enabled = true
//	retention = "24h"
//
// A missing file is not an error; defaults are used and Resolve reports
// ErrMissingConfiguration until a host and credentials exist.
//
// # Layering
//
// LoadLayered applies defaults, then the file, then NEZHA_HOST, NEZHA_TLS,
// NEZHA_TOKEN, NEZHA_USERNAME, NEZHA_PASSWORD and NEZHA_LOG_LEVEL, then CLI
// overrides.
//
// # Resolution
//
// FileResolver reads the file on every call. Nothing is cached, so a change
// written by `nezhatop login` is seen by the next request of a running TUI.
//
// # Sync
//
// LastModified is stamped by Save. Reconcile keeps whichever of two copies
// was written last, which is how `nezhatop import` merges a copy synced from
// another machine.
package config
