// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the log-test
// client.
//
// Configuration comes from a single file named by the LOGTEST_CONFIG
// environment variable (via [Load]) or a --config flag (via [LoadFile]).
// With neither set, [Load] returns [Default], which matches a standard
// daemon installation. There is no directory search.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded from the
// environment. No environment variable overrides a config value
// directly; command-line flags override values explicitly.
//
// Key exports:
//
//   - [Config] -- socket path, request fields, install-info path, timeouts
//   - [Default] -- a Config for a standard installation
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config
