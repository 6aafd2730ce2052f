// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// logtest submits log lines to the analysis daemon's log-test socket and
// shows how each line was pre-decoded, decoded, and matched against
// rules.
//
// Interactive mode reads one log line per input line and prints the
// phase summary of each. All lines share one daemon session, so rules
// that correlate several events behave as they would in production. The
// session is removed on exit.
//
// With -U rule:level:decoder, each summary is followed by a unit-test
// verdict and the exit status reports whether the last line produced
// the expected rule and decoder. With --cases FILE, a JSONC suite of
// named cases is run non-interactively, one session per case.
//
// -V prints the installed daemon's version and licence, read from the
// installation metadata file.
//
// Configuration comes from --config, the LOGTEST_CONFIG environment
// variable, or built-in defaults for a standard installation; flags
// override configured values.
package main
