// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/logtest/lib/config"
	"github.com/bureau-foundation/logtest/lib/installinfo"
	"github.com/bureau-foundation/logtest/lib/version"
)

// printVersion prints the installed daemon's banner and licence
// followed by this client's own build version.
func printVersion(w io.Writer, cfg *config.Config, logger *slog.Logger) int {
	info, err := installinfo.Read(cfg.InitConf)
	if err != nil {
		logger.Error("cannot read installation info", "path", cfg.InitConf, "error", err)
		fmt.Fprintf(w, "logtest client %s\n", version.Full())
		return 1
	}
	description, err := info.Description()
	if err != nil {
		logger.Error("cannot read installation info", "path", cfg.InitConf, "error", err)
		fmt.Fprintf(w, "logtest client %s\n", version.Full())
		return 1
	}
	fmt.Fprintf(w, "%s\n\n%s\n\nlogtest client %s\n", description, installinfo.License, version.Full())
	return 0
}
