// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bureau-foundation/logtest/lib/logtest"
	"github.com/bureau-foundation/logtest/lib/testcase"
)

// runCases runs a case file and prints one line per case followed by a
// tally, or nothing when quiet. The exit status is 1 if any case failed
// or the run stopped early.
func runCases(ctx context.Context, session *logtest.Session, socketPath, path string, quiet bool, renderer *logtest.Renderer, stdout io.Writer, logger *slog.Logger) int {
	suite, err := testcase.Load(path)
	if err != nil {
		logger.Error("cannot load test cases", "error", err)
		return 1
	}

	report, runErr := testcase.Run(ctx, session, suite, logger)
	failed := len(report.Failed())
	if !quiet {
		for _, outcome := range report.Outcomes {
			if err := renderer.CaseResult(outcome.Case.Name, outcome.Expected, outcome.Got, outcome.Err); err != nil {
				logger.Error("writing output failed", "error", err)
				return 1
			}
		}
		fmt.Fprintf(stdout, "\n%d of %d cases passed\n", len(report.Outcomes)-failed, len(suite.Cases))
	}
	if runErr != nil {
		logTransportError(logger, "test run stopped", runErr, socketPath)
		return 1
	}
	if failed > 0 {
		return 1
	}
	return 0
}
