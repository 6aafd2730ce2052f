// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testcase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/logtest/lib/logtest"
)

// CleanupTimeout bounds the removal of a case's session. Removal runs
// even after ctx is cancelled, so it needs its own limit.
const CleanupTimeout = 5 * time.Second

// Processor submits log lines and removes sessions. *logtest.Session
// satisfies it.
type Processor interface {
	ProcessLog(ctx context.Context, event, token string) (*logtest.Result, error)
	RemoveSession(ctx context.Context, token string) (json.RawMessage, error)
}

// Outcome is the result of running one case.
type Outcome struct {
	Case     Case
	Expected logtest.Tuple
	Got      logtest.Tuple

	// Err is set when the case could not be run to completion, for
	// example because the daemon rejected one of its lines.
	Err error
}

// Passed reports whether the case ran and produced the expected tuple.
func (o Outcome) Passed() bool {
	return o.Err == nil && o.Got.Matches(o.Expected)
}

// Report collects the outcomes of a suite run in case order.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the outcomes that did not pass.
func (r Report) Failed() []Outcome {
	var failed []Outcome
	for _, outcome := range r.Outcomes {
		if !outcome.Passed() {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// Run executes every case of suite in order. Each case starts a new
// session, and that session is removed afterwards whether or not the
// case passed.
//
// A transport failure stops the run: later cases would fail the same
// way. The returned report then holds the cases run so far and the error
// is non-nil. Protocol failures are recorded on the case and the run
// continues. Cancelling ctx stops the run before the next case; the
// session of the case in progress is still removed.
func Run(ctx context.Context, processor Processor, suite *Suite, logger *slog.Logger) (*Report, error) {
	report := &Report{}
	for _, testCase := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		expected, err := testCase.Expected()
		if err != nil {
			return report, fmt.Errorf("case %q: %w", testCase.Name, err)
		}

		outcome := runCase(ctx, processor, testCase, logger)
		outcome.Expected = expected
		report.Outcomes = append(report.Outcomes, outcome)

		logger.Debug("case finished",
			"case", testCase.Name,
			"passed", outcome.Passed(),
			"got", outcome.Got.String(),
			"expected", expected.String(),
		)
		if errors.Is(outcome.Err, logtest.ErrTransport) {
			return report, fmt.Errorf("case %q: %w", testCase.Name, outcome.Err)
		}
	}
	return report, nil
}

func runCase(ctx context.Context, processor Processor, testCase Case, logger *slog.Logger) Outcome {
	outcome := Outcome{Case: testCase}

	var token string
	for index, line := range testCase.Logs {
		result, err := processor.ProcessLog(ctx, line, token)
		if err != nil {
			outcome.Err = fmt.Errorf("logs[%d]: %w", index, err)
			break
		}
		if token != "" && result.Token != token {
			logger.Warn("daemon replaced the case session; correlation across lines is lost",
				"case", testCase.Name,
				"previous_token", token,
				"token", result.Token,
			)
		}
		token = result.Token
		outcome.Got = logtest.TupleOf(result.Output)
	}

	if token != "" {
		cleanupContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), CleanupTimeout)
		defer cancel()
		if _, err := processor.RemoveSession(cleanupContext, token); err != nil {
			logger.Warn("removing case session failed",
				"case", testCase.Name,
				"token", token,
				"error", err,
			)
		}
	}
	return outcome
}
