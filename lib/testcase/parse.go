// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testcase loads and runs rule unit-test suites: named groups of
// log lines with the rule id, rule level, and decoder name the last line
// is expected to produce.
//
// Suites are authored as JSONC files (JSON with // and /* */ comments
// and trailing commas):
//
//	{
//	  "cases": [
//	    {
//	      "name": "sshd accepted password",
//	      "logs": ["Jan  1 00:00:00 host sshd[1]: Accepted password for root"],
//	      "expect": "5715:3:sshd",  // rule:level:decoder
//	    },
//	  ],
//	}
//
// Every case runs in a session of its own, so correlation rules see only
// that case's lines. The session is removed when the case finishes.
package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/logtest/lib/logtest"
)

// Suite is a parsed case file.
type Suite struct {
	Cases []Case `json:"cases"`
}

// Case is one named unit test.
type Case struct {
	// Name identifies the case in reports.
	Name string `json:"name"`

	// Logs are submitted in order within one session. Only the tuple of
	// the last line is compared.
	Logs []string `json:"logs"`

	// Expect is the expected outcome in rule:level:decoder form. Empty
	// slots expect the reply not to provide that value.
	Expect string `json:"expect"`
}

// Expected parses Expect.
func (c Case) Expected() (logtest.Tuple, error) {
	return logtest.ParseTuple(c.Expect)
}

// Parse strips JSONC comments and trailing commas from data and decodes
// the suite. Unknown members are rejected so a misspelt "expect" is not
// silently ignored. The suite is not validated; call Validate.
func Parse(data []byte) (*Suite, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()

	var suite Suite
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("parsing case file: %w", err)
	}
	return &suite, nil
}

// Load reads, parses, and validates a case file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if issues := Validate(suite); len(issues) > 0 {
		return nil, fmt.Errorf("%s: invalid case file:\n  %s", path, strings.Join(issues, "\n  "))
	}
	return suite, nil
}

// Validate returns human-readable descriptions of structural problems
// in suite. An empty list means the suite can be run.
func Validate(suite *Suite) []string {
	var issues []string

	if len(suite.Cases) == 0 {
		issues = append(issues, "no cases (at least one case is required)")
	}

	names := make(map[string]int, len(suite.Cases))
	for index, testCase := range suite.Cases {
		label := fmt.Sprintf("cases[%d]", index)
		if testCase.Name == "" {
			issues = append(issues, label+": name is required")
		} else {
			label = fmt.Sprintf("cases[%d] %q", index, testCase.Name)
			if first, exists := names[testCase.Name]; exists {
				issues = append(issues, fmt.Sprintf("%s: duplicate name (first used at cases[%d])", label, first))
			} else {
				names[testCase.Name] = index
			}
		}

		if len(testCase.Logs) == 0 {
			issues = append(issues, label+": logs is empty (at least one log line is required)")
		}
		for logIndex, line := range testCase.Logs {
			if line == "" {
				issues = append(issues, fmt.Sprintf("%s: logs[%d] is empty", label, logIndex))
			}
		}

		if _, err := testCase.Expected(); err != nil {
			issues = append(issues, fmt.Sprintf("%s: expect: %v", label, err))
		}
	}
	return issues
}
