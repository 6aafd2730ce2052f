// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderSummaryPlain(t *testing.T) {
	var buffer bytes.Buffer
	renderer := NewRenderer(&buffer, false)
	if err := renderer.Summary(Summarize(mustResult(t, exampleReply))); err != nil {
		t.Fatalf("Summary: %v", err)
	}

	want := "\n**Phase 1: Completed pre-decoding.\n" +
		"\tfull event: 'Jan 1 00:00:00 host test'\n" +
		"\n**Phase 2: Completed decoding.\n" +
		"\tname: 'test-decoder'\n" +
		"\n**Phase 3: Completed filtering (rules).\n" +
		"\tid: '100001'\n" +
		"\tlevel: '5'\n" +
		"**Alert to be generated.\n"
	if got := buffer.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderNoDecoderMatched(t *testing.T) {
	var buffer bytes.Buffer
	renderer := NewRenderer(&buffer, false)
	result := mustResult(t, `{"data":{"token":"T","output":{"full_log":"x","decoder":null},"alert":false}}`)
	if err := renderer.Summary(Summarize(result)); err != nil {
		t.Fatalf("Summary: %v", err)
	}

	want := "\n**Phase 1: Completed pre-decoding.\n" +
		"\tfull event: 'x'\n" +
		"\n**Phase 2: Completed decoding.\n" +
		"\tNo decoder matched.\n"
	if got := buffer.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderColorKeepsText(t *testing.T) {
	var buffer bytes.Buffer
	renderer := NewRenderer(&buffer, true)
	if err := renderer.Summary(Summarize(mustResult(t, exampleReply))); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	plain := ansi.Strip(buffer.String())
	for _, want := range []string{"**Phase 3: Completed filtering (rules).", "\tlevel: '5'", "**Alert to be generated."} {
		if !strings.Contains(plain, want) {
			t.Errorf("colored output lost %q:\n%s", want, plain)
		}
	}
}

func TestRenderStripsEscapesFromValues(t *testing.T) {
	var buffer bytes.Buffer
	renderer := NewRenderer(&buffer, false)
	summary := Summary{Phases: []Phase{{
		Number: PhasePredecoding,
		Title:  "Completed pre-decoding.",
		Lines:  []Line{{Key: FullEventKey, Value: "evil \x1b[2J\x1b]0;owned\x07line"}},
	}}}
	if err := renderer.Summary(summary); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if strings.Contains(buffer.String(), "\x1b") {
		t.Errorf("escape sequence reached the output: %q", buffer.String())
	}
	if !strings.Contains(buffer.String(), "'evil line'") {
		t.Errorf("visible text lost: %q", buffer.String())
	}
}

func TestRenderUnitTest(t *testing.T) {
	tests := []struct {
		name     string
		expected Tuple
		got      Tuple
		want     string
	}{
		{
			name:     "pass",
			expected: Tuple{"5715", "3", "sshd"},
			got:      Tuple{"5715", "3", "sshd"},
			want:     "\nUnit test OK\n",
		},
		{
			name:     "fail",
			expected: Tuple{"5715", "3", "sshd"},
			got:      Tuple{"1002", "2", ""},
			want:     "\nUnit test FAIL. Expected ['5715', '3', 'sshd'] , Result ['1002', '2', '']\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buffer bytes.Buffer
			if err := NewRenderer(&buffer, false).UnitTest(test.expected, test.got); err != nil {
				t.Fatalf("UnitTest: %v", err)
			}
			if buffer.String() != test.want {
				t.Errorf("got %q, want %q", buffer.String(), test.want)
			}
		})
	}
}

func TestRenderCaseResult(t *testing.T) {
	tests := []struct {
		name    string
		got     Tuple
		caseErr error
		want    string
	}{
		{name: "pass", got: Tuple{"5715", "3", "sshd"}, want: "OK sshd login\n"},
		{
			name: "fail",
			got:  Tuple{"", "", ""},
			want: "FAIL sshd login: Expected ['5715', '3', 'sshd'] , Result ['', '', '']\n",
		},
		{
			name:    "error",
			got:     Tuple{"5715", "3", "sshd"},
			caseErr: ErrTransport,
			want:    "ERROR sshd login: transport error\n",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buffer bytes.Buffer
			err := NewRenderer(&buffer, false).CaseResult("sshd login", Tuple{"5715", "3", "sshd"}, test.got, test.caseErr)
			if err != nil {
				t.Fatalf("CaseResult: %v", err)
			}
			if buffer.String() != test.want {
				t.Errorf("got %q, want %q", buffer.String(), test.want)
			}
		})
	}
}
