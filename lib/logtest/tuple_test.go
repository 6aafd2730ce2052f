// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"encoding/json"
	"testing"
)

func TestParseTuple(t *testing.T) {
	tests := []struct {
		text    string
		want    Tuple
		wantErr bool
	}{
		{text: "5715:3:sshd", want: Tuple{"5715", "3", "sshd"}},
		{text: "::", want: Tuple{"", "", ""}},
		{text: "1002:2:", want: Tuple{"1002", "2", ""}},
		{text: "5715:3", wantErr: true},
		{text: "5715:3:sshd:extra", wantErr: true},
		{text: "", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseTuple(test.text)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseTuple(%q): expected error, got %v", test.text, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTuple(%q): %v", test.text, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseTuple(%q): got %v, want %v", test.text, got, test.want)
		}
		if got.String() != test.text {
			t.Errorf("String: got %q, want %q", got.String(), test.text)
		}
	}
}

func TestTupleOf(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   Tuple
	}{
		{
			name:   "everything",
			output: `{"rule":{"id":"100001","level":5},"decoder":{"name":"test-decoder"}}`,
			want:   Tuple{"100001", "5", "test-decoder"},
		},
		{
			name:   "rule without decoder",
			output: `{"rule":{"level":2,"id":"1002"},"decoder":null}`,
			want:   Tuple{"1002", "2", ""},
		},
		{
			name:   "decoder without rule",
			output: `{"decoder":{"parent":"sshd","name":"sshd-success"}}`,
			want:   Tuple{"", "", "sshd-success"},
		},
		{
			name:   "nothing",
			output: `{"full_log":"x"}`,
			want:   Tuple{"", "", ""},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var output Output
			if err := json.Unmarshal([]byte(test.output), &output); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			got := TupleOf(output)
			if got != test.want {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}
