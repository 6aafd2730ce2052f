// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"fmt"
	"strings"
)

// Tuple is the (rule id, rule level, decoder name) triple that
// unit-test mode compares against an expected outcome. A slot is empty
// when the reply did not provide it.
type Tuple [3]string

// Matches reports whether both tuples hold the same three values.
func (t Tuple) Matches(other Tuple) bool {
	return t == other
}

// String returns the rule:level:decoder form accepted by ParseTuple.
func (t Tuple) String() string {
	return strings.Join(t[:], ":")
}

// ParseTuple parses "rule:level:decoder". Exactly three colon-separated
// parts are required; any of them may be empty.
func ParseTuple(text string) (Tuple, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 3 {
		return Tuple{}, fmt.Errorf("expected rule:level:decoder, got %q (%d parts)", text, len(parts))
	}
	return Tuple{parts[0], parts[1], parts[2]}, nil
}

// TupleOf extracts the tuple from an analysis output. The rule slots are
// filled only when a rule member is present, the decoder slot only when
// a decoder matched. Every other slot is empty; nothing carries over
// from earlier results.
func TupleOf(output Output) Tuple {
	var tuple Tuple
	if output.Rule != nil {
		tuple[0], _ = output.Rule.Text("id")
		tuple[1], _ = output.Rule.Text("level")
	}
	if output.DecoderMatched() {
		tuple[2], _ = output.Decoder.Text("name")
	}
	return tuple
}
