// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

// Phase numbers in analysis order.
const (
	PhasePredecoding = 1
	PhaseDecoding    = 2
	PhaseRules       = 3
)

// FullEventKey labels the full log text in the pre-decoding phase.
const FullEventKey = "full event"

// Line is one key/value pair reported by a phase.
type Line struct {
	Key   string
	Value string
}

// Phase is the report of one analysis stage.
type Phase struct {
	// Number is PhasePredecoding, PhaseDecoding, or PhaseRules.
	Number int

	// Title describes the completed stage.
	Title string

	// Lines are the fields the stage produced, in reply order.
	Lines []Line

	// NoDecoderMatched is set on the decoding phase when the reply had
	// a decoder member that was null or empty. Lines is empty then.
	NoDecoderMatched bool
}

// Summary is the display form of a log_processing result.
type Summary struct {
	// Phases always starts with pre-decoding. Decoding is present only
	// when the output had a decoder member, rule filtering only when it
	// had a rule member.
	Phases []Phase

	// Alert is true when the result would generate an alert.
	Alert bool
}

// Phase returns the phase with the given number.
func (s Summary) Phase(number int) (Phase, bool) {
	for _, phase := range s.Phases {
		if phase.Number == number {
			return phase, true
		}
	}
	return Phase{}, false
}

// Summarize lays a result out phase by phase. Values are reported
// verbatim: nested objects and arrays appear in compact JSON form. A
// nil result has no phases.
func Summarize(result *Result) Summary {
	if result == nil {
		return Summary{}
	}
	output := result.Output
	summary := Summary{Alert: result.Alert}

	predecoding := Phase{Number: PhasePredecoding, Title: "Completed pre-decoding."}
	if output.FullLog != nil {
		predecoding.Lines = append(predecoding.Lines, Line{Key: FullEventKey, Value: *output.FullLog})
	}
	predecoding.Lines = appendLines(predecoding.Lines, output.Predecoder)
	summary.Phases = append(summary.Phases, predecoding)

	if output.Decoder != nil {
		decoding := Phase{Number: PhaseDecoding, Title: "Completed decoding."}
		if output.DecoderMatched() {
			decoding.Lines = appendLines(decoding.Lines, *output.Decoder)
			decoding.Lines = appendLines(decoding.Lines, output.Data)
		} else {
			decoding.NoDecoderMatched = true
		}
		summary.Phases = append(summary.Phases, decoding)
	}

	if output.Rule != nil {
		rules := Phase{Number: PhaseRules, Title: "Completed filtering (rules)."}
		rules.Lines = appendLines(rules.Lines, *output.Rule)
		summary.Phases = append(summary.Phases, rules)
	}

	return summary
}

func appendLines(lines []Line, fields Fields) []Line {
	for _, field := range fields {
		lines = append(lines, Line{Key: field.Key, Value: field.Text()})
	}
	return lines
}
