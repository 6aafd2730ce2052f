// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logtest

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// Renderer writes summaries and unit-test verdicts in the layout
// operators know from the daemon's own tooling:
//
//	**Phase 1: Completed pre-decoding.
//		full event: 'Jan  1 00:00:00 host test'
//
// Values echoed from the daemon are stripped of terminal escape
// sequences before they are written: a crafted log line must not be
// able to drive the operator's terminal.
type Renderer struct {
	out io.Writer

	header lipgloss.Style
	faint  lipgloss.Style
	alert  lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
}

// NewRenderer returns a renderer writing to out. With color false all
// styling is plain text, which is what pipes and log files want.
func NewRenderer(out io.Writer, color bool) *Renderer {
	renderer := lipgloss.NewRenderer(out)
	if color {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		out:    out,
		header: renderer.NewStyle().Bold(true),
		faint:  renderer.NewStyle().Faint(true),
		alert:  renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		pass:   renderer.NewStyle().Foreground(lipgloss.Color("34")),
		fail:   renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

// Summary writes every phase of summary followed by the alert marker
// when the result generates an alert.
func (r *Renderer) Summary(summary Summary) error {
	for _, phase := range summary.Phases {
		if _, err := fmt.Fprintf(r.out, "\n%s\n", r.header.Render(fmt.Sprintf("**Phase %d: %s", phase.Number, phase.Title))); err != nil {
			return err
		}
		if phase.NoDecoderMatched {
			if _, err := fmt.Fprintf(r.out, "\t%s\n", r.faint.Render("No decoder matched.")); err != nil {
				return err
			}
			continue
		}
		for _, line := range phase.Lines {
			if _, err := fmt.Fprintf(r.out, "\t%s: '%s'\n", ansi.Strip(line.Key), ansi.Strip(line.Value)); err != nil {
				return err
			}
		}
	}
	if summary.Alert {
		if _, err := fmt.Fprintf(r.out, "%s\n", r.alert.Render("**Alert to be generated.")); err != nil {
			return err
		}
	}
	return nil
}

// UnitTest writes the verdict of comparing got against expected.
func (r *Renderer) UnitTest(expected, got Tuple) error {
	if got.Matches(expected) {
		_, err := fmt.Fprintf(r.out, "\n%s\n", r.pass.Render("Unit test OK"))
		return err
	}
	_, err := fmt.Fprintf(r.out, "\n%s Expected %s , Result %s\n",
		r.fail.Render("Unit test FAIL."), quoteTuple(expected), quoteTuple(got))
	return err
}

// quoteTuple formats a tuple as ['id', 'level', 'decoder'] so empty
// slots stay visible.
func quoteTuple(tuple Tuple) string {
	return fmt.Sprintf("['%s', '%s', '%s']", ansi.Strip(tuple[0]), ansi.Strip(tuple[1]), ansi.Strip(tuple[2]))
}

// CaseResult writes one line for a named case: OK, FAIL with both
// tuples, or ERROR with the failure when the case could not run.
func (r *Renderer) CaseResult(name string, expected, got Tuple, caseErr error) error {
	name = ansi.Strip(name)
	var err error
	switch {
	case caseErr != nil:
		_, err = fmt.Fprintf(r.out, "%s %s: %v\n", r.fail.Render("ERROR"), name, caseErr)
	case got.Matches(expected):
		_, err = fmt.Fprintf(r.out, "%s %s\n", r.pass.Render("OK"), name)
	default:
		_, err = fmt.Fprintf(r.out, "%s %s: Expected %s , Result %s\n",
			r.fail.Render("FAIL"), name, quoteTuple(expected), quoteTuple(got))
	}
	return err
}
