// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

// dumpReply writes the raw reply data as indented JSON, syntax
// highlighted when color is set.
func dumpReply(w io.Writer, raw json.RawMessage, color bool) error {
	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		return err
	}
	indented.WriteByte('\n')
	if !color {
		_, err := w.Write(indented.Bytes())
		return err
	}
	return quick.Highlight(w, indented.String(), "json", "terminal256", "monokai")
}
