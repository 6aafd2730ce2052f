// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package installinfo reads the installation metadata file the analysis
// daemon's installer writes (/etc/ossec-init.conf on a standard
// install). The file is a list of KEY="VALUE" lines:
//
//	DIRECTORY="/var/ossec"
//	NAME="Wazuh"
//	VERSION="v4.1.0"
//	TYPE="server"
package installinfo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPath is where the installer writes the metadata file.
const DefaultPath = "/etc/ossec-init.conf"

// License is the licence statement printed alongside the version.
const License = `This program is free software; you can redistribute it and/or modify
it under the terms of the GNU General Public License (version 2) as
published by the Free Software Foundation. For more details, go to
https://www.gnu.org/licenses/gpl.html`

// ErrNoVersion is returned when the metadata file has no VERSION key.
var ErrNoVersion = errors.New("installinfo: no VERSION entry")

// Info is the parsed metadata file.
type Info struct {
	values map[string]string
}

// Get returns the value of key with its quotes removed.
func (i Info) Get(key string) (string, bool) {
	value, ok := i.values[key]
	return value, ok
}

// Version returns the installed daemon version.
func (i Info) Version() (string, error) {
	version, ok := i.values["VERSION"]
	if !ok || version == "" {
		return "", ErrNoVersion
	}
	return version, nil
}

// Description returns the one-line product banner, for example
// "Wazuh v4.1.0 - Wazuh Inc.".
func (i Info) Description() (string, error) {
	version, err := i.Version()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Wazuh %s - Wazuh Inc.", version), nil
}

// Read loads the metadata file at path.
func Read(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("reading install info: %w", err)
	}
	defer file.Close()

	info, err := Parse(file)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

// Parse reads KEY="VALUE" lines from r. Blank lines and lines starting
// with # are skipped. Double quotes are removed from values. A
// non-blank line without "=" is an error.
func Parse(r io.Reader) (Info, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return Info{}, fmt.Errorf("line %d: expected KEY=\"VALUE\", got %q", lineNumber, line)
		}
		values[strings.TrimSpace(key)] = strings.ReplaceAll(value, `"`, "")
	}
	if err := scanner.Err(); err != nil {
		return Info{}, err
	}
	return Info{values: values}, nil
}
