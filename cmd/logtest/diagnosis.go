// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"slices"
	"strconv"
	"syscall"
)

// daemonGroups are the Unix groups that own the log-test socket on a
// standard installation, current name first.
var daemonGroups = []string{"wazuh", "ossec"}

// diagnoseConnectError returns an actionable hint for a failure to reach
// the daemon socket, or "" when the error has no recognisable cause.
//
//   - No socket file: the daemon is not running, or listens elsewhere.
//   - Connection refused: a stale socket file with nothing behind it.
//   - Permission denied: group membership, or some other access control.
func diagnoseConnectError(err error, socketPath string) string {
	switch {
	case errors.Is(err, syscall.ENOENT):
		return fmt.Sprintf("%s does not exist. Check that the analysis daemon is running on this host, "+
			"or point --socket (socket_path) at the socket it listens on.", socketPath)
	case errors.Is(err, syscall.ECONNREFUSED):
		return "The socket exists but nothing accepts connections on it. The analysis daemon is stopped or " +
			"restarting, or log testing is disabled in its configuration."
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return diagnosePermission(socketPath)
	}
	return ""
}

func diagnosePermission(socketPath string) string {
	group, gid, found := lookupDaemonGroup()
	if !found {
		return fmt.Sprintf("Permission denied on %s and no %s group exists on this host. Run logtest as root.",
			socketPath, daemonGroups[0])
	}
	if !processInGroup(gid) {
		return fmt.Sprintf("Permission denied on %s. Run logtest as root, or add your user to the %s group:\n"+
			"  sudo usermod -aG %s $USER\n"+
			"  newgrp %s", socketPath, group, group, group)
	}
	// In the group and still denied: SELinux, ACLs, or a socket with
	// the wrong owner. Group advice would mislead.
	return fmt.Sprintf("Permission denied on %s although this process is in the %s group. "+
		"Check the socket's ownership and mode: ls -la %s", socketPath, group, socketPath)
}

// lookupDaemonGroup returns the first of daemonGroups that exists.
func lookupDaemonGroup() (name string, gid int, found bool) {
	for _, name := range daemonGroups {
		group, err := user.LookupGroup(name)
		if err != nil {
			continue
		}
		gid, err := strconv.Atoi(group.Gid)
		if err != nil {
			continue
		}
		return name, gid, true
	}
	return "", 0, false
}

// processInGroup checks the groups this process actually holds, which
// is what the kernel checks. A user added to a group since login does
// not have it yet.
func processInGroup(gid int) bool {
	if os.Getegid() == gid {
		return true
	}
	groups, err := os.Getgroups()
	if err != nil {
		return false
	}
	return slices.Contains(groups, gid)
}

// logTransportError logs err at error level, with a hint attached when
// the cause is recognisable.
func logTransportError(logger *slog.Logger, message string, err error, socketPath string) {
	attrs := []any{"error", err}
	if hint := diagnoseConnectError(err, socketPath); hint != "" {
		attrs = append(attrs, "hint", hint)
	}
	logger.Error(message, attrs...)
}
