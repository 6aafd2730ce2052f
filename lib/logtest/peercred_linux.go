// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package logtest

import (
	"net"

	"golang.org/x/sys/unix"
)

func peerCredentials(conn net.Conn) (peerCredentialsInfo, bool) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return peerCredentialsInfo{}, false
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return peerCredentialsInfo{}, false
	}
	var credentials *unix.Ucred
	var lookupErr error
	if err := raw.Control(func(fd uintptr) {
		credentials, lookupErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil || lookupErr != nil {
		return peerCredentialsInfo{}, false
	}
	return peerCredentialsInfo{pid: credentials.Pid, uid: credentials.Uid}, true
}
