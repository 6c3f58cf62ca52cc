// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !windows && !plan9
// +build !windows,!plan9

package lockedmem

import "golang.org/x/sys/unix"

type unixPageLocker struct{}

func newPageLocker() pageLocker {
	return unixPageLocker{}
}

func (unixPageLocker) Lock(addr uintptr, length uintptr) bool {
	return unix.Mlock(bytesAt(addr, length)) == nil
}

func (unixPageLocker) Unlock(addr uintptr, length uintptr) bool {
	return unix.Munlock(bytesAt(addr, length)) == nil
}

func systemPageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
