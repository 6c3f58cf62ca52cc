// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lockedmem

import "golang.org/x/sys/windows"

type windowsPageLocker struct{}

func newPageLocker() pageLocker {
	return windowsPageLocker{}
}

func (windowsPageLocker) Lock(addr uintptr, length uintptr) bool {
	return windows.VirtualLock(addr, length) == nil
}

func (windowsPageLocker) Unlock(addr uintptr, length uintptr) bool {
	return windows.VirtualUnlock(addr, length) == nil
}

func systemPageSize() uintptr {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return uintptr(info.PageSize)
}
