// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lockedmem

// plan9PageLocker is a no-op: Plan 9 has no mlock/munlock equivalent, so
// sensitive memory simply isn't pinned there.
type plan9PageLocker struct{}

func newPageLocker() pageLocker {
	return plan9PageLocker{}
}

func (plan9PageLocker) Lock(addr uintptr, length uintptr) bool   { return true }
func (plan9PageLocker) Unlock(addr uintptr, length uintptr) bool { return true }

func systemPageSize() uintptr {
	return 4096
}
