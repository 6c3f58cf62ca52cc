// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package lockedmem keeps sensitive byte slices — private keys, anything
// else that must never be written to a swap file — pinned in physical
// memory. It is the direct analogue of the original node's
// LockedPageManager: a single process-wide manager that tracks locked
// pages by reference count, so two overlapping allocations sharing a page
// don't unlock it out from under each other.
package lockedmem

import (
	"fmt"
	"sync"
)

// pageLocker is the OS-level primitive: lock or unlock the page-aligned
// region [addr, addr+len) so the kernel never pages it to swap. The
// per-platform files implement it; everywhere else in this package is
// platform-independent bookkeeping.
type pageLocker interface {
	Lock(addr uintptr, len uintptr) bool
	Unlock(addr uintptr, len uintptr) bool
}

// manager is the process-wide singleton. Its mutex serializes every
// Lock/Unlock call against the refcount map; the OS calls it makes while
// holding that mutex are cheap syscalls, not blocking I/O, so the
// coarseness is not a concern.
type manager struct {
	mtx         sync.Mutex
	locker      pageLocker
	pageSize    uintptr
	refcounts   map[uintptr]int // page start address -> lock refcount
	lockedBytes uint64
	lockErrors  uint64
}

var (
	instance     *manager
	instanceOnce sync.Once
)

func get() *manager {
	instanceOnce.Do(func() {
		instance = &manager{
			locker:    newPageLocker(),
			pageSize:  systemPageSize(),
			refcounts: make(map[uintptr]int),
		}
	})
	return instance
}

// pageStart returns the address of the page addr falls on.
func (m *manager) pageStart(addr uintptr) uintptr {
	return addr &^ (m.pageSize - 1)
}

// lockRange pins every page overlapping [addr, addr+size) in physical
// memory, incrementing each page's refcount. A page already locked by a
// prior, overlapping allocation is left alone — only a page transitioning
// from zero to one references actually calls into the OS.
func (m *manager) lockRange(addr uintptr, size uintptr) bool {
	if size == 0 {
		return true
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()

	start := m.pageStart(addr)
	end := m.pageStart(addr+size-1) + m.pageSize

	ok := true
	for page := start; page < end; page += m.pageSize {
		if m.refcounts[page] == 0 {
			if !m.locker.Lock(page, m.pageSize) {
				ok = false
				m.lockErrors++
				continue
			}
		}
		m.refcounts[page]++
	}
	if ok {
		m.lockedBytes += uint64(size)
	}
	return ok
}

// unlockRange decrements the refcount of every page overlapping
// [addr, addr+size), releasing the OS-level lock on any page whose
// refcount drops to zero.
func (m *manager) unlockRange(addr uintptr, size uintptr) bool {
	if size == 0 {
		return true
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()

	start := m.pageStart(addr)
	end := m.pageStart(addr+size-1) + m.pageSize

	ok := true
	for page := start; page < end; page += m.pageSize {
		count, tracked := m.refcounts[page]
		if !tracked || count == 0 {
			continue
		}
		count--
		if count == 0 {
			if !m.locker.Unlock(page, m.pageSize) {
				ok = false
				continue
			}
			delete(m.refcounts, page)
		} else {
			m.refcounts[page] = count
		}
	}
	if ok && m.lockedBytes >= uint64(size) {
		m.lockedBytes -= uint64(size)
	}
	return ok
}

// Stats reports the manager's current bookkeeping: the total size of the
// currently locked allocations, how many distinct pages they cover, and how many
// Lock calls have failed over the manager's lifetime (most commonly
// because the process hit RLIMIT_MEMLOCK).
type Stats struct {
	LockedBytes uint64
	LockedPages int
	LockErrors  uint64
}

func (m *manager) stats() Stats {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return Stats{
		LockedBytes: m.lockedBytes,
		LockedPages: len(m.refcounts),
		LockErrors:  m.lockErrors,
	}
}

// ManagerStats returns a snapshot of the process-wide manager's bookkeeping.
func ManagerStats() Stats {
	return get().stats()
}

// Region is a locked allocation returned by Lock. Callers must call
// Unlock exactly once when the memory no longer needs to be pinned; Region
// does not free or zero the underlying slice — that remains the caller's
// responsibility.
type Region struct {
	data []byte
}

// Bytes returns the underlying locked slice.
func (r *Region) Bytes() []byte { return r.data }

// Lock pins data's backing array in physical memory for as long as the
// returned Region is not unlocked. It returns an error if the OS refuses
// the lock — typically RLIMIT_MEMLOCK — rather than silently continuing
// with unpinned memory, since the whole point of calling it is the
// guarantee that swap never sees this data.
func Lock(data []byte) (*Region, error) {
	if len(data) == 0 {
		return &Region{data: data}, nil
	}
	addr := addrOf(data)
	if !get().lockRange(addr, uintptr(len(data))) {
		return nil, fmt.Errorf("lockedmem: failed to lock %d bytes", len(data))
	}
	return &Region{data: data}, nil
}

// Unlock releases the pages backing r. Calling it more than once is a
// programmer error and is not guarded against here: a second call
// decrements the refcount of any page still shared with another Region,
// which can release that page's OS lock early.
func Unlock(r *Region) error {
	if len(r.data) == 0 {
		return nil
	}
	addr := addrOf(r.data)
	if !get().unlockRange(addr, uintptr(len(r.data))) {
		return fmt.Errorf("lockedmem: failed to unlock %d bytes", len(r.data))
	}
	return nil
}
