// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lockedmem

import "unsafe"

// addrOf returns the address of data's backing array. Go's garbage
// collector never relocates heap objects once allocated, so this address
// stays valid for as long as the caller keeps data reachable — which it
// must anyway, since Region.Bytes() hands the same slice back.
func addrOf(data []byte) uintptr {
	return uintptr(unsafe.Pointer(&data[0]))
}

// bytesAt reconstructs a []byte view of the page-aligned region starting
// at addr, for handing to an OS-level mlock/munlock call.
func bytesAt(addr uintptr, length uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}
