package crypto

import (
	"runtime"

	"dgit/internal/domain"
)

// Wipe zeroes the provided buffer. This is best-effort and aims to
// reduce the chance of the compiler eliding the write.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}

// WipeIdentity zeroes the private half of id.
func WipeIdentity(id *domain.Identity) {
	Wipe(id.Private[:])
}
