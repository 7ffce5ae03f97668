package transport

import "github.com/klauspost/cpuid/v2"

// contigChunkSize picks a default chunk size for contiguous unpack copies,
// the same kind of platform-adaptive sizing the teacher applies to slab/page
// sizing in memsys - here driven off the detected cache line instead of a
// fixed page constant, since the hot path is memcpy, not mmap.
func contigChunkSize() int {
	if l := cpuid.CPU.CacheLine; l > 0 {
		return l * 8
	}
	return 512
}
