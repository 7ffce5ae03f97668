package rdesc

import "unsafe"

// addressBytes reduces a descriptor's identity to a small byte slice
// suitable for hashing. This is the one place this package touches
// unsafe: it never dereferences through the result, only hashes the
// address itself, standing in for spec.md §9's "word before the payload"
// self-reference without doing pointer arithmetic on the payload buffer.
func addressBytes(d *Descriptor) []byte {
	p := uintptr(unsafe.Pointer(d))
	b := make([]byte, unsafe.Sizeof(p))
	for i := range b {
		b[i] = byte(p >> (8 * i))
	}
	return b
}
