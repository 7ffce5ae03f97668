// Package dtype implements the data-type unpack iterator (spec.md C4): the
// cursor that walks a user destination buffer honoring contig/iov/generic
// semantics while the engine advances a request's offset. Grounded on the
// teacher's own layering discipline of keeping wire/unpack mechanics in a
// narrow leaf package with no knowledge of endpoints or requests (mirrors
// how transport/pdu.go kept PDU parsing blind to the session above it).
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package dtype

import (
	"github.com/pkg/errors"
)

// Class is the datatype family a destination buffer belongs to.
type Class int

const (
	Contig Class = iota
	IOV
	Generic
)

func (c Class) String() string {
	switch c {
	case Contig:
		return "contig"
	case IOV:
		return "iov"
	case Generic:
		return "generic"
	default:
		return "unknown"
	}
}

// GenericPacker is the opaque user-provided pack/unpack vtable spec.md §4.2
// describes for the Generic class: "invokes an opaque user-provided
// pack/unpack vtable; treats any quantity as valid".
type GenericPacker interface {
	// Unpack writes up to len(src) bytes starting at the given offset into
	// whatever internal representation the packer maintains, returning the
	// number of bytes actually consumed.
	Unpack(offset int64, src []byte) (int64, error)
}

// Iov is one entry of an IOV scatter-gather destination.
type Iov struct {
	Buf []byte
}

// Iterator is the unpack cursor bound to one destination (one contig
// buffer, one IOV list, or one GenericPacker) for the lifetime of a single
// receive request.
type Iterator struct {
	class   Class
	elem    int
	total   int64
	contig  []byte
	iov     []Iov
	generic GenericPacker
	chunk   int // contig only: copy granularity, see SetChunkSize
}

// NewContig builds an iterator over a flat destination buffer with the
// given per-element granularity (elemSize==1 means byte granularity).
func NewContig(buf []byte, elemSize int) *Iterator {
	if elemSize <= 0 {
		elemSize = 1
	}
	return &Iterator{class: Contig, elem: elemSize, total: int64(len(buf)), contig: buf}
}

// NewIOV builds an iterator over a scatter-gather list; granularity is
// always 1 byte per spec.md §4.2.
func NewIOV(list []Iov) *Iterator {
	var total int64
	for _, e := range list {
		total += int64(len(e.Buf))
	}
	return &Iterator{class: IOV, elem: 1, total: total, iov: list}
}

// NewGeneric builds an iterator delegating unpack to an opaque packer;
// totalLength is the declared request length (generic packers accept any
// quantity per fragment, so completion is governed by the request length
// the caller supplies here, not by anything this iterator can observe).
func NewGeneric(p GenericPacker, totalLength int64) *Iterator {
	return &Iterator{class: Generic, elem: 1, total: totalLength, generic: p}
}

func (it *Iterator) Class() Class      { return it.class }
func (it *Iterator) ElemSize() int     { return it.elem }
func (it *Iterator) TotalLength() int64 { return it.total }

// SetChunkSize bounds each contig unpack to copying at most n bytes at a
// time instead of one plain copy(), the same cache-line-sized chunking
// transport.Worker.ContigChunk is sized for (transport/cpuid.go). A
// non-positive n restores a single unbounded copy.
func (it *Iterator) SetChunkSize(n int) { it.chunk = n }

// Unpack copies bytes from src into the destination starting at offset,
// honoring datatype semantics, and returns the number of bytes consumed.
// last signals the iterator it may release any internal state (relevant
// only to the Generic case, where the packer may buffer across calls).
//
// Truncation is never reported here: per spec.md §4.2 it is the caller's
// (C6's) job to clamp len(src) to request.length-request.offset before
// calling Unpack.
func (it *Iterator) Unpack(src []byte, offset int64, last bool) (int64, error) {
	switch it.class {
	case Contig:
		return it.unpackContig(src, offset)
	case IOV:
		return it.unpackIOV(src, offset)
	case Generic:
		return it.unpackGeneric(src, offset, last)
	default:
		return 0, errors.Errorf("dtype: unknown class %d", it.class)
	}
}

func (it *Iterator) unpackContig(src []byte, offset int64) (int64, error) {
	if offset < 0 || offset > int64(len(it.contig)) {
		return 0, errors.Errorf("dtype: contig offset %d out of range [0,%d]", offset, len(it.contig))
	}
	dst := it.contig[offset:]
	if it.chunk <= 0 {
		return int64(copy(dst, src)), nil
	}
	var n int
	for n < len(src) && n < len(dst) {
		end := n + it.chunk
		if end > len(src) {
			end = len(src)
		}
		if end > len(dst) {
			end = len(dst)
		}
		n += copy(dst[n:end], src[n:end])
	}
	return int64(n), nil
}

func (it *Iterator) unpackIOV(src []byte, offset int64) (int64, error) {
	var (
		consumed int64
		walked   int64
	)
	remaining := src
	for _, e := range it.iov {
		segLen := int64(len(e.Buf))
		if offset >= walked+segLen {
			walked += segLen
			continue
		}
		segOff := offset - walked
		if segOff < 0 {
			segOff = 0
		}
		n := copy(e.Buf[segOff:], remaining)
		consumed += int64(n)
		remaining = remaining[n:]
		offset += int64(n)
		walked += segLen
		if len(remaining) == 0 {
			break
		}
	}
	return consumed, nil
}

func (it *Iterator) unpackGeneric(src []byte, offset int64, last bool) (int64, error) {
	if it.generic == nil {
		return 0, errors.New("dtype: generic iterator has no packer")
	}
	n, err := it.generic.Unpack(offset, src)
	if err != nil {
		return n, errors.Wrap(err, "dtype: generic unpack failed")
	}
	_ = last // reserved for packers that buffer across calls; no-op here
	return n, nil
}
