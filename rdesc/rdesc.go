// Package rdesc implements the receive descriptor (spec.md C1): the tagged
// buffer holding one arrived fragment plus the metadata the endpoint queue
// and the zero-copy path need to track ownership. Adapted from the
// teacher's transport PDU/descriptor handling (transport/pdu.go is gone
// from this tree, but its "owning handle to one arrived buffer, released
// back to its origin exactly once" shape is what this models) and from
// memsys's pool-buffer contract for the non-owning case.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package rdesc

import (
	"github.com/OneOfOne/xxhash"

	"github.com/aistorerx/rxstream/cmn/debug"
)

// Flags on a Descriptor.
type Flags uint32

const (
	// FromTransportDesc marks a descriptor whose buffer was taken over
	// directly from the transport's own buffer (spec.md §3), rather than
	// copied out of a pool.
	FromTransportDesc Flags = 1 << iota
)

// ReleaseFunc returns buf to wherever it came from: a pool's Free, or the
// transport's own buffer-release callback.
type ReleaseFunc func(buf []byte)

// Descriptor is the owning handle to one contiguous buffer of unconsumed
// bytes. It carries at most one intrusive link (Next) so it can sit on an
// endpoint's match_q; spec.md's invariant "on at most one queue at a time"
// is enforced by callers always clearing Next on dequeue.
type Descriptor struct {
	buf           []byte
	payloadOffset int32
	length        int32
	flags         Flags
	release       ReleaseFunc

	// Next is the intrusive link into an endpoint's match_q. nil when not
	// queued.
	Next *Descriptor
}

// New builds a descriptor over buf, with payload starting at headerSize and
// length bytes of unconsumed data. release is called exactly once, when the
// descriptor is fully consumed or explicitly released.
func New(buf []byte, headerSize int, length int, flags Flags, release ReleaseFunc) *Descriptor {
	debug.Assert(length > 0, "rdesc: zero-length descriptor")
	debug.Assert(headerSize >= 0 && headerSize <= len(buf), "rdesc: bad header size")
	return &Descriptor{
		buf:           buf,
		payloadOffset: int32(headerSize),
		length:        int32(length),
		flags:         flags,
		release:       release,
	}
}

func (d *Descriptor) Length() int32 { return d.length }
func (d *Descriptor) Flags() Flags  { return d.flags }

func (d *Descriptor) FromTransport() bool { return d.flags&FromTransportDesc != 0 }

// Payload returns the unconsumed bytes: buf[payloadOffset : payloadOffset+length].
func (d *Descriptor) Payload() []byte {
	return d.buf[d.payloadOffset : d.payloadOffset+d.length]
}

// Advance consumes k bytes from the front of the descriptor's payload. It
// reports whether the descriptor is now fully drained; callers that get
// true back are expected to call Release (or let the caller that owns it
// do so) rather than re-queue it.
func (d *Descriptor) Advance(k int32) (drained bool) {
	debug.Assert(k >= 0 && k <= d.length, "rdesc: advance out of range")
	if k == d.length {
		d.payloadOffset += k
		d.length = 0
		return true
	}
	d.payloadOffset += k
	d.length -= k
	return false
}

// Release returns the backing buffer to its origin. Safe to call once;
// calling it twice is a caller bug and is caught by debug builds only, per
// the teacher's own pattern of cheap debug-only double-free detection.
func (d *Descriptor) Release() {
	debug.Assert(d.release != nil, "rdesc: double release")
	if d.release != nil {
		d.release(d.buf)
		d.release = nil
	}
}

// Lent is the zero-copy handle spec.md §9 describes as "a self-referential
// embedding... the word preceding the payload stores the descriptor
// back-pointer". Rather than reaching for unsafe pointer arithmetic this
// models the same contract with an explicit wrapper plus an xxhash
// fingerprint of the descriptor's identity, so DataRelease can detect a
// caller passing back a handle that doesn't correspond to any live lend.
type Lent struct {
	Bytes []byte
	desc  *Descriptor
	fp    uint64
}

func fingerprint(d *Descriptor) uint64 {
	h := xxhash.New64()
	// The descriptor's own address, reduced through a pointer-sized byte
	// view, stands in for the "word before the payload" in the original:
	// a value that identifies exactly this lend and no other.
	p := addressBytes(d)
	_, _ = h.Write(p)
	return h.Sum64()
}

// Lend hands out a zero-copy reference to d's current payload. d is
// expected to already be dequeued from any match_q by the caller (C6's
// recv_data_nb), matching spec.md's "while in user hands, the descriptor
// is on no queue".
func Lend(d *Descriptor) *Lent {
	debug.Assert(d.Next == nil, "rdesc: lending a still-queued descriptor")
	return &Lent{Bytes: d.Payload(), desc: d, fp: fingerprint(d)}
}

// Release validates the lend's fingerprint against its descriptor and then
// releases the descriptor to its origin. Returns false (and releases
// nothing) if the fingerprint no longer matches, which would indicate a
// corrupted or replayed handle.
func (l *Lent) Release() bool {
	if l == nil || l.desc == nil {
		return false
	}
	if fingerprint(l.desc) != l.fp {
		return false
	}
	l.desc.Release()
	l.desc = nil
	return true
}
