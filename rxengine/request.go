// The receive request engine (spec.md C6): recv_nbx's inplace fast path,
// full drain-and-post path, and the completion predicate. Grounded on the
// teacher's own request/response completion bookkeeping style (the
// removed transport/sendmsg.go tracked per-send completion callbacks the
// same way Request.Complete is tracked here, just on the receive side).
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package rxengine

import (
	"errors"

	"github.com/aistorerx/rxstream/dtype"
	"github.com/aistorerx/rxstream/epstate"
	"github.com/aistorerx/rxstream/rxerr"
	"github.com/aistorerx/rxstream/transport"
)

// errNoProgress is the engine's internal-only NO_PROGRESS signal
// (spec.md §7): it must never be returned from a public Engine method.
var errNoProgress = errors.New("rxengine: no progress")

// Params describes one recv_nbx call: the destination (exactly one of Buf,
// IOV, or Generic/GenericLength should be set, consistent with Class), and
// the completion flags/callback of spec.md §6.
type Params struct {
	Class    dtype.Class
	ElemSize int // contig only
	Count    int // contig only: number of elements requested

	Buf     []byte          // contig destination
	IOV     []dtype.Iov     // iov destination
	Generic dtype.GenericPacker
	GenericLength int64 // generic destination's declared length

	WaitAll       bool
	NoImmCmpl     bool
	ForceImmCmpl  bool
	Callback      epstate.CompletionFunc
	Cookie        any
}

func (p *Params) elemSize() int {
	if p.Class == dtype.Contig && p.ElemSize > 0 {
		return p.ElemSize
	}
	return 1
}

func (p *Params) totalLength() int64 {
	switch p.Class {
	case dtype.Contig:
		return int64(p.elemSize()) * int64(p.Count)
	case dtype.IOV:
		var n int64
		for _, e := range p.IOV {
			n += int64(len(e.Buf))
		}
		return n
	case dtype.Generic:
		return p.GenericLength
	default:
		return 0
	}
}

// newIterator builds the iterator for p. chunk bounds contig unpack copies
// to the worker's cache-line-informed ContigChunk (transport/cpuid.go);
// zero leaves the copy unbounded.
func (p *Params) newIterator(chunk int) *dtype.Iterator {
	switch p.Class {
	case dtype.Contig:
		it := dtype.NewContig(p.Buf, p.ElemSize)
		it.SetChunkSize(chunk)
		return it
	case dtype.IOV:
		return dtype.NewIOV(p.IOV)
	case dtype.Generic:
		return dtype.NewGeneric(p.Generic, p.GenericLength)
	default:
		return nil
	}
}

// Handle is what recv_nbx returns: either an immediate result (Done=true)
// or a pending request the caller's completion callback will later fire.
type Handle struct {
	Done   bool
	Length int64
	Err    error
	Req    *epstate.Request
}

// canComplete is spec.md §4.4's completion predicate. It depends only on
// values fixed at request construction (WaitAll, ElemSize) and Offset,
// which only ever grows - the monotonicity spec.md §9 Open Question 1
// requires.
func canComplete(req *epstate.Request) bool {
	if req.Offset == req.Length {
		return true
	}
	if req.WaitAll() || req.Offset == 0 {
		return false
	}
	if req.Iter.Class() != dtype.Contig {
		return true
	}
	elem := int64(req.Iter.ElemSize())
	if elem <= 0 {
		elem = 1
	}
	return req.Offset%elem == 0
}

func alignDown(n, align int64) int64 {
	if align <= 0 {
		return n
	}
	return n - (n % align)
}

// tryRecvInplace is spec.md §4.4's inplace fast path: consumes directly
// from the endpoint's head descriptor without allocating a Request.
func (e *Engine) tryRecvInplace(ep *epstate.Endpoint, p *Params) (outLen int64, ok bool, err error) {
	if !ep.HasData() || p.NoImmCmpl {
		return 0, false, errNoProgress
	}
	if p.Class != dtype.Contig && p.Class != dtype.IOV {
		return 0, false, errNoProgress
	}

	recvLength := p.totalLength()
	elem := int64(p.elemSize())
	desc := ep.PeekDesc()
	avail := int64(desc.Length())

	var want int64
	switch {
	case avail >= recvLength:
		want = recvLength
	case p.WaitAll || avail < elem:
		return 0, false, errNoProgress
	default:
		want = alignDown(avail, elem)
		if want == 0 {
			return 0, false, errNoProgress
		}
	}

	iter := p.newIterator(e.worker.ContigChunk)
	n, uerr := iter.Unpack(desc.Payload()[:want], 0, true)
	if uerr != nil {
		return 0, false, uerr
	}
	e.m.ObserveRecv(n)
	drained := desc.Advance(int32(n))
	if drained {
		ep.PopDesc()
		desc.Release()
	}
	e.ready.SyncAfterConsume(ep)
	e.m.SetReadyDepth(e.ready.Len())
	return n, true, nil
}

// RecvNBX implements spec.md §4.4's recv_nbx end to end.
func (e *Engine) RecvNBX(ep *epstate.Endpoint, p Params) Handle {
	if !e.worker.HasFeature(transport.FeatureStream) {
		return Handle{Err: rxerr.ErrInvalidParam}
	}

	e.worker.Enter()
	defer e.worker.Exit()

	n, ok, err := e.tryRecvInplace(ep, &p)
	if ok {
		return Handle{Done: true, Length: n}
	}
	if err != nil && err != errNoProgress {
		return Handle{Err: err}
	}

	if p.ForceImmCmpl {
		return Handle{Err: rxerr.ErrNoResource}
	}

	req := &epstate.Request{
		ID:     e.nextReqID(),
		Length: p.totalLength(),
		Iter:   p.newIterator(e.worker.ContigChunk),
		Cookie: p.Cookie,
	}
	if p.WaitAll {
		req.Flags |= epstate.ReqWaitAll
	}
	if p.Callback != nil {
		req.Flags |= epstate.ReqCallback
		req.Complete = p.Callback
	}

	for req.Remaining() > 0 && ep.HasData() {
		d := ep.PeekDesc()
		want := req.Remaining()
		avail := int64(d.Length())
		if avail < want {
			want = avail
		}
		consumed, uerr := req.Iter.Unpack(d.Payload()[:want], req.Offset, false)
		if uerr != nil {
			e.ready.SyncAfterConsume(ep)
			epstate.Finish(req, uerr)
			return Handle{Done: true, Err: uerr}
		}
		req.Advance(consumed)
		drained := d.Advance(int32(consumed))
		if drained {
			ep.PopDesc()
			d.Release()
		}
		e.m.ObserveRecv(consumed)

		if req.Iter.Class() == dtype.Generic && !req.WaitAll() {
			break
		}
	}
	e.ready.SyncAfterConsume(ep)
	e.m.SetReadyDepth(e.ready.Len())

	if canComplete(req) {
		epstate.Finish(req, nil)
		return Handle{Done: true, Length: req.Offset}
	}

	ep.PushReq(req)
	return Handle{Req: req}
}
