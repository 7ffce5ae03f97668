// Package epstate implements the per-endpoint receive state (spec.md C2)
// and the global ready-endpoint scheduler (spec.md C3). The two live
// together because match_q's dual polarity and ready-list membership are
// updated under the same invariant in the same critical section (spec.md
// §4.1). Grounded on the teacher's intrusive-list style used for its own
// stream send queues (transport's now-removed collect.go kept per-stream
// send state on an intrusive list rather than container/list, for O(1)
// arbitrary removal).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package epstate

import (
	"github.com/aistorerx/rxstream/cmn/debug"
	"github.com/aistorerx/rxstream/cmn/mono"
	"github.com/aistorerx/rxstream/dtype"
	"github.com/aistorerx/rxstream/rdesc"
)

// Flag bits on an Endpoint.
type Flag uint32

const (
	// HasData is set while match_q holds descriptors (as opposed to
	// requests, or nothing).
	HasData Flag = 1 << iota
	// IsQueued is set while the endpoint sits on the ready list.
	IsQueued
	// Used mirrors UCP_EP_FLAG_USED: the endpoint has completed
	// activation and is eligible for ready-list membership.
	Used
)

// ReqFlag bits on a Request.
type ReqFlag uint32

const (
	ReqExpected ReqFlag = 1 << iota
	ReqCallback
	ReqWaitAll
	ReqCompleted
	ReqReleased
)

// CompletionFunc is invoked exactly once when a Request completes, carrying
// the final reported length and a status (nil on success).
type CompletionFunc func(req *Request, length int64, status error)

// Request is the receive-request entity of spec.md §3: a posted
// `recv_nbx` call that could not complete inline, sitting on an endpoint's
// match_q until enough fragments arrive (or ep_cleanup forces completion).
type Request struct {
	ID    uint64
	Flags ReqFlag

	Iter   *dtype.Iterator
	Offset int64 // bytes unpacked so far; monotonically increasing
	Length int64 // requested total length

	Complete CompletionFunc
	Cookie   any

	// Next is the intrusive link into an endpoint's match_q when match_q
	// holds requests.
	Next *Request
}

// Remaining is how many bytes this request still needs to reach Length.
func (r *Request) Remaining() int64 {
	return r.Length - r.Offset
}

// Advance records n newly-unpacked bytes. Offset only ever grows, which is
// what makes the completion predicate monotonic (spec.md §9 Open Question
// 1): WAitAll/ElemSize are fixed at construction and never revisited.
func (r *Request) Advance(n int64) {
	debug.Assert(n >= 0, "epstate: negative advance")
	r.Offset += n
	debug.Assert(r.Offset <= r.Length, "epstate: request overrun")
}

// WaitAll reports whether ReqWaitAll is set.
func (r *Request) WaitAll() bool { return r.Flags&ReqWaitAll != 0 }

// markCompleted finalizes the request and invokes its callback. Calling it
// twice is a programming error caught by debug builds (spec.md §3: "once
// COMPLETED is set, the request may not be re-queued").
func (r *Request) markCompleted(status error) {
	debug.Assert(r.Flags&ReqCompleted == 0, "epstate: double completion")
	r.Flags |= ReqCompleted
	r.Next = nil
	if r.Complete != nil {
		r.Complete(r, r.Offset, status)
	}
}

// Endpoint is the per-connection receive state (spec.md C2): a single
// match_q that holds either descriptors or requests, never both, plus the
// ready-list linkage (spec.md C3).
type Endpoint struct {
	ID uint64

	flags Flag

	// descHead/descTail form the descriptor polarity of match_q.
	descHead, descTail *rdesc.Descriptor
	// reqHead/reqTail form the request polarity of match_q.
	reqHead, reqTail *Request

	// dataSince is mono.NanoTime() at the moment match_q transitioned from
	// empty to holding data; zero while match_q holds no data. It lets a
	// housekeeping sweep age out endpoints that have accumulated unmatched
	// data with no posted request (see epstate.Endpoint.IdleFor).
	dataSince int64

	// readyPrev/readyNext form the intrusive doubly-linked link into the
	// global ReadyList; both nil when not queued.
	readyPrev, readyNext *Endpoint
}

func NewEndpoint(id uint64) *Endpoint {
	return &Endpoint{ID: id}
}

func (ep *Endpoint) HasData() bool  { return ep.flags&HasData != 0 }
func (ep *Endpoint) IsQueued() bool { return ep.flags&IsQueued != 0 }
func (ep *Endpoint) Used() bool     { return ep.flags&Used != 0 }
func (ep *Endpoint) SetUsed()       { ep.flags |= Used }

// PushDesc appends a descriptor to the data side of match_q. The caller
// must not hold any pending requests on this endpoint (spec.md's mutual
// exclusivity invariant); debug builds assert it.
func (ep *Endpoint) PushDesc(d *rdesc.Descriptor) {
	debug.Assert(ep.reqHead == nil, "epstate: pushing data onto a request-holding match_q")
	if ep.descTail == nil {
		ep.dataSince = mono.NanoTime()
		ep.descHead, ep.descTail = d, d
	} else {
		ep.descTail.Next = d
		ep.descTail = d
	}
	d.Next = nil
	ep.flags |= HasData
}

// PeekDesc returns the head descriptor without dequeuing it, or nil.
func (ep *Endpoint) PeekDesc() *rdesc.Descriptor { return ep.descHead }

// PopDesc removes and returns the head descriptor, clearing HasData when
// match_q becomes empty.
func (ep *Endpoint) PopDesc() *rdesc.Descriptor {
	d := ep.descHead
	if d == nil {
		return nil
	}
	ep.descHead = d.Next
	if ep.descHead == nil {
		ep.descTail = nil
		ep.dataSince = 0
		ep.flags &^= HasData
	}
	d.Next = nil
	return d
}

// IdleFor reports how long, in nanoseconds, match_q has held unmatched data
// as of now (a mono.NanoTime() reading); zero while match_q holds no data.
func (ep *Endpoint) IdleFor(now int64) int64 {
	if ep.dataSince == 0 {
		return 0
	}
	return now - ep.dataSince
}

// PushReq appends a request to the request side of match_q.
func (ep *Endpoint) PushReq(r *Request) {
	debug.Assert(ep.descHead == nil, "epstate: posting a request onto a data-holding match_q")
	r.Next = nil
	if ep.reqTail == nil {
		ep.reqHead, ep.reqTail = r, r
	} else {
		ep.reqTail.Next = r
		ep.reqTail = r
	}
}

// PeekReq returns the head request without dequeuing it, or nil.
func (ep *Endpoint) PeekReq() *Request { return ep.reqHead }

// HasReq reports whether match_q currently holds one or more requests.
func (ep *Endpoint) HasReq() bool { return ep.reqHead != nil }

// PopReq removes and returns the head request.
func (ep *Endpoint) PopReq() *Request {
	r := ep.reqHead
	if r == nil {
		return nil
	}
	ep.reqHead = r.Next
	if ep.reqHead == nil {
		ep.reqTail = nil
	}
	r.Next = nil
	return r
}

// CompleteReq finalizes r with the given status. r must currently be
// detached from match_q (the caller pops it first).
func (ep *Endpoint) CompleteReq(r *Request, status error) {
	r.markCompleted(status)
}

// Finish completes a request that was never queued on any endpoint - the
// case where the request engine (C6) drains enough inbound data inline to
// satisfy it before it's ever posted to match_q.
func Finish(r *Request, status error) {
	r.markCompleted(status)
}

// ReadyList is the global FIFO of spec.md C3: endpoints with unmatched data
// waiting for a consumer. An intrusive doubly-linked list gives O(1)
// removal from any position, needed because the last descriptor consumed
// from an endpoint may not be at the ready-list head.
type ReadyList struct {
	head, tail *Endpoint
	n          int
}

// Enqueue adds ep to the tail of the ready list if it isn't already queued
// (spec.md §8 testable property 4: idempotent ready membership).
func (rl *ReadyList) Enqueue(ep *Endpoint) {
	if ep.IsQueued() {
		return
	}
	ep.flags |= IsQueued
	ep.readyNext = nil
	ep.readyPrev = rl.tail
	if rl.tail != nil {
		rl.tail.readyNext = ep
	} else {
		rl.head = ep
	}
	rl.tail = ep
	rl.n++
}

// Remove detaches ep from the ready list from whatever position it
// occupies. No-op if ep isn't queued.
func (rl *ReadyList) Remove(ep *Endpoint) {
	if !ep.IsQueued() {
		return
	}
	if ep.readyPrev != nil {
		ep.readyPrev.readyNext = ep.readyNext
	} else {
		rl.head = ep.readyNext
	}
	if ep.readyNext != nil {
		ep.readyNext.readyPrev = ep.readyPrev
	} else {
		rl.tail = ep.readyPrev
	}
	ep.readyPrev, ep.readyNext = nil, nil
	ep.flags &^= IsQueued
	rl.n--
}

// Dequeue pops and returns the head of the ready list, or nil if empty.
func (rl *ReadyList) Dequeue() *Endpoint {
	ep := rl.head
	if ep == nil {
		return nil
	}
	rl.Remove(ep)
	return ep
}

func (rl *ReadyList) Len() int { return rl.n }

// SyncAfterConsume is called once the last descriptor is consumed from ep's
// match_q in the same critical section that cleared HasData (spec.md
// §4.1): "if queued, the endpoint is removed from the ready list in the
// same critical section."
func (rl *ReadyList) SyncAfterConsume(ep *Endpoint) {
	if !ep.HasData() && ep.IsQueued() {
		rl.Remove(ep)
	}
}

// SyncAfterProduce adds ep to the ready list when data newly arrives and
// the endpoint is activated (spec.md §4.5 ep_activate / §9 Open Question 2:
// endpoints gate ready-list membership on Used).
func (rl *ReadyList) SyncAfterProduce(ep *Endpoint) {
	if ep.HasData() && ep.Used() {
		rl.Enqueue(ep)
	}
}
