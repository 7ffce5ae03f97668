// The AM fragment handler (spec.md C5): the inbound path that routes
// arriving fragments, attempts inline satisfaction of expected requests,
// and enqueues residue. Grounded on the teacher's own inbound dispatch
// style (transport's removed collect.go decided, per incoming object,
// whether to hand it to a registered callback or queue it - the same
// match-or-queue branch this handler makes per fragment).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package rxengine

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v3"

	"github.com/aistorerx/rxstream/epstate"
	"github.com/aistorerx/rxstream/rdesc"
	"github.com/aistorerx/rxstream/rxerr"
	"github.com/aistorerx/rxstream/transport"
)

// AMHandler is spec.md §4.3's am_handler: it returns OK when the transport
// may free/reuse the delivered buffer, or InProgress when the handler
// retained it as a descriptor.
func (e *Engine) AMHandler(d transport.Delivery) (transport.Status, error) {
	if !e.worker.HasFeature(transport.FeatureStream) {
		return transport.OK, nil
	}

	e.worker.Enter()
	defer e.worker.Exit()

	ep := e.lookup(d.Header.EndpointID)
	if ep == nil {
		// Step 1: unknown endpoint, drop silently.
		return transport.OK, nil
	}

	payload := d.Payload
	ownable := d.Flags&transport.AMDescOwnable != 0
	if d.Flags&transport.AMCompressedLZ4 != 0 {
		decompressed, err := e.inflate(payload)
		if err != nil {
			return transport.OK, err
		}
		payload = decompressed
		ownable = false // the decompression buffer isn't the transport's
	}

	consumed := e.matchPosted(ep, payload)
	residue := payload[consumed:]
	e.m.ObserveFragment()

	if len(residue) == 0 {
		if ownable && d.Release != nil {
			d.Release(d.Payload)
		}
		return transport.OK, nil
	}

	var desc *rdesc.Descriptor
	if ownable {
		headerSize := len(d.Payload) - len(residue)
		if max := e.worker.MaxHeaderSize; max > 0 && headerSize > max {
			return transport.OK, rxerr.ErrInvalidParam
		}
		desc = rdesc.New(d.Payload, headerSize, len(residue), rdesc.FromTransportDesc, d.Release)
	} else {
		buf := e.pool.Alloc(len(residue))
		copy(buf, residue)
		desc = rdesc.New(buf, 0, len(residue), 0, e.releasePooled)
		e.m.SetPoolBytes(e.pool.InUseBytes())
		if d.Release != nil {
			d.Release(d.Payload)
		}
	}

	ep.PushDesc(desc)
	e.ready.SyncAfterProduce(ep)
	e.m.SetReadyDepth(e.ready.Len())

	if ownable {
		return transport.InProgress, nil
	}
	return transport.OK, nil
}

// matchPosted runs spec.md §4.3 step 2's match loop: while the endpoint
// has no queued data and still has posted requests, feed cursor to the
// head request FIFO-wise, completing requests as they satisfy
// canComplete. Returns how many leading bytes of cursor were consumed.
func (e *Engine) matchPosted(ep *epstate.Endpoint, cursor []byte) int {
	if ep.HasData() {
		return 0
	}
	var consumed int
	for len(cursor) > consumed && ep.HasReq() {
		req := ep.PeekReq()
		remaining := cursor[consumed:]
		want := req.Remaining()
		if int64(len(remaining)) < want {
			want = int64(len(remaining))
		}
		n, uerr := req.Iter.Unpack(remaining[:want], req.Offset, false)
		if uerr != nil {
			ep.PopReq()
			epstate.Finish(req, uerr)
			consumed += int(n)
			continue
		}
		req.Advance(n)
		consumed += int(n)
		e.m.ObserveRecv(n)
		if canComplete(req) {
			ep.PopReq()
			epstate.Finish(req, nil)
		}
	}
	return consumed
}

// inflate decompresses one LZ4 frame and copies the result into a pool
// buffer sized to the decompressed length.
func (e *Engine) inflate(frame []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(frame))
	var out bytes.Buffer
	if _, err := io.Copy(&out, zr); err != nil {
		return nil, err
	}
	buf := e.pool.Alloc(out.Len())
	copy(buf, out.Bytes())
	e.m.SetPoolBytes(e.pool.InUseBytes())
	return buf, nil
}

// releasePooled returns buf to the engine's pool and refreshes the pool
// occupancy gauge in the same step, so rxstream_pool_bytes_in_use reflects
// every descriptor release rather than only allocations.
func (e *Engine) releasePooled(buf []byte) {
	e.pool.Free(buf)
	e.m.SetPoolBytes(e.pool.InUseBytes())
}
