// The zero-copy data path (spec.md §4.4, recv_data_nb / data_release).
// Grounded on rdesc.Lend's self-referential-embedding model and the
// teacher's own zero-copy object GET path (removed core/ package handed
// callers a reference into a cached object rather than copying).
package rxengine

import (
	"github.com/aistorerx/rxstream/epstate"
	"github.com/aistorerx/rxstream/rdesc"
	"github.com/aistorerx/rxstream/rxerr"
	"github.com/aistorerx/rxstream/transport"
)

// RecvDataNB is spec.md's recv_data_nb: dequeues the head descriptor and
// lends it to the caller. Returns (nil, 0, nil) for the "OK with NULL"
// case of no data present.
func (e *Engine) RecvDataNB(ep *epstate.Endpoint) (*rdesc.Lent, int64, error) {
	if !e.worker.HasFeature(transport.FeatureStream) {
		return nil, 0, rxerr.ErrInvalidParam
	}

	e.worker.Enter()
	defer e.worker.Exit()

	if !ep.HasData() {
		return nil, 0, nil
	}
	d := ep.PopDesc()
	e.ready.SyncAfterConsume(ep)
	e.m.SetReadyDepth(e.ready.Len())

	n := int64(d.Length())
	return rdesc.Lend(d), n, nil
}

// DataRelease returns a previously-lent descriptor to its pool. No
// ordering is required across different outstanding lends (spec.md §4.4).
func (e *Engine) DataRelease(lent *rdesc.Lent) error {
	e.worker.Enter()
	defer e.worker.Exit()

	if !lent.Release() {
		return rxerr.ErrInvalidParam
	}
	e.m.SetPoolBytes(e.pool.InUseBytes())
	return nil
}
