// Endpoint lifecycle hooks (spec.md C7): activation on connect,
// cancellation on teardown. Grounded on the teacher's own connect/teardown
// hooks for stream sessions (transport's removed tinit.go registered and
// tore down per-peer session state the same shape as EPInit/EPCleanup
// here).
package rxengine

import (
	"github.com/aistorerx/rxstream/epstate"
	"github.com/aistorerx/rxstream/transport"
)

// EPInit creates and registers a fresh endpoint, zeroed per spec.md §4.5.
func (e *Engine) EPInit(id uint64) *epstate.Endpoint {
	e.worker.Enter()
	defer e.worker.Exit()

	ep := epstate.NewEndpoint(id)
	e.endpoints[id] = ep
	return ep
}

// EPActivate marks ep usable. If the feature is enabled, data already
// arrived, and the endpoint isn't on the ready list, it is added now -
// the missed-enqueue catch-up spec.md §9 Open Question 2 calls for.
func (e *Engine) EPActivate(ep *epstate.Endpoint) {
	e.worker.Enter()
	defer e.worker.Exit()

	ep.SetUsed()
	if e.worker.HasFeature(transport.FeatureStream) {
		e.ready.SyncAfterProduce(ep)
	}
	e.m.SetReadyDepth(e.ready.Len())
}

// EPCleanup drains and releases all unmatched descriptors, removes ep from
// the ready list, then completes every still-posted request with status.
// Post-condition (spec.md §4.5 / §8 property 7): match_q empty, HasData
// clear, IsQueued clear.
func (e *Engine) EPCleanup(ep *epstate.Endpoint, status error) {
	e.worker.Enter()
	defer e.worker.Exit()

	for d := ep.PopDesc(); d != nil; d = ep.PopDesc() {
		d.Release()
	}
	e.ready.Remove(ep)
	for r := ep.PopReq(); r != nil; r = ep.PopReq() {
		epstate.Finish(r, status)
	}
	e.m.SetReadyDepth(e.ready.Len())
}
