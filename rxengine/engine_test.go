package rxengine

import (
	"testing"

	"github.com/aistorerx/rxstream/dtype"
	"github.com/aistorerx/rxstream/epstate"
)

func TestCanCompleteExactMatch(t *testing.T) {
	req := &epstate.Request{Length: 4, Iter: dtype.NewContig(make([]byte, 4), 1)}
	req.Advance(4)
	if !canComplete(req) {
		t.Fatalf("offset==length must always complete")
	}
}

func TestCanCompleteZeroOffsetNeverCompletes(t *testing.T) {
	req := &epstate.Request{Length: 4, Iter: dtype.NewContig(make([]byte, 4), 1)}
	if canComplete(req) {
		t.Fatalf("zero-length completion must require offset>0")
	}
}

func TestCanCompleteWaitAllBlocksPartial(t *testing.T) {
	req := &epstate.Request{Length: 4, Flags: epstate.ReqWaitAll, Iter: dtype.NewContig(make([]byte, 4), 1)}
	req.Advance(2)
	if canComplete(req) {
		t.Fatalf("WAITALL must block partial completion")
	}
}

func TestCanCompleteNonContigAlwaysCompletesOnProgress(t *testing.T) {
	var iovBuf [4]byte
	req := &epstate.Request{Length: 4, Iter: dtype.NewIOV([]dtype.Iov{{Buf: iovBuf[:]}})}
	req.Advance(1)
	if !canComplete(req) {
		t.Fatalf("non-contig datatype completes on any forward progress")
	}
}

func TestCanCompleteContigGranularity(t *testing.T) {
	req := &epstate.Request{Length: 12, Iter: dtype.NewContig(make([]byte, 12), 4)}
	req.Advance(3)
	if canComplete(req) {
		t.Fatalf("offset=3 is not a multiple of elem_size=4")
	}
	req.Offset = 4
	if !canComplete(req) {
		t.Fatalf("offset=4 is a multiple of elem_size=4")
	}
}

func TestAlignDown(t *testing.T) {
	cases := []struct{ n, align, want int64 }{
		{10, 4, 8},
		{8, 4, 8},
		{3, 4, 0},
		{10, 1, 10},
	}
	for _, c := range cases {
		if got := alignDown(c.n, c.align); got != c.want {
			t.Fatalf("alignDown(%d,%d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}

func TestMatchPostedFIFOAndCompletion(t *testing.T) {
	ep := epstate.NewEndpoint(1)
	var gotA, gotB bool
	reqA := &epstate.Request{Length: 2, Iter: dtype.NewContig(make([]byte, 2), 1),
		Complete: func(*epstate.Request, int64, error) { gotA = true }}
	reqB := &epstate.Request{Length: 2, Iter: dtype.NewContig(make([]byte, 2), 1),
		Complete: func(*epstate.Request, int64, error) { gotB = true }}
	ep.PushReq(reqA)
	ep.PushReq(reqB)

	e := &Engine{}
	consumed := e.matchPosted(ep, []byte{1, 2, 3, 4})
	if consumed != 4 {
		t.Fatalf("consumed = %d, want 4", consumed)
	}
	if !gotA || !gotB {
		t.Fatalf("both requests should have completed: gotA=%v gotB=%v", gotA, gotB)
	}
	if ep.HasReq() {
		t.Fatalf("match_q should be empty of requests after full match")
	}
}

func TestEPInitAutoGeneratesDistinctIDs(t *testing.T) {
	e := newBareEngine()
	_, uuid1 := e.EPInitAuto()
	_, uuid2 := e.EPInitAuto()
	if uuid1 == uuid2 {
		t.Fatalf("expected distinct session UUIDs, got %q twice", uuid1)
	}
}

func TestMatchPostedStopsWhenResidueExceedsRequests(t *testing.T) {
	ep := epstate.NewEndpoint(1)
	req := &epstate.Request{Length: 2, Iter: dtype.NewContig(make([]byte, 2), 1)}
	ep.PushReq(req)

	e := &Engine{}
	consumed := e.matchPosted(ep, []byte{1, 2, 3, 4, 5})
	if consumed != 2 {
		t.Fatalf("consumed = %d, want 2 (only one request posted)", consumed)
	}
}
