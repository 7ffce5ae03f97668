package rdesc_test

import (
	"testing"

	"github.com/aistorerx/rxstream/rdesc"
)

func TestAdvancePartial(t *testing.T) {
	buf := []byte{0, 0, 'A', 'B', 'C', 'D'}
	d := rdesc.New(buf, 2, 4, 0, func([]byte) {})
	if got := d.Payload(); string(got) != "ABCD" {
		t.Fatalf("payload = %q, want ABCD", got)
	}
	if drained := d.Advance(2); drained {
		t.Fatalf("advance(2) of length 4 should not drain")
	}
	if got := d.Payload(); string(got) != "CD" {
		t.Fatalf("payload after partial advance = %q, want CD", got)
	}
	if d.Length() != 2 {
		t.Fatalf("length after partial advance = %d, want 2", d.Length())
	}
}

func TestAdvanceFullDrains(t *testing.T) {
	buf := []byte{'X', 'Y'}
	released := false
	d := rdesc.New(buf, 0, 2, 0, func([]byte) { released = true })
	if drained := d.Advance(2); !drained {
		t.Fatalf("advance(length) should drain")
	}
	d.Release()
	if !released {
		t.Fatalf("release callback not invoked")
	}
}

func TestFromTransportFlag(t *testing.T) {
	d := rdesc.New([]byte{1, 2, 3}, 0, 3, rdesc.FromTransportDesc, func([]byte) {})
	if !d.FromTransport() {
		t.Fatalf("expected FromTransport() true")
	}
}

func TestLendReleaseRoundTrip(t *testing.T) {
	var released bool
	buf := []byte{1, 2, 3, 4}
	d := rdesc.New(buf, 0, 4, 0, func([]byte) { released = true })

	lent := rdesc.Lend(d)
	if string(lent.Bytes) != string(buf) {
		t.Fatalf("lent bytes mismatch")
	}
	if !lent.Release() {
		t.Fatalf("expected first release to succeed")
	}
	if !released {
		t.Fatalf("underlying descriptor was not released")
	}
	// Second release on the same Lent must not double-release.
	if lent.Release() {
		t.Fatalf("expected second release to fail (already released)")
	}
}

func TestLendDistinctFingerprints(t *testing.T) {
	d1 := rdesc.New([]byte{1}, 0, 1, 0, func([]byte) {})
	d2 := rdesc.New([]byte{2}, 0, 1, 0, func([]byte) {})
	l1 := rdesc.Lend(d1)
	l2 := rdesc.Lend(d2)
	// Releasing l1 must never affect d2's descriptor.
	l1.Release()
	if !l2.Release() {
		t.Fatalf("unrelated lend was invalidated by a different lend's release")
	}
}
