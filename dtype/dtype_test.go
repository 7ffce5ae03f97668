package dtype_test

import (
	"testing"

	"github.com/aistorerx/rxstream/dtype"
)

func TestContigUnpack(t *testing.T) {
	dst := make([]byte, 4)
	it := dtype.NewContig(dst, 1)
	n, err := it.Unpack([]byte{'A', 'B', 'C', 'D'}, 0, true)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	if string(dst) != "ABCD" {
		t.Fatalf("dst = %q, want ABCD", dst)
	}
}

func TestContigUnpackAtOffset(t *testing.T) {
	dst := make([]byte, 8)
	it := dtype.NewContig(dst, 1)
	if _, err := it.Unpack([]byte{1, 2, 3}, 0, false); err != nil {
		t.Fatal(err)
	}
	if _, err := it.Unpack([]byte{4, 5}, 3, false); err != nil {
		t.Fatal(err)
	}
	if _, err := it.Unpack([]byte{6, 7, 8}, 5, true); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestIOVUnpackSpansSegments(t *testing.T) {
	a := make([]byte, 2)
	b := make([]byte, 3)
	it := dtype.NewIOV([]dtype.Iov{{Buf: a}, {Buf: b}})
	n, err := it.Unpack([]byte{1, 2, 3, 4, 5}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("n = %d, want 5", n)
	}
	if a[0] != 1 || a[1] != 2 {
		t.Fatalf("iov segment a mismatch: %v", a)
	}
	if b[0] != 3 || b[1] != 4 || b[2] != 5 {
		t.Fatalf("iov segment b mismatch: %v", b)
	}
}

type fakePacker struct {
	got []byte
}

func (p *fakePacker) Unpack(offset int64, src []byte) (int64, error) {
	if int64(len(p.got)) < offset+int64(len(src)) {
		grown := make([]byte, offset+int64(len(src)))
		copy(grown, p.got)
		p.got = grown
	}
	copy(p.got[offset:], src)
	return int64(len(src)), nil
}

func TestGenericUnpackDelegates(t *testing.T) {
	p := &fakePacker{}
	it := dtype.NewGeneric(p, 4)
	n, err := it.Unpack([]byte{9, 9, 9, 9}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("n = %d, want 4", n)
	}
	if len(p.got) != 4 {
		t.Fatalf("packer did not receive bytes")
	}
}

func TestContigUnpackWithChunkSize(t *testing.T) {
	dst := make([]byte, 10)
	it := dtype.NewContig(dst, 1)
	it.SetChunkSize(3)
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	n, err := it.Unpack(src, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(src)) {
		t.Fatalf("n = %d, want %d", n, len(src))
	}
	for i := range src {
		if dst[i] != src[i] {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], src[i])
		}
	}
}

func TestElemSizeDefaultsToOne(t *testing.T) {
	it := dtype.NewContig(make([]byte, 1), 0)
	if it.ElemSize() != 1 {
		t.Fatalf("elem size = %d, want 1", it.ElemSize())
	}
}
