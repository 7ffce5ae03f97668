// Package memsys provides size-classed buffer pooling for receive
// descriptors, adapted from the teacher's own memsys contract.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package memsys_test

import (
	"sync"
	"testing"
	"time"

	"github.com/aistorerx/rxstream/memsys"
)

func TestAllocReturnsRequestedLength(t *testing.T) {
	mm := &memsys.MMSA{Name: "amem", TimeIval: 20 * time.Second, MinFree: 1 << 20}
	mm.Init(0)

	for _, n := range []int{1, 100, 4096, 16385, 1 << 21} {
		buf := mm.Alloc(n)
		if len(buf) != n {
			t.Fatalf("Alloc(%d) returned len=%d", n, len(buf))
		}
		mm.Free(buf)
	}
}

func TestFreeReturnsBufferToPool(t *testing.T) {
	mm := &memsys.MMSA{Name: "bmem"}
	mm.Init(0)

	buf := mm.Alloc(4096)
	mm.Free(buf)
	allocs, frees := mm.Stats()
	if allocs != 1 || frees != 1 {
		t.Fatalf("allocs=%d frees=%d, want 1/1", allocs, frees)
	}
}

func TestInUseBytesTracksOutstandingAllocations(t *testing.T) {
	mm := &memsys.MMSA{Name: "dmem"}
	mm.Init(0)

	if mm.InUseBytes() != 0 {
		t.Fatalf("InUseBytes = %d, want 0 before any allocation", mm.InUseBytes())
	}
	a := mm.Alloc(4096)
	b := mm.Alloc(1 << 21) // oversized, falls outside every pooled size class
	if got := mm.InUseBytes(); got != 4096+(1<<21) {
		t.Fatalf("InUseBytes = %d, want %d", got, 4096+(1<<21))
	}
	mm.Free(a)
	if got := mm.InUseBytes(); got != 1<<21 {
		t.Fatalf("InUseBytes after freeing a = %d, want %d", got, 1<<21)
	}
	mm.Free(b)
	if mm.InUseBytes() != 0 {
		t.Fatalf("InUseBytes = %d, want 0 after both frees", mm.InUseBytes())
	}
}

func TestPageMMIsASingleton(t *testing.T) {
	a := memsys.PageMM()
	b := memsys.PageMM()
	if a != b {
		t.Fatalf("PageMM() returned distinct instances")
	}
}

func TestConcurrentAllocFree(t *testing.T) {
	mm := &memsys.MMSA{Name: "cmem"}
	mm.Init(0)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				buf := mm.Alloc(1024 + id)
				buf[0] = byte(id)
				mm.Free(buf)
			}
		}(i)
	}
	wg.Wait()
}
