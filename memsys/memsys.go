// Package memsys provides size-classed buffer pooling for receive
// descriptors. Only the teacher's test for this package was retrieved
// (memsys/a_test.go); that test documents the contract this implementation
// targets: an MMSA{Name, TimeIval, MinFree} value, Init(seed), and
// size-classed Alloc/Free of reusable byte buffers, with PageMM() as the
// process-wide default instance.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	PageSize        = 4 << 10  // 4KB
	DefaultBufSize  = 32 << 10 // 32KB
	MaxPageSlabSize = 1 << 20  // 1MB
)

var dfltSizeClasses = []int{PageSize, 16 << 10, DefaultBufSize, 64 << 10, MaxPageSlabSize}

// MMSA is a Multi-size Memory Slab Allocator: one sync.Pool per size class,
// sized up to MaxPageSlabSize. Anything larger than the top size class is
// allocated directly and never pooled.
type MMSA struct {
	Name     string
	TimeIval time.Duration
	MinFree  int64

	mu     sync.Mutex
	pools  map[int]*sync.Pool
	sizes  []int
	allocs atomic.Int64
	frees  atomic.Int64
	inUse  atomic.Int64
}

var (
	dfltOnce sync.Once
	dflt     *MMSA
)

// PageMM returns the process-wide default allocator, created lazily on
// first use - mirroring the teacher's transport.Init() -> memsys.PageMM().
func PageMM() *MMSA {
	dfltOnce.Do(func() {
		dflt = &MMSA{Name: "page-mm"}
		dflt.Init(0)
	})
	return dflt
}

// Init prepares the size classes. seed is accepted for parity with the
// teacher's API (reserved for future salted-allocation diagnostics) and
// otherwise unused.
func (mm *MMSA) Init(_ int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.pools != nil {
		return
	}
	mm.sizes = append([]int(nil), dfltSizeClasses...)
	mm.pools = make(map[int]*sync.Pool, len(mm.sizes))
	for _, sz := range mm.sizes {
		sz := sz
		mm.pools[sz] = &sync.Pool{New: func() any { return make([]byte, sz) }}
	}
}

func (mm *MMSA) sizeClass(n int) int {
	for _, sz := range mm.sizes {
		if n <= sz {
			return sz
		}
	}
	return n
}

// Alloc returns a buffer of at least n bytes, sliced down to exactly n.
func (mm *MMSA) Alloc(n int) []byte {
	sc := mm.sizeClass(n)
	mm.mu.Lock()
	pool, ok := mm.pools[sc]
	mm.mu.Unlock()
	if !ok {
		mm.allocs.Add(1)
		mm.inUse.Add(int64(n))
		return make([]byte, n)
	}
	buf := pool.Get().([]byte)
	mm.allocs.Add(1)
	mm.inUse.Add(int64(n))
	return buf[:n]
}

// Free returns buf to its size class pool. Buffers whose capacity doesn't
// match a known size class (e.g. oversized allocations) have their bytes
// untracked from InUseBytes but are otherwise simply dropped.
func (mm *MMSA) Free(buf []byte) {
	if buf == nil {
		return
	}
	mm.inUse.Add(-int64(len(buf)))
	sc := cap(buf)
	mm.mu.Lock()
	pool, ok := mm.pools[sc]
	mm.mu.Unlock()
	if !ok {
		return
	}
	pool.Put(buf[:sc])
	mm.frees.Add(1)
}

func (mm *MMSA) Stats() (allocs, frees int64) {
	return mm.allocs.Load(), mm.frees.Load()
}

// InUseBytes reports how many bytes are currently checked out via Alloc and
// not yet returned via Free - what metrics.Set.SetPoolBytes exposes as
// rxstream_pool_bytes_in_use.
func (mm *MMSA) InUseBytes() int64 { return mm.inUse.Load() }
