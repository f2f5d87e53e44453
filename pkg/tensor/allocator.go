package tensor

import "sync"

// Allocator is the caching allocator the Memory Planner consults for its
// pooled buffer. Per-node allocations remain the responsibility of the
// kernels themselves; this allocator exists solely to hand out and reclaim
// the one big contiguous region the planner manages.
type Allocator interface {
	Allocate(size int) []byte
	Free(buf []byte)
}

// cachingAllocator pools buffers by size class using sync.Pool, grounded
// on sbl8-sublation's core.SublatePool buffer pooling.
type cachingAllocator struct {
	pools sync.Map // size class (int) -> *sync.Pool
}

// NewCachingAllocator returns the default Allocator implementation.
func NewCachingAllocator() Allocator {
	return &cachingAllocator{}
}

func sizeClass(size int) int {
	return AlignUp(size, Alignment)
}

func (a *cachingAllocator) Allocate(size int) []byte {
	if size == 0 {
		return nil
	}
	class := sizeClass(size)
	poolIface, _ := a.pools.LoadOrStore(class, &sync.Pool{
		New: func() any {
			return make([]byte, class)
		},
	})
	pool := poolIface.(*sync.Pool)
	buf := pool.Get().([]byte)
	return buf[:size]
}

func (a *cachingAllocator) Free(buf []byte) {
	if buf == nil {
		return
	}
	class := sizeClass(cap(buf))
	poolIface, ok := a.pools.Load(class)
	if !ok {
		return
	}
	pool := poolIface.(*sync.Pool)
	pool.Put(buf[:cap(buf)])
}
