package tensor

// Tensor is a shaped view over a Storage. Multiple Tensors may share the
// same Storage (a view op's output shares storage with one of its
// inputs); the Memory Planner reasons about Storage identity, not Tensor
// identity, for exactly this reason.
type Tensor struct {
	shape   []int
	storage *Storage
}

// New creates a Tensor with its own freshly allocated Storage.
func New(shape []int) *Tensor {
	n := numel(shape)
	return &Tensor{shape: shape, storage: NewStorage(make([]byte, n*4))}
}

// FromFloat32 creates a Tensor backed by a copy of vals, with the given
// shape. len(vals) must equal the product of shape.
func FromFloat32(shape []int, vals []float32) *Tensor {
	t := New(shape)
	t.storage.SetFloat32(vals)
	return t
}

// View creates a Tensor over an existing Storage with a new shape — the
// mechanism view ops (reshape, permute, narrow) use to alias a producer's
// storage rather than copy it.
func View(storage *Storage, shape []int) *Tensor {
	return &Tensor{shape: shape, storage: storage}
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Shape returns the tensor's dimensions.
func (t *Tensor) Shape() []int { return t.shape }

// Numel returns the number of elements.
func (t *Tensor) Numel() int { return numel(t.shape) }

// Storage returns the backing storage.
func (t *Tensor) Storage() *Storage { return t.storage }

// Data returns the tensor's elements as float32. Panics if the storage has
// been reset (data pointer dropped) — callers must not read a managed
// tensor's data between a Memory Planner deallocate() and the next
// allocate().
func (t *Tensor) Data() []float32 {
	return t.storage.Float32()[:t.Numel()]
}

// SetStorage repoints the tensor at a different storage, preserving its
// shape. The Memory Planner does not use it: it rebinds a managed
// tensor's existing Storage in place with SetDataPtrNoSwap.
func (t *Tensor) SetStorage(s *Storage) {
	t.storage = s
}

// Resize changes a tensor's logical shape in place, without touching its
// Storage. Out-variant kernels call this before writing: the Processed
// Node's pre-bound output tensor starts with whatever shape (or none) it
// last had, and the out-variant is responsible for resizing it to match
// the operator's actual result shape, exactly as the real tensor
// library's out-variant kernels resize their destination before writing.
func (t *Tensor) Resize(shape []int) {
	t.shape = shape
}

// SameShape reports whether two tensors have identical dimensions.
func SameShape(a, b *Tensor) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}
