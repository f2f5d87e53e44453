// Package tensor provides a minimal concrete tensor/storage library.
//
// The static inference runtime treats the tensor library as an external
// collaborator (see the project's runtime design notes): it only needs
// move semantics, a Storage that can be pointed at caller-supplied memory
// and later reset, and a small tagged IValue container. This package is
// that collaborator, kept intentionally small — it is not meant to grow
// into a general tensor library.
package tensor

import "fmt"

// Alignment is the minimum alignment the Memory Planner must respect when
// placing storages inside its pooled buffer.
const Alignment = 64

// AlignUp rounds n up to the next multiple of align.
func AlignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// Storage is a resizable view over a byte buffer. A Storage never owns the
// memory it points at after Reset is called: the data pointer is dropped
// but the Storage value itself survives, so Tensor objects built on top of
// it remain valid handles across Memory Planner allocate/deallocate
// cycles.
type Storage struct {
	data   []byte
	device string
}

// NewStorage wraps an existing byte slice. Used for unmanaged tensors that
// own their own memory (inputs, constants, graph outputs).
func NewStorage(data []byte) *Storage {
	return &Storage{data: data, device: "cpu"}
}

// SetDataPtrNoSwap repoints the storage at buf without going through any
// swap/move bookkeeping — this is what the Memory Planner calls during
// allocate() to hand a managed storage its slice of the pooled buffer.
func (s *Storage) SetDataPtrNoSwap(buf []byte) {
	s.data = buf
}

// SetNBytes truncates or extends the visible length of the storage's data
// pointer without reallocating; used when the Memory Planner assigns a
// storage a logical size smaller than the physical slice it was handed.
func (s *Storage) SetNBytes(n int) {
	if n > cap(s.data) {
		panic(fmt.Sprintf("tensor: SetNBytes(%d) exceeds capacity %d", n, cap(s.data)))
	}
	s.data = s.data[:n]
}

// Reset drops the data pointer (as the Memory Planner's deallocate() must
// do for every managed storage) while leaving the Storage value itself
// alive and reusable.
func (s *Storage) Reset() {
	s.data = nil
}

// NBytes reports the current visible length of the storage.
func (s *Storage) NBytes() int {
	return len(s.data)
}

// Data returns the raw bytes currently backing the storage. Nil after
// Reset.
func (s *Storage) Data() []byte {
	return s.data
}

// Device reports the device the storage is resident on. Always "cpu" in
// this runtime — device placement and accelerator backends are out of
// scope.
func (s *Storage) Device() string {
	return s.device
}

// Float32 reinterprets the storage's bytes as a float32 slice. Panics if
// the byte length is not a multiple of 4, matching the tensor library's
// fixed single dtype (float32) for this runtime — dtype polymorphism is
// out of scope.
func (s *Storage) Float32() []float32 {
	if len(s.data)%4 != 0 {
		panic(fmt.Sprintf("tensor: storage length %d not a multiple of 4", len(s.data)))
	}
	out := make([]float32, len(s.data)/4)
	for i := range out {
		out[i] = bytesToFloat32(s.data[i*4 : i*4+4])
	}
	return out
}

// SetFloat32 writes vals into the storage as raw little-endian bytes,
// resizing the backing slice if necessary.
func (s *Storage) SetFloat32(vals []float32) {
	need := len(vals) * 4
	if cap(s.data) < need {
		s.data = make([]byte, need)
	} else {
		s.data = s.data[:need]
	}
	for i, v := range vals {
		float32ToBytes(s.data[i*4:i*4+4], v)
	}
}
