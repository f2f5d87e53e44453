package tensor

import (
	"encoding/binary"
	"math"
)

// bytesToFloat32 and float32ToBytes are grounded on sbl8-sublation's
// runtime/arena.go FloatsToBytes/BytesToFloats helpers, generalized to
// operate on a single value at a time for use inside Storage.
func bytesToFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func float32ToBytes(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}
