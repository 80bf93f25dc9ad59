package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Scalar is an element type that can be uploaded directly.
type Scalar interface {
	~uint16 | ~uint32 | ~float32 | ~[2]float32 | ~[3]float32 | ~[4]float32
}

// Bytes reinterprets s as raw bytes without copying.
func Bytes[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}

// ReadFloat32s decodes native-endian float32 values from mapped memory.
// Decoding instead of aliasing keeps the result valid after unmap.
func ReadFloat32s(dst []float32, mem []byte) []float32 {
	n := len(mem) / 4
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = math.Float32frombits(binary.NativeEndian.Uint32(mem[i*4:]))
	}
	return dst
}

// ReadUint16s decodes native-endian uint16 values from mapped memory.
func ReadUint16s(dst []uint16, mem []byte) []uint16 {
	n := len(mem) / 2
	if cap(dst) < n {
		dst = make([]uint16, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = binary.NativeEndian.Uint16(mem[i*2:])
	}
	return dst
}

// PutFloat32s writes src into mapped memory starting at element offset.
func PutFloat32s(mem []byte, offset int, src ...float32) {
	for i, f := range src {
		binary.NativeEndian.PutUint32(mem[(offset+i)*4:], math.Float32bits(f))
	}
}
