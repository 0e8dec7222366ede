// Package wire implements the Clientbound/Serverbound message schema and
// binary codec described in §6. It has no dependency on the sector package:
// the connection layer translates between sector.ChunkSync and
// wire.SyncChunk, keeping the wire format ignorant of chunk lifecycle and
// the sector package ignorant of encoding.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer serializes a message as little-endian binary, one method per field
// shape. This mirrors gophertunnel's protocol.IO convention for per-type
// Marshal functions; that package itself isn't part of this module's
// dependency set, so the codec is written fresh in the same idiom.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Uint8 writes a single byte.
func (w *Writer) Uint8(v uint8) { w.write([]byte{v}) }

// Uint32 writes a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.write(b[:])
}

// Int32 writes a little-endian int32.
func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

// Uint64 writes a little-endian uint64.
func (w *Writer) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.write(b[:])
}

// Int64 writes a little-endian int64.
func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

// Float32 writes a little-endian IEEE-754 float32.
func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }

// VarUint32 writes v as a protobuf-style base-128 varint.
func (w *Writer) VarUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [5]byte
	n := binary.PutUvarint(buf[:], uint64(v))
	w.write(buf[:n])
}

// String writes a varint-length-prefixed UTF-8 string.
func (w *Writer) String(s string) {
	w.VarUint32(uint32(len(s)))
	w.write([]byte(s))
}

// Bytes writes a varint-length-prefixed byte slice.
func (w *Writer) Bytes(b []byte) {
	w.VarUint32(uint32(len(b)))
	w.write(b)
}

// Vec3 writes three little-endian float32s.
func (w *Writer) Vec3(v [3]float32) {
	w.Float32(v[0])
	w.Float32(v[1])
	w.Float32(v[2])
}

// IVec3 writes three little-endian int32s.
func (w *Writer) IVec3(v [3]int32) {
	w.Int32(v[0])
	w.Int32(v[1])
	w.Int32(v[2])
}

// ID writes a 64-bit sector id, stored as the bit-reinterpreted signed
// integer per §6's "Id wire/SQL form".
func (w *Writer) ID(id uint64) { w.Int64(int64(id)) }

// Reader deserializes a message previously produced by Writer. It operates
// over an already-decrypted, already-framed buffer (see server/conn), so it
// reads from a bytes.Reader rather than an arbitrary io.Reader.
type Reader struct {
	r   *bytes.Reader
	err error
}

// NewReader wraps b.
func NewReader(b []byte) *Reader { return &Reader{r: bytes.NewReader(b)} }

// Err returns the first error encountered, if any. Bytes left unread at the
// end of the buffer are not reported as an error.
func (r *Reader) Err() error { return r.err }

func (r *Reader) read(b []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, b)
}

// Uint8 reads a single byte.
func (r *Reader) Uint8() uint8 {
	var b [1]byte
	r.read(b[:])
	return b[0]
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() uint32 {
	var b [4]byte
	r.read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// Int32 reads a little-endian int32.
func (r *Reader) Int32() int32 { return int32(r.Uint32()) }

// Uint64 reads a little-endian uint64.
func (r *Reader) Uint64() uint64 {
	var b [8]byte
	r.read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Int64 reads a little-endian int64.
func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

// Float32 reads a little-endian IEEE-754 float32.
func (r *Reader) Float32() float32 { return math.Float32frombits(r.Uint32()) }

// VarUint32 reads a protobuf-style base-128 varint.
func (r *Reader) VarUint32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		r.err = err
		return 0
	}
	if v > math.MaxUint32 {
		r.err = fmt.Errorf("wire: varint overflows uint32")
		return 0
	}
	return uint32(v)
}

// String reads a varint-length-prefixed UTF-8 string.
func (r *Reader) String() string {
	n := r.VarUint32()
	b := make([]byte, n)
	r.read(b)
	return string(b)
}

// Bytes reads a varint-length-prefixed byte slice.
func (r *Reader) Bytes() []byte {
	n := r.VarUint32()
	b := make([]byte, n)
	r.read(b)
	return b
}

// Vec3 reads three little-endian float32s.
func (r *Reader) Vec3() [3]float32 {
	return [3]float32{r.Float32(), r.Float32(), r.Float32()}
}

// IVec3 reads three little-endian int32s.
func (r *Reader) IVec3() [3]int32 {
	return [3]int32{r.Int32(), r.Int32(), r.Int32()}
}

// ID reads a 64-bit sector id.
func (r *Reader) ID() uint64 { return uint64(r.Int64()) }
