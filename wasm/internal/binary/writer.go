package binary

import (
	"bytes"
	"encoding/binary"
)

// Sink receives encoded bytes. *bytes.Buffer and *Counter both satisfy it.
type Sink interface {
	WriteByte(c byte) error
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
}

// Counter is a Sink that only tracks how many bytes were written.
type Counter struct {
	n int
}

// WriteByte implements Sink.
func (c *Counter) WriteByte(byte) error {
	c.n++
	return nil
}

// Write implements Sink.
func (c *Counter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

// WriteString implements Sink.
func (c *Counter) WriteString(s string) (int, error) {
	c.n += len(s)
	return len(s), nil
}

// Len returns the number of bytes written so far.
func (c *Counter) Len() int {
	return c.n
}

// Writer provides WASM binary encoding helpers over a Sink.
type Writer struct {
	sink Sink
	buf  *bytes.Buffer
	n    int
}

// NewWriter creates a Writer backed by an in-memory buffer.
func NewWriter() *Writer {
	buf := &bytes.Buffer{}
	return &Writer{sink: buf, buf: buf}
}

// NewCountingWriter creates a Writer that discards bytes and only counts them.
func NewCountingWriter() *Writer {
	return &Writer{sink: &Counter{}}
}

// Bytes returns the written bytes. It is nil for counting writers.
func (w *Writer) Bytes() []byte {
	if w.buf == nil {
		return nil
	}
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.n
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	_ = w.sink.WriteByte(b)
	w.n++
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	n, _ := w.sink.Write(data)
	w.n += n
}

// WriteU32 writes an unsigned LEB128 encoded uint32.
func (w *Writer) WriteU32(v uint32) {
	w.WriteU64(uint64(v))
}

// WriteU64 writes an unsigned LEB128 encoded uint64.
func (w *Writer) WriteU64(v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.Byte(b)
		if v == 0 {
			return
		}
	}
}

// WriteS64 writes a signed LEB128 encoded int64.
func (w *Writer) WriteS64(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		w.Byte(b)
		if done {
			return
		}
	}
}

// WriteName writes a UTF-8 encoded name (length-prefixed).
func (w *Writer) WriteName(s string) {
	w.WriteU32(uint32(len(s)))
	n, _ := w.sink.WriteString(s)
	w.n += n
}

// WriteU32LE writes a little-endian uint32 (fixed 4 bytes).
func (w *Writer) WriteU32LE(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.WriteBytes(buf[:])
}

// WriteU64LE writes a little-endian uint64 (fixed 8 bytes).
func (w *Writer) WriteU64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	w.WriteBytes(buf[:])
}

// SizeU32 returns the number of bytes WriteU32 would emit for v.
func SizeU32(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
