package ase

import (
	"encoding/binary"
	"fmt"
)

var le = binary.LittleEndian

// reader is a bounds-checked little-endian cursor over a byte slice.
// Every read either advances the position or fails with ErrTruncatedInput.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

// len returns the number of unread bytes.
func (r *reader) len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

func (r *reader) tell() int {
	return r.pos
}

func (r *reader) seek(pos int) error {
	if pos < 0 || pos > len(r.data) {
		return fmt.Errorf("%w: seek to %d of %d", ErrTruncatedInput, pos, len(r.data))
	}
	r.pos = pos
	return nil
}

func (r *reader) need(n int) error {
	if n < 0 || n > r.len() {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, r.pos, r.len())
	}
	return nil
}

func (r *reader) skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := le.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := le.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// bytes returns the next n bytes as a copy.
func (r *reader) bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// sub returns a reader over the next n bytes and advances past them.
func (r *reader) sub(n int) (*reader, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	s := &reader{data: r.data[r.pos : r.pos+n]}
	r.pos += n
	return s, nil
}

// str reads a u16 length-prefixed UTF-8 string.
func (r *reader) str() (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// writer appends little-endian values to a growing buffer. Length fields
// are reserved first and patched once their content has been written.
type writer struct {
	buf []byte
}

func (w *writer) tell() int {
	return len(w.buf)
}

func (w *writer) bytes() []byte {
	return w.buf
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = le.AppendUint16(w.buf, v)
}

func (w *writer) i16(v int16) {
	w.u16(uint16(v))
}

func (w *writer) u32(v uint32) {
	w.buf = le.AppendUint32(w.buf, v)
}

func (w *writer) write(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *writer) zeros(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// str writes a u16 length-prefixed string.
func (w *writer) str(s string) error {
	n, err := u16FromInt(len(s))
	if err != nil {
		return fmt.Errorf("%w: string of %d bytes", err, len(s))
	}
	w.u16(n)
	w.buf = append(w.buf, s...)
	return nil
}

// reserve32 writes a zero u32 placeholder and returns its offset.
func (w *writer) reserve32() int {
	pos := len(w.buf)
	w.u32(0)
	return pos
}

func (w *writer) patch32(pos int, v uint32) {
	le.PutUint32(w.buf[pos:], v)
}

// patchSize writes the number of bytes emitted since pos (inclusive of the
// placeholder itself) into the u32 placeholder at pos.
func (w *writer) patchSize(pos int) error {
	n, err := u32FromInt(len(w.buf) - pos)
	if err != nil {
		return err
	}
	w.patch32(pos, n)
	return nil
}
