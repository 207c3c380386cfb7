package ase

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestReaderValues(t *testing.T) {
	t.Parallel()

	data := []byte{
		0x7f,
		0x34, 0x12,
		0xfe, 0xff,
		0x78, 0x56, 0x34, 0x12,
		0x02, 0x00, 'h', 'i',
		0xaa, 0xbb,
	}
	r := newReader(data)

	u8, err := r.u8()
	if err != nil || u8 != 0x7f {
		t.Fatalf("u8 = %#x, %v", u8, err)
	}
	u16, err := r.u16()
	if err != nil || u16 != 0x1234 {
		t.Fatalf("u16 = %#x, %v", u16, err)
	}
	i16, err := r.i16()
	if err != nil || i16 != -2 {
		t.Fatalf("i16 = %d, %v", i16, err)
	}
	u32, err := r.u32()
	if err != nil || u32 != 0x12345678 {
		t.Fatalf("u32 = %#x, %v", u32, err)
	}
	s, err := r.str()
	if err != nil || s != "hi" {
		t.Fatalf("str = %q, %v", s, err)
	}
	if r.tell() != 13 || r.len() != 2 {
		t.Fatalf("position %d with %d left", r.tell(), r.len())
	}

	sub, err := r.sub(2)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if r.len() != 0 || sub.len() != 2 {
		t.Fatalf("sub did not advance parent: parent %d, sub %d", r.len(), sub.len())
	}
	if _, err := sub.u32(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("reading past sub end: expected ErrTruncatedInput, got %v", err)
	}
}

func TestReaderTruncation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		read func(r *reader) error
	}{
		{name: "u8", data: nil, read: func(r *reader) error { _, err := r.u8(); return err }},
		{name: "u16", data: []byte{1}, read: func(r *reader) error { _, err := r.u16(); return err }},
		{name: "u32", data: []byte{1, 2, 3}, read: func(r *reader) error { _, err := r.u32(); return err }},
		{name: "skip", data: []byte{1, 2}, read: func(r *reader) error { return r.skip(3) }},
		{name: "negative-skip", data: []byte{1, 2}, read: func(r *reader) error { return r.skip(-1) }},
		{name: "bytes", data: []byte{1, 2}, read: func(r *reader) error { _, err := r.bytes(5); return err }},
		{name: "str-body", data: []byte{5, 0, 'a'}, read: func(r *reader) error { _, err := r.str(); return err }},
		{name: "seek", data: []byte{1}, read: func(r *reader) error { return r.seek(2) }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newReader(tc.data)
			if err := tc.read(r); !errors.Is(err, ErrTruncatedInput) {
				t.Fatalf("expected ErrTruncatedInput, got %v", err)
			}
		})
	}
}

func TestWriterPatchSize(t *testing.T) {
	t.Parallel()

	var w writer
	w.u8(9)
	pos := w.reserve32()
	w.u16(0xA5E0)
	w.i16(-1)
	if err := w.str("abc"); err != nil {
		t.Fatalf("str: %v", err)
	}
	w.zeros(2)
	if err := w.patchSize(pos); err != nil {
		t.Fatalf("patchSize: %v", err)
	}

	want := []byte{
		9,
		15, 0, 0, 0,
		0xe0, 0xa5,
		0xff, 0xff,
		3, 0, 'a', 'b', 'c',
		0, 0,
	}
	if !bytes.Equal(w.bytes(), want) {
		t.Fatalf("writer bytes = % x, want % x", w.bytes(), want)
	}
}

func TestWriterStringTooLong(t *testing.T) {
	t.Parallel()

	var w writer
	err := w.str(strings.Repeat("x", maxUint16+1))
	if !errors.Is(err, ErrSizeOverflow) {
		t.Fatalf("expected ErrSizeOverflow, got %v", err)
	}
	if w.tell() != 0 {
		t.Fatalf("failed str wrote %d bytes", w.tell())
	}
}
