package ase

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// CelType is the on-disk cel kind. Raw, Compressed, RLE and LZ4 carry pixel
// payloads; Linked and Tilemap do not map to pixel data.
type CelType uint16

const (
	// CelTypeRaw stores pixels uncompressed.
	CelTypeRaw CelType = 0
	// CelTypeLinked points at a cel of an earlier frame.
	CelTypeLinked CelType = 1
	// CelTypeCompressed stores pixels as a zlib stream.
	CelTypeCompressed CelType = 2
	// CelTypeTilemap stores tile indices; not decoded.
	CelTypeTilemap CelType = 3

	// Extension payload encodings, kept in a private range so they never
	// collide with types the authoring tool may add.

	// CelTypeRLE stores pixels as PackBits runs restarted per row.
	CelTypeRLE CelType = 0x8001
	// CelTypeLZ4 stores pixels as one LZ4 block.
	CelTypeLZ4 CelType = 0x8002
)

func (t CelType) String() string {
	switch t {
	case CelTypeRaw:
		return "raw"
	case CelTypeLinked:
		return "linked"
	case CelTypeCompressed:
		return "deflate"
	case CelTypeTilemap:
		return "tilemap"
	case CelTypeRLE:
		return "rle"
	case CelTypeLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("CelType(0x%04x)", uint16(t))
	}
}

// IsPixelEncoding reports whether t stores an image payload this package can
// encode and decode.
func (t CelType) IsPixelEncoding() bool {
	switch t {
	case CelTypeRaw, CelTypeCompressed, CelTypeRLE, CelTypeLZ4:
		return true
	default:
		return false
	}
}

// ParseCelType maps a compression name to its cel type.
func ParseCelType(name string) (CelType, error) {
	for _, t := range []CelType{CelTypeRaw, CelTypeCompressed, CelTypeRLE, CelTypeLZ4} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCelType, name)
}

// Largest output to input ratio each compressed encoding can reach.
const (
	maxDeflateExpansion = 1032
	maxLZ4Expansion     = 255
	maxRLEExpansion     = (rleMaxPacket + 3) / 2
)

// decodePixels turns a cel payload into exactly expected raw bytes.
func decodePixels(t CelType, payload []byte, expected int) ([]byte, error) {
	if expected == 0 && len(payload) == 0 {
		return nil, nil
	}
	if limit := expansionLimit(t); limit > 0 && int64(expected) > int64(len(payload)+16)*limit {
		return nil, fmt.Errorf("%w: %s payload of %d bytes cannot hold %d", ErrSizeMismatch, t, len(payload), expected)
	}

	switch t {
	case CelTypeRaw:
		if len(payload) != expected {
			return nil, fmt.Errorf("%w: raw expected %d, got %d", ErrSizeMismatch, expected, len(payload))
		}
		out := make([]byte, len(payload))
		copy(out, payload)
		return out, nil

	case CelTypeCompressed:
		return inflate(payload, expected)

	case CelTypeRLE:
		return decodeRLE(payload, expected)

	case CelTypeLZ4:
		if expected == 0 {
			return nil, fmt.Errorf("%w: LZ4 payload of %d bytes for empty cel", ErrSizeMismatch, len(payload))
		}
		out := make([]byte, expected)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLZ4Decode, err)
		}
		if n != expected {
			return nil, fmt.Errorf("%w: LZ4 expected %d, got %d", ErrSizeMismatch, expected, n)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCelType, t)
	}
}

func expansionLimit(t CelType) int64 {
	switch t {
	case CelTypeCompressed:
		return maxDeflateExpansion
	case CelTypeLZ4:
		return maxLZ4Expansion
	case CelTypeRLE:
		return maxRLEExpansion
	default:
		return 0
	}
}

// inflate reads a zlib stream, stopping one byte past expected so oversized
// streams are reported without inflating them completely.
func inflate(payload []byte, expected int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInflate, err)
	}
	defer func() { _ = zr.Close() }()

	var out bytes.Buffer
	out.Grow(expected)
	if _, err := io.Copy(&out, io.LimitReader(zr, int64(expected)+1)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInflate, err)
	}
	if out.Len() != expected {
		return nil, fmt.Errorf("%w: inflated expected %d, got %d", ErrSizeMismatch, expected, out.Len())
	}

	return out.Bytes(), nil
}

// encodePixels compresses pixels with the requested encoding. It returns the
// cel type actually used: LZ4 falls back to raw for incompressible data.
func encodePixels(t CelType, pixels []byte, stride, level int) (CelType, []byte, error) {
	if len(pixels) == 0 {
		return t, nil, nil
	}

	switch t {
	case CelTypeRaw:
		return t, pixels, nil

	case CelTypeCompressed:
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrDeflate, err)
		}
		if _, err := zw.Write(pixels); err != nil {
			_ = zw.Close()
			return 0, nil, fmt.Errorf("%w: %v", ErrDeflate, err)
		}
		if err := zw.Close(); err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrDeflate, err)
		}
		return t, buf.Bytes(), nil

	case CelTypeRLE:
		return t, encodeRLE(pixels, stride), nil

	case CelTypeLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(pixels)))
		n, err := lz4.CompressBlockHC(pixels, dst, 0, nil, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrLZ4Compress, err)
		}
		if n == 0 {
			return CelTypeRaw, pixels, nil
		}
		return t, dst[:n], nil

	default:
		return 0, nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedCelType, t)
	}
}
