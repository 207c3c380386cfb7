package ase

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/klauspost/compress/zlib"
)

const (
	fileMagic  = 0xA5E0
	headerSize = 128

	headerFlagLayerOpacity = 1
	headerFlagLayerUUID    = 4

	defaultGridSize = 16
)

// DecodeOptions configures decoding. Nil means defaults.
type DecodeOptions struct {
	// ResolveLinkedCels turns linked cels into copies of the cel they point
	// to. Without it a linked cel fails with ErrUnsupportedCelType.
	ResolveLinkedCels bool
}

// EncodeOptions configures encoding. Nil means defaults.
type EncodeOptions struct {
	// Compression is the cel payload encoding. Zero value is CelTypeRaw;
	// use DefaultEncodeOptions for the authoring tool's deflate.
	Compression CelType
	// DeflateLevel is the zlib level for CelTypeCompressed; 0 selects the
	// library default.
	DeflateLevel int
}

// DefaultEncodeOptions returns options matching what the authoring tool writes.
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{Compression: CelTypeCompressed}
}

func (o *EncodeOptions) compression() CelType {
	if o == nil {
		return CelTypeCompressed
	}
	return o.Compression
}

func (o *EncodeOptions) deflateLevel() int {
	if o == nil || o.DeflateLevel == 0 {
		return zlib.DefaultCompression
	}
	return o.DeflateLevel
}

// Config is the file header summary returned by DecodeConfig.
type Config struct {
	FileSize         int
	Frames           int
	Width, Height    int
	ColorMode        ColorMode
	Speed            int
	TransparentIndex uint8
	PaletteSize      int
	Flags            uint32
}

func readHeader(r *reader) (Config, error) {
	var cfg Config
	size, err := r.u32()
	if err != nil {
		return cfg, fmt.Errorf("file header: %w", err)
	}
	magic, err := r.u16()
	if err != nil {
		return cfg, fmt.Errorf("file header: %w", err)
	}
	if magic != fileMagic {
		return cfg, fmt.Errorf("%w: 0x%04x", ErrBadFileMagic, magic)
	}
	if r.len() < headerSize-6 {
		return cfg, fmt.Errorf("%w: file header needs %d bytes, have %d", ErrTruncatedInput, headerSize, r.len()+6)
	}

	// the length check above makes these reads infallible
	frames, _ := r.u16()
	width, _ := r.u16()
	height, _ := r.u16()
	depth, _ := r.u16()
	flags, _ := r.u32()
	speed, _ := r.u16()
	_ = r.skip(8)
	transparent, _ := r.u8()
	_ = r.skip(3)
	colors, _ := r.u16()
	// pixel ratio, grid and reserved bytes
	_ = r.skip(headerSize - 34)

	mode, ok := colorModeFromDepth(depth)
	if !ok {
		return cfg, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedColorDepth, depth)
	}

	cfg = Config{
		FileSize:         int(size),
		Frames:           int(frames),
		Width:            int(width),
		Height:           int(height),
		ColorMode:        mode,
		Speed:            int(speed),
		TransparentIndex: transparent,
		PaletteSize:      int(colors),
		Flags:            flags,
	}
	return cfg, nil
}

func writeHeader(w *writer, s *Sprite) {
	w.reserve32()
	w.u16(fileMagic)
	w.u16(uint16(len(s.Frames)))
	w.u16(uint16(s.Width))
	w.u16(uint16(s.Height))
	w.u16(s.ColorMode.depthBits())
	flags := uint32(headerFlagLayerOpacity)
	if s.hasLayerUUIDs() {
		flags |= headerFlagLayerUUID
	}
	w.u32(flags)
	w.u16(uint16(s.Speed))
	w.zeros(8)
	w.u8(s.TransparentIndex)
	w.zeros(3)
	w.u16(uint16(len(s.Palette)))
	w.u8(1)
	w.u8(1)
	w.i16(0)
	w.i16(0)
	w.u16(defaultGridSize)
	w.u16(defaultGridSize)
	w.zeros(headerSize - w.tell())
}

// DecodeConfig reads only the file header.
func DecodeConfig(r io.Reader) (Config, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Config{}, fmt.Errorf("%w: file header: %v", ErrTruncatedInput, err)
	}
	return readHeader(newReader(buf))
}

// Decode decodes a complete sprite file held in memory.
func Decode(data []byte) (*Sprite, error) {
	return DecodeContext(context.Background(), data, nil)
}

// DecodeWithOptions decodes data with the given options.
func DecodeWithOptions(data []byte, opts *DecodeOptions) (*Sprite, error) {
	return DecodeContext(context.Background(), data, opts)
}

// DecodeContext decodes data, checking ctx between frames.
func DecodeContext(ctx context.Context, data []byte, opts *DecodeOptions) (*Sprite, error) {
	r := newReader(data)
	cfg, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if cfg.FileSize < headerSize || cfg.FileSize > len(data) {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d", ErrTruncatedInput, cfg.FileSize, len(data))
	}
	if cfg.FileSize < len(data) {
		glog.Warningf("ase: ignoring %d bytes after declared file size %d", len(data)-cfg.FileSize, cfg.FileSize)
		r = newReader(data[:cfg.FileSize])
		_ = r.seek(headerSize)
	}

	d := &decoder{
		opts: opts,
		ctx: chunkContext{
			colorMode: cfg.ColorMode,
			layerUUID: cfg.Flags&headerFlagLayerUUID != 0,
		},
		sprite: &Sprite{
			Speed:            cfg.Speed,
			Width:            cfg.Width,
			Height:           cfg.Height,
			ColorMode:        cfg.ColorMode,
			TransparentIndex: cfg.TransparentIndex,
		},
		frameCount: cfg.Frames,
	}
	d.sprite.Frames = make([]Frame, 0, min(cfg.Frames, r.len()/frameHeaderSize))

	for i := 0; i < cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.readFrame(r, i); err != nil {
			return nil, err
		}
	}

	return d.sprite, nil
}

// Encode encodes s with the default deflate cel compression.
func Encode(s *Sprite) ([]byte, error) {
	return EncodeWithOptions(s, nil)
}

// EncodeWithOptions encodes s into a complete file. The sprite is validated
// first; invariant violations wrap ErrEncoding.
func EncodeWithOptions(s *Sprite, opts *EncodeOptions) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil sprite", ErrEncoding)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if c := opts.compression(); !c.IsPixelEncoding() {
		return nil, fmt.Errorf("%w: %w: %s", ErrEncoding, ErrUnsupportedCelType, c)
	}

	e := &encoder{opts: opts, sprite: s}
	writeHeader(&e.w, s)
	for i := range s.Frames {
		if err := e.writeFrame(i); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
		}
	}
	if err := e.w.patchSize(0); err != nil {
		return nil, fmt.Errorf("%w: file size: %w", ErrEncoding, err)
	}

	return e.w.bytes(), nil
}
