package ase

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Chunk type tags.
const (
	chunkOldPalette     uint16 = 0x0004
	chunkOldPalette6Bit uint16 = 0x0011
	chunkLayer          uint16 = 0x2004
	chunkCel            uint16 = 0x2005
	chunkTags           uint16 = 0x2018
	chunkPalette        uint16 = 0x2019

	chunkHeaderSize = 6

	paletteEntryHasName = 1
	tagFixedSize        = 17
	maxPaletteSize      = 1 << 16
)

// chunk is one decoded chunk body. The set of implementations is closed:
// palette, old palette, layer, cel, tags and unknown.
type chunk interface {
	chunkType() uint16
	encodeBody(w *writer) error
}

// chunkContext carries document state a chunk body depends on.
type chunkContext struct {
	colorMode ColorMode
	layerUUID bool
}

// paletteChunk replaces entries first..last and resizes the palette to size.
type paletteChunk struct {
	size   int
	first  int
	colors []Color
}

// oldPaletteChunk is the legacy packet palette; sixBit scales 0..63 channels.
type oldPaletteChunk struct {
	sixBit  bool
	packets []oldPalettePacket
}

type oldPalettePacket struct {
	skip   int
	colors []Color
}

type layerChunk struct {
	layer Layer
	// withUUID mirrors the header flag; the UUID trails the chunk body.
	withUUID bool
}

type celChunk struct {
	layer   int
	x, y    int
	opacity uint8
	typ     CelType
	w, h    int
	pixels  []byte
	// linkFrame is the source frame of a linked cel.
	linkFrame int
}

type tagsChunk struct {
	tags []Tag
}

// unknownChunk is any chunk type outside the modeled subset; only its size
// is kept so it can be skipped.
type unknownChunk struct {
	typ  uint16
	size int
}

func (paletteChunk) chunkType() uint16 { return chunkPalette }
func (c oldPaletteChunk) chunkType() uint16 {
	if c.sixBit {
		return chunkOldPalette6Bit
	}
	return chunkOldPalette
}
func (layerChunk) chunkType() uint16     { return chunkLayer }
func (celChunk) chunkType() uint16       { return chunkCel }
func (tagsChunk) chunkType() uint16      { return chunkTags }
func (c unknownChunk) chunkType() uint16 { return c.typ }

func chunkName(typ uint16) string {
	switch typ {
	case chunkOldPalette, chunkOldPalette6Bit:
		return "old palette"
	case chunkLayer:
		return "layer"
	case chunkCel:
		return "cel"
	case chunkTags:
		return "tags"
	case chunkPalette:
		return "palette"
	default:
		return fmt.Sprintf("0x%04x", typ)
	}
}

// readChunk reads one chunk header and body from r. Known chunk bodies must
// be consumed exactly; unknown chunks are skipped by their declared size.
func readChunk(r *reader, ctx *chunkContext) (chunk, error) {
	size, err := r.u32()
	if err != nil {
		return nil, err
	}
	typ, err := r.u16()
	if err != nil {
		return nil, err
	}
	if size < chunkHeaderSize {
		return nil, fmt.Errorf("%w: %s chunk declares %d bytes", ErrChunkLengthMismatch, chunkName(typ), size)
	}
	if int64(size-chunkHeaderSize) > int64(r.len()) {
		return nil, fmt.Errorf("%w: %s chunk of %d bytes, %d left in frame",
			ErrTruncatedInput, chunkName(typ), size, r.len()+chunkHeaderSize)
	}
	body, err := r.sub(int(size - chunkHeaderSize))
	if err != nil {
		return nil, err
	}

	var c chunk
	switch typ {
	case chunkPalette:
		c, err = decodePaletteChunk(body)
	case chunkOldPalette:
		c, err = decodeOldPaletteChunk(body, false)
	case chunkOldPalette6Bit:
		c, err = decodeOldPaletteChunk(body, true)
	case chunkLayer:
		c, err = decodeLayerChunk(body, ctx)
	case chunkCel:
		c, err = decodeCelChunk(body, ctx)
	case chunkTags:
		c, err = decodeTagsChunk(body)
	default:
		return unknownChunk{typ: typ, size: int(size)}, nil
	}
	if err != nil {
		// a body that ends early is a lying size field, not a short file
		if errors.Is(err, ErrTruncatedInput) {
			return nil, fmt.Errorf("%w: %s chunk of %d bytes: %v", ErrChunkLengthMismatch, chunkName(typ), size, err)
		}
		return nil, fmt.Errorf("%s chunk: %w", chunkName(typ), err)
	}
	if body.len() != 0 {
		return nil, fmt.Errorf("%w: %s chunk has %d unread bytes", ErrChunkLengthMismatch, chunkName(typ), body.len())
	}

	return c, nil
}

// writeChunk emits the chunk header, the body and then patches the size.
func writeChunk(w *writer, c chunk) error {
	pos := w.reserve32()
	w.u16(c.chunkType())
	if err := c.encodeBody(w); err != nil {
		return fmt.Errorf("%s chunk: %w", chunkName(c.chunkType()), err)
	}
	return w.patchSize(pos)
}

func decodePaletteChunk(r *reader) (paletteChunk, error) {
	var c paletteChunk
	size, err := r.u32()
	if err != nil {
		return c, err
	}
	first, err := r.u32()
	if err != nil {
		return c, err
	}
	last, err := r.u32()
	if err != nil {
		return c, err
	}
	if err := r.skip(8); err != nil {
		return c, err
	}
	// each entry takes at least 6 bytes, so the body bounds the count
	count := int64(last) - int64(first) + 1
	if count < 1 || count*6 > int64(r.len()) {
		return c, fmt.Errorf("%w: palette range [%d,%d] in %d bytes", ErrChunkLengthMismatch, first, last, r.len())
	}
	if size > maxPaletteSize || int64(last) >= maxPaletteSize {
		return c, fmt.Errorf("%w: palette of %d entries, range [%d,%d]", ErrChunkLengthMismatch, size, first, last)
	}

	c.size = int(size)
	c.first = int(first)
	c.colors = make([]Color, int(count))
	for i := range c.colors {
		flags, err := r.u16()
		if err != nil {
			return c, err
		}
		rgba, err := r.bytes(4)
		if err != nil {
			return c, err
		}
		c.colors[i] = Color{R: rgba[0], G: rgba[1], B: rgba[2]}
		if flags&paletteEntryHasName != 0 {
			if _, err := r.str(); err != nil {
				return c, err
			}
		}
	}

	return c, nil
}

func (c paletteChunk) encodeBody(w *writer) error {
	size, err := u32FromInt(c.size)
	if err != nil {
		return err
	}
	first, err := u32FromInt(c.first)
	if err != nil {
		return err
	}
	last, err := u32FromInt(c.first + len(c.colors) - 1)
	if err != nil {
		return err
	}
	w.u32(size)
	w.u32(first)
	w.u32(last)
	w.zeros(8)
	for _, col := range c.colors {
		w.u16(0)
		w.u8(col.R)
		w.u8(col.G)
		w.u8(col.B)
		w.u8(0xff)
	}
	return nil
}

// apply resizes pal to the declared size and overwrites first..last. Entries
// outside that range keep their previous values.
func (c paletteChunk) apply(pal Palette) Palette {
	n := c.size
	if end := c.first + len(c.colors); end > n {
		n = end
	}
	pal = resizePalette(pal, n)
	copy(pal[c.first:], c.colors)
	return pal
}

func decodeOldPaletteChunk(r *reader, sixBit bool) (oldPaletteChunk, error) {
	c := oldPaletteChunk{sixBit: sixBit}
	n, err := r.u16()
	if err != nil {
		return c, err
	}
	c.packets = make([]oldPalettePacket, 0, n)
	idx := 0
	for i := 0; i < int(n); i++ {
		skip, err := r.u8()
		if err != nil {
			return c, err
		}
		count, err := r.u8()
		if err != nil {
			return c, err
		}
		colors := int(count)
		if colors == 0 {
			colors = 256
		}
		rgb, err := r.bytes(colors * 3)
		if err != nil {
			return c, err
		}
		idx += int(skip) + colors
		if idx > maxPaletteSize {
			return c, fmt.Errorf("%w: palette packets address %d entries", ErrChunkLengthMismatch, idx)
		}
		p := oldPalettePacket{skip: int(skip), colors: make([]Color, colors)}
		for j := range p.colors {
			p.colors[j] = Color{R: rgb[j*3], G: rgb[j*3+1], B: rgb[j*3+2]}
			if sixBit {
				p.colors[j] = Color{R: scale6(p.colors[j].R), G: scale6(p.colors[j].G), B: scale6(p.colors[j].B)}
			}
		}
		c.packets = append(c.packets, p)
	}

	return c, nil
}

// scale6 widens a 0..63 channel to 0..255.
func scale6(v uint8) uint8 {
	v &= 0x3f
	return v<<2 | v>>4
}

func (c oldPaletteChunk) encodeBody(w *writer) error {
	if c.sixBit {
		return fmt.Errorf("%w: 6-bit palettes are read-only", ErrEncoding)
	}
	n, err := u16FromInt(len(c.packets))
	if err != nil {
		return err
	}
	w.u16(n)
	for _, p := range c.packets {
		if p.skip > 0xff || len(p.colors) == 0 || len(p.colors) > 256 {
			return fmt.Errorf("%w: packet skip %d with %d colors", ErrEncoding, p.skip, len(p.colors))
		}
		w.u8(uint8(p.skip))
		w.u8(uint8(len(p.colors))) // 256 wraps to 0
		for _, col := range p.colors {
			w.u8(col.R)
			w.u8(col.G)
			w.u8(col.B)
		}
	}
	return nil
}

func (c oldPaletteChunk) apply(pal Palette) Palette {
	idx := 0
	for _, p := range c.packets {
		idx += p.skip
		if end := idx + len(p.colors); end > len(pal) {
			pal = resizePalette(pal, end)
		}
		copy(pal[idx:], p.colors)
		idx += len(p.colors)
	}
	return pal
}

func resizePalette(pal Palette, n int) Palette {
	if n <= len(pal) {
		return pal[:n]
	}
	out := make(Palette, n)
	copy(out, pal)
	return out
}

func decodeLayerChunk(r *reader, ctx *chunkContext) (layerChunk, error) {
	var c layerChunk
	flags, err := r.u16()
	if err != nil {
		return c, err
	}
	typ, err := r.u16()
	if err != nil {
		return c, err
	}
	child, err := r.u16()
	if err != nil {
		return c, err
	}
	// default width and height are ignored by the authoring tool
	if err := r.skip(4); err != nil {
		return c, err
	}
	blend, err := r.u16()
	if err != nil {
		return c, err
	}
	opacity, err := r.u8()
	if err != nil {
		return c, err
	}
	if err := r.skip(3); err != nil {
		return c, err
	}
	name, err := r.str()
	if err != nil {
		return c, err
	}
	c.layer = Layer{
		Name:       name,
		Opacity:    opacity,
		Flags:      LayerFlags(flags),
		Type:       LayerType(typ),
		ChildLevel: child,
		BlendMode:  blend,
	}
	if c.layer.Type == LayerTilemap {
		if c.layer.Tileset, err = r.u32(); err != nil {
			return c, err
		}
	}
	if ctx.layerUUID {
		raw, err := r.bytes(16)
		if err != nil {
			return c, err
		}
		if c.layer.UUID, err = uuid.FromBytes(raw); err != nil {
			return c, err
		}
		c.withUUID = true
	}

	return c, nil
}

func (c layerChunk) encodeBody(w *writer) error {
	l := c.layer
	w.u16(uint16(l.Flags))
	w.u16(uint16(l.Type))
	w.u16(l.ChildLevel)
	w.u16(0)
	w.u16(0)
	w.u16(l.BlendMode)
	w.u8(l.Opacity)
	w.zeros(3)
	if err := w.str(l.Name); err != nil {
		return err
	}
	if l.Type == LayerTilemap {
		w.u32(l.Tileset)
	}
	if c.withUUID {
		w.write(l.UUID[:])
	}
	return nil
}

func decodeCelChunk(r *reader, ctx *chunkContext) (celChunk, error) {
	var c celChunk
	layer, err := r.u16()
	if err != nil {
		return c, err
	}
	x, err := r.i16()
	if err != nil {
		return c, err
	}
	y, err := r.i16()
	if err != nil {
		return c, err
	}
	opacity, err := r.u8()
	if err != nil {
		return c, err
	}
	typ, err := r.u16()
	if err != nil {
		return c, err
	}
	// z-index and reserved bytes
	if err := r.skip(7); err != nil {
		return c, err
	}
	c.layer = int(layer)
	c.x = int(x)
	c.y = int(y)
	c.opacity = opacity
	c.typ = CelType(typ)

	switch {
	case c.typ == CelTypeLinked:
		frame, err := r.u16()
		if err != nil {
			return c, err
		}
		c.linkFrame = int(frame)
		return c, nil

	case c.typ.IsPixelEncoding():
		w, err := r.u16()
		if err != nil {
			return c, err
		}
		h, err := r.u16()
		if err != nil {
			return c, err
		}
		c.w = int(w)
		c.h = int(h)
		payload, err := r.bytes(r.len())
		if err != nil {
			return c, err
		}
		expected, err := pixelLen(c.w, c.h, ctx.colorMode.BytesPerPixel())
		if err != nil {
			return c, fmt.Errorf("layer %d %dx%d: %w", c.layer, c.w, c.h, err)
		}
		c.pixels, err = decodePixels(c.typ, payload, expected)
		if err != nil {
			return c, fmt.Errorf("layer %d %dx%d %s: %w", c.layer, c.w, c.h, c.typ, err)
		}
		return c, nil

	default:
		return c, fmt.Errorf("%w: %s", ErrUnsupportedCelType, c.typ)
	}
}

// encodeBody writes c.pixels as an already encoded payload for c.typ.
func (c celChunk) encodeBody(w *writer) error {
	layer, err := u16FromInt(c.layer)
	if err != nil {
		return err
	}
	x, err := i16FromInt(c.x)
	if err != nil {
		return err
	}
	y, err := i16FromInt(c.y)
	if err != nil {
		return err
	}
	w.u16(layer)
	w.i16(x)
	w.i16(y)
	w.u8(c.opacity)
	w.u16(uint16(c.typ))
	w.zeros(7)

	if c.typ == CelTypeLinked {
		frame, err := u16FromInt(c.linkFrame)
		if err != nil {
			return err
		}
		w.u16(frame)
		return nil
	}

	cw, err := u16FromInt(c.w)
	if err != nil {
		return err
	}
	ch, err := u16FromInt(c.h)
	if err != nil {
		return err
	}
	w.u16(cw)
	w.u16(ch)
	w.write(c.pixels)
	return nil
}

func decodeTagsChunk(r *reader) (tagsChunk, error) {
	var c tagsChunk
	n, err := r.u16()
	if err != nil {
		return c, err
	}
	if err := r.skip(8); err != nil {
		return c, err
	}
	if int(n)*(tagFixedSize+2) > r.len() {
		return c, fmt.Errorf("%w: %d tags in %d bytes", ErrChunkLengthMismatch, n, r.len())
	}
	c.tags = make([]Tag, 0, n)
	for i := 0; i < int(n); i++ {
		from, err := r.u16()
		if err != nil {
			return c, err
		}
		to, err := r.u16()
		if err != nil {
			return c, err
		}
		loop, err := r.u8()
		if err != nil {
			return c, err
		}
		if LoopDirection(loop) > LoopPingPongReverse {
			return c, fmt.Errorf("%w: tag %d: loop direction %d", ErrInvalidTagRange, len(c.tags), loop)
		}
		repeat, err := r.u16()
		if err != nil {
			return c, err
		}
		// reserved(6), deprecated RGB color(3), extra byte
		if err := r.skip(10); err != nil {
			return c, err
		}
		name, err := r.str()
		if err != nil {
			return c, err
		}
		c.tags = append(c.tags, Tag{
			Name:   name,
			From:   int(from),
			To:     int(to),
			Loop:   LoopDirection(loop),
			Repeat: repeat,
		})
	}

	return c, nil
}

func (c tagsChunk) encodeBody(w *writer) error {
	n, err := u16FromInt(len(c.tags))
	if err != nil {
		return err
	}
	w.u16(n)
	w.zeros(8)
	for _, t := range c.tags {
		from, err := u16FromInt(t.From)
		if err != nil {
			return err
		}
		to, err := u16FromInt(t.To)
		if err != nil {
			return err
		}
		w.u16(from)
		w.u16(to)
		w.u8(uint8(t.Loop))
		w.u16(t.Repeat)
		w.zeros(6)
		w.zeros(3)
		w.u8(0)
		if err := w.str(t.Name); err != nil {
			return err
		}
	}
	return nil
}

func (c unknownChunk) encodeBody(*writer) error {
	return fmt.Errorf("%w: chunk 0x%04x was skipped on read and has no body", ErrEncoding, c.typ)
}
