package ase

import (
	"fmt"

	"github.com/golang/glog"
)

const (
	frameMagic      = 0xF1FA
	frameHeaderSize = 16
	// oldChunkCountMax marks a saturated old-style chunk count.
	oldChunkCountMax = 0xFFFF
)

// decoder folds frames and their chunks into a Sprite.
type decoder struct {
	opts       *DecodeOptions
	ctx        chunkContext
	sprite     *Sprite
	frameCount int
	// newPalette is set once a 0x2019 chunk was applied; legacy palette
	// chunks after that are redundant copies.
	newPalette bool
}

// readFrame reads the frame header at r and all of its chunks.
func (d *decoder) readFrame(r *reader, index int) error {
	start := r.tell()
	size, err := r.u32()
	if err != nil {
		return fmt.Errorf("frame %d header: %w", index, err)
	}
	magic, err := r.u16()
	if err != nil {
		return fmt.Errorf("frame %d header: %w", index, err)
	}
	if magic != frameMagic {
		return fmt.Errorf("%w: frame %d at offset %d: 0x%04x", ErrBadFrameMagic, index, start, magic)
	}
	if size < frameHeaderSize {
		return fmt.Errorf("%w: frame %d declares %d bytes", ErrTruncatedInput, index, size)
	}
	if int64(size)-6 > int64(r.len()) {
		return fmt.Errorf("%w: frame %d declares %d bytes, %d left", ErrTruncatedInput, index, size, r.len()+6)
	}
	body, err := r.sub(int(size) - 6)
	if err != nil {
		return fmt.Errorf("frame %d: %w", index, err)
	}

	oldCount, err := body.u16()
	if err != nil {
		return err
	}
	duration, err := body.u16()
	if err != nil {
		return err
	}
	if err := body.skip(2); err != nil {
		return err
	}
	newCount, err := body.u32()
	if err != nil {
		return err
	}

	count := int(oldCount)
	if (oldCount == oldChunkCountMax || oldCount == 0) && newCount != 0 {
		count = int(newCount)
	}

	frame := Frame{Duration: int(duration)}
	if frame.Duration == 0 {
		frame.Duration = d.sprite.Speed
	}

	glog.V(3).Infof("frame %d: %d bytes, %d chunks, %dms", index, size, count, duration)

	d.sprite.Frames = append(d.sprite.Frames, frame)
	for i := 0; i < count; i++ {
		c, err := readChunk(body, &d.ctx)
		if err != nil {
			return fmt.Errorf("frame %d chunk %d: %w", index, i, err)
		}
		if err := d.apply(c, index); err != nil {
			return fmt.Errorf("frame %d chunk %d: %w", index, i, err)
		}
	}
	if body.len() != 0 {
		glog.V(2).Infof("frame %d: %d trailing bytes after %d chunks", index, body.len(), count)
	}

	return nil
}

// apply routes a decoded chunk to the sprite or to the current frame.
func (d *decoder) apply(c chunk, index int) error {
	s := d.sprite
	switch c := c.(type) {
	case paletteChunk:
		s.Palette = c.apply(s.Palette)
		d.newPalette = true

	case oldPaletteChunk:
		if d.newPalette {
			glog.V(2).Infof("frame %d: legacy palette chunk ignored after new palette", index)
			return nil
		}
		s.Palette = c.apply(s.Palette)

	case layerChunk:
		s.Layers = append(s.Layers, c.layer)

	case celChunk:
		return d.addCel(c, index)

	case tagsChunk:
		for i, t := range c.tags {
			if t.From > t.To || t.To >= d.frameCount {
				return fmt.Errorf("%w: tag %d %q [%d,%d] with %d frames",
					ErrInvalidTagRange, i, t.Name, t.From, t.To, d.frameCount)
			}
		}
		s.Tags = append(s.Tags, c.tags...)

	case unknownChunk:
		glog.V(2).Infof("frame %d: skipping chunk 0x%04x (%d bytes)", index, c.typ, c.size)

	default:
		return fmt.Errorf("unexpected chunk %T", c)
	}

	return nil
}

func (d *decoder) addCel(c celChunk, index int) error {
	s := d.sprite
	frame := &s.Frames[index]

	// layers are declared before the cels that use them
	if c.layer >= len(s.Layers) {
		return fmt.Errorf("%w: cel references layer %d, %d declared", ErrInvalidLayerReference, c.layer, len(s.Layers))
	}
	for i := range frame.Cels {
		if frame.Cels[i].Layer == c.layer {
			return fmt.Errorf("%w: second cel for layer %d", ErrInvalidLayerReference, c.layer)
		}
	}

	cel := Cel{
		Layer:   c.layer,
		X:       c.x,
		Y:       c.y,
		W:       c.w,
		H:       c.h,
		Opacity: c.opacity,
		Pixels:  c.pixels,
	}

	if c.typ == CelTypeLinked {
		if d.opts == nil || !d.opts.ResolveLinkedCels {
			return fmt.Errorf("%w: linked cel on layer %d to frame %d", ErrUnsupportedCelType, c.layer, c.linkFrame)
		}
		if c.linkFrame >= index {
			return fmt.Errorf("%w: linked cel in frame %d points forward to frame %d", ErrInvalidLayerReference, index, c.linkFrame)
		}
		src := s.Cel(c.linkFrame, c.layer)
		if src == nil {
			return fmt.Errorf("%w: linked cel to frame %d has no cel on layer %d", ErrInvalidLayerReference, c.linkFrame, c.layer)
		}
		cel.W = src.W
		cel.H = src.H
		cel.Pixels = append([]byte(nil), src.Pixels...)
	}

	frame.Cels = append(frame.Cels, cel)
	return nil
}

// encoder writes a Sprite frame by frame into a single buffer.
type encoder struct {
	opts   *EncodeOptions
	sprite *Sprite
	w      writer
}

// frameChunks lists the chunks of frame index in write order. Palette, tags
// and layers live in frame 0.
func (e *encoder) frameChunks(index int) ([]chunk, error) {
	s := e.sprite
	var chunks []chunk

	if index == 0 {
		if len(s.Palette) > 0 {
			chunks = append(chunks, paletteChunk{size: len(s.Palette), colors: s.Palette})
		}
		if len(s.Tags) > 0 {
			chunks = append(chunks, tagsChunk{tags: s.Tags})
		}
		withUUID := s.hasLayerUUIDs()
		for _, l := range s.Layers {
			chunks = append(chunks, layerChunk{layer: l, withUUID: withUUID})
		}
	}

	f := &s.Frames[index]
	stride := s.BytesPerPixel()
	for i := range f.Cels {
		cel := &f.Cels[i]
		typ, payload, err := encodePixels(e.opts.compression(), cel.Pixels, cel.W*stride, e.opts.deflateLevel())
		if err != nil {
			return nil, fmt.Errorf("frame %d cel %d: %w", index, i, err)
		}
		chunks = append(chunks, celChunk{
			layer:   cel.Layer,
			x:       cel.X,
			y:       cel.Y,
			opacity: cel.Opacity,
			typ:     typ,
			w:       cel.W,
			h:       cel.H,
			pixels:  payload,
		})
	}

	return chunks, nil
}

// writeFrame emits a frame header with placeholder size and chunk counts,
// the chunks, and then patches the placeholders.
func (e *encoder) writeFrame(index int) error {
	f := &e.sprite.Frames[index]
	chunks, err := e.frameChunks(index)
	if err != nil {
		return err
	}
	count, err := u32FromInt(len(chunks))
	if err != nil {
		return fmt.Errorf("frame %d: %w", index, err)
	}

	w := &e.w
	pos := w.reserve32()
	w.u16(frameMagic)
	w.u16(uint16(min(count, oldChunkCountMax)))
	w.u16(uint16(f.Duration))
	w.zeros(2)
	w.u32(count)

	for i, c := range chunks {
		if err := writeChunk(w, c); err != nil {
			return fmt.Errorf("frame %d chunk %d: %w", index, i, err)
		}
	}

	return w.patchSize(pos)
}
