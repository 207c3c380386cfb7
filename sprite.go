package ase

import (
	"fmt"

	"github.com/google/uuid"
)

// ColorMode selects how cel pixel bytes are interpreted.
type ColorMode uint8

const (
	// ColorModeIndexed stores one palette index byte per pixel.
	ColorModeIndexed ColorMode = iota
	// ColorModeGrayscale stores value and alpha bytes per pixel.
	ColorModeGrayscale
	// ColorModeRGBA stores red, green, blue and alpha bytes per pixel.
	ColorModeRGBA
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeIndexed:
		return "indexed"
	case ColorModeGrayscale:
		return "grayscale"
	case ColorModeRGBA:
		return "rgba"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint8(m))
	}
}

// BytesPerPixel returns the pixel stride for the mode, or 0 for an unknown mode.
func (m ColorMode) BytesPerPixel() int {
	switch m {
	case ColorModeIndexed:
		return 1
	case ColorModeGrayscale:
		return 2
	case ColorModeRGBA:
		return 4
	default:
		return 0
	}
}

// depthBits is the header color depth for the mode.
func (m ColorMode) depthBits() uint16 {
	return uint16(m.BytesPerPixel() * 8)
}

func colorModeFromDepth(bits uint16) (ColorMode, bool) {
	switch bits {
	case 8:
		return ColorModeIndexed, true
	case 16:
		return ColorModeGrayscale, true
	case 32:
		return ColorModeRGBA, true
	default:
		return 0, false
	}
}

// LoopDirection is the playback direction of a tag.
type LoopDirection uint8

const (
	// LoopForward plays from..to.
	LoopForward LoopDirection = iota
	// LoopReverse plays to..from.
	LoopReverse
	// LoopPingPong plays forward then back.
	LoopPingPong
	// LoopPingPongReverse plays backward then forward.
	LoopPingPongReverse
)

func (d LoopDirection) String() string {
	switch d {
	case LoopForward:
		return "forward"
	case LoopReverse:
		return "reverse"
	case LoopPingPong:
		return "pingpong"
	case LoopPingPongReverse:
		return "pingpong-reverse"
	default:
		return fmt.Sprintf("LoopDirection(%d)", uint8(d))
	}
}

// LayerFlags is the layer flag bitset. All bits round-trip.
type LayerFlags uint16

const (
	// LayerVisible marks a layer that is drawn.
	LayerVisible LayerFlags = 1 << iota
	// LayerEditable marks a layer that accepts edits.
	LayerEditable
	// LayerLockMovement pins the layer's cels in place.
	LayerLockMovement
	// LayerBackground marks the opaque bottom layer.
	LayerBackground
	// LayerPreferLinkedCels makes new cels link to the previous frame.
	LayerPreferLinkedCels
	// LayerCollapsed marks a group shown collapsed.
	LayerCollapsed
	// LayerReference marks a reference layer.
	LayerReference
)

// LayerType distinguishes image layers from groups.
type LayerType uint16

const (
	// LayerNormal is an image layer that carries cels.
	LayerNormal LayerType = iota
	// LayerGroup only nests other layers.
	LayerGroup
	// LayerTilemap references a tileset; see Layer.Tileset.
	LayerTilemap
)

// Color is one palette entry.
type Color struct {
	R, G, B uint8
}

// Palette is an index-addressable list of colors without gaps.
type Palette []Color

// Tag is a named inclusive frame range.
type Tag struct {
	Name   string
	From   int
	To     int
	Loop   LoopDirection
	Repeat uint16
}

// Layer is one entry of the layer stack; its index in Sprite.Layers is what
// cels reference.
type Layer struct {
	Name       string
	Opacity    uint8
	Flags      LayerFlags
	Type       LayerType
	ChildLevel uint16
	BlendMode  uint16
	// Tileset is the tileset index of a tilemap layer; other types ignore it.
	Tileset uint32
	// UUID is written for every layer when any layer has a non-nil one.
	UUID uuid.UUID
}

// Visible reports whether the visible flag is set.
func (l *Layer) Visible() bool {
	return l.Flags&LayerVisible != 0
}

// Cel is the pixel content of one layer in one frame.
type Cel struct {
	Layer   int
	X, Y    int
	W, H    int
	Opacity uint8
	// Pixels holds W*H*bpp bytes in row-major order.
	Pixels []byte
}

// Frame is one animation frame.
type Frame struct {
	// Duration in milliseconds.
	Duration int
	Cels     []Cel
}

// Sprite is the decoded document.
type Sprite struct {
	// Name is not stored in the file; ReadFile derives it from the path.
	Name string
	// Speed is the default frame duration in milliseconds.
	Speed            int
	Width, Height    int
	ColorMode        ColorMode
	Palette          Palette
	TransparentIndex uint8
	Tags             []Tag
	Layers           []Layer
	Frames           []Frame
}

// hasLayerUUIDs reports whether the header must announce per-layer UUIDs.
func (s *Sprite) hasLayerUUIDs() bool {
	for i := range s.Layers {
		if s.Layers[i].UUID != uuid.Nil {
			return true
		}
	}
	return false
}

// BytesPerPixel returns the pixel stride of the sprite's color mode.
func (s *Sprite) BytesPerPixel() int {
	return s.ColorMode.BytesPerPixel()
}

// Cel returns the cel of layer in frame, or nil.
func (s *Sprite) Cel(frame, layer int) *Cel {
	if frame < 0 || frame >= len(s.Frames) {
		return nil
	}
	cels := s.Frames[frame].Cels
	for i := range cels {
		if cels[i].Layer == layer {
			return &cels[i]
		}
	}
	return nil
}

// Validate checks the invariants Encode relies on. Returned errors wrap
// ErrEncoding together with the specific kind.
func (s *Sprite) Validate() error {
	bpp := s.ColorMode.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: unknown color mode %d", ErrEncoding, s.ColorMode)
	}
	if s.Speed < 0 || s.Speed > maxUint16 {
		return fmt.Errorf("%w: speed %d out of range", ErrEncoding, s.Speed)
	}
	if s.Width < 0 || s.Width > maxUint16 || s.Height < 0 || s.Height > maxUint16 {
		return fmt.Errorf("%w: canvas %dx%d out of range", ErrEncoding, s.Width, s.Height)
	}
	if len(s.Frames) > maxUint16 {
		return fmt.Errorf("%w: %d frames", ErrEncoding, len(s.Frames))
	}
	if len(s.Frames) == 0 && (len(s.Layers) > 0 || len(s.Palette) > 0 || len(s.Tags) > 0) {
		return fmt.Errorf("%w: layers, palette and tags need at least one frame", ErrEncoding)
	}
	if len(s.Palette) > maxUint16 {
		return fmt.Errorf("%w: palette of %d colors", ErrEncoding, len(s.Palette))
	}

	for i, t := range s.Tags {
		if t.From < 0 || t.From > t.To || t.To >= len(s.Frames) {
			return fmt.Errorf("%w: %w: tag %d %q [%d,%d] with %d frames",
				ErrEncoding, ErrInvalidTagRange, i, t.Name, t.From, t.To, len(s.Frames))
		}
		if t.Loop > LoopPingPongReverse {
			return fmt.Errorf("%w: %w: tag %d %q: loop direction %d",
				ErrEncoding, ErrInvalidTagRange, i, t.Name, t.Loop)
		}
	}

	for fi := range s.Frames {
		f := &s.Frames[fi]
		if f.Duration < 0 || f.Duration > maxUint16 {
			return fmt.Errorf("%w: frame %d: duration %d out of range", ErrEncoding, fi, f.Duration)
		}
		seen := make(map[int]struct{}, len(f.Cels))
		for ci := range f.Cels {
			c := &f.Cels[ci]
			if c.Layer < 0 || c.Layer >= len(s.Layers) {
				return fmt.Errorf("%w: %w: frame %d cel %d: layer %d of %d",
					ErrEncoding, ErrInvalidLayerReference, fi, ci, c.Layer, len(s.Layers))
			}
			if _, dup := seen[c.Layer]; dup {
				return fmt.Errorf("%w: %w: frame %d: second cel for layer %d",
					ErrEncoding, ErrInvalidLayerReference, fi, c.Layer)
			}
			seen[c.Layer] = struct{}{}
			if _, err := i16FromInt(c.X); err != nil {
				return fmt.Errorf("%w: frame %d cel %d: x %d: %w", ErrEncoding, fi, ci, c.X, err)
			}
			if _, err := i16FromInt(c.Y); err != nil {
				return fmt.Errorf("%w: frame %d cel %d: y %d: %w", ErrEncoding, fi, ci, c.Y, err)
			}
			if c.W < 0 || c.W > maxUint16 || c.H < 0 || c.H > maxUint16 {
				return fmt.Errorf("%w: %w: frame %d cel %d: %dx%d",
					ErrEncoding, ErrSizeOverflow, fi, ci, c.W, c.H)
			}
			want, err := pixelLen(c.W, c.H, bpp)
			if err != nil {
				return fmt.Errorf("%w: frame %d cel %d: %dx%d: %w", ErrEncoding, fi, ci, c.W, c.H, err)
			}
			if len(c.Pixels) != want {
				return fmt.Errorf("%w: %w: frame %d cel %d: expected %d, got %d",
					ErrEncoding, ErrSizeMismatch, fi, ci, want, len(c.Pixels))
			}
		}
	}

	return nil
}
