package ase

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/nfnt/resize"
	"github.com/woozymasta/bcn"
)

// CelImage converts the pixels of c into a non-premultiplied RGBA image of
// the cel's own size. Indexed pixels go through the sprite palette and the
// transparent index becomes fully transparent.
func CelImage(s *Sprite, c *Cel) (*image.NRGBA, error) {
	bpp := s.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: color mode %s", ErrTextureFormat, s.ColorMode)
	}
	want, err := pixelLen(c.W, c.H, bpp)
	if err != nil {
		return nil, err
	}
	if len(c.Pixels) != want {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrSizeMismatch, want, len(c.Pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, c.W, c.H))
	switch s.ColorMode {
	case ColorModeRGBA:
		for y := 0; y < c.H; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+c.W*4], c.Pixels[y*c.W*4:(y+1)*c.W*4])
		}

	case ColorModeGrayscale:
		for i := 0; i < c.W*c.H; i++ {
			v, a := c.Pixels[i*2], c.Pixels[i*2+1]
			img.SetNRGBA(i%c.W, i/c.W, color.NRGBA{R: v, G: v, B: v, A: a})
		}

	case ColorModeIndexed:
		for i, idx := range c.Pixels {
			// out-of-palette indices stay transparent like the transparent index
			if idx == s.TransparentIndex || int(idx) >= len(s.Palette) {
				continue
			}
			p := s.Palette[idx]
			img.SetNRGBA(i%c.W, i/c.W, color.NRGBA{R: p.R, G: p.G, B: p.B, A: 0xff})
		}
	}

	return img, nil
}

// ScaleImage enlarges img by an integer factor with nearest-neighbour
// sampling so pixel edges stay hard. Factors below 2 return img unchanged.
func ScaleImage(img *image.NRGBA, factor int) *image.NRGBA {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	scaled := resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
	if n, ok := scaled.(*image.NRGBA); ok {
		return n
	}

	// resize hands back premultiplied RGBA for NRGBA input
	out := image.NewNRGBA(image.Rect(0, 0, scaled.Bounds().Dx(), scaled.Bounds().Dy()))
	draw.Draw(out, out.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return out
}

// WriteCelDDS encodes one cel as a single-level DDS texture in the given
// format and writes it to w.
func WriteCelDDS(w io.Writer, s *Sprite, c *Cel, format bcn.Format, opts *bcn.EncodeOptions) error {
	if c.W == 0 || c.H == 0 {
		return fmt.Errorf("%w: empty cel %dx%d", ErrEncodeTexture, c.W, c.H)
	}
	img, err := CelImage(s, c)
	if err != nil {
		return err
	}
	return WriteImageDDS(w, img, format, opts)
}

// WriteImageDDS encodes img as a single-level DDS texture.
func WriteImageDDS(w io.Writer, img *image.NRGBA, format bcn.Format, opts *bcn.EncodeOptions) error {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrEncodeTexture, width, height)
	}

	header, err := makeDDSHeader(uint32(width), uint32(height), format)
	if err != nil {
		return err
	}

	data, _, _, err := bcn.EncodeImageWithOptions(img, format, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeTexture, err)
	}
	if want := expectedDataLength(format, width, height); len(data) != want {
		return fmt.Errorf("%w: %v payload expected %d, got %d", ErrEncodeTexture, format, want, len(data))
	}

	if err := bcn.WriteDDSMagic(w); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSMagic, err)
	}
	if err := bcn.WriteDDSHeader(w, header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDDSHeader, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteTexture, err)
	}

	return nil
}

// ParseTextureFormat maps a format name as printed by asetool to a bcn format.
func ParseTextureFormat(name string) (bcn.Format, error) {
	switch name {
	case "bgra8":
		return bcn.FormatBGRA8, nil
	case "rgba8":
		return bcn.FormatRGBA8, nil
	case "dxt1":
		return bcn.FormatDXT1, nil
	case "dxt3":
		return bcn.FormatDXT3, nil
	case "dxt5":
		return bcn.FormatDXT5, nil
	case "bc4":
		return bcn.FormatBC4, nil
	case "bc5":
		return bcn.FormatBC5, nil
	default:
		return bcn.FormatUnknown, fmt.Errorf("%w: %q", ErrTextureFormat, name)
	}
}

func expectedDataLength(format bcn.Format, width, height int) int {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4
	switch format {
	case bcn.FormatDXT1, bcn.FormatBC4:
		return blocksW * blocksH * 8
	case bcn.FormatDXT3, bcn.FormatDXT5, bcn.FormatBC5:
		return blocksW * blocksH * 16
	case bcn.FormatRGBA8, bcn.FormatBGRA8:
		return width * height * 4
	default:
		return -1
	}
}

func makeFourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// makeDDSHeader builds a single-level texture header.
func makeDDSHeader(width, height uint32, format bcn.Format) (*bcn.DDSHeader, error) {
	hdr := &bcn.DDSHeader{
		Size:        bcn.DDSHeaderSize,
		Flags:       uint32(bcn.DDSFlagCaps | bcn.DDSFlagHeight | bcn.DDSFlagWidth | bcn.DDSFlagPixelFormat),
		Height:      height,
		Width:       width,
		Depth:       1,
		MipMapCount: 1,
		Caps:        uint32(bcn.DDSCapsTexture),
	}
	hdr.PixelFormat.Size = bcn.DDSPixelFormatSize

	fourCC := func(code uint32) {
		hdr.Flags |= bcn.DDSFlagLinearSize
		hdr.PixelFormat.Flags = bcn.DDSPFFourCC
		hdr.PixelFormat.FourCC = code
		hdr.PitchOrLinearSize = uint32(expectedDataLength(format, int(width), int(height)))
	}

	switch format {
	case bcn.FormatDXT1:
		fourCC(makeFourCC('D', 'X', 'T', '1'))
	case bcn.FormatDXT3:
		fourCC(makeFourCC('D', 'X', 'T', '3'))
	case bcn.FormatDXT5:
		fourCC(makeFourCC('D', 'X', 'T', '5'))
	case bcn.FormatBC4:
		fourCC(makeFourCC('A', 'T', 'I', '1'))
	case bcn.FormatBC5:
		fourCC(makeFourCC('A', 'T', 'I', '2'))
	case bcn.FormatRGBA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x000000ff
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x00ff0000
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
	case bcn.FormatBGRA8:
		hdr.Flags |= bcn.DDSFlagPitch
		hdr.PixelFormat.Flags = bcn.DDSPFRGB | bcn.DDSPFAlphaPixels
		hdr.PixelFormat.RGBBitCount = 32
		hdr.PixelFormat.RBitMask = 0x00ff0000
		hdr.PixelFormat.GBitMask = 0x0000ff00
		hdr.PixelFormat.BBitMask = 0x000000ff
		hdr.PixelFormat.ABitMask = 0xff000000
		hdr.PitchOrLinearSize = width * 4
	default:
		return nil, fmt.Errorf("%w: %v", ErrTextureFormat, format)
	}

	return hdr, nil
}
