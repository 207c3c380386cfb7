package ase

import "errors"

var (
	// ErrBadFileMagic indicates the file header magic is not 0xA5E0.
	ErrBadFileMagic = errors.New("bad file magic")
	// ErrBadFrameMagic indicates a frame header magic is not 0xF1FA.
	ErrBadFrameMagic = errors.New("bad frame magic")
	// ErrTruncatedInput indicates the input ended before a structure was complete.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrChunkLengthMismatch indicates a chunk body size disagrees with its contents.
	ErrChunkLengthMismatch = errors.New("chunk length mismatch")
	// ErrSizeMismatch indicates cel pixel data does not match w*h*bpp.
	ErrSizeMismatch = errors.New("pixel size mismatch")
	// ErrCorruptRun indicates an inconsistent run-length stream.
	ErrCorruptRun = errors.New("corrupt run-length data")
	// ErrInflate indicates a malformed deflate stream.
	ErrInflate = errors.New("inflate failed")
	// ErrInvalidLayerReference indicates a cel referencing a missing layer.
	ErrInvalidLayerReference = errors.New("invalid layer reference")
	// ErrInvalidTagRange indicates a tag with from > to or outside the frame range.
	ErrInvalidTagRange = errors.New("invalid tag range")
	// ErrUnsupportedCelType indicates a cel type the codec does not model.
	ErrUnsupportedCelType = errors.New("unsupported cel type")
	// ErrUnsupportedColorDepth indicates a header color depth other than 8, 16 or 32.
	ErrUnsupportedColorDepth = errors.New("unsupported color depth")
	// ErrEncoding indicates the sprite passed to Encode violates an invariant.
	ErrEncoding = errors.New("encoding failed")
	// ErrSizeOverflow indicates a size or dimension exceeds format limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrLZ4Decode indicates LZ4 cel decode failed.
	ErrLZ4Decode = errors.New("LZ4 decode failed")
	// ErrLZ4Compress indicates LZ4 cel compression failed.
	ErrLZ4Compress = errors.New("LZ4 compression failed")
	// ErrDeflate indicates deflate compression failed.
	ErrDeflate = errors.New("deflate failed")
	// ErrOpenFile indicates sprite file open failed.
	ErrOpenFile = errors.New("open file failed")
	// ErrReadFile indicates reading the sprite file failed.
	ErrReadFile = errors.New("read file failed")
	// ErrCreateFile indicates file creation failed.
	ErrCreateFile = errors.New("create file failed")
	// ErrWriteFile indicates writing the encoded sprite failed.
	ErrWriteFile = errors.New("write file failed")
	// ErrTextureFormat indicates an unsupported texture export format.
	ErrTextureFormat = errors.New("unsupported texture format")
	// ErrEncodeTexture indicates bcn encoding of a cel failed.
	ErrEncodeTexture = errors.New("encode texture failed")
	// ErrWriteDDSMagic indicates DDS magic write failed.
	ErrWriteDDSMagic = errors.New("writing DDS magic failed")
	// ErrWriteDDSHeader indicates DDS header write failed.
	ErrWriteDDSHeader = errors.New("writing DDS header failed")
	// ErrWriteTexture indicates DDS payload write failed.
	ErrWriteTexture = errors.New("writing texture data failed")
)
