// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/edds

package ase

const (
	maxUint16 = int(^uint16(0))
	maxUint32 = uint64(^uint32(0))
	maxInt    = int64(^uint(0) >> 1)
)

// pixelLen returns w*h*bpp, failing when the product does not fit an int.
func pixelLen(w, h, bpp int) (int, error) {
	return pixelLenLimit(w, h, bpp, maxInt)
}

func pixelLenLimit(w, h, bpp int, limit int64) (int, error) {
	if w < 0 || h < 0 || bpp < 0 {
		return 0, ErrSizeOverflow
	}
	n := int64(w) * int64(h) * int64(bpp)
	if n > limit {
		return 0, ErrSizeOverflow
	}

	return int(n), nil
}

// u16FromInt converts an int to a uint16.
func u16FromInt(n int) (uint16, error) {
	if n < 0 || n > maxUint16 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint16(n), nil
}

// i16FromInt converts an int to an int16.
func i16FromInt(n int) (int16, error) {
	if n < -1<<15 || n > 1<<15-1 {
		return 0, ErrSizeOverflow
	}

	return int16(n), nil
}

// u32FromInt converts an int to a uint32.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > maxUint32 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}
