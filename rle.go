package ase

import "fmt"

const (
	// rleMinRun is the shortest repeat that is encoded as a run.
	rleMinRun = 3
	// rleMaxPacket bounds both runs and literal spans.
	rleMaxPacket = 127
)

// encodeRLE compresses pixels scanline by scanline with signed-count packets:
// a negative count -n repeats the next byte n+1 times, a positive count n
// copies the next n+1 bytes literally. Packets never cross a row boundary.
func encodeRLE(src []byte, stride int) []byte {
	if len(src) == 0 {
		return nil
	}
	if stride <= 0 || stride > len(src) {
		stride = len(src)
	}

	dst := make([]byte, 0, len(src)+len(src)/2)
	for row := 0; row < len(src); row += stride {
		end := row + stride
		if end > len(src) {
			end = len(src)
		}
		dst = appendRLERow(dst, src[row:end])
	}

	return dst
}

func appendRLERow(dst, src []byte) []byte {
	i := 0
	for i < len(src) {
		val := src[i]
		runEnd := i + 1
		for runEnd < len(src) && src[runEnd] == val && runEnd-i < rleMaxPacket {
			runEnd++
		}
		if runEnd-i >= rleMinRun {
			dst = append(dst, byte(-(runEnd - i - 1)), val)
			i = runEnd
			continue
		}

		start := i
		for i < len(src) && i-start < rleMaxPacket {
			if i+rleMinRun <= len(src) && src[i+1] == src[i] && src[i+2] == src[i] {
				break
			}
			i++
		}
		dst = append(dst, byte(i-start-1))
		dst = append(dst, src[start:i]...)
	}

	return dst
}

// decodeRLE expands a packet stream into exactly expected bytes.
func decodeRLE(src []byte, expected int) ([]byte, error) {
	dst := make([]byte, expected)
	pos := 0

	i := 0
	for i < len(src) {
		count := int(int8(src[i]))
		i++

		if count < 0 {
			n := -count + 1
			if i >= len(src) {
				return nil, fmt.Errorf("%w: run at %d has no value byte", ErrCorruptRun, i-1)
			}
			if pos+n > expected {
				return nil, fmt.Errorf("%w: run of %d at output %d overflows %d", ErrCorruptRun, n, pos, expected)
			}
			val := src[i]
			i++
			for end := pos + n; pos < end; pos++ {
				dst[pos] = val
			}
			continue
		}

		n := count + 1
		if i+n > len(src) {
			return nil, fmt.Errorf("%w: literal of %d at %d exceeds input", ErrCorruptRun, n, i-1)
		}
		if pos+n > expected {
			return nil, fmt.Errorf("%w: literal of %d at output %d overflows %d", ErrCorruptRun, n, pos, expected)
		}
		copy(dst[pos:], src[i:i+n])
		pos += n
		i += n
	}

	if pos != expected {
		return nil, fmt.Errorf("%w: RLE expected %d, got %d", ErrSizeMismatch, expected, pos)
	}

	return dst, nil
}
