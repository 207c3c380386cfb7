package ase

import (
	"errors"
	"testing"
)

func TestPixelLen(t *testing.T) {
	t.Parallel()

	const maxInt32 = int64(1<<31 - 1)

	tests := []struct {
		name    string
		w, h    int
		bpp     int
		limit   int64
		want    int
		wantErr error
	}{
		{name: "rgba", w: 3, h: 2, bpp: 4, limit: maxInt, want: 24},
		{name: "empty", w: 0, h: 9, bpp: 4, limit: maxInt, want: 0},
		{name: "under-32bit", w: 65535, h: 8192, bpp: 4, limit: maxInt32, want: 65535 * 8192 * 4},
		{name: "max-cel-32bit", w: 65535, h: 65535, bpp: 4, limit: maxInt32, wantErr: ErrSizeOverflow},
		{name: "negative", w: -1, h: 2, bpp: 1, limit: maxInt, wantErr: ErrSizeOverflow},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := pixelLenLimit(tc.w, tc.h, tc.bpp, tc.limit)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %d, %v", tc.wantErr, got, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("pixelLenLimit = %d, %v, want %d", got, err, tc.want)
			}
		})
	}
}
