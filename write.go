package ase

import (
	"fmt"
	"io"
	"os"
)

// WriteFile encodes s with deflate-compressed cels and writes it to path.
func WriteFile(path string, s *Sprite) error {
	return WriteFileWithOptions(path, s, nil)
}

// WriteFileWithOptions encodes s with opts and writes it to path. Nothing is
// created when encoding fails.
func WriteFileWithOptions(path string, s *Sprite, opts *EncodeOptions) error {
	data, err := EncodeWithOptions(s, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCreateFile, path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrWriteFile, path, err)
	}

	return nil
}

// WriteTo encodes s with default options and writes it to w.
func (s *Sprite) WriteTo(w io.Writer) (int64, error) {
	data, err := Encode(s)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrWriteFile, err)
	}
	return int64(n), nil
}
