package ase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadConfig reads the file header of the sprite at path without decoding frames.
func ReadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %q: %v", ErrOpenFile, path, err)
	}
	defer func() { _ = f.Close() }()

	return DecodeConfig(f)
}

// ReadFile reads and decodes the sprite file at path. The sprite name is the
// base file name without extension.
func ReadFile(path string) (*Sprite, error) {
	return ReadFileWithOptions(path, nil)
}

// ReadFileWithOptions reads and decodes a sprite file with the given options.
func ReadFileWithOptions(path string, opts *DecodeOptions) (*Sprite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrReadFile, path, err)
	}

	s, err := DecodeWithOptions(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	s.Name = nameFromPath(path)

	return s, nil
}

// DecodeReader reads r to the end and decodes it.
func DecodeReader(r io.Reader) (*Sprite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFile, err)
	}
	return Decode(data)
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
