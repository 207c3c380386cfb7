package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/bcn"

	"github.com/woozymasta/ase"
)

func writeSample(t *testing.T, dir, name string) string {
	t.Helper()

	s := &ase.Sprite{
		Speed:     100,
		Width:     4,
		Height:    2,
		ColorMode: ase.ColorModeRGBA,
		Layers:    []ase.Layer{{Name: "bg", Opacity: 255, Flags: ase.LayerVisible}},
		Tags:      []ase.Tag{{Name: "idle", From: 0, To: 1}},
		Frames: []ase.Frame{
			{Duration: 100, Cels: []ase.Cel{{W: 4, H: 2, Opacity: 255, Pixels: bytes.Repeat([]byte{10, 20, 30, 255}, 8)}}},
			{Duration: 120, Cels: []ase.Cel{{X: 1, W: 2, H: 2, Opacity: 255, Pixels: bytes.Repeat([]byte{1, 2, 3, 4}, 4)}}},
		},
	}
	path := filepath.Join(dir, name)
	if err := ase.WriteFile(path, s); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"asetool"}, args...))
	return out.String(), err
}

func TestInfo(t *testing.T) {
	path := writeSample(t, t.TempDir(), "knight.ase")

	out, err := run(t, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"knight", "4x2 rgba", "frames:      2", `"bg"`, `"idle" [0,1] forward`} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	good := writeSample(t, dir, "a.ase")
	other := writeSample(t, dir, "b.ase")

	out, err := run(t, "verify", "--jobs", "2", good, other)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if strings.Count(out, "ok ") != 2 {
		t.Fatalf("verify output:\n%s", out)
	}

	bad := filepath.Join(dir, "bad.ase")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}
	out, err = run(t, "verify", good, bad)
	if !errors.Is(err, errVerify) {
		t.Fatalf("expected errVerify, got %v", err)
	}
	if !strings.Contains(out, "FAIL "+bad) {
		t.Fatalf("verify output missing failure line:\n%s", out)
	}
}

func TestRecompress(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir, "in.ase")

	for _, cel := range []string{"raw", "rle", "lz4", "deflate"} {
		outPath := filepath.Join(dir, cel+".ase")
		if _, err := run(t, "recompress", "--cel", cel, in, outPath); err != nil {
			t.Fatalf("recompress %s: %v", cel, err)
		}
		want, err := ase.ReadFile(in)
		if err != nil {
			t.Fatalf("ReadFile in: %v", err)
		}
		got, err := ase.ReadFile(outPath)
		if err != nil {
			t.Fatalf("ReadFile %s: %v", cel, err)
		}
		if !bytes.Equal(got.Frames[1].Cels[0].Pixels, want.Frames[1].Cels[0].Pixels) {
			t.Fatalf("%s: pixels changed", cel)
		}
	}

	if _, err := run(t, "recompress", "--cel", "zip", in, filepath.Join(dir, "x.ase")); !errors.Is(err, ase.ErrUnsupportedCelType) {
		t.Fatalf("expected ErrUnsupportedCelType, got %v", err)
	}
}

func TestExportDDS(t *testing.T) {
	dir := t.TempDir()
	in := writeSample(t, dir, "hero.ase")
	outDir := filepath.Join(dir, "textures")

	out, err := run(t, "export-dds", "--format", "dxt5", "--frame", "1", in, outDir)
	if err != nil {
		t.Fatalf("export-dds: %v", err)
	}
	want := filepath.Join(outDir, "hero_1_0.dds")
	if !strings.Contains(out, want) {
		t.Fatalf("export-dds output:\n%s", out)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read texture: %v", err)
	}
	if string(data[:4]) != "DDS " {
		t.Fatalf("texture magic = %q", data[:4])
	}

	scaledDir := filepath.Join(dir, "scaled")
	if _, err := run(t, "export-dds", "--scale", "4", in, scaledDir); err != nil {
		t.Fatalf("export-dds --scale: %v", err)
	}
	scaled, err := os.ReadFile(filepath.Join(scaledDir, "hero_0_0.dds"))
	if err != nil {
		t.Fatalf("read scaled texture: %v", err)
	}
	// 4x2 cel at scale 4 in BGRA8
	if got := binary.LittleEndian.Uint32(scaled[16:]); got != 16 {
		t.Fatalf("scaled width = %d, want 16", got)
	}
	if got := len(scaled) - 4 - int(bcn.DDSHeaderSize); got != 16*8*4 {
		t.Fatalf("scaled payload = %d bytes", got)
	}

	if _, err := run(t, "export-dds", "--frame", "5", in, outDir); err == nil {
		t.Fatalf("expected error for frame out of range")
	}
}
