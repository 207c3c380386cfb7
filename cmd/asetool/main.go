// Command asetool inspects, verifies, recompresses and exports sprite files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/bcn"
	"golang.org/x/sync/errgroup"

	"github.com/woozymasta/ase"
)

var errVerify = errors.New("verification failed")

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "asetool:", err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "asetool",
		Usage: "inspect and convert sprite files",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "glog verbosity level"},
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			infoCommand(),
			verifyCommand(),
			recompressCommand(),
			exportDDSCommand(),
		},
	}
}

// setupLogging routes glog to stderr and applies --verbose.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !flag.Parsed() {
		_ = flag.CommandLine.Parse(nil)
	}
	if err := flag.Set("logtostderr", "true"); err != nil {
		return ctx, err
	}
	if err := flag.Set("v", strconv.Itoa(int(cmd.Int("verbose")))); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "print the header and contents summary of a sprite",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("info: missing file argument")
			}
			cfg, err := ase.ReadConfig(path)
			if err != nil {
				return err
			}
			s, err := ase.ReadFileWithOptions(path, &ase.DecodeOptions{ResolveLinkedCels: true})
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintf(w, "name:        %s\n", s.Name)
			fmt.Fprintf(w, "size:        %s\n", humanize.Bytes(uint64(cfg.FileSize)))
			fmt.Fprintf(w, "canvas:      %dx%d %s\n", s.Width, s.Height, s.ColorMode)
			fmt.Fprintf(w, "speed:       %dms\n", s.Speed)
			fmt.Fprintf(w, "palette:     %d colors, transparent index %d\n", len(s.Palette), s.TransparentIndex)
			fmt.Fprintf(w, "frames:      %d\n", len(s.Frames))
			for i, l := range s.Layers {
				fmt.Fprintf(w, "layer %d:     %q opacity %d visible %t\n", i, l.Name, l.Opacity, l.Visible())
			}
			for _, t := range s.Tags {
				fmt.Fprintf(w, "tag:         %q [%d,%d] %s\n", t.Name, t.From, t.To, t.Loop)
			}
			var pixels uint64
			for _, f := range s.Frames {
				for _, c := range f.Cels {
					pixels += uint64(len(c.Pixels))
				}
			}
			fmt.Fprintf(w, "pixel data:  %s\n", humanize.Bytes(pixels))
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "decode each file and check it survives a re-encode",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 4, Usage: "files checked in parallel"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New("verify: no files given")
			}

			var failed atomic.Int32
			g, ctx := errgroup.WithContext(ctx)
			g.SetLimit(max(1, int(cmd.Int("jobs"))))
			results := make([]error, len(paths))
			for i, path := range paths {
				g.Go(func() error {
					results[i] = verifyFile(ctx, path)
					if results[i] != nil {
						failed.Add(1)
					}
					return ctx.Err()
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			w := cmd.Root().Writer
			for i, path := range paths {
				if results[i] != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", path, results[i])
					continue
				}
				fmt.Fprintf(w, "ok   %s\n", path)
			}
			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%w: %d of %d files", errVerify, n, len(paths))
			}
			return nil
		},
	}
}

// verifyFile decodes path, encodes it again and checks the second decode
// agrees on structure.
func verifyFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, err := ase.DecodeContext(ctx, data, &ase.DecodeOptions{ResolveLinkedCels: true})
	if err != nil {
		return err
	}
	out, err := ase.Encode(s)
	if err != nil {
		return err
	}
	again, err := ase.DecodeContext(ctx, out, nil)
	if err != nil {
		return fmt.Errorf("re-decode: %w", err)
	}
	if len(again.Frames) != len(s.Frames) || len(again.Layers) != len(s.Layers) ||
		len(again.Tags) != len(s.Tags) || len(again.Palette) != len(s.Palette) {
		return fmt.Errorf("%w: structure changed after re-encode", errVerify)
	}
	glog.V(1).Infof("%s: %d frames, %s -> %s", path, len(s.Frames),
		humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(len(out))))
	return nil
}

func recompressCommand() *cli.Command {
	return &cli.Command{
		Name:      "recompress",
		Usage:     "rewrite a sprite with a different cel encoding",
		ArgsUsage: "<in> <out>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "cel", Value: "deflate", Usage: "cel encoding: raw, deflate, rle or lz4"},
			&cli.IntFlag{Name: "level", Usage: "deflate level, 0 for default"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("recompress: expected <in> <out>")
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)

			typ, err := ase.ParseCelType(cmd.String("cel"))
			if err != nil {
				return err
			}
			s, err := ase.ReadFileWithOptions(in, &ase.DecodeOptions{ResolveLinkedCels: true})
			if err != nil {
				return err
			}
			opts := &ase.EncodeOptions{Compression: typ, DeflateLevel: int(cmd.Int("level"))}
			if err := ase.WriteFileWithOptions(out, s, opts); err != nil {
				return err
			}

			before, err := os.Stat(in)
			if err != nil {
				return err
			}
			after, err := os.Stat(out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "%s: %s -> %s (%s)\n", out,
				humanize.Bytes(uint64(before.Size())), humanize.Bytes(uint64(after.Size())), typ)
			return nil
		},
	}
}

func exportDDSCommand() *cli.Command {
	return &cli.Command{
		Name:      "export-dds",
		Usage:     "write every cel of a frame as a DDS texture",
		ArgsUsage: "<in> <dir>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "bgra8", Usage: "bgra8, rgba8, dxt1, dxt3, dxt5, bc4 or bc5"},
			&cli.IntFlag{Name: "frame", Usage: "frame index"},
			&cli.IntFlag{Name: "scale", Value: 1, Usage: "nearest-neighbour upscale factor"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return errors.New("export-dds: expected <in> <dir>")
			}
			in, dir := cmd.Args().Get(0), cmd.Args().Get(1)

			format, err := ase.ParseTextureFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			s, err := ase.ReadFileWithOptions(in, &ase.DecodeOptions{ResolveLinkedCels: true})
			if err != nil {
				return err
			}
			index := int(cmd.Int("frame"))
			if index < 0 || index >= len(s.Frames) {
				return fmt.Errorf("export-dds: frame %d out of range, sprite has %d", index, len(s.Frames))
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			for i := range s.Frames[index].Cels {
				c := &s.Frames[index].Cels[i]
				if c.W == 0 || c.H == 0 {
					glog.V(1).Infof("frame %d layer %d: empty cel skipped", index, c.Layer)
					continue
				}
				path := filepath.Join(dir, fmt.Sprintf("%s_%d_%d.dds", s.Name, index, c.Layer))
				if err := writeDDS(path, s, c, format, int(cmd.Int("scale"))); err != nil {
					return err
				}
				fmt.Fprintln(cmd.Root().Writer, path)
			}
			return nil
		},
	}
}

func writeDDS(path string, s *ase.Sprite, c *ase.Cel, format bcn.Format, scale int) error {
	img, err := ase.CelImage(s, c)
	if err != nil {
		return err
	}
	img = ase.ScaleImage(img, scale)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ase.ErrCreateFile, path, err)
	}
	if err := ase.WriteImageDDS(f, img, format, nil); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
