package transform

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/hhrutter/tiff"

	"stackpress/internal/testsupport"
)

func TestBuiltinPageCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.tif")
	testsupport.WriteGrayTIFF(t, path,
		testsupport.UniformPage(4, 3, 10),
		testsupport.UniformPage(4, 3, 20),
		testsupport.UniformPage(4, 3, 30),
	)

	res, err := NewBuiltin().Invoke(context.Background(), Operation{Kind: KindPageCount, Inputs: []Source{File(path)}})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Stdout != "3\n" {
		t.Fatalf("stdout = %q, want 3", res.Stdout)
	}
}

func TestBuiltinPageCountRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.tif")
	if err := os.WriteFile(path, []byte("definitely not a tiff"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBuiltin().Invoke(context.Background(), Operation{Kind: KindPageCount, Inputs: []Source{File(path)}}); err == nil {
		t.Fatal("expected error for non-tiff input")
	}
}

func TestPageOffsetsDetectsLoop(t *testing.T) {
	data := testsupport.EncodeGrayTIFF(testsupport.UniformPage(2, 2, 1))
	first := binary.LittleEndian.Uint32(data[4:8])
	// point the single IFD's next link back at itself
	binary.LittleEndian.PutUint32(data[first+2+9*12:], first)
	if _, err := pageOffsets(bytes.NewReader(data)); err == nil || !strings.Contains(err.Error(), "loops") {
		t.Fatalf("expected loop error, got %v", err)
	}
}

func TestBuiltinCombineChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.tif")
	p0 := testsupport.GradientPage(6, 5, 0x11)
	p1 := testsupport.GradientPage(6, 5, 0x22)
	p2 := testsupport.GradientPage(6, 5, 0x44)
	testsupport.WriteGrayTIFF(t, path, p0, p1, p2)
	out := filepath.Join(dir, "stack.tif.rgb.tmp.tif")

	_, err := NewBuiltin().Invoke(context.Background(), Operation{
		Kind:   KindCombine,
		Inputs: []Source{Page(path, 0), Page(path, 1), Page(path, 2)},
		Output: out,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	img := decodeFile(t, out)
	for y := 0; y < 5; y++ {
		for x := 0; x < 6; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if uint8(r>>8) != p0.At(x, y) || uint8(g>>8) != p1.At(x, y) || uint8(b>>8) != p2.At(x, y) || a != 0xffff {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d,%d", x, y, r>>8, g>>8, b>>8, a>>8)
			}
		}
	}
	// The encoder has no 3-sample RGB layout; the composite carries an
	// opaque associated alpha channel.
	if got := testsupport.TIFFTag(t, out, 262); got != 2 {
		t.Fatalf("photometric = %d, want 2 (RGB)", got)
	}
	if got := testsupport.TIFFTag(t, out, 277); got != 4 {
		t.Fatalf("samples per pixel = %d, want 4", got)
	}
	if got := testsupport.TIFFTag(t, out, 338); got != 1 {
		t.Fatalf("extra samples = %d, want 1 (associated alpha)", got)
	}
}

func TestBuiltinCombineSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stack.tif")
	testsupport.WriteGrayTIFF(t, path, testsupport.UniformPage(4, 4, 1), testsupport.UniformPage(5, 4, 2))
	out := filepath.Join(dir, "out.tif")

	_, err := NewBuiltin().Invoke(context.Background(), Operation{
		Kind:   KindCombine,
		Inputs: []Source{Page(path, 0), Page(path, 1), Page(path, 1)},
		Output: out,
	})
	if err == nil {
		t.Fatal("expected size mismatch error")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output should not exist after failure, stat err %v", statErr)
	}
}

func TestBuiltinCompressWritesLZW(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "single.tif")
	page := testsupport.GradientPage(8, 8, 0x5a)
	testsupport.WriteGrayTIFF(t, path, page)
	out := filepath.Join(dir, "single.tif.lzw.tmp.tif")

	_, err := NewBuiltin().Invoke(context.Background(), Operation{
		Kind:        KindCompress,
		Inputs:      []Source{File(path)},
		Output:      out,
		Compression: "LZW",
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := testsupport.TIFFTag(t, out, 259); got != 5 {
		t.Fatalf("compression tag = %d, want 5 (LZW)", got)
	}
	img := decodeFile(t, out)
	gray, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("expected gray image, got %T", img)
	}
	if !bytes.Equal(gray.Pix, page.Pix) {
		t.Fatal("compressed pixels differ from source")
	}
}

func TestBuiltinCompressUnknownScheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "single.tif")
	testsupport.WriteGrayTIFF(t, path, testsupport.UniformPage(2, 2, 1))
	_, err := NewBuiltin().Invoke(context.Background(), Operation{
		Kind:        KindCompress,
		Inputs:      []Source{File(path)},
		Output:      filepath.Join(dir, "out.tif"),
		Compression: "JBIG",
	})
	if err == nil || !strings.Contains(err.Error(), "unsupported compression") {
		t.Fatalf("expected unsupported compression error, got %v", err)
	}
}

func TestBuiltinThumbnailGeometry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.tif")
	testsupport.WriteGrayTIFF(t, path, testsupport.GradientPage(400, 100, 0x01), testsupport.UniformPage(400, 100, 9))
	out := filepath.Join(dir, "wide.jpg")

	_, err := NewBuiltin().Invoke(context.Background(), Operation{
		Kind:   KindThumbnail,
		Inputs: []Source{Page(path, 0)},
		Output: out,
		Width:  256,
		Height: 256,
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	thumb, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if size := thumb.Bounds().Size(); size.X != 256 || size.Y != 256 {
		t.Fatalf("thumbnail size = %v, want 256x256", size)
	}
}

func TestBuiltinHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuiltin().Invoke(ctx, Operation{Kind: KindPageCount, Inputs: []Source{File("x.tif")}})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

