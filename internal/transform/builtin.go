package transform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/hhrutter/tiff"
)

// DefaultJPEGQuality is the quality Builtin uses for thumbnails.
const DefaultJPEGQuality = 85

// Builtin performs every operation in-process with a pure Go TIFF codec, so
// no external tool is required.
type Builtin struct {
	jpegQuality int
}

// NewBuiltin constructs the in-process invoker.
func NewBuiltin() *Builtin {
	return &Builtin{jpegQuality: DefaultJPEGQuality}
}

// Invoke executes op against files on disk.
func (b *Builtin) Invoke(ctx context.Context, op Operation) (Result, error) {
	if err := op.validate(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	var (
		res Result
		err error
	)
	switch op.Kind {
	case KindPageCount:
		res, err = b.pageCount(op.Inputs[0])
	case KindCombine:
		err = b.combine(op.Inputs, op.Output)
	case KindCompress:
		err = b.compress(op.Inputs[0], op.Compression, op.Output)
	case KindThumbnail:
		err = b.thumbnail(op.Inputs[0], op.Width, op.Height, op.Output)
	}
	if err != nil {
		return res, fmt.Errorf("builtin %s: %w", op.Kind, err)
	}
	return res, nil
}

func (b *Builtin) pageCount(src Source) (Result, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return Result{}, err
	}
	offsets, err := pageOffsets(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", src.Path, err)
	}
	return Result{Stdout: strconv.Itoa(len(offsets)) + "\n"}, nil
}

func (b *Builtin) combine(inputs []Source, output string) error {
	files := make(map[string]*tiffFile)
	decoded := make(map[Source]image.Image)
	channels := make([]image.Image, 0, 3)
	for _, src := range inputs {
		if src.Page < 0 {
			src.Page = 0
		}
		if img, ok := decoded[src]; ok {
			channels = append(channels, img)
			continue
		}
		f, ok := files[src.Path]
		if !ok {
			var err error
			if f, err = openTIFF(src.Path); err != nil {
				return err
			}
			files[src.Path] = f
		}
		img, err := f.page(src.Page)
		if err != nil {
			return err
		}
		decoded[src] = img
		channels = append(channels, img)
	}
	for len(channels) < 3 {
		channels = append(channels, channels[len(channels)-1])
	}
	channels = channels[:3]

	bounds := channels[0].Bounds()
	for i, ch := range channels[1:] {
		if ch.Bounds().Size() != bounds.Size() {
			return fmt.Errorf("channel %d is %v, channel 0 is %v", i+1, ch.Bounds().Size(), bounds.Size())
		}
	}
	return writeOutput(output, func(w io.Writer) error {
		return tiff.Encode(w, mergeChannels(channels), nil)
	})
}

// mergeChannels builds an opaque RGB image whose red, green and blue samples
// are the luminance of the three inputs. 8-bit inputs stay 8-bit. The tiff
// encoder writes it with four samples per pixel, alpha always at full value.
func mergeChannels(ch []image.Image) image.Image {
	r, g, bl := ch[0], ch[1], ch[2]
	rg, ok0 := r.(*image.Gray)
	gg, ok1 := g.(*image.Gray)
	bg, ok2 := bl.(*image.Gray)
	if ok0 && ok1 && ok2 {
		rect := image.Rect(0, 0, rg.Rect.Dx(), rg.Rect.Dy())
		out := image.NewRGBA(rect)
		for y := 0; y < rect.Dy(); y++ {
			for x := 0; x < rect.Dx(); x++ {
				out.SetRGBA(x, y, color.RGBA{
					R: rg.GrayAt(rg.Rect.Min.X+x, rg.Rect.Min.Y+y).Y,
					G: gg.GrayAt(gg.Rect.Min.X+x, gg.Rect.Min.Y+y).Y,
					B: bg.GrayAt(bg.Rect.Min.X+x, bg.Rect.Min.Y+y).Y,
					A: 0xff,
				})
			}
		}
		return out
	}

	size := r.Bounds().Size()
	out := image.NewRGBA64(image.Rect(0, 0, size.X, size.Y))
	sample := func(img image.Image, x, y int) uint16 {
		origin := img.Bounds().Min
		return color.Gray16Model.Convert(img.At(origin.X+x, origin.Y+y)).(color.Gray16).Y
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			out.SetRGBA64(x, y, color.RGBA64{
				R: sample(r, x, y),
				G: sample(g, x, y),
				B: sample(bl, x, y),
				A: 0xffff,
			})
		}
	}
	return out
}

func (b *Builtin) compress(src Source, compression, output string) error {
	var opts tiff.Options
	switch strings.ToUpper(compression) {
	case "LZW":
		opts.Compression = tiff.LZW
	case "ZIP", "DEFLATE":
		opts.Compression = tiff.Deflate
	case "NONE":
		opts.Compression = tiff.Uncompressed
	default:
		return fmt.Errorf("unsupported compression %q", compression)
	}
	img, err := decodeSource(src)
	if err != nil {
		return err
	}
	return writeOutput(output, func(w io.Writer) error {
		return tiff.Encode(w, img, &opts)
	})
}

func (b *Builtin) thumbnail(src Source, width, height int, output string) error {
	img, err := decodeSource(src)
	if err != nil {
		return err
	}
	thumb := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
	return writeOutput(output, func(w io.Writer) error {
		return imaging.Encode(w, thumb, imaging.JPEG, imaging.JPEGQuality(b.jpegQuality))
	})
}

func decodeSource(src Source) (image.Image, error) {
	f, err := openTIFF(src.Path)
	if err != nil {
		return nil, err
	}
	page := src.Page
	if page < 0 {
		page = 0
	}
	return f.page(page)
}

type tiffFile struct {
	path    string
	data    []byte
	offsets []int64
}

func openTIFF(path string) (*tiffFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	offsets, err := pageOffsets(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &tiffFile{path: path, data: data, offsets: offsets}, nil
}

func (f *tiffFile) page(index int) (image.Image, error) {
	if index < 0 || index >= len(f.offsets) {
		return nil, fmt.Errorf("%s: page %d out of range (%d pages)", f.path, index, len(f.offsets))
	}
	img, err := tiff.DecodeAt(bytes.NewReader(f.data), f.offsets[index])
	if err != nil {
		return nil, fmt.Errorf("%s: decode page %d: %w", f.path, index, err)
	}
	return img, nil
}

// writeOutput creates path and removes it again if encoding fails.
func writeOutput(path string, encode func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
