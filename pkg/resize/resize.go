// Package resize produces high-quality resized RGBA frames for the
// rendering pipeline, built on top of github.com/disintegration/imaging.
package resize

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

// Filter selects the resampling kernel. Lanczos3 is the default: high
// quality for both up- and down-scaling.
type Filter int

const (
	Lanczos3 Filter = iota
	Nearest
	Box
	Bilinear
	Hamming
	CatmullRom
	Mitchell
)

func (f Filter) imagingFilter() imaging.ResampleFilter {
	switch f {
	case Nearest:
		return imaging.NearestNeighbor
	case Box:
		return imaging.Box
	case Bilinear:
		return imaging.Linear
	case Hamming:
		return hammingFilter
	case CatmullRom:
		return imaging.CatmullRom
	case Mitchell:
		return imaging.MitchellNetravali
	default:
		return imaging.Lanczos
	}
}

// hammingFilter is a Hamming-windowed sinc kernel with support 1.
// imaging ships Lanczos/CatmullRom/Mitchell/Box/Linear/NearestNeighbor
// but not Hamming, so it's defined here.
var hammingFilter = imaging.ResampleFilter{
	Support: 1.0,
	Kernel: func(x float64) float64 {
		if x == 0 {
			return 1
		}
		if x < -1 || x > 1 {
			return 0
		}
		x *= math.Pi
		return (math.Sin(x) / x) * (0.54 + 0.46*math.Cos(x))
	},
}

// AlphaBehavior controls whether color channels are premultiplied by
// alpha before filtering.
type AlphaBehavior int

const (
	// Consider premultiplies alpha before filtering and unpremultiplies
	// after, avoiding color bleed from transparent neighbors. Default.
	Consider AlphaBehavior = iota
	// Ignore filters RGB and alpha channels independently, treating the
	// image as opaque RGB plus a parallel alpha channel.
	Ignore
)

// Settings configures a single resize operation.
type Settings struct {
	Target coretypes.ImageDimensions
	Filter Filter
	Alpha  AlphaBehavior
}

// NewSettings returns Lanczos3/Consider defaults for the given target.
func NewSettings(target coretypes.ImageDimensions) Settings {
	return Settings{Target: target, Filter: Lanczos3, Alpha: Consider}
}

// Resize rescales a decoded RGBA frame to settings.Target. Returns
// BadDimensions if either the source or the target has a zero
// dimension. A source already at the target size is returned unchanged.
func Resize(source *imagedecode.DecodedImage, settings Settings) (*imagedecode.DecodedImage, error) {
	srcW, srcH := source.Width(), source.Height()
	if srcW == 0 || srcH == 0 {
		return nil, readererr.New(readererr.BadDimensions, "source image has zero dimensions")
	}

	dstW, dstH := settings.Target.Width, settings.Target.Height
	if dstW == 0 || dstH == 0 {
		return nil, readererr.New(readererr.BadDimensions, "target dimensions must be non-zero")
	}

	if srcW == dstW && srcH == dstH {
		out := make([]byte, len(source.Pixels))
		copy(out, source.Pixels)
		return &imagedecode.DecodedImage{Dimensions: settings.Target, Pixels: out}, nil
	}

	expected := int(srcW) * int(srcH) * 4
	if len(source.Pixels) < expected {
		return nil, readererr.New(readererr.BadDimensions, "source buffer is smaller than expected")
	}

	src := &image.NRGBA{
		Pix:    source.Pixels,
		Stride: int(srcW) * 4,
		Rect:   image.Rect(0, 0, int(srcW), int(srcH)),
	}

	filter := settings.Filter.imagingFilter()

	var resized *image.NRGBA
	if settings.Alpha == Ignore {
		resized = imaging.Resize(src, int(dstW), int(dstH), filter)
	} else {
		resized = resizePremultiplied(src, int(dstW), int(dstH), filter)
	}

	return &imagedecode.DecodedImage{
		Dimensions: coretypes.ImageDimensions{Width: dstW, Height: dstH},
		Pixels:     resized.Pix,
	}, nil
}

// resizePremultiplied premultiplies RGB by alpha before filtering and
// unpremultiplies afterward, avoiding dark fringing from transparent
// neighbor pixels.
func resizePremultiplied(src *image.NRGBA, dstW, dstH int, filter imaging.ResampleFilter) *image.NRGBA {
	b := src.Bounds()
	premult := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := src.PixOffset(x, y)
			a := float64(src.Pix[o+3]) / 255.0
			po := premult.PixOffset(x, y)
			premult.Pix[po] = uint8(float64(src.Pix[o]) * a)
			premult.Pix[po+1] = uint8(float64(src.Pix[o+1]) * a)
			premult.Pix[po+2] = uint8(float64(src.Pix[o+2]) * a)
			premult.Pix[po+3] = src.Pix[o+3]
		}
	}

	resized := imaging.Resize(premult, dstW, dstH, filter)

	for i := 0; i+4 <= len(resized.Pix); i += 4 {
		a := resized.Pix[i+3]
		if a == 0 {
			continue
		}
		af := float64(a) / 255.0
		resized.Pix[i] = clampByte(float64(resized.Pix[i]) / af)
		resized.Pix[i+1] = clampByte(float64(resized.Pix[i+1]) / af)
		resized.Pix[i+2] = clampByte(float64(resized.Pix[i+2]) / af)
	}

	return resized
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
