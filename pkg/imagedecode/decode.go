// Package imagedecode turns raw archive/file bytes into an RGBA pixel
// buffer: format inference, decode, EXIF orientation, and ICC-to-sRGB
// conversion.
package imagedecode

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/readererr"
)

// DecodedImage is the RGBA8888 pixel buffer produced by Decode, row-major
// from top-left to bottom-right with straight (non-premultiplied) alpha.
type DecodedImage struct {
	Dimensions coretypes.ImageDimensions
	Pixels     []byte
}

func (d *DecodedImage) Width() uint32  { return d.Dimensions.Width }
func (d *DecodedImage) Height() uint32 { return d.Dimensions.Height }

// Decode decodes the primary frame of a comic page into an RGBA buffer,
// applying any EXIF orientation and ICC color profile found in the
// source bytes. Supported formats: JPEG, PNG, WebP, GIF (first frame),
// BMP. AVIF is recognized but not decodable and reports DecodeFailed.
//
// A malformed or unsupported ICC profile is not fatal: it is logged
// through log and the page is returned with its uncorrected pixels.
func Decode(log logger.Logger, meta *coretypes.PageMeta, data []byte) (*DecodedImage, error) {
	if len(data) == 0 {
		return nil, readererr.New(readererr.EmptyImage, "empty image data for %q", meta.RelPath)
	}

	format := inferFormat(meta.RelPath, data)
	if format == "avif" {
		return nil, readererr.New(readererr.DecodeFailed, "avif decoding is not supported for %q", meta.RelPath)
	}

	img, err := decodeByFormat(format, data)
	if err != nil {
		return nil, readererr.New(readererr.DecodeFailed, "decoding %q as %s: %v", meta.RelPath, format, err)
	}

	nrgba := toNRGBA(img)

	if orientation := readEXIFOrientation(format, data); orientation != 1 {
		nrgba = applyOrientation(nrgba, orientation)
	}

	if iccBytes := extractICCProfile(format, data); iccBytes != nil {
		if err := convertToSRGBInPlace(nrgba, iccBytes); err != nil {
			iccErr := readererr.New(readererr.ICCFailed, "icc conversion for %q: %v", meta.RelPath, err)
			log.Err(iccErr).Error("icc conversion failed, returning uncorrected pixels")
		}
	}

	return &DecodedImage{
		Dimensions: coretypes.ImageDimensions{
			Width:  uint32(nrgba.Bounds().Dx()),
			Height: uint32(nrgba.Bounds().Dy()),
		},
		Pixels: nrgba.Pix,
	}, nil
}

func inferFormat(relPath string, data []byte) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(relPath), "."))
	switch ext {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	case "webp":
		return "webp"
	case "bmp":
		return "bmp"
	case "avif":
		return "avif"
	}

	mt := mimetype.Detect(data)
	for mt != nil {
		switch mt.String() {
		case "image/jpeg":
			return "jpeg"
		case "image/png":
			return "png"
		case "image/gif":
			return "gif"
		case "image/webp":
			return "webp"
		case "image/bmp":
			return "bmp"
		case "image/avif":
			return "avif"
		}
		mt = mt.Parent()
	}
	return "unknown"
}

func decodeByFormat(format string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch format {
	case "jpeg":
		return jpeg.Decode(r)
	case "png":
		return png.Decode(r)
	case "gif":
		return gif.Decode(r) // first frame only
	case "webp":
		return webp.Decode(r)
	case "bmp":
		return bmp.Decode(r)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		return img, err
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// readEXIFOrientation extracts the EXIF orientation tag (1-8) from JPEG
// bytes. Non-JPEG formats and images with no EXIF data report 1
// (identity).
func readEXIFOrientation(format string, data []byte) int {
	if format != "jpeg" {
		return 1
	}
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}
