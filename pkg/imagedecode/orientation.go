package imagedecode

import "image"

// applyOrientation rewrites img according to an EXIF orientation value
// (1..8). Orientation 1 (or any unrecognized value) is the identity.
// Orientations 5-8 swap width and height.
func applyOrientation(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return flipH(img)
	case 3:
		return rotate180(img)
	case 4:
		return flipV(img)
	case 5:
		return transpose(img)
	case 6:
		return rotate90CW(img)
	case 7:
		return transverse(img)
	case 8:
		return rotate270CW(img)
	default:
		return img
	}
}

func newNRGBA(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func flipH(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, b.Dx()-1-x, y, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

func flipV(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, x, b.Dy()-1-y, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

func rotate180(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, b.Dx()-1-x, b.Dy()-1-y, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

// rotate90CW rotates the image 90 degrees clockwise, swapping dimensions.
func rotate90CW(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dy(), b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, b.Dy()-1-y, x, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

// rotate270CW rotates 90 degrees counter-clockwise (270 CW).
func rotate270CW(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dy(), b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, y, b.Dx()-1-x, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

// transpose mirrors across the top-left/bottom-right diagonal.
func transpose(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dy(), b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, y, x, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

// transverse mirrors across the anti-diagonal.
func transverse(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := newNRGBA(b.Dy(), b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			copyPixel(dst, b.Dy()-1-y, b.Dx()-1-x, src, b.Min.X+x, b.Min.Y+y)
		}
	}
	return dst
}

func copyPixel(dst *image.NRGBA, dx, dy int, src *image.NRGBA, sx, sy int) {
	so := src.PixOffset(sx, sy)
	do := dst.PixOffset(dx, dy)
	copy(dst.Pix[do:do+4], src.Pix[so:so+4])
}
