package resize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
)

func sampleImage(width, height uint32) *imagedecode.DecodedImage {
	widthDivisor := width - 1
	if widthDivisor < 1 {
		widthDivisor = 1
	}
	heightDivisor := height - 1
	if heightDivisor < 1 {
		heightDivisor = 1
	}

	pixels := make([]byte, 0, width*height*4)
	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			r := min255((x * 255) / widthDivisor)
			g := min255((y * 255) / heightDivisor)
			pixels = append(pixels, byte(r), byte(g), 0, 255)
		}
	}
	return &imagedecode.DecodedImage{
		Dimensions: coretypes.ImageDimensions{Width: width, Height: height},
		Pixels:     pixels,
	}
}

func min255(v uint32) uint32 {
	if v > 255 {
		return 255
	}
	return v
}

func TestResize_ToExpectedDimensions(t *testing.T) {
	src := sampleImage(4, 4)
	target := coretypes.ImageDimensions{Width: 8, Height: 8}
	resized, err := Resize(src, NewSettings(target))
	require.NoError(t, err)
	assert.Equal(t, uint32(8), resized.Width())
	assert.Equal(t, uint32(8), resized.Height())
	assert.Len(t, resized.Pixels, 8*8*4)
}

func TestResize_CatmullRomDownscalePreservesGradient(t *testing.T) {
	src := sampleImage(8, 8)
	target := coretypes.ImageDimensions{Width: 4, Height: 4}
	settings := NewSettings(target)
	settings.Filter = CatmullRom
	resized, err := Resize(src, settings)
	require.NoError(t, err)

	topLeft := resized.Pixels[0:4]
	bottomRightStart := (len(resized.Pixels)/4 - 1) * 4
	bottomRight := resized.Pixels[bottomRightStart : bottomRightStart+4]

	assert.Less(t, topLeft[0], bottomRight[0], "red channel should increase across gradient")
	assert.Less(t, topLeft[1], bottomRight[1], "green channel should increase across gradient")
}

func TestResize_NearestNeighborIdentityForSameDimensions(t *testing.T) {
	src := sampleImage(5, 5)
	settings := NewSettings(coretypes.ImageDimensions{Width: 5, Height: 5})
	settings.Filter = Nearest
	resized, err := Resize(src, settings)
	require.NoError(t, err)
	assert.Equal(t, src.Pixels, resized.Pixels)
}

func TestResize_ZeroTargetDimension(t *testing.T) {
	src := sampleImage(4, 4)
	_, err := Resize(src, NewSettings(coretypes.ImageDimensions{Width: 0, Height: 4}))
	require.Error(t, err)
}

func TestResize_ZeroSourceDimension(t *testing.T) {
	src := &imagedecode.DecodedImage{Dimensions: coretypes.ImageDimensions{Width: 0, Height: 0}}
	_, err := Resize(src, NewSettings(coretypes.ImageDimensions{Width: 4, Height: 4}))
	require.Error(t, err)
}
