package tiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
)

func tallImage(width, height uint32, value byte) *imagedecode.DecodedImage {
	pixels := make([]byte, width*height*4)
	for i := range pixels {
		pixels[i] = value
	}
	return &imagedecode.DecodedImage{
		Dimensions: coretypes.ImageDimensions{Width: width, Height: height},
		Pixels:     pixels,
	}
}

func TestSliceVertical_ReturnsEmptyWhenNotTallEnough(t *testing.T) {
	image := tallImage(1024, 2048, 10)
	key := coretypes.NewImageKey("page::1")
	tiles := SliceVertical(image, key, DefaultConfig())
	assert.Empty(t, tiles)
}

func TestSliceVertical_SlicesLongImageIntoOverlappingTiles(t *testing.T) {
	image := tallImage(512, 4096, 42)
	key := coretypes.NewImageKey("page::webtoon")
	config := DefaultConfig()
	tiles := SliceVertical(image, key, config)

	require.GreaterOrEqual(t, len(tiles), 2)
	assert.Equal(t, uint32(0), tiles[0].OffsetY)
	assert.Equal(t, uint32(512), tiles[0].Image.Dimensions.Width)
	assert.Equal(t, config.MaxTileHeight, tiles[0].Image.Dimensions.Height)

	step := config.MaxTileHeight - config.Overlap
	assert.Equal(t, step, tiles[1].OffsetY)
	last := tiles[len(tiles)-1]
	assert.LessOrEqual(t, last.Image.Dimensions.Height, config.MaxTileHeight)
	assert.Less(t, last.OffsetY, image.Height())
}

func TestSliceVertical_EnsuresLastTileReachesBottom(t *testing.T) {
	image := tallImage(400, 5000, 99)
	key := coretypes.NewImageKey("page::long")
	tiles := SliceVertical(image, key, DefaultConfig())
	last := tiles[len(tiles)-1]
	assert.Equal(t, image.Height(), last.OffsetY+last.Image.Dimensions.Height)
}

func TestSliceVertical_DerivesUniqueKeysPerTile(t *testing.T) {
	image := tallImage(300, 3000, 55)
	key := coretypes.NewImageKey("page::unique")
	tiles := SliceVertical(image, key, DefaultConfig())
	seen := map[string]bool{}
	for _, tile := range tiles {
		assert.False(t, seen[tile.Key.CacheKey])
		seen[tile.Key.CacheKey] = true
	}
}
