// Package tiler slices extremely tall pages into overlapping vertical
// tiles so a renderer never has to hold one gigantic texture.
package tiler

import (
	"fmt"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
)

// Config controls when and how an image gets tiled.
type Config struct {
	// AspectRatioThreshold: only images with height/width at or above
	// this ratio are eligible for tiling.
	AspectRatioThreshold float32
	// MaxTileHeight bounds each tile before overlap is applied.
	MaxTileHeight uint32
	// Overlap is the number of rows shared between adjacent tiles.
	Overlap uint32
}

// DefaultConfig matches the long-strip ("webtoon") tiling defaults.
func DefaultConfig() Config {
	return Config{AspectRatioThreshold: 4.0, MaxTileHeight: 2048, Overlap: 128}
}

// Slice is one generated vertical tile.
type Slice struct {
	Index   uint32
	Key     coretypes.ImageKey
	OffsetY uint32
	Image   *imagedecode.DecodedImage
}

// SliceVertical produces vertical tiles for tall images, returning an
// empty slice when the source isn't tall enough to need tiling.
func SliceVertical(source *imagedecode.DecodedImage, baseKey coretypes.ImageKey, config Config) []Slice {
	if source.Width() == 0 || source.Height() == 0 {
		return nil
	}

	aspectRatio := float32(source.Height()) / float32(source.Width())
	if aspectRatio < config.AspectRatioThreshold || source.Height() <= config.MaxTileHeight {
		return nil
	}

	stride := int(source.Width()) * 4
	var tiles []Slice
	index := uint32(0)

	overlap := config.Overlap
	if overlap > config.MaxTileHeight-1 {
		overlap = config.MaxTileHeight - 1
	}
	step := config.MaxTileHeight - overlap
	if step < 1 {
		step = 1
	}

	startRow := uint32(0)
	for startRow < source.Height() {
		endRow := startRow + config.MaxTileHeight
		if endRow > source.Height() {
			endRow = source.Height()
		}

		tileHeight := endRow - startRow
		startByte := int(startRow) * stride
		endByte := int(endRow) * stride
		pixels := make([]byte, endByte-startByte)
		copy(pixels, source.Pixels[startByte:endByte])

		key := baseKey.Derive(fmt.Sprintf("tile%d", index))
		tiles = append(tiles, Slice{
			Index:   index,
			Key:     key,
			OffsetY: startRow,
			Image: &imagedecode.DecodedImage{
				Dimensions: coretypes.ImageDimensions{Width: source.Width(), Height: tileHeight},
				Pixels:     pixels,
			},
		})

		index++
		if endRow == source.Height() {
			break
		}
		startRow += step
	}

	return tiles
}
