// Package mipchain generates RGBA mipmap chains for decoded pages,
// halving dimensions each level until a minimum size is reached.
package mipchain

import (
	"fmt"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/imagedecode"
	"github.com/localcomicreader/readerd/pkg/resize"
)

// Config controls how mip levels are produced.
type Config struct {
	// MinDimension is the smallest width or height a generated level
	// may have before the chain stops.
	MinDimension uint32
	Filter       resize.Filter
	Alpha        resize.AlphaBehavior
}

// DefaultConfig halves down to 1x1 using Lanczos3/Consider.
func DefaultConfig() Config {
	return Config{MinDimension: 1, Filter: resize.Lanczos3, Alpha: resize.Consider}
}

// Level is a single derived mip level, excluding level 0 (the original).
type Level struct {
	Level      uint32
	Key        coretypes.ImageKey
	Dimensions coretypes.ImageDimensions
	Image      *imagedecode.DecodedImage
}

// Chain is the set of mip levels derived from a base image.
type Chain struct {
	BaseKey coretypes.ImageKey
	Levels  []Level
}

// Build iteratively downscales source by roughly factors of two until
// MinDimension is reached on both axes.
func Build(baseKey coretypes.ImageKey, source *imagedecode.DecodedImage, config Config) (*Chain, error) {
	var levels []Level
	current := source
	levelIndex := uint32(1)

	for {
		nextWidth := nextDimension(current.Width(), config.MinDimension)
		nextHeight := nextDimension(current.Height(), config.MinDimension)

		if nextWidth == current.Width() && nextHeight == current.Height() {
			break
		}

		target := coretypes.ImageDimensions{Width: nextWidth, Height: nextHeight}
		settings := resize.Settings{Target: target, Filter: config.Filter, Alpha: config.Alpha}

		resized, err := resize.Resize(current, settings)
		if err != nil {
			return nil, err
		}

		key := baseKey.Derive(fmt.Sprintf("mip%d", levelIndex))
		levels = append(levels, Level{
			Level:      levelIndex,
			Key:        key,
			Dimensions: target,
			Image:      resized,
		})

		current = resized
		levelIndex++

		if target.Width == config.MinDimension && target.Height == config.MinDimension {
			break
		}
		if target.Width == 1 && target.Height == 1 {
			break
		}
	}

	return &Chain{BaseKey: baseKey, Levels: levels}, nil
}

func nextDimension(current, minDimension uint32) uint32 {
	if current < 1 {
		current = 1
	}
	halved := (current + 1) / 2
	next := halved
	if next < minDimension {
		next = minDimension
	}
	if next > current {
		next = current
	}
	return next
}
