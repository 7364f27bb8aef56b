package decoration

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/joeberkovitz/gmnx-viewer/config"
)

// Style carries the paint attributes decorations apply to their elements.
type Style struct {
	RegionFill   colorful.Color
	GraphicFill  colorful.Color
	CursorStroke colorful.Color
	CursorWidth  float64
	Opacity      float64
}

// StyleFromConfig parses the hex colors of a style configuration.
func StyleFromConfig(sc config.StyleConfig) (Style, error) {
	region, err := colorful.Hex(sc.RegionFill)
	if err != nil {
		return Style{}, fmt.Errorf("region fill %q: %w", sc.RegionFill, err)
	}
	graphic, err := colorful.Hex(sc.GraphicFill)
	if err != nil {
		return Style{}, fmt.Errorf("graphic fill %q: %w", sc.GraphicFill, err)
	}
	cursor, err := colorful.Hex(sc.CursorStroke)
	if err != nil {
		return Style{}, fmt.Errorf("cursor stroke %q: %w", sc.CursorStroke, err)
	}
	return Style{
		RegionFill:   region,
		GraphicFill:  graphic,
		CursorStroke: cursor,
		CursorWidth:  sc.CursorWidth,
		Opacity:      sc.Opacity,
	}, nil
}

// DefaultStyle returns the style built from the stock configuration.
func DefaultStyle() Style {
	s, _ := StyleFromConfig(config.GetViewerConfig().Styles)
	return s
}
