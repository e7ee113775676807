// Package geometry derives panel and thumbnail sizes for a panorama.
//
// Everything here is integer arithmetic with truncation toward zero, and
// nothing touches pixels.
package geometry

import (
	"fmt"
	"image"
	"math"

	"github.com/menta2k/panorama-carousel/pkg/types"
)

// MaxDimension bounds source width and height so that the thumbnail
// arithmetic cannot overflow.
const MaxDimension = 1 << 24

// Geometry is the derived layout of a carousel run
type Geometry struct {
	Source       types.ImageSize
	Panel        types.ImageSize
	Thumbnail    types.ImageSize // outer, border included
	BorderRadius int
	NumPanels    int
	// Blur is the Gaussian sigma of the cover background in pixels
	Blur float64
}

// ScaledWidth returns the width of a width x height raster resized to
// targetHeight with its aspect ratio kept.
func ScaledWidth(width, height, targetHeight int) (int, error) {
	if err := checkSource(width, height); err != nil {
		return 0, err
	}
	if targetHeight <= 0 || targetHeight > MaxDimension {
		return 0, fmt.Errorf("%w: panel height %d out of range", types.ErrInvalidConfig, targetHeight)
	}
	w := width * targetHeight / height
	if w <= 0 {
		return 0, fmt.Errorf("%w: resizing %dx%d to height %d leaves no width", types.ErrInvalidConfig, width, height, targetHeight)
	}
	return w, nil
}

// Derive computes the layout for a width x height source.
// Remainder columns past NumPanels*Panel.Width belong to no panel.
func Derive(width, height int, p types.Params) (Geometry, error) {
	if err := checkSource(width, height); err != nil {
		return Geometry{}, err
	}
	if p.NumPanels <= 0 {
		return Geometry{}, fmt.Errorf("%w: number of panels must be at least 1, got %d", types.ErrInvalidConfig, p.NumPanels)
	}
	if p.BorderRadius < 0 {
		return Geometry{}, fmt.Errorf("%w: negative border radius %d", types.ErrInvalidConfig, p.BorderRadius)
	}

	panel := types.ImageSize{Height: height, Width: width / p.NumPanels}
	if !panel.Valid() {
		return Geometry{}, fmt.Errorf("%w: %d panels do not fit into width %d", types.ErrInvalidConfig, p.NumPanels, width)
	}

	thumbWidth := int(float64(panel.Width) * p.ThumbnailFrac)
	if thumbWidth <= 2*p.BorderRadius || thumbWidth > panel.Width {
		return Geometry{}, fmt.Errorf("%w: thumbnail width %d leaves no room inside a border of %d", types.ErrInvalidConfig, thumbWidth, p.BorderRadius)
	}

	// The outer thumbnail follows the aspect ratio of the whole panorama,
	// padded by the border on both axes.
	pad := 2 * p.BorderRadius
	thumb := types.ImageSize{
		Height: thumbWidth * (height + pad) / (width + pad),
		Width:  thumbWidth,
	}

	// The blur kernel spans 3 sigma on each side; past the panel size it
	// only flattens the crop further while its allocation keeps growing.
	blur := p.Sigma * float64(height)
	if math.IsNaN(blur) || blur < 0 || blur > float64(max(panel.Width, panel.Height)) {
		return Geometry{}, fmt.Errorf("%w: blur sigma %g exceeds panel size %dx%d", types.ErrInvalidConfig, p.Sigma, panel.Width, panel.Height)
	}

	g := Geometry{
		Source:       types.ImageSize{Height: height, Width: width},
		Panel:        panel,
		Thumbnail:    thumb,
		BorderRadius: p.BorderRadius,
		NumPanels:    p.NumPanels,
		Blur:         blur,
	}
	if inner := g.InnerThumbnail(); !inner.Valid() {
		return Geometry{}, fmt.Errorf("%w: inner thumbnail %dx%d is empty (border radius %d)", types.ErrInvalidConfig, inner.Width, inner.Height, p.BorderRadius)
	}
	if thumb.Height > panel.Height {
		return Geometry{}, fmt.Errorf("%w: thumbnail height %d exceeds panel height %d", types.ErrInvalidConfig, thumb.Height, panel.Height)
	}
	return g, nil
}

// InnerThumbnail is the thumbnail size with the border removed
func (g Geometry) InnerThumbnail() types.ImageSize {
	return types.ImageSize{
		Height: g.Thumbnail.Height - 2*g.BorderRadius,
		Width:  g.Thumbnail.Width - 2*g.BorderRadius,
	}
}

// PanelRect is the crop window of the panel at zero-based idx
func (g Geometry) PanelRect(idx int) image.Rectangle {
	x0 := g.Panel.Width * idx
	return image.Rect(x0, 0, x0+g.Panel.Width, g.Panel.Height)
}

// PanelRects returns the crop windows of all panels in order
func (g Geometry) PanelRects() []image.Rectangle {
	rects := make([]image.Rectangle, g.NumPanels)
	for i := range rects {
		rects[i] = g.PanelRect(i)
	}
	return rects
}

// CoverWindow is the background crop of the cover. Its origin is
// Source.Width/2 - Panel.Width, which only goes negative for a single
// panel; it is clamped to 0 there.
func (g Geometry) CoverWindow() image.Rectangle {
	x0 := g.Source.Width/2 - g.Panel.Width
	if x0 < 0 {
		x0 = 0
	}
	return image.Rect(x0, 0, x0+g.Panel.Width, g.Panel.Height)
}

// CoveredWidth is the number of source columns that end up in some panel
func (g Geometry) CoveredWidth() int {
	return g.NumPanels * g.Panel.Width
}

func checkSource(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid image dimensions %dx%d", types.ErrInvalidConfig, width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: image dimensions %dx%d exceed %d", types.ErrInvalidConfig, width, height, MaxDimension)
	}
	return nil
}
