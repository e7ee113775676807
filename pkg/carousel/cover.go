package carousel

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/output"
	"github.com/menta2k/panorama-carousel/pkg/raster"
)

// Background is the blurred crop the cover is drawn on.
// Blur sigma is Sigma * panel height.
func (p *Pipeline) Background() *image.NRGBA {
	bg := imaging.Crop(p.src, p.geom.CoverWindow())
	return imaging.Blur(bg, p.geom.Blur)
}

// Thumbnail is the whole source resampled to the inner thumbnail size
func (p *Pipeline) Thumbnail() *image.NRGBA {
	inner := p.geom.InnerThumbnail()
	return imaging.Resize(p.src, inner.Width, inner.Height, imaging.Lanczos)
}

// BorderedThumbnail is the thumbnail centered on a field of the border
// color, leaving BorderRadius pixels of border on every side.
func (p *Pipeline) BorderedThumbnail() (*image.NRGBA, error) {
	outer := p.geom.Thumbnail
	framed := fill(outer.Width, outer.Height, p.border)
	if err := raster.OverlayCentered(raster.Wrap(framed), raster.Wrap(p.Thumbnail())); err != nil {
		return nil, fmt.Errorf("thumbnail border: %w", err)
	}
	return framed, nil
}

// Cover composes the bordered thumbnail over the blurred background.
// The result always has the panel size.
func (p *Pipeline) Cover() (*image.NRGBA, error) {
	framed, err := p.BorderedThumbnail()
	if err != nil {
		return nil, err
	}
	cover := p.Background()
	if err := raster.OverlayCentered(raster.Wrap(cover), raster.Wrap(framed)); err != nil {
		return nil, fmt.Errorf("cover: %w", err)
	}
	return cover, nil
}

// ExportCover saves the cover as root-cover
func (p *Pipeline) ExportCover(ctx context.Context, w output.ArtifactWriter, root string) error {
	cover, err := p.Cover()
	if err != nil {
		return err
	}
	return w.Save(ctx, cover, utils.CoverName(root))
}
