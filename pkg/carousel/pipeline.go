// Package carousel splits a panorama into equal-width panels and
// composes the cover image shown in front of them.
package carousel

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/geometry"
	"github.com/menta2k/panorama-carousel/pkg/output"
	"github.com/menta2k/panorama-carousel/pkg/processing"
	"github.com/menta2k/panorama-carousel/pkg/raster"
	"github.com/menta2k/panorama-carousel/pkg/types"
)

// Pipeline is a validated carousel run over one source raster.
// It is not modified after New and may be exported from several goroutines.
type Pipeline struct {
	src         *image.NRGBA
	geom        geometry.Geometry
	border      raster.RGB
	concurrency int
	logger      *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithConcurrency bounds the number of panels exported at once
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// ValidateParams checks params before any image is decoded
func ValidateParams(params types.Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	return nil
}

// New validates params against img and derives the layout. img is copied;
// later changes to it do not affect the pipeline.
func New(img image.Image, params types.Params, opts ...Option) (*Pipeline, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", types.ErrInvalidConfig)
	}

	p := &Pipeline{
		border:      raster.RGB(params.Color()),
		concurrency: 1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var src *image.NRGBA
	if params.PanelHeight > 0 {
		resized, err := processing.ResizeToHeight(img, params.PanelHeight)
		if err != nil {
			return nil, err
		}
		src = processing.ToRGB(resized)
		p.logger.Debug("resized source",
			zap.Int("from_height", img.Bounds().Dy()),
			zap.Int("to_width", src.Bounds().Dx()),
			zap.Int("to_height", src.Bounds().Dy()))
	} else {
		src = processing.ToRGB(img)
	}

	geom, err := geometry.Derive(src.Bounds().Dx(), src.Bounds().Dy(), params)
	if err != nil {
		return nil, err
	}
	p.src = src
	p.geom = geom

	p.logger.Debug("derived geometry",
		zap.Int("panels", geom.NumPanels),
		zap.Int("panel_width", geom.Panel.Width),
		zap.Int("panel_height", geom.Panel.Height),
		zap.Int("thumbnail_width", geom.Thumbnail.Width),
		zap.Int("thumbnail_height", geom.Thumbnail.Height),
		zap.Int("dropped_columns", geom.Source.Width-geom.CoveredWidth()))
	return p, nil
}

// Geometry returns the derived layout
func (p *Pipeline) Geometry() geometry.Geometry {
	return p.geom
}

// Source returns the (possibly resized) source raster. Do not modify it.
func (p *Pipeline) Source() *image.NRGBA {
	return p.src
}

// Run exports all panels, then the cover
func (p *Pipeline) Run(ctx context.Context, w output.ArtifactWriter, root string) error {
	if err := p.ExportPanels(ctx, w, root); err != nil {
		return err
	}
	return p.ExportCover(ctx, w, root)
}

// ExportDebug saves the layout overlay as root-debug
func (p *Pipeline) ExportDebug(ctx context.Context, w output.ArtifactWriter, root string) error {
	overlay := processing.NewProcessor().CreateDebugOverlay(p.src, p.geom.PanelRects(), p.geom.CoverWindow())
	return w.Save(ctx, overlay, utils.DebugName(root))
}

// fill returns a w x h raster of a single color
func fill(w, h int, c raster.RGB) *image.NRGBA {
	return imaging.New(w, h, color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xff})
}

// exportAll runs fn for every index with at most p.concurrency in flight.
// The first error cancels the remaining work and is returned.
func (p *Pipeline) exportAll(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for idx := 0; idx < n; idx++ {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, idx)
		})
	}
	return g.Wait()
}
