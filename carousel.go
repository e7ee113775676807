// Package panocarousel turns a panoramic photograph into a carousel of
// equal-width panels plus a cover image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		panocarousel "github.com/menta2k/panorama-carousel"
//		"github.com/menta2k/panorama-carousel/pkg/types"
//	)
//
//	func main() {
//		c := panocarousel.New()
//
//		// panorama.jpg-1.jpg .. panorama.jpg-4.jpg and
//		// panorama.jpg-cover.jpg next to the source
//		w, err := c.DefaultWriter("photos/panorama.jpg", "", types.OutputOptions{})
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := c.ProcessImageFile(context.Background(), "photos/panorama.jpg", types.DefaultParams(4), w); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): derives panel and thumbnail sizes from the source size and parameters
// 2. Carousel (pkg/carousel): crops panels and composes the cover
// 3. Raster (pkg/raster): the centering overlay shared by the cover steps
// 4. Processing (pkg/processing): decoding, resampling and encoding (jpg, png, webp)
// 5. Output (pkg/output): artifact writers for directories and memory
//
// The cover is a blurred crop of the panorama with a bordered thumbnail of
// the whole panorama centered on it. The thumbnail keeps the aspect ratio of
// the full panorama, not of a panel.
package panocarousel

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/carousel"
	"github.com/menta2k/panorama-carousel/pkg/output"
	"github.com/menta2k/panorama-carousel/pkg/processing"
	"github.com/menta2k/panorama-carousel/pkg/types"
)

// Version of the panorama carousel library
const Version = "1.0.0"

// Options tunes a Carousel
type Options struct {
	// Concurrency bounds parallel panel exports; 0 or 1 exports sequentially
	Concurrency int
	// Debug additionally writes a layout overlay of the source
	Debug bool
	// StemNames drops the source extension from artifact names
	// (pano-1.jpg instead of pano.jpg-1.jpg)
	StemNames bool
	Logger    *zap.Logger
}

// Carousel provides a high-level interface over loading, layout and export
type Carousel struct {
	processor *processing.Processor
	opts      Options
	logger    *zap.Logger
}

// New creates a new Carousel with default options
func New() *Carousel {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a new Carousel with custom options
func NewWithOptions(opts Options) *Carousel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Carousel{
		processor: processing.NewProcessor(),
		opts:      opts,
		logger:    logger,
	}
}

// LoadImage loads an image from a file path or an http(s) URL
func (c *Carousel) LoadImage(ctx context.Context, source string) (*image.NRGBA, error) {
	return c.processor.LoadImageSmart(ctx, source)
}

// NewPipeline validates params against img
func (c *Carousel) NewPipeline(img image.Image, params types.Params) (*carousel.Pipeline, error) {
	return carousel.New(img, params,
		carousel.WithLogger(c.logger),
		carousel.WithConcurrency(c.opts.Concurrency))
}

// DefaultWriter writes next to a local source, or into outDir when given.
// URL sources without outDir write to the working directory.
func (c *Carousel) DefaultWriter(source, outDir string, opts types.OutputOptions) (*output.DirWriter, error) {
	dir := outDir
	if dir == "" {
		dir = "."
		if !processing.IsURL(source) {
			dir = utils.SourceDir(source)
		}
	}
	return output.NewDirWriter(dir, opts, c.logger)
}

// Process exports the panels and the cover of img under the root name
func (c *Carousel) Process(ctx context.Context, img image.Image, params types.Params, w output.ArtifactWriter, root string) error {
	p, err := c.NewPipeline(img, params)
	if err != nil {
		return err
	}
	if c.opts.Debug {
		if err := p.ExportDebug(ctx, w, root); err != nil {
			return fmt.Errorf("failed to save debug overlay: %w", err)
		}
	}
	if err := p.ExportPanels(ctx, w, root); err != nil {
		return fmt.Errorf("failed to save carousel: %w", err)
	}
	if err := p.ExportCover(ctx, w, root); err != nil {
		return fmt.Errorf("failed to save cover: %w", err)
	}
	return nil
}

// ProcessImageFile checks params, loads source and exports its carousel
// and cover. Nothing is decoded when params are invalid.
func (c *Carousel) ProcessImageFile(ctx context.Context, source string, params types.Params, w output.ArtifactWriter) error {
	if err := carousel.ValidateParams(params); err != nil {
		return err
	}

	img, err := c.LoadImage(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	c.logger.Debug("loaded source",
		zap.String("source", source),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	return c.Process(ctx, img, params, w, c.RootName(source))
}

// RootName is the artifact name prefix used for source
func (c *Carousel) RootName(source string) string {
	if c.opts.StemNames {
		return utils.StemName(source)
	}
	return utils.RootName(source)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
