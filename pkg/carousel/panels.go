package carousel

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/output"
)

// Panel crops the panel at zero-based idx into its own buffer
func (p *Pipeline) Panel(idx int) (*image.NRGBA, error) {
	if idx < 0 || idx >= p.geom.NumPanels {
		return nil, fmt.Errorf("panel index %d out of range [0, %d)", idx, p.geom.NumPanels)
	}
	return imaging.Crop(p.src, p.geom.PanelRect(idx)), nil
}

// ExportPanels saves every panel as root-1 .. root-N. Panels saved before
// a failure stay saved.
func (p *Pipeline) ExportPanels(ctx context.Context, w output.ArtifactWriter, root string) error {
	return p.exportAll(ctx, p.geom.NumPanels, func(ctx context.Context, idx int) error {
		panel, err := p.Panel(idx)
		if err != nil {
			return err
		}
		name := utils.PanelName(root, idx)
		if err := w.Save(ctx, panel, name); err != nil {
			p.logger.Error("could not save panel", zap.String("name", name), zap.Error(err))
			return err
		}
		return nil
	})
}
