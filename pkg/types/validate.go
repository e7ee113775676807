package types

import (
	"errors"
	"math"

	vd "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the parameters without looking at any image
func (p Params) Validate() error {
	return vd.ValidateStruct(&p,
		vd.Field(&p.NumPanels, vd.Required, vd.Min(1)),
		vd.Field(&p.PanelHeight, vd.Min(0)),
		vd.Field(&p.Sigma, vd.By(isFinite), vd.Min(0.0)),
		vd.Field(&p.BorderRadius, vd.Min(0)),
		vd.Field(&p.BorderColor, vd.By(isRGBTriple)),
		vd.Field(&p.ThumbnailFrac, vd.Required, vd.Min(0.0).Exclusive(), vd.Max(1.0)),
	)
}

// Color returns the border color, black when none was given.
// Call Validate first.
func (p Params) Color() [3]uint8 {
	var c [3]uint8
	if len(p.BorderColor) == 3 {
		copy(c[:], p.BorderColor)
	}
	return c
}

func isRGBTriple(value interface{}) error {
	c, _ := value.([]uint8)
	if c != nil && len(c) != 3 {
		return errors.New("border color RGB is not of length 3")
	}
	return nil
}

func isFinite(value interface{}) error {
	f, _ := value.(float64)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return errors.New("must be a finite number")
	}
	return nil
}
