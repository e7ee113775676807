package types

import "errors"

// ErrInvalidConfig is wrapped by every error caused by bad user parameters
// or by geometry that cannot be realised from them.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default parameter values
const (
	DefaultSigma         = 0.01
	DefaultBorderRadius  = 1
	DefaultThumbnailFrac = 0.8
)

// ImageSize is a width/height pair in pixels
type ImageSize struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Valid reports whether both dimensions are positive
func (s ImageSize) Valid() bool {
	return s.Height > 0 && s.Width > 0
}

// Params are the raw user parameters of a carousel run
type Params struct {
	// NumPanels is the number of panels to split the panorama into
	NumPanels int `json:"num_panels"`
	// PanelHeight resizes the source to this height first; 0 keeps it
	PanelHeight int `json:"panel_height"`
	// Sigma is the blur strength as a fraction of the panel height
	Sigma float64 `json:"sigma"`
	// BorderRadius is the thumbnail border width in pixels
	BorderRadius int `json:"border_radius"`
	// BorderColor is an RGB triple; nil means black
	BorderColor []uint8 `json:"border_color,omitempty"`
	// ThumbnailFrac is the outer thumbnail width as a fraction of the panel width
	ThumbnailFrac float64 `json:"thumbnail_frac"`
}

// DefaultParams returns Params with every optional value at its default
func DefaultParams(numPanels int) Params {
	return Params{
		NumPanels:     numPanels,
		Sigma:         DefaultSigma,
		BorderRadius:  DefaultBorderRadius,
		ThumbnailFrac: DefaultThumbnailFrac,
	}
}

// OutputOptions controls how artifacts are encoded
type OutputOptions struct {
	Format   string
	Quality  int
	Lossless bool
}
