package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	vd "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/menta2k/panorama-carousel/pkg/types"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. PANO_CAROUSEL_SIGMA.
const EnvPrefix = "PANO"

// Config holds the application configuration
type Config struct {
	Carousel CarouselConfig `mapstructure:"carousel"`
	Output   OutputConfig   `mapstructure:"output"`
	// Dev enables human readable debug logging
	Dev bool `mapstructure:"dev"`
}

// CarouselConfig holds the panel and cover parameters
type CarouselConfig struct {
	Panels        int     `mapstructure:"panels"`
	PanelHeight   int     `mapstructure:"panel_height"`
	Sigma         float64 `mapstructure:"sigma"`
	BorderRadius  int     `mapstructure:"border_radius"`
	BorderColor   string  `mapstructure:"border_color"`
	ThumbnailFrac float64 `mapstructure:"thumbnail_frac"`
}

// OutputConfig holds configuration for artifact generation
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Quality  int    `mapstructure:"quality"`
	Lossless bool   `mapstructure:"lossless"`
	// Dir overrides the source image's directory
	Dir         string `mapstructure:"dir"`
	Concurrency int    `mapstructure:"concurrency"`
	Debug       bool   `mapstructure:"debug"`
	// Stem drops the source extension from artifact names
	Stem bool `mapstructure:"stem"`
}

// Default returns a configuration with default values.
// The number of panels has no default and must be set.
func Default() *Config {
	return &Config{
		Carousel: CarouselConfig{
			Sigma:         types.DefaultSigma,
			BorderRadius:  types.DefaultBorderRadius,
			ThumbnailFrac: types.DefaultThumbnailFrac,
		},
		Output: OutputConfig{
			Format:      "jpg",
			Quality:     90,
			Concurrency: 1,
		},
	}
}

func (c *Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"carousel.panels":         c.Carousel.Panels,
		"carousel.panel_height":   c.Carousel.PanelHeight,
		"carousel.sigma":          c.Carousel.Sigma,
		"carousel.border_radius":  c.Carousel.BorderRadius,
		"carousel.border_color":   c.Carousel.BorderColor,
		"carousel.thumbnail_frac": c.Carousel.ThumbnailFrac,
		"output.format":           c.Output.Format,
		"output.quality":          c.Output.Quality,
		"output.lossless":         c.Output.Lossless,
		"output.dir":              c.Output.Dir,
		"output.concurrency":      c.Output.Concurrency,
		"output.debug":            c.Output.Debug,
		"output.stem":             c.Output.Stem,
		"dev":                     c.Dev,
	}
}

// NewViper returns a viper instance with every key defaulted and
// environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range Default().settings() {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the configuration out of v
func Load(v *viper.Viper) (*Config, error) {
	c := Default()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return c, nil
}

// ReadConfigFile merges a json, yaml or toml file into v. Keys already
// set by flags keep their flag values.
func ReadConfigFile(v *viper.Viper, filename string) error {
	v.SetConfigFile(filename)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// ResolveConfigFile returns explicit when set, otherwise GetConfigPath()
// if a regular file exists there, otherwise "".
func ResolveConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := GetConfigPath()
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return path
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := vd.ValidateStruct(c,
		vd.Field(&c.Carousel),
		vd.Field(&c.Output),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the carousel section
func (c CarouselConfig) Validate() error {
	params, err := c.Params()
	if err != nil {
		return err
	}
	return params.Validate()
}

// Validate checks the output section
func (o OutputConfig) Validate() error {
	return vd.ValidateStruct(&o,
		vd.Field(&o.Format, vd.In("jpg", "jpeg", "png", "webp")),
		vd.Field(&o.Quality, vd.Min(1), vd.Max(100)),
		vd.Field(&o.Concurrency, vd.Min(0)),
	)
}

// Params converts the carousel section into pipeline parameters
func (c CarouselConfig) Params() (types.Params, error) {
	color, err := ParseColor(c.BorderColor)
	if err != nil {
		return types.Params{}, err
	}
	return types.Params{
		NumPanels:     c.Panels,
		PanelHeight:   c.PanelHeight,
		Sigma:         c.Sigma,
		BorderRadius:  c.BorderRadius,
		BorderColor:   color,
		ThumbnailFrac: c.ThumbnailFrac,
	}, nil
}

// ParseColor parses "R,G,B". An empty string yields nil (black). The
// component count is left to Params.Validate.
func ParseColor(s string) ([]uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	color := make([]uint8, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: border color component %q: %v", types.ErrInvalidConfig, part, errors.Unwrap(err))
		}
		color = append(color, uint8(n))
	}
	return color, nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "panorama-carousel", "config.yaml")
}
