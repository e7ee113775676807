package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	panocarousel "github.com/menta2k/panorama-carousel"
	"github.com/menta2k/panorama-carousel/internal/config"
	"github.com/menta2k/panorama-carousel/pkg/types"
)

const diagram = `Split a panorama into a carousel of panels and a cover image.

  +---------+---------+---------+---------+
  | pano-1  | pano-2  | pano-3  | pano-4  |   carousel
  +---------+---------+---------+---------+

  +---------+
  | blurred |
  | +-----+ |   cover: blurred crop of the panorama with a
  | |thumb| |   bordered thumbnail of the whole panorama
  | +-----+ |
  +---------+

Artifacts are written next to the source as {file}-1..N.jpg and {file}-cover.jpg,
where {file} is the source file name (pano.jpg-1.jpg); --stem drops its extension.`

func newRootCommand() *cobra.Command {
	var configFile string
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "panorama-carousel [flags] FILE|URL",
		Short:         "split a panorama into carousel panels and a cover",
		Long:          diagram,
		Version:       panocarousel.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := config.ResolveConfigFile(configFile); path != "" {
				if err := config.ReadConfigFile(v, path); err != nil {
					return err
				}
			}
			c, err := config.Load(v)
			if err != nil {
				return err
			}

			logger := getLogger(c.Dev)
			defer func() { _ = logger.Sync() }()

			return run(cmd.Context(), c, args[0], logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file path (json, yaml or toml); defaults to "+config.GetConfigPath()+" when present")

	flags.IntP("panels", "n", 0, "number of panels to split image into")
	bindPFlag(v, flags, "carousel.panels", "panels")
	flags.IntP("panel-height", "q", 0, "target image height in pixels; 0 keeps the current height")
	bindPFlag(v, flags, "carousel.panel_height", "panel-height")
	flags.Float64P("sigma", "s", types.DefaultSigma, "gaussian blur radius as fraction of panel height")
	bindPFlag(v, flags, "carousel.sigma", "sigma")
	flags.IntP("border-radius", "b", types.DefaultBorderRadius, "radius of border around thumbnail")
	bindPFlag(v, flags, "carousel.border_radius", "border-radius")
	flags.StringP("border-color", "c", "", `border color as "R,G,B" (e.g. 255,255,0); defaults to black`)
	bindPFlag(v, flags, "carousel.border_color", "border-color")
	flags.Float64P("thumbnail-frac", "f", types.DefaultThumbnailFrac, "ratio of thumbnail width to panel width (including border)")
	bindPFlag(v, flags, "carousel.thumbnail_frac", "thumbnail-frac")

	flags.String("format", "jpg", "output format: jpg|png|webp")
	bindPFlag(v, flags, "output.format", "format")
	flags.Int("quality", 90, "JPEG/WebP output quality (1-100)")
	bindPFlag(v, flags, "output.quality", "quality")
	flags.Bool("lossless", false, "WebP output lossless mode")
	bindPFlag(v, flags, "output.lossless", "lossless")
	flags.StringP("out", "o", "", "output directory; defaults to the source image's directory")
	bindPFlag(v, flags, "output.dir", "out")
	flags.Int("concurrency", 1, "number of panels exported in parallel")
	bindPFlag(v, flags, "output.concurrency", "concurrency")
	flags.Bool("debug", false, "also write a layout overlay of the source")
	bindPFlag(v, flags, "output.debug", "debug")
	flags.Bool("stem", false, "drop the source extension from artifact names (pano-1.jpg instead of pano.jpg-1.jpg)")
	bindPFlag(v, flags, "output.stem", "stem")
	flags.Bool("dev", false, "development logging")
	bindPFlag(v, flags, "dev", "dev")

	return cmd
}

func run(ctx context.Context, c *config.Config, source string, logger *zap.Logger) error {
	if err := c.Validate(); err != nil {
		return err
	}
	params, err := c.Carousel.Params()
	if err != nil {
		return err
	}

	carousel := panocarousel.NewWithOptions(panocarousel.Options{
		Concurrency: c.Output.Concurrency,
		Debug:       c.Output.Debug,
		StemNames:   c.Output.Stem,
		Logger:      logger,
	})
	w, err := carousel.DefaultWriter(source, c.Output.Dir, types.OutputOptions{
		Format:   c.Output.Format,
		Quality:  c.Output.Quality,
		Lossless: c.Output.Lossless,
	})
	if err != nil {
		return err
	}
	return carousel.ProcessImageFile(ctx, source, params, w)
}

func getLogger(dev bool) *zap.Logger {
	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			CallerKey:      "C",
			MessageKey:     "M",
			StacktraceKey:  "S",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if dev {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func bindPFlag(v *viper.Viper, flags *pflag.FlagSet, key, flag string) {
	if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
		panic(err)
	}
}
