package main

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/panorama-carousel/pkg/processing"
	"github.com/menta2k/panorama-carousel/pkg/types"
)

func writePanorama(t *testing.T, dir string) string {
	t.Helper()
	img := imaging.New(400, 100, color.NRGBA{30, 60, 90, 255})
	path := filepath.Join(dir, "panorama.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(new(nopWriter))
	cmd.SetErr(new(nopWriter))
	return cmd.ExecuteContext(context.Background())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRootCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writePanorama(t, dir)

	require.NoError(t, execute(t, "-n", "4", src))
	assert.ElementsMatch(t, []string{
		"panorama.png",
		"panorama.png-1.jpg", "panorama.png-2.jpg", "panorama.png-3.jpg", "panorama.png-4.jpg",
		"panorama.png-cover.jpg",
	}, listDir(t, dir))

	cover, err := imaging.Open(filepath.Join(dir, "panorama.png-cover.jpg"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), cover.Bounds())
}

func TestRootCommand_OutputFlags(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writePanorama(t, dir)
	out := filepath.Join(dir, "out")

	require.NoError(t, execute(t,
		"-n", "2", "-q", "50", "-s", "0.02", "-b", "2", "-c", "255,255,0", "-f", "0.5",
		"--format", "webp", "--lossless", "--concurrency", "2", "--debug", "--stem",
		"-o", out, src))

	assert.ElementsMatch(t, []string{
		"panorama-1.webp", "panorama-2.webp", "panorama-cover.webp", "panorama-debug.webp",
	}, listDir(t, out))

	panel, err := processing.NewProcessor().LoadImage(filepath.Join(out, "panorama-1.webp"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), panel.Bounds())
}

func TestRootCommand_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writePanorama(t, dir)
	cfg := filepath.Join(dir, "carousel.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("carousel:\n  panels: 5\noutput:\n  format: png\n"), 0o644))

	// flags win over the file
	require.NoError(t, execute(t, "--config", cfg, "--format", "jpg", src))
	assert.FileExists(t, filepath.Join(dir, "panorama.png-5.jpg"))
	assert.FileExists(t, filepath.Join(dir, "panorama.png-cover.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "panorama.png-6.jpg"))
}

func TestRootCommand_DefaultConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgDir := filepath.Join(home, ".config", "panorama-carousel")
	require.NoError(t, os.MkdirAll(cfgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.yaml"),
		[]byte("carousel:\n  panels: 2\noutput:\n  stem: true\n"), 0o644))

	dir := t.TempDir()
	src := writePanorama(t, dir)

	require.NoError(t, execute(t, src))
	assert.ElementsMatch(t, []string{
		"panorama.png", "panorama-1.jpg", "panorama-2.jpg", "panorama-cover.jpg",
	}, listDir(t, dir))
}

func TestRootCommand_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writePanorama(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing panels", []string{src}},
		{"short border color", []string{"-n", "4", "-c", "0,0", src}},
		{"bad format", []string{"-n", "4", "--format", "gif", src}},
		{"zero frac", []string{"-n", "4", "-f", "0", src}},
		{"infinite sigma", []string{"-n", "4", "-s", "inf", src}},
		{"blur wider than panel", []string{"-n", "4", "-s", "1e12", src}},
	}
	for _, tt := range tests {
		err := execute(t, tt.args...)
		assert.ErrorIs(t, err, types.ErrInvalidConfig, tt.name)
	}
	// nothing but the source was written
	assert.Equal(t, []string{"panorama.png"}, listDir(t, dir))

	assert.ErrorIs(t, execute(t, "-n", "4", filepath.Join(dir, "missing.jpg")), processing.ErrDecode)
	assert.Error(t, execute(t, "-n", "4"))
	assert.Error(t, execute(t, "--config", filepath.Join(dir, "missing.yaml"), "-n", "4", src))

	// a configuration error leaves no output directory behind
	out := filepath.Join(dir, "out")
	err := execute(t, "-n", "4", "-b", "30", "-o", out, src)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.NoDirExists(t, out)
}
