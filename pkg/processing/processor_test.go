package processing

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/panorama-carousel/pkg/types"
)

// createTestImage creates a horizontal gradient image
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.SetNRGBA(x, y, color.NRGBA{r, g, 128, 255})
		}
	}
	return img
}

func TestLoadImage(t *testing.T) {
	t.Parallel()
	p := NewProcessor()
	dir := t.TempDir()

	t.Run("png", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "pano.png")
		require.NoError(t, imaging.Save(createTestImage(40, 10), path))

		img, err := p.LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 40, 10), img.Bounds())
	})

	t.Run("webp", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "pano.webp")
		require.NoError(t, p.SaveImage(createTestImage(32, 8), path, FormatWebP, 90, true))

		img, err := p.LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 32, 8), img.Bounds())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := p.LoadImage(filepath.Join(dir, "does-not-exist.jpg"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "garbage.jpg")
		require.NoError(t, os.WriteFile(path, []byte("definitely not a jpeg"), 0o644))

		_, err := p.LoadImage(path)
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestToRGB(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 0})
	src.SetNRGBA(1, 0, color.NRGBA{40, 50, 60, 128})

	dst := ToRGB(src)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, dst.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{40, 50, 60, 255}, dst.NRGBAAt(1, 0))
	// source untouched
	assert.Equal(t, uint8(0), src.NRGBAAt(0, 0).A)
}

func TestResizeToHeight(t *testing.T) {
	t.Parallel()

	img, err := ResizeToHeight(createTestImage(400, 100), 50)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	_, err = ResizeToHeight(createTestImage(400, 100), 0)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestNormalizeFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"":     FormatJPEG,
		"jpeg": FormatJPEG,
		"JPG":  FormatJPEG,
		".png": FormatPNG,
		"WebP": FormatWebP,
	} {
		got, err := NormalizeFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeFormat("bmp")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	img := createTestImage(16, 4)
	for _, format := range []string{FormatJPEG, FormatPNG, FormatWebP} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, format, DefaultQuality, false), format)

		cfg, name, err := image.DecodeConfig(&buf)
		require.NoError(t, err, format)
		assert.Equal(t, 16, cfg.Width, format)
		assert.Equal(t, 4, cfg.Height, format)
		if format == FormatJPEG {
			assert.Equal(t, "jpeg", name)
		} else {
			assert.Equal(t, format, name)
		}
	}
}

func TestLoadImageFromURL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, createTestImage(30, 10)))
	imgData := buf.Bytes()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pano.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(imgData)
		case "/not_found":
			w.WriteHeader(http.StatusNotFound)
		case "/text":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("not an image"))
		case "/corrupt":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("not a png"))
		}
	}))
	t.Cleanup(ts.Close)

	p := NewProcessor()
	ctx := context.Background()

	img, err := p.LoadImageSmart(ctx, ts.URL+"/pano.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 10), img.Bounds())

	for _, path := range []string{"/not_found", "/text", "/corrupt"} {
		_, err := p.LoadImageFromURL(ctx, ts.URL+path)
		assert.ErrorIs(t, err, ErrDecode, path)
	}

	_, err = p.LoadImageFromURL(ctx, "ftp://example.com/pano.png")
	assert.ErrorIs(t, err, ErrDecode)

	// bodies above the download cap are refused
	small := NewProcessor()
	small.maxDownload = int64(len(imgData) - 1)
	_, err = small.LoadImageFromURL(ctx, ts.URL+"/pano.png")
	assert.ErrorIs(t, err, ErrDecode)

	small.maxDownload = int64(len(imgData))
	_, err = small.LoadImageFromURL(ctx, ts.URL+"/pano.png")
	assert.NoError(t, err)
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, IsURL("https://example.com/a.jpg"))
	assert.True(t, IsURL("http://example.com/a.jpg"))
	assert.False(t, IsURL("/tmp/a.jpg"))
	assert.False(t, IsURL("a.jpg"))
}

func TestCreateDebugOverlay(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 403, 100))
	panels := []image.Rectangle{
		image.Rect(0, 0, 100, 100),
		image.Rect(100, 0, 200, 100),
		image.Rect(200, 0, 300, 100),
		image.Rect(300, 0, 400, 100),
	}
	out := NewProcessor().CreateDebugOverlay(img, panels, image.Rect(100, 0, 200, 100))

	assert.Equal(t, img.Bounds(), out.Bounds())
	// top-left corner of the first panel is gold
	assert.Equal(t, color.NRGBA{255, 204, 0, 255}, out.NRGBAAt(0, 0))
	// cover window is drawn after panels
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, out.NRGBAAt(150, 0))
	// remainder columns are marked
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(402, 50))
	// interior untouched, input untouched
	assert.Equal(t, color.NRGBA{}, out.NRGBAAt(50, 50))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(0, 0))
}

func BenchmarkResizeToHeight(b *testing.B) {
	img := createTestImage(4000, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ResizeToHeight(img, 500)
	}
}
