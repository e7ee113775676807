package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/panorama-carousel/internal/utils"
	"github.com/menta2k/panorama-carousel/pkg/geometry"
)

// ErrDecode is wrapped by every failure to obtain a source raster
var ErrDecode = errors.New("cannot decode source image")

// Supported output formats
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// DefaultQuality is the JPEG/WebP quality used when none is configured
const DefaultQuality = 90

// MaxDownloadSize caps the bytes read from a URL source (256 MiB)
const MaxDownloadSize = 256 << 20

// Processor handles image loading, resampling and encoding
type Processor struct {
	client      *http.Client
	userAgent   string
	maxDownload int64
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{
		client:      &http.Client{Timeout: 30 * time.Second},
		userAgent:   "Panorama-Carousel/1.0",
		maxDownload: MaxDownloadSize,
	}
}

// LoadImageFromURL downloads and decodes an image from a URL
func (p *Processor) LoadImageFromURL(ctx context.Context, imageURL string) (*image.NRGBA, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrDecode, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported URL scheme: %s (only http and https are supported)", ErrDecode, parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrDecode, err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %v", ErrDecode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: HTTP %d %s", ErrDecode, resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: URL does not point to an image (Content-Type: %s)", ErrDecode, contentType)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, p.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image data: %v", ErrDecode, err)
	}
	if int64(len(imageData)) > p.maxDownload {
		return nil, fmt.Errorf("%w: image exceeds %s", ErrDecode, utils.FormatFileSize(p.maxDownload))
	}

	return p.decodeImageFromBytes(imageData)
}

// LoadImage decodes the image at path into an opaque RGB raster
func (p *Processor) LoadImage(path string) (*image.NRGBA, error) {
	// registered decoders first, then an explicit WebP decode
	if img, err := imaging.Open(path); err == nil {
		return ToRGB(img), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (*image.NRGBA, error) {
	if IsURL(source) {
		return p.LoadImageFromURL(ctx, source)
	}
	return p.LoadImage(source)
}

// IsURL reports whether source should be fetched over HTTP
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (p *Processor) decodeImageFromBytes(data []byte) (*image.NRGBA, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return ToRGB(img), nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return ToRGB(img), nil
	}
	return nil, fmt.Errorf("%w: unknown or unsupported format", ErrDecode)
}

// ToRGB copies img into a fresh NRGBA buffer with every pixel opaque.
// Color channels are kept as stored; alpha is dropped, not composited.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// ResizeToHeight resamples img with Lanczos so its height is h and its
// width is width*h/height.
func ResizeToHeight(img image.Image, h int) (*image.NRGBA, error) {
	b := img.Bounds()
	w, err := geometry.ScaledWidth(b.Dx(), b.Dy(), h)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// NormalizeFormat maps a user supplied format to one of the Format constants
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatWebP:
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := Encode(out, img, f, quality, lossless); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	case FormatPNG:
		return imaging.Save(img, path)
	default:
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

// CreateDebugOverlay draws the panel windows and the cover background
// window on a copy of img.
func (p *Processor) CreateDebugOverlay(img image.Image, panels []image.Rectangle, coverWindow image.Rectangle) *image.NRGBA {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	gold := color.NRGBA{255, 204, 0, 255} // panels
	green := color.NRGBA{0, 255, 0, 255}  // cover window
	red := color.NRGBA{255, 0, 0, 255}    // dropped remainder
	blue := color.NRGBA{0, 170, 255, 255} // image center
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h))))

	covered := 0
	for _, r := range panels {
		drawRect(nrgba, r, gold, stroke)
		if r.Max.X > covered {
			covered = r.Max.X
		}
	}
	drawRect(nrgba, coverWindow, green, stroke)

	if covered < w {
		drawRect(nrgba, image.Rect(covered, 0, w, h), red, stroke)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, blue)
	drawVLine(nrgba, ix, iy-6, iy+6, blue)

	return nrgba
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
