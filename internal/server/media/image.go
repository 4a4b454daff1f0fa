package media

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	MaxImageWidth  = 1024
	MaxImageHeight = 768

	// MaxImagePixels bounds the decoded size of an upload.
	MaxImagePixels = 40_000_000
)

type ImageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// FitDimensions scales width x height down to fit within maxWidth x
// maxHeight, keeping the aspect ratio. Landscape images are bounded by width
// first, portrait and square ones by height. Images never grow and never
// shrink below one pixel per side.
func FitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	aspect := float64(width) / float64(height)

	if width > height {
		w := min(maxWidth, width)
		h := int(float64(w) / aspect)
		if h > maxHeight {
			h = maxHeight
			w = int(float64(h) * aspect)
		}
		return max(w, 1), max(h, 1)
	}

	h := min(maxHeight, height)
	w := int(float64(h) * aspect)
	if w > maxWidth {
		w = maxWidth
		h = int(float64(w) / aspect)
	}
	return max(w, 1), max(h, 1)
}

// ReadImageMetadata decodes only the image header.
func ReadImageMetadata(data []byte) (ImageMetadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageMetadata{}, fmt.Errorf("decode image config: %w", err)
	}
	return ImageMetadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// ResizeImage fits the image within maxWidth x maxHeight and re-encodes it
// in its original format. Images already within bounds are returned as is.
// Undecodable images and images over MaxImagePixels fail with
// ErrUnsupportedType.
func ResizeImage(data []byte, maxWidth, maxHeight int) ([]byte, ImageMetadata, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("%w: decode image config: %v", ErrUnsupportedType, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, ImageMetadata{}, fmt.Errorf("%w: %dx%d image is too large", ErrUnsupportedType, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("%w: decode image: %v", ErrUnsupportedType, err)
	}

	b := src.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), maxWidth, maxHeight)
	if w == b.Dx() && h == b.Dy() {
		return data, ImageMetadata{Width: w, Height: h, Format: format}, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		format = "jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		return nil, ImageMetadata{}, fmt.Errorf("encode %s: %w", format, err)
	}

	return buf.Bytes(), ImageMetadata{Width: w, Height: h, Format: format}, nil
}
