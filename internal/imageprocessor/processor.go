// Package imageprocessor проверяет и уменьшает загружаемые изображения.
package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultQuality = 85
	DefaultMaxSide = 512

	// защита от "бомб" с маленьким файлом и огромной картинкой
	maxPixels = 40_000_000
)

var (
	ErrUnsupportedImage = errors.New("imageprocessor: unsupported or corrupt image")
	ErrTooManyPixels    = errors.New("imageprocessor: image dimensions too large")
)

// Result - итог нормализации.
type Result struct {
	Data    []byte
	Format  string // jpeg, png, gif, webp
	Width   int
	Height  int
	Resized bool
}

// Processor уменьшает JPEG и PNG до maxSide по большей стороне.
// GIF и WebP только проверяются: анимацию и webp без энкодера не трогаем.
type Processor struct {
	quality int
	maxSide int
}

func NewProcessor(quality, maxSide int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	return &Processor{quality: quality, maxSide: maxSide}
}

func (p *Processor) Normalize(data []byte) (*Result, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrUnsupportedImage
	}
	if cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	res := &Result{Data: data, Format: format, Width: cfg.Width, Height: cfg.Height}
	if format != "jpeg" && format != "png" {
		return res, nil
	}
	if cfg.Width <= p.maxSide && cfg.Height <= p.maxSide {
		return res, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	resized := p.resize(img, p.maxSide, p.maxSide)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality})
	case "png":
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}

	b := resized.Bounds()
	res.Data = buf.Bytes()
	res.Width, res.Height = b.Dx(), b.Dy()
	res.Resized = true
	return res, nil
}

// resize вписывает картинку в maxWidth x maxHeight с сохранением пропорций.
func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())

	newWidth, newHeight := maxWidth, maxHeight
	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	newWidth = max(newWidth, 1)
	newHeight = max(newHeight, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
