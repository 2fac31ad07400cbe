package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // GIF декодер
	"image/jpeg"
	_ "image/png" // PNG декодер

	"github.com/nfnt/resize"
)

// DefaultJPEGQuality используется, если quality вне диапазона 1..100.
const DefaultJPEGQuality = 85

// ErrUnsupportedImage возвращается, когда формат нельзя декодировать
// стандартными декодерами (например, webp или bmp).
var ErrUnsupportedImage = errors.New("unsupported image format")

// ResizeImage уменьшает изображение до maxWidth, сохраняя пропорции,
// и перекодирует его в JPEG.
//
// Параметры:
//   - data: байты исходного изображения (JPEG, PNG, GIF)
//   - maxWidth: целевая ширина. Если исходник уже не шире - только перекодирование.
//   - quality: качество JPEG (1-100).
//
// Фото одежды с телефона весят по 4-8 МБ, а модели хватает ~1024px по ширине.
func ResizeImage(data []byte, maxWidth int, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("decode image: %w", ErrUnsupportedImage)
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()

	if maxWidth > 0 && width > maxWidth {
		height := uint(float64(maxWidth) * float64(bounds.Dy()) / float64(width))
		img = resize.Resize(uint(maxWidth), height, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode to jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
