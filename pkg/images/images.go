// Package images находит фотографии вещи в папке и готовит их к отправке
// в vision модель (MIME тип, data URI, опциональный ресайз).
package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

// ErrNotFound возвращается, если папки не существует.
var ErrNotFound = errors.New("directory not found")

// imageExtensions - допустимые расширения (в нижнем регистре).
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// IsImage проверяет расширение файла без учёта регистра.
func IsImage(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// List возвращает отсортированные пути к изображениям в dir (без рекурсии).
//
// Папка без подходящих файлов - пустой срез и nil, а не ошибка.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("folder '%s': %w", dir, ErrNotFound)
		}
		return nil, fmt.Errorf("read folder '%s': %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if IsImage(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// MimeType определяет MIME по расширению. Всё незнакомое считается JPEG.
func MimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Encoder превращает файл изображения в data URI для image_url части запроса.
type Encoder struct {
	// MaxWidth > 0 включает ресайз (результат всегда JPEG).
	MaxWidth int
	// Quality - качество JPEG при ресайзе.
	Quality int
}

// DataURI читает файл и возвращает "data:<mime>;base64,<payload>".
//
// Если ресайз включён, но формат не декодируется (webp, bmp),
// файл уходит как есть с MIME по расширению.
func (e Encoder) DataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("image %s is empty", filepath.Base(path))
	}

	mime := MimeType(path)

	if e.MaxWidth > 0 {
		resized, err := utils.ResizeImage(data, e.MaxWidth, e.Quality)
		switch {
		case err == nil:
			data = resized
			mime = "image/jpeg"
		case errors.Is(err, utils.ErrUnsupportedImage):
			utils.Debug("Resize skipped, sending original", "image", filepath.Base(path))
		default:
			return "", fmt.Errorf("resize %s: %w", filepath.Base(path), err)
		}
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
