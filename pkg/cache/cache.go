// Package cache хранит описание вещи рядом с её фото и не даёт платить
// за повторную генерацию.
//
// По умолчанию файл описания в папке считается истиной навсегда: нет TTL,
// нет ключа инвалидации. Политика content_hash дополнительно сверяет
// хэш набора фото и перегенерирует описание, если фото поменялись.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilkoid/poncho-inventory/pkg/describer"
	"github.com/ilkoid/poncho-inventory/pkg/images"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

// ErrNoImages - в папке нет ни одного фото и нет готового описания.
var ErrNoImages = errors.New("no image files in folder")

// Policy определяет, когда сохранённое описание считается актуальным.
type Policy string

const (
	// PolicyPresence - достаточно наличия файла.
	PolicyPresence Policy = "presence"
	// PolicyContentHash - файл плюс совпадающий хэш фото в sidecar файле.
	PolicyContentHash Policy = "content_hash"
)

// DefaultFileName - имя файла описания внутри папки вещи.
const DefaultFileName = "description.txt"

// hashSuffix добавляется к имени файла описания для sidecar с хэшем.
const hashSuffix = ".sha256"

// Describer - то, что умеет описать набор фото (обычно *describer.Generator).
type Describer interface {
	Describe(ctx context.Context, imagePaths []string) (describer.Result, error)
}

// Options - настройки кэша.
type Options struct {
	FileName string
	Policy   Policy
	Force    bool // всегда перегенерировать
}

// Entry - описание папки и откуда оно взялось.
type Entry struct {
	Text   string
	Cached bool
	Result *describer.Result // заполнено только при генерации
}

// Cache реализует read-or-generate для папок вещей.
type Cache struct {
	gen  Describer
	opts Options
}

// New создаёт кэш поверх генератора.
func New(gen Describer, opts Options) *Cache {
	if opts.FileName == "" {
		opts.FileName = DefaultFileName
	}
	if opts.Policy == "" {
		opts.Policy = PolicyPresence
	}
	return &Cache{gen: gen, opts: opts}
}

// Path возвращает путь к файлу описания для папки.
func (c *Cache) Path(folder string) string {
	return filepath.Join(folder, c.opts.FileName)
}

func (c *Cache) hashPath(folder string) string {
	return c.Path(folder) + hashSuffix
}

// Lookup читает сохранённое описание без генерации.
// Второй результат false означает, что файла нет.
func (c *Cache) Lookup(folder string) (string, bool, error) {
	data, err := os.ReadFile(c.Path(folder))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read cached description: %w", err)
	}
	return string(data), true, nil
}

// GetOrGenerate возвращает описание папки: из файла, если он актуален
// по текущей политике, иначе генерирует и сохраняет.
func (c *Cache) GetOrGenerate(ctx context.Context, folder string) (Entry, error) {
	if _, err := os.Stat(folder); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, fmt.Errorf("folder '%s': %w", folder, images.ErrNotFound)
		}
		return Entry{}, fmt.Errorf("stat folder: %w", err)
	}

	if !c.opts.Force {
		text, ok, err := c.Lookup(folder)
		if err != nil {
			return Entry{}, err
		}
		if ok {
			fresh, err := c.isFresh(folder)
			if err != nil {
				return Entry{}, err
			}
			if fresh {
				utils.Debug("Description loaded from cache", "folder", folder)
				return Entry{Text: text, Cached: true}, nil
			}
			utils.Info("Cached description is stale, regenerating", "folder", folder)
		}
	}

	imagePaths, err := images.List(folder)
	if err != nil {
		return Entry{}, err
	}
	if len(imagePaths) == 0 {
		// генерировать не из чего: лучше старый текст, чем пропавшая строка
		text, ok, err := c.Lookup(folder)
		if err != nil {
			return Entry{}, err
		}
		if !ok {
			return Entry{}, ErrNoImages
		}
		utils.Warn("No images to regenerate from, keeping cached description", "folder", folder)
		return Entry{Text: text, Cached: true}, nil
	}

	utils.Info("Generating description", "folder", folder, "images", len(imagePaths))

	res, err := c.gen.Describe(ctx, imagePaths)
	if err != nil {
		return Entry{}, err
	}

	if err := os.WriteFile(c.Path(folder), []byte(res.Text), 0o644); err != nil {
		return Entry{}, fmt.Errorf("write description: %w", err)
	}

	if c.opts.Policy == PolicyContentHash {
		sum, err := HashImages(imagePaths)
		if err != nil {
			return Entry{}, err
		}
		if err := os.WriteFile(c.hashPath(folder), []byte(sum+"\n"), 0o644); err != nil {
			return Entry{}, fmt.Errorf("write description hash: %w", err)
		}
	}

	return Entry{Text: res.Text, Cached: false, Result: &res}, nil
}

// isFresh проверяет существующее описание по политике кэша.
func (c *Cache) isFresh(folder string) (bool, error) {
	if c.opts.Policy != PolicyContentHash {
		return true, nil
	}

	stored, err := os.ReadFile(c.hashPath(folder))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read description hash: %w", err)
	}

	imagePaths, err := images.List(folder)
	if err != nil {
		return false, err
	}
	current, err := HashImages(imagePaths)
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(string(stored)) == current, nil
}

// HashImages считает SHA-256 по именам и содержимому отсортированного набора фото.
func HashImages(paths []string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		io.WriteString(h, filepath.Base(p))
		h.Write([]byte{0})

		f, err := os.Open(p)
		if err != nil {
			return "", fmt.Errorf("hash image: %w", err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("hash image: %w", err)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
