// Package describer генерирует одно текстовое описание вещи по всем её фото.
//
// Один вызов Describe = один запрос к vision модели: текст промпта плюс
// по одной image_url части на каждое фото.
package describer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilkoid/poncho-inventory/pkg/images"
	"github.com/ilkoid/poncho-inventory/pkg/llm"
	"github.com/ilkoid/poncho-inventory/pkg/prompt"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

var (
	// ErrGeneration оборачивает любую ошибку обращения к модели.
	ErrGeneration = errors.New("description generation failed")

	// ErrNoImagesAttached - ни одно фото не удалось закодировать, запрос не отправлялся.
	ErrNoImagesAttached = errors.New("no image could be attached")
)

// SkippedImage - фото, которое не попало в запрос.
type SkippedImage struct {
	Path string
	Err  error
}

// Result - результат генерации.
type Result struct {
	Text     string
	Attached int            // сколько фото ушло в запрос
	Skipped  []SkippedImage // фото, пропущенные из-за ошибок чтения/кодирования
	Usage    llm.Usage
	Duration time.Duration
}

// Options - настройки генератора.
type Options struct {
	// Prompt - шаблон инструкции. nil = встроенный промпт.
	Prompt *prompt.PromptFile

	// Encoder готовит data URI (ресайз по желанию).
	Encoder images.Encoder

	// Model и MaxTokens перекрывают значения модели; пусто/0 = не трогать.
	Model       string
	MaxTokens   int
	Temperature float64

	// LastOutputPath перезаписывается текстом каждого успешного ответа.
	// Пусто = не писать.
	LastOutputPath string

	// RequireImages запрещает отправку запроса без картинок.
	RequireImages bool
}

// Generator строит запрос и вызывает провайдера.
type Generator struct {
	provider llm.Provider
	opts     Options
}

// New создаёт генератор.
func New(provider llm.Provider, opts Options) *Generator {
	if opts.Prompt == nil {
		opts.Prompt = prompt.Default()
	}
	if opts.Model == "" {
		opts.Model = opts.Prompt.Config.Model
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = opts.Prompt.Config.MaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = opts.Prompt.Config.Temperature
	}
	return &Generator{provider: provider, opts: opts}
}

// Describe возвращает одно описание для всего набора фото.
//
// Фото, которые не читаются или не кодируются, пропускаются с предупреждением
// и попадают в Result.Skipped. Ошибка провайдера оборачивается в ErrGeneration.
func (g *Generator) Describe(ctx context.Context, imagePaths []string) (Result, error) {
	start := time.Now()
	var res Result

	uris := make([]string, 0, len(imagePaths))
	for _, p := range imagePaths {
		uri, err := g.opts.Encoder.DataURI(p)
		if err != nil {
			utils.Warn("Image skipped", "image", p, "error", err)
			res.Skipped = append(res.Skipped, SkippedImage{Path: p, Err: err})
			continue
		}
		uris = append(uris, uri)
		utils.Debug("Image attached", "image", filepath.Base(p), "mime", images.MimeType(p))
	}
	res.Attached = len(uris)

	if res.Attached == 0 && g.opts.RequireImages {
		return res, ErrNoImagesAttached
	}

	messages, err := g.buildMessages(imagePaths, uris)
	if err != nil {
		return res, err
	}

	genOpts := []llm.GenerateOption{
		llm.WithModel(g.opts.Model),
		llm.WithMaxTokens(g.opts.MaxTokens),
		llm.WithUsageCallback(func(u llm.Usage) { res.Usage = u }),
	}
	// 0 = температура из определения модели
	if g.opts.Temperature != 0 {
		genOpts = append(genOpts, llm.WithTemperature(g.opts.Temperature))
	}

	reply, err := g.provider.Generate(ctx, messages, genOpts...)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		return res, fmt.Errorf("%w: empty completion", ErrGeneration)
	}

	res.Text = reply.Content
	res.Duration = time.Since(start)

	if g.opts.LastOutputPath != "" {
		if err := os.WriteFile(g.opts.LastOutputPath, []byte(res.Text), 0o644); err != nil {
			// основной результат уже получен, файл-журнал вторичен
			utils.Warn("Failed to write last description", "path", g.opts.LastOutputPath, "error", err)
		}
	}

	return res, nil
}

// buildMessages рендерит промпт и прикрепляет картинки к последнему
// пользовательскому сообщению.
func (g *Generator) buildMessages(imagePaths, uris []string) ([]llm.Message, error) {
	folder := ""
	if len(imagePaths) > 0 {
		folder = filepath.Base(filepath.Dir(imagePaths[0]))
	}

	messages, err := g.opts.Prompt.RenderMessages(prompt.ItemData{
		FolderName: folder,
		ImageCount: len(uris),
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	target := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			target = i
			break
		}
	}
	if target == -1 {
		messages = append(messages, llm.Message{Role: llm.RoleUser})
		target = len(messages) - 1
	}
	messages[target].Images = uris

	return messages, nil
}
