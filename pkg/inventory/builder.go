// Package inventory обходит папки вещей и собирает их описания в таблицу.
//
// Обработка строго последовательная: одна папка - не больше одного запроса
// к модели, следующий запрос только после завершения предыдущего.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilkoid/poncho-inventory/pkg/cache"
	"github.com/ilkoid/poncho-inventory/pkg/events"
	"github.com/ilkoid/poncho-inventory/pkg/images"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

// FolderDescriber - read-or-generate для одной папки (обычно *cache.Cache).
type FolderDescriber interface {
	GetOrGenerate(ctx context.Context, folder string) (cache.Entry, error)

	// Lookup читает сохранённое описание без генерации.
	Lookup(folder string) (string, bool, error)
}

// Options - настройки прогона.
type Options struct {
	// Root - папка с подпапками вещей.
	Root string

	// OutputPath - куда писать CSV. Пусто = таблица не пишется.
	OutputPath string

	// FailFast останавливает прогон на первой упавшей папке, таблица не пишется.
	FailFast bool

	// Folders ограничивает прогон этими именами подпапок. Пусто = все.
	// Остальные папки не обрабатываются, но их сохранённые описания
	// остаются в таблице.
	Folders []string

	// Emitter получает события прогресса. nil = события не шлются.
	Emitter events.Emitter
}

// Builder собирает Report по всем папкам.
type Builder struct {
	describer FolderDescriber
	opts      Options
}

// NewBuilder создаёт Builder.
func NewBuilder(d FolderDescriber, opts Options) *Builder {
	if opts.Emitter == nil {
		opts.Emitter = events.NopEmitter{}
	}
	return &Builder{describer: d, opts: opts}
}

// ListFolders возвращает имена подпапок root (один уровень, порядок os.ReadDir).
func ListFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("data folder '%s': %w", root, images.ErrNotFound)
		}
		return nil, fmt.Errorf("read data folder: %w", err)
	}

	folders := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			folders = append(folders, e.Name())
		}
	}
	return folders, nil
}

// Build обрабатывает все папки и пишет таблицу.
//
// Ошибка возвращается только если прогон не может продолжаться: нет корня,
// отмена контекста, FailFast или сбой записи CSV. Ошибки отдельных папок
// лежат в Report.Outcomes.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{Root: b.opts.Root, OutputPath: b.opts.OutputPath}

	all, err := ListFolders(b.opts.Root)
	if err != nil {
		b.finish(ctx, report, err)
		return report, err
	}
	folders := b.filter(all)
	selected := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		selected[f] = struct{}{}
	}

	utils.Info("Inventory run started", "root", b.opts.Root, "folders", len(folders))
	b.opts.Emitter.Emit(ctx, events.New(events.EventRunStarted, events.RunStartedData{
		Root:    b.opts.Root,
		Folders: len(folders),
	}))

	i := -1
	for _, name := range all {
		if _, ok := selected[name]; !ok {
			if o, ok := b.carryOver(name); ok {
				report.Outcomes = append(report.Outcomes, o)
			}
			continue
		}
		i++

		if err := ctx.Err(); err != nil {
			b.finish(ctx, report, err)
			return report, err
		}

		b.opts.Emitter.Emit(ctx, events.New(events.EventFolderStarted, events.FolderStartedData{
			Folder: name,
			Index:  i,
			Total:  len(folders),
		}))

		outcome := b.processFolder(ctx, name)
		report.Outcomes = append(report.Outcomes, outcome)
		b.logOutcome(outcome)

		b.opts.Emitter.Emit(ctx, events.New(events.EventFolderDone, events.FolderDoneData{
			Folder:   outcome.Folder,
			Status:   string(outcome.Status),
			Text:     outcome.Text,
			Reason:   outcome.Reason,
			Err:      outcome.Err,
			Cached:   outcome.Cached,
			Duration: outcome.Duration,
		}))

		if outcome.Status == StatusFailed {
			// отмена во время запроса - это остановка прогона, а не ошибка папки
			if ctxErr := ctx.Err(); ctxErr != nil {
				b.finish(ctx, report, ctxErr)
				return report, ctxErr
			}
			if b.opts.FailFast {
				err := fmt.Errorf("folder %s: %w", name, outcome.Err)
				b.finish(ctx, report, err)
				return report, err
			}
		}
	}

	if b.opts.OutputPath != "" {
		if err := WriteCSVFile(b.opts.OutputPath, report.Rows()); err != nil {
			err = fmt.Errorf("write inventory table: %w", err)
			b.finish(ctx, report, err)
			return report, err
		}
		utils.Info("Inventory table written", "path", b.opts.OutputPath, "rows", len(report.Rows()))
	}

	b.finish(ctx, report, nil)
	return report, nil
}

// processFolder сводит результат кэша к Outcome.
func (b *Builder) processFolder(ctx context.Context, name string) Outcome {
	start := time.Now()
	folder := filepath.Join(b.opts.Root, name)

	entry, err := b.describer.GetOrGenerate(ctx, folder)

	var outcome Outcome
	switch {
	case err == nil && strings.TrimSpace(entry.Text) == "":
		outcome = Skipped(name, "empty description")
	case err == nil:
		outcome = Described(name, entry.Text, entry.Cached)
	case errors.Is(err, cache.ErrNoImages):
		outcome = Skipped(name, "no image files")
	case errors.Is(err, images.ErrNotFound):
		outcome = Skipped(name, "folder not found")
	default:
		outcome = Failed(name, err)
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// carryOver переносит в таблицу описание папки, которая не попала в фильтр.
// Генерация не вызывается; папки без описания в таблицу не попадают.
func (b *Builder) carryOver(name string) (Outcome, bool) {
	text, ok, err := b.describer.Lookup(filepath.Join(b.opts.Root, name))
	if err != nil {
		utils.Warn("Cached description unreadable, row dropped", "folder", name, "error", err)
		return Outcome{}, false
	}
	if !ok || strings.TrimSpace(text) == "" {
		return Outcome{}, false
	}
	o := Described(name, text, true)
	o.Carried = true
	return o, true
}

func (b *Builder) filter(folders []string) []string {
	if len(b.opts.Folders) == 0 {
		return folders
	}
	want := make(map[string]struct{}, len(b.opts.Folders))
	for _, f := range b.opts.Folders {
		want[f] = struct{}{}
	}
	out := folders[:0:0]
	for _, f := range folders {
		if _, ok := want[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (b *Builder) logOutcome(o Outcome) {
	switch o.Status {
	case StatusDescribed:
		utils.Info("Folder described", "folder", o.Folder, "cached", o.Cached, "duration_ms", o.Duration.Milliseconds())
	case StatusSkipped:
		utils.Warn("Folder skipped", "folder", o.Folder, "reason", o.Reason)
	case StatusFailed:
		utils.Error("Folder failed", "folder", o.Folder, "error", o.Err)
	}
}

func (b *Builder) finish(ctx context.Context, r *Report, err error) {
	// событие о завершении шлём и после отмены, чтобы UI мог закрыться
	emitCtx := context.WithoutCancel(ctx)
	b.opts.Emitter.Emit(emitCtx, events.New(events.EventRunDone, events.RunDoneData{
		Described:  r.Count(StatusDescribed),
		Skipped:    r.Count(StatusSkipped),
		Failed:     r.Count(StatusFailed),
		OutputPath: r.OutputPath,
		Err:        err,
	}))
}
