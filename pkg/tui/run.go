package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-inventory/pkg/events"
)

// RunProgress показывает прогресс прогона, пока эмиттер не пришлёт
// EventRunDone или не будет закрыт.
//
//	emitter := events.NewChanEmitter(64)
//	go func() {
//	    defer emitter.Close()
//	    builder.Build(ctx)
//	}()
//	err := tui.RunProgress(ctx, emitter.Subscribe(), tui.WithCancel(cancel))
//
// Отмена ctx закрывает программу без ошибки.
func RunProgress(ctx context.Context, sub events.Subscriber, opts ...Option) error {
	if sub == nil {
		return fmt.Errorf("subscriber is nil")
	}

	model := NewProgressModel(sub, opts...)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// Option - функция для кастомизации ProgressModel.
type Option func(*ProgressModel)

// WithTitle устанавливает заголовок.
func WithTitle(title string) Option {
	return func(m *ProgressModel) {
		m.title = title
	}
}

// WithColors устанавливает цветовую схему.
func WithColors(colors ColorScheme) Option {
	return func(m *ProgressModel) {
		m.colors = colors
	}
}

// WithCancel передаёт функцию отмены прогона.
//
// Bubble Tea перехватывает Ctrl+C в raw-режиме терминала, поэтому
// остановка из TUI идёт через эту функцию.
func WithCancel(cancel context.CancelFunc) Option {
	return func(m *ProgressModel) {
		m.cancel = cancel
	}
}

// WithPreviewLines ограничивает превью описания n строками (0 - выключить).
func WithPreviewLines(n int) Option {
	return func(m *ProgressModel) {
		m.previewLines = n
		m.showPreview = n > 0
	}
}
