// Package tui - прогресс инвентаризации в терминале (Bubble Tea).
package tui

import "github.com/charmbracelet/lipgloss"

// ColorScheme определяет цвета элементов прогресса.
//
// Каждое поле - это lipgloss.Color (hex, ANSI или named color).
type ColorScheme struct {
	Title     lipgloss.Color // Заголовок
	Spinner   lipgloss.Color // Спиннер текущей папки
	Described lipgloss.Color // Бейдж "described"
	Cached    lipgloss.Color // Пометка (cached)
	Skipped   lipgloss.Color // Бейдж "skipped"
	Failed    lipgloss.Color // Бейдж "failed" и ошибки
	Preview   lipgloss.Color // Превью описания
	Muted     lipgloss.Color // Подсказки, длительности
	BadgeText lipgloss.Color // Текст на бейджах
}

// ColorSchemes предоставляет предустановленные цветовые схемы.
var ColorSchemes = map[string]ColorScheme{
	"default": {
		Title:     lipgloss.Color("86"),
		Spinner:   lipgloss.Color("86"),
		Described: lipgloss.Color("34"),
		Cached:    lipgloss.Color("245"),
		Skipped:   lipgloss.Color("178"),
		Failed:    lipgloss.Color("196"),
		Preview:   lipgloss.Color("252"),
		Muted:     lipgloss.Color("242"),
		BadgeText: lipgloss.Color("0"),
	},
	"light": {
		Title:     lipgloss.Color("31"),
		Spinner:   lipgloss.Color("31"),
		Described: lipgloss.Color("28"),
		Cached:    lipgloss.Color("8"),
		Skipped:   lipgloss.Color("130"),
		Failed:    lipgloss.Color("1"),
		Preview:   lipgloss.Color("0"),
		Muted:     lipgloss.Color("8"),
		BadgeText: lipgloss.Color("15"),
	},
	"dracula": {
		Title:     lipgloss.Color("#bd93f9"),
		Spinner:   lipgloss.Color("#8be9fd"),
		Described: lipgloss.Color("#50fa7b"),
		Cached:    lipgloss.Color("#6272a4"),
		Skipped:   lipgloss.Color("#f1fa8c"),
		Failed:    lipgloss.Color("#ff5555"),
		Preview:   lipgloss.Color("#f8f8f2"),
		Muted:     lipgloss.Color("#6272a4"),
		BadgeText: lipgloss.Color("#282a36"),
	},
}

// DefaultColorScheme возвращает схему по умолчанию.
func DefaultColorScheme() ColorScheme {
	return ColorSchemes["default"]
}

// GetColorScheme возвращает цветовую схему по имени.
//
// Если схема не найдена, возвращает default.
func GetColorScheme(name string) ColorScheme {
	if scheme, ok := ColorSchemes[name]; ok {
		return scheme
	}
	return DefaultColorScheme()
}

// badgeColor подбирает цвет бейджа по статусу папки.
func (c ColorScheme) badgeColor(status string) lipgloss.Color {
	switch status {
	case "described":
		return c.Described
	case "skipped":
		return c.Skipped
	default:
		return c.Failed
	}
}
