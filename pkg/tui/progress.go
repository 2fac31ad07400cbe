package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ilkoid/poncho-inventory/pkg/events"
)

const (
	defaultTitle        = "Clothing inventory"
	defaultWidth        = 80
	defaultPreviewLines = 3
	minPreviewWidth     = 20
)

// folderLine - строка итога по одной папке.
type folderLine struct {
	folder   string
	status   string
	reason   string
	text     string
	cached   bool
	duration time.Duration
}

// ProgressModel - Bubble Tea модель прогресса инвентаризации.
//
// Читает события из events.Subscriber и рисует по строке на папку.
// Завершается сама после EventRunDone.
type ProgressModel struct {
	sub     events.Subscriber
	cancel  context.CancelFunc
	keys    KeyMap
	colors  ColorScheme
	spinner spinner.Model

	title        string
	width        int
	showPreview  bool
	previewLines int

	root    string
	total   int
	index   int
	current string
	lines   []folderLine

	done     bool
	stopped  bool
	summary  events.RunDoneData
	finished bool // пришёл EventRunDone, а не просто закрытие канала
}

// NewProgressModel создаёт модель с дефолтными настройками.
func NewProgressModel(sub events.Subscriber, opts ...Option) *ProgressModel {
	colors := DefaultColorScheme()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colors.Spinner)

	m := &ProgressModel{
		sub:          sub,
		keys:         DefaultKeyMap(),
		colors:       colors,
		spinner:      s,
		title:        defaultTitle,
		width:        defaultWidth,
		showPreview:  true,
		previewLines: defaultPreviewLines,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.spinner.Style = lipgloss.NewStyle().Foreground(m.colors.Spinner)
	return m
}

// Init запускает спиннер и чтение событий.
func (m *ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, ReceiveEventCmd(m.sub))
}

// Update обрабатывает события прогона, клавиши и размер окна.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.apply(events.Event(msg))
		if m.done {
			return m, tea.Quit
		}
		return m, ReceiveEventCmd(m.sub)

	case streamClosedMsg:
		m.done = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *ProgressModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		m.stopped = true
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.TogglePreview):
		m.showPreview = !m.showPreview && m.previewLines > 0
	}
	return m, nil
}

// apply переносит событие в состояние модели.
func (m *ProgressModel) apply(ev events.Event) {
	switch d := ev.Data.(type) {
	case events.RunStartedData:
		m.root = d.Root
		m.total = d.Folders
	case events.FolderStartedData:
		m.current = d.Folder
		m.index = d.Index
		m.total = d.Total
	case events.FolderDoneData:
		line := folderLine{
			folder:   d.Folder,
			status:   d.Status,
			reason:   d.Reason,
			text:     d.Text,
			cached:   d.Cached,
			duration: d.Duration,
		}
		if d.Err != nil {
			line.reason = d.Err.Error()
		}
		m.lines = append(m.lines, line)
		m.current = ""
	case events.RunDoneData:
		m.summary = d
		m.finished = true
		m.done = true
	}
}

// View рисует заголовок, строки папок и либо спиннер, либо итог.
func (m *ProgressModel) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.colors.Title)
	muted := lipgloss.NewStyle().Foreground(m.colors.Muted)

	b.WriteString(titleStyle.Render(m.title))
	if m.root != "" {
		b.WriteString(muted.Render(fmt.Sprintf("  %s  %d/%d", m.root, len(m.lines), m.total)))
	}
	b.WriteString("\n\n")

	for _, line := range m.lines {
		b.WriteString(m.renderLine(line))
		b.WriteString("\n")
	}

	switch {
	case m.finished:
		b.WriteString("\n")
		b.WriteString(m.renderSummary())
	case m.stopped:
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(m.colors.Failed).Render("stopping..."))
	case m.done:
	case m.current != "":
		b.WriteString(fmt.Sprintf("%s %s %s", m.spinner.View(), m.current,
			muted.Render(fmt.Sprintf("(%d/%d)", m.index+1, m.total))))
	default:
		b.WriteString(m.spinner.View() + " scanning...")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *ProgressModel) renderLine(line folderLine) string {
	badge := lipgloss.NewStyle().
		Background(m.colors.badgeColor(line.status)).
		Foreground(m.colors.BadgeText).
		Bold(true).
		Width(11).
		Align(lipgloss.Center).
		Render(line.status)

	muted := lipgloss.NewStyle().Foreground(m.colors.Muted)
	out := badge + " " + line.folder

	switch {
	case line.cached:
		out += " " + lipgloss.NewStyle().Foreground(m.colors.Cached).Render("(cached)")
	case line.reason != "":
		out += " " + muted.Render("("+line.reason+")")
	case line.duration > 0:
		out += " " + muted.Render(line.duration.Round(time.Millisecond).String())
	}

	if m.showPreview && line.text != "" {
		out += "\n" + m.renderPreview(line.text)
	}
	return out
}

// renderPreview переносит текст по ширине окна и обрезает до previewLines строк.
func (m *ProgressModel) renderPreview(text string) string {
	width := m.width - 4
	if width < minPreviewWidth {
		width = minPreviewWidth
	}

	lines := strings.Split(wordwrap.String(strings.TrimSpace(text), width), "\n")
	if len(lines) > m.previewLines {
		lines = append(lines[:m.previewLines], "…")
	}

	style := lipgloss.NewStyle().Foreground(m.colors.Preview).PaddingLeft(4)
	return style.Render(strings.Join(lines, "\n"))
}

func (m *ProgressModel) renderSummary() string {
	s := m.summary
	text := fmt.Sprintf("described %d · skipped %d · failed %d", s.Described, s.Skipped, s.Failed)
	if s.Err != nil {
		return lipgloss.NewStyle().Foreground(m.colors.Failed).Render(text + "\nerror: " + s.Err.Error())
	}
	if s.OutputPath != "" {
		text += " → " + s.OutputPath
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

// Summary возвращает итог прогона, если он был получен.
func (m *ProgressModel) Summary() (events.RunDoneData, bool) {
	return m.summary, m.finished
}

// Stopped сообщает, что пользователь прервал прогон из TUI.
func (m *ProgressModel) Stopped() bool {
	return m.stopped
}
