// Package events предоставляет Port для подписки на прогресс инвентаризации.
//
// Builder (pkg/inventory) зависит только от интерфейса Emitter,
// а UI (консоль, TUI) читает события через Subscriber.
//
//	emitter := events.NewChanEmitter(64)
//	builder := inventory.NewBuilder(c, inventory.Options{Emitter: emitter})
//	for ev := range emitter.Subscribe().Events() {
//	    switch d := ev.Data.(type) {
//	    case events.FolderDoneData:
//	        fmt.Println(d.Folder, d.Status)
//	    }
//	}
package events

import (
	"context"
	"time"
)

// EventType представляет тип события прогона.
type EventType string

const (
	// EventRunStarted - папки найдены, обработка начинается.
	EventRunStarted EventType = "run_started"

	// EventFolderStarted - началась обработка папки.
	EventFolderStarted EventType = "folder_started"

	// EventFolderDone - у папки есть итог (описана, пропущена или ошибка).
	EventFolderDone EventType = "folder_done"

	// EventRunDone - таблица записана или прогон прерван.
	EventRunDone EventType = "run_done"
)

// EventData - sealed interface для данных события.
type EventData interface {
	eventData()
}

// RunStartedData содержит данные для EventRunStarted.
type RunStartedData struct {
	Root    string
	Folders int
}

func (RunStartedData) eventData() {}

// FolderStartedData содержит данные для EventFolderStarted.
type FolderStartedData struct {
	Folder string
	Index  int // с нуля
	Total  int
}

func (FolderStartedData) eventData() {}

// FolderDoneData содержит итог папки.
//
// Status - строковое значение inventory.Status ("described", "skipped", "failed").
type FolderDoneData struct {
	Folder   string
	Status   string
	Text     string
	Reason   string
	Err      error
	Cached   bool
	Duration time.Duration
}

func (FolderDoneData) eventData() {}

// RunDoneData содержит итог всего прогона.
type RunDoneData struct {
	Described  int
	Skipped    int
	Failed     int
	OutputPath string
	Err        error
}

func (RunDoneData) eventData() {}

// Event представляет событие прогона.
type Event struct {
	Type      EventType
	Data      EventData
	Timestamp time.Time
}

// New создаёт событие с текущим временем.
func New(t EventType, data EventData) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now()}
}

// Emitter - это Port для отправки событий.
type Emitter interface {
	// Emit отправляет событие. При отменённом контексте событие теряется.
	Emit(ctx context.Context, event Event)
}

// Subscriber позволяет читать события из канала.
type Subscriber interface {
	// Events возвращает read-only канал событий.
	// Канал закрывается при закрытии эмиттера.
	Events() <-chan Event

	// Close освобождает подписчика.
	Close()
}

// NopEmitter отбрасывает все события.
type NopEmitter struct{}

// Emit ничего не делает.
func (NopEmitter) Emit(context.Context, Event) {}

var _ Emitter = NopEmitter{}
