package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ilkoid/poncho-inventory/pkg/events"
)

// EventMsg конвертирует events.Event в Bubble Tea сообщение.
type EventMsg events.Event

// streamClosedMsg - эмиттер закрыт, событий больше не будет.
type streamClosedMsg struct{}

// ReceiveEventCmd возвращает Cmd, который ждёт одно событие из Subscriber.
//
// После обработки события в Update() нужно снова вернуть ReceiveEventCmd,
// иначе чтение остановится:
//
//	case tui.EventMsg:
//	    // ...
//	    return m, tui.ReceiveEventCmd(sub)
func ReceiveEventCmd(sub events.Subscriber) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Events()
		if !ok {
			return streamClosedMsg{}
		}
		return EventMsg(event)
	}
}
