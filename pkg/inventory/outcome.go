package inventory

import (
	"fmt"
	"time"
)

// Status - итог обработки одной папки.
type Status string

const (
	StatusDescribed Status = "described"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome - результат одной папки: Described(text), Skipped(reason) или Failed(err).
type Outcome struct {
	Folder   string
	Status   Status
	Text     string // только для StatusDescribed
	Reason   string // только для StatusSkipped
	Err      error  // только для StatusFailed
	Cached   bool
	Duration time.Duration

	// Carried - папка вне фильтра -folder: строка взята из кэша как есть,
	// в счётчики прогона не входит.
	Carried bool
}

// Described создаёт успешный итог.
func Described(folder, text string, cached bool) Outcome {
	return Outcome{Folder: folder, Status: StatusDescribed, Text: text, Cached: cached}
}

// Skipped создаёт итог пропущенной папки.
func Skipped(folder, reason string) Outcome {
	return Outcome{Folder: folder, Status: StatusSkipped, Reason: reason}
}

// Failed создаёт итог папки с ошибкой.
func Failed(folder string, err error) Outcome {
	return Outcome{Folder: folder, Status: StatusFailed, Err: err}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusDescribed:
		src := "generated"
		switch {
		case o.Carried:
			src = "kept"
		case o.Cached:
			src = "cached"
		}
		return fmt.Sprintf("%s: described (%s)", o.Folder, src)
	case StatusSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.Folder, o.Reason)
	default:
		return fmt.Sprintf("%s: failed (%v)", o.Folder, o.Err)
	}
}

// Row - строка итоговой таблицы.
type Row struct {
	FolderName       string
	ClothDescription string
}

// Report - итоги прогона в порядке обработки папок.
type Report struct {
	Root       string
	OutputPath string
	Outcomes   []Outcome
}

// Rows возвращает строки таблицы: описанные папки, включая перенесённые.
func (r *Report) Rows() []Row {
	rows := make([]Row, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status == StatusDescribed {
			rows = append(rows, Row{FolderName: o.Folder, ClothDescription: o.Text})
		}
	}
	return rows
}

// Count возвращает число обработанных в прогоне папок с данным статусом.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s && !o.Carried {
			n++
		}
	}
	return n
}

// Generated - сколько описаний было сгенерировано (не из кэша) в этом прогоне.
func (r *Report) Generated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == StatusDescribed && !o.Cached && !o.Carried {
			n++
		}
	}
	return n
}

// Failures возвращает только упавшие папки.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}
