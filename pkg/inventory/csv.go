package inventory

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Header - колонки итоговой таблицы.
var Header = []string{"folder_name", "cloth_description"}

// WriteCSV пишет таблицу с заголовком. Кавычки и переводы строк
// экранируются по стандарту CSV.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.FolderName, r.ClothDescription}); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.FolderName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile полностью перезаписывает path.
//
// Пишем во временный файл рядом и переименовываем, чтобы прерванный прогон
// не оставил полупустую таблицу.
func WriteCSVFile(path string, rows []Row) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".inventory-*.csv")
	if err != nil {
		return fmt.Errorf("create temp csv: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp csv: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod csv: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace csv: %w", err)
	}
	return nil
}

// ReadCSVFile читает таблицу обратно (для publish и проверок).
func ReadCSVFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s has no header", path)
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(Header) {
			return nil, fmt.Errorf("csv row has %d columns, want %d", len(rec), len(Header))
		}
		rows = append(rows, Row{FolderName: rec[0], ClothDescription: rec[1]})
	}
	return rows, nil
}
