package s3storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ilkoid/poncho-inventory/pkg/inventory"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

// Publisher выкладывает результат прогона в бакет:
//
//	<prefix>/<run-id>/clothing_inventory.csv
//	<prefix>/<run-id>/<folder>/description.txt
type Publisher struct {
	Uploader Uploader
	Prefix   string

	// NewRunID по умолчанию uuid.NewString; подменяется в тестах.
	NewRunID func() string
}

// PublishResult - что и куда было загружено.
type PublishResult struct {
	RunID string
	Keys  []string
}

// Publish загружает CSV и тексты всех описанных папок.
func (p *Publisher) Publish(ctx context.Context, report *inventory.Report, csvPath string) (PublishResult, error) {
	newID := p.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}
	res := PublishResult{RunID: newID()}
	base := path.Join(p.Prefix, res.RunID)

	csvData, err := os.ReadFile(csvPath)
	if err != nil {
		return res, fmt.Errorf("read inventory table: %w", err)
	}

	csvKey := path.Join(base, filepath.Base(csvPath))
	if err := p.Uploader.UploadBytes(ctx, csvKey, csvData, "text/csv; charset=utf-8"); err != nil {
		return res, err
	}
	res.Keys = append(res.Keys, csvKey)

	for _, row := range report.Rows() {
		key := path.Join(base, row.FolderName, "description.txt")
		if err := p.Uploader.UploadBytes(ctx, key, []byte(row.ClothDescription), "text/plain; charset=utf-8"); err != nil {
			return res, err
		}
		res.Keys = append(res.Keys, key)
	}

	utils.Info("Inventory published", "run_id", res.RunID, "objects", len(res.Keys))
	return res, nil
}
