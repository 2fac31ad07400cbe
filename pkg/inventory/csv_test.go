package inventory

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
		want string
	}{
		{
			name: "header only",
			want: "folder_name,cloth_description\n",
		},
		{
			name: "quoting",
			rows: []Row{
				{FolderName: "shirt2", ClothDescription: "Blue jacket."},
				{FolderName: "coat", ClothDescription: "Cappotto, lana \"merino\"\nTaglia M"},
			},
			want: "folder_name,cloth_description\n" +
				"shirt2,Blue jacket.\n" +
				"coat,\"Cappotto, lana \"\"merino\"\"\nTaglia M\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, tt.rows))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCSVFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clothing_inventory.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,content,with,more,columns\n"), 0o644))

	rows := []Row{{FolderName: "a", ClothDescription: "x"}}
	require.NoError(t, WriteCSVFile(path, rows))

	got, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".inventory-*"))
	assert.Empty(t, leftovers)
}

func TestReport_Counters(t *testing.T) {
	r := &Report{Outcomes: []Outcome{
		Described("a", "x", true),
		Described("b", "y", false),
		Skipped("c", "no image files"),
		Failed("d", assert.AnError),
	}}

	assert.Equal(t, 2, r.Count(StatusDescribed))
	assert.Equal(t, 1, r.Count(StatusSkipped))
	assert.Equal(t, 1, r.Count(StatusFailed))
	assert.Equal(t, 1, r.Generated())
	assert.Len(t, r.Rows(), 2)
	assert.Equal(t, "d", r.Failures()[0].Folder)

	assert.Equal(t, "a: described (cached)", r.Outcomes[0].String())
	assert.Equal(t, "c: skipped (no image files)", r.Outcomes[2].String())
}
