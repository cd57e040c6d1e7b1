package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/drivetools/internal/drive"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name string
		file drive.FileInfo
		want string
	}{
		{name: "two MiB", file: drive.FileInfo{Size: 2097152, SizeKnown: true}, want: "2.00 MB"},
		{name: "exactly one MiB is KB", file: drive.FileInfo{Size: 1048576, SizeKnown: true}, want: "1024.00 KB"},
		{name: "500 bytes", file: drive.FileInfo{Size: 500, SizeKnown: true}, want: "0.49 KB"},
		{name: "zero bytes", file: drive.FileInfo{Size: 0, SizeKnown: true}, want: "0.00 KB"},
		{name: "unknown", file: drive.FileInfo{}, want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSize(&tt.file))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", formatDate("2024-01-15T10:30:00.000Z"))
	assert.Equal(t, "Unknown", formatDate(""))
}

func TestTypeSuffix(t *testing.T) {
	assert.Equal(t, "spreadsheet", typeSuffix(drive.SheetMimeType))
	assert.Equal(t, "sheet", typeSuffix("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Equal(t, "text/plain", typeSuffix("text/plain"))
}

func TestSearchMimeType(t *testing.T) {
	for _, ft := range []string{"pdf", "doc", "docx", "sheet", "xlsx", "slide", "pptx", "PDF"} {
		_, ok := SearchMimeType(ft)
		assert.True(t, ok, ft)
	}
	_, ok := SearchMimeType("txt")
	assert.False(t, ok)
}
