package adapter

import (
	"fmt"
	"strings"

	"github.com/teemow/drivetools/internal/drive"
)

// searchTypes maps the file-type filter accepted by search to a Drive MIME type.
var searchTypes = map[string]string{
	"pdf":   "application/pdf",
	"doc":   drive.DocMimeType,
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"sheet": drive.SheetMimeType,
	"xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"slide": drive.SlidesMimeType,
	"pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// SearchMimeType returns the MIME type for a search type filter. The lookup
// is case-insensitive; unknown filters return false.
func SearchMimeType(fileType string) (string, bool) {
	mt, ok := searchTypes[strings.ToLower(fileType)]
	return mt, ok
}

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// buildSearchQuery builds the Drive query for a name search.
func buildSearchQuery(query, fileType string) string {
	q := fmt.Sprintf("name contains '%s'", queryEscaper.Replace(query))
	if fileType != "" {
		if mt, ok := SearchMimeType(fileType); ok {
			q += fmt.Sprintf(" and mimeType='%s'", mt)
		}
	}
	return q
}

// typeSuffix shortens a MIME type to its last dot-separated part,
// e.g. "document" for a Google Doc.
func typeSuffix(mimeType string) string {
	if i := strings.LastIndex(mimeType, "."); i >= 0 {
		return mimeType[i+1:]
	}
	return mimeType
}

const mib = 1024 * 1024

// formatSize renders a byte count as MB above one MiB and as KB otherwise.
func formatSize(f *drive.FileInfo) string {
	if !f.SizeKnown {
		return "N/A"
	}
	if f.Size > mib {
		return fmt.Sprintf("%.2f MB", float64(f.Size)/mib)
	}
	return fmt.Sprintf("%.2f KB", float64(f.Size)/1024)
}

// formatDate returns the date portion of an RFC 3339 timestamp.
func formatDate(modified string) string {
	if modified == "" {
		return "Unknown"
	}
	date, _, _ := strings.Cut(modified, "T")
	return date
}

func nameOrUnknown(name string) string {
	if name == "" {
		return "Unknown"
	}
	return name
}

// exportType returns the format a Google-native file is exported as, or ""
// if the file is downloaded as stored.
func exportType(mimeType string) string {
	switch mimeType {
	case drive.DocMimeType, drive.SlidesMimeType:
		return "text/plain"
	case drive.SheetMimeType:
		return "text/csv"
	default:
		return ""
	}
}

// File types accepted by Create.
const (
	FileTypeText        = "text"
	FileTypeGoogleDoc   = "google-doc"
	FileTypeGoogleSheet = "google-sheet"
)

// uploadFor returns the stored name and upload options for a create request.
// Anything other than a Google Doc or Sheet is stored as plain text with a
// .txt extension.
func uploadFor(name, fileType string) (string, *drive.UploadOptions) {
	switch fileType {
	case FileTypeGoogleDoc:
		return name, &drive.UploadOptions{MimeType: drive.DocMimeType, MediaType: "text/plain"}
	case FileTypeGoogleSheet:
		return name, &drive.UploadOptions{MimeType: drive.SheetMimeType, MediaType: "text/csv"}
	default:
		if !strings.HasSuffix(name, ".txt") {
			name += ".txt"
		}
		return name, &drive.UploadOptions{MediaType: "text/plain"}
	}
}
