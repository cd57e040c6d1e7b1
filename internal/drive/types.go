package drive

import "strings"

// Google Workspace MIME types Drive treats specially.
const (
	DocMimeType    = "application/vnd.google-apps.document"
	SheetMimeType  = "application/vnd.google-apps.spreadsheet"
	SlidesMimeType = "application/vnd.google-apps.presentation"

	// workspacePrefix marks Google-native files, which have no byte size.
	workspacePrefix = "application/vnd.google-apps."
)

// FileInfo is the metadata of one Drive file as reported by a single call.
type FileInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`

	// Size is the size in bytes. Only meaningful when SizeKnown is true;
	// Google-native documents report no size.
	Size      int64 `json:"size,omitempty"`
	SizeKnown bool  `json:"-"`

	// ModifiedTime is the RFC 3339 timestamp exactly as Drive returned it.
	ModifiedTime string `json:"modifiedTime,omitempty"`

	// WebViewLink opens the file in the matching Google editor or viewer.
	WebViewLink string `json:"webViewLink,omitempty"`
}

// IsWorkspaceFile reports whether the file is a Google-native document.
func (f *FileInfo) IsWorkspaceFile() bool {
	return strings.HasPrefix(f.MimeType, workspacePrefix)
}

// ListOptions contains options for listing files
type ListOptions struct {
	// Query is a query in Drive's search language, e.g. "name contains 'report'".
	// See https://developers.google.com/drive/api/guides/search-files
	Query string

	// PageSize is the maximum number of files to return (1-1000).
	PageSize int

	// OrderBy specifies the sort order, e.g. "modifiedTime desc".
	OrderBy string
}

// UploadOptions describes how file content is stored.
type UploadOptions struct {
	// MimeType is the MIME type recorded in the file metadata. A Google
	// Workspace type makes Drive convert the uploaded content.
	MimeType string

	// MediaType is the content type of the uploaded bytes.
	MediaType string
}
