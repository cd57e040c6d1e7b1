package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/teemow/drivetools/internal/drive"
	"github.com/teemow/drivetools/internal/logging"
)

// FileService is the part of the Drive API the adapter needs.
// *drive.Client implements it.
type FileService interface {
	ListFiles(ctx context.Context, options *drive.ListOptions) ([]*drive.FileInfo, error)
	GetFile(ctx context.Context, fileID string) (*drive.FileInfo, error)
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error)
	ExportFile(ctx context.Context, fileID, mimeType string) (io.ReadCloser, error)
	CreateFile(ctx context.Context, name string, content []byte, options *drive.UploadOptions) (*drive.FileInfo, error)
	UpdateFileContent(ctx context.Context, fileID string, content []byte, mediaType string) (*drive.FileInfo, error)
	DeleteFile(ctx context.Context, fileID string) error
}

const (
	// DefaultListSize is the number of files List returns when asked for 0.
	DefaultListSize = 10
	// MaxListSize is the largest page Drive serves.
	MaxListSize = 1000

	searchPageSize = 10
	readChunkSize  = 1 << 20

	// maxReadBytes caps how much of a file Read holds in memory.
	maxReadBytes = 32 << 20
)

// Adapter exposes Drive as six text-producing operations. None of them
// returns a Go error or panics; failures become error results.
type Adapter struct {
	svc     FileService
	logger  *slog.Logger
	maxRead int
}

// New creates an adapter backed by svc. A nil svc yields an adapter whose
// operations all report that Drive is not authenticated.
func New(svc FileService, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{svc: svc, logger: logger, maxRead: maxReadBytes}
}

// Authenticated reports whether the adapter has a Drive service.
func (a *Adapter) Authenticated() bool {
	return a.svc != nil
}

func (a *Adapter) logResult(ctx context.Context, op, fileID string, r Result) {
	attrs := []slog.Attr{logging.Operation(op), logging.Status(string(r.Status))}
	if fileID != "" {
		attrs = append(attrs, logging.FileID(fileID))
	}
	if r.IsError() {
		attrs = append(attrs, logging.Kind(string(r.Kind)), logging.Err(r.Err))
		a.logger.LogAttrs(ctx, slog.LevelWarn, "drive operation failed", attrs...)
		return
	}
	a.logger.LogAttrs(ctx, slog.LevelDebug, "drive operation completed", attrs...)
}

// Search finds files whose name contains query, optionally restricted to a
// file type (pdf, doc, docx, sheet, xlsx, slide, pptx). Unknown types are
// ignored.
func (a *Adapter) Search(ctx context.Context, query, fileType string) Result {
	const prefix = "Error searching Google Drive"
	if a.svc == nil {
		return notAuthenticated()
	}

	files, err := a.svc.ListFiles(ctx, &drive.ListOptions{
		Query:    buildSearchQuery(query, fileType),
		PageSize: searchPageSize,
	})
	if err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "search", "", r)
		return r
	}
	if len(files) == 0 {
		return empty("No files found matching your search.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d files:", len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "\n- %s (ID: %s, Type: %s)", f.Name, f.ID, typeSuffix(f.MimeType))
	}
	return ok("%s", sb.String())
}

// Read returns the text content of a file. Google Docs and Slides are
// exported as plain text, Sheets as CSV; other files are downloaded as
// stored. Content that is not valid UTF-8 is reported by size only.
func (a *Adapter) Read(ctx context.Context, fileID string) Result {
	const prefix = "Error reading file"
	if a.svc == nil {
		return notAuthenticated()
	}
	if fileID == "" {
		return invalid(prefix, "file id is required")
	}

	r := a.read(ctx, fileID)
	if r.IsError() {
		r = failure(prefix, r.Err)
		a.logResult(ctx, "read", fileID, r)
	}
	return r
}

func (a *Adapter) read(ctx context.Context, fileID string) Result {
	info, err := a.svc.GetFile(ctx, fileID)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	name := nameOrUnknown(info.Name)

	var body io.ReadCloser
	if mt := exportType(info.MimeType); mt != "" {
		body, err = a.svc.ExportFile(ctx, fileID, mt)
	} else {
		body, err = a.svc.DownloadFile(ctx, fileID)
	}
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}
	defer func() { _ = body.Close() }()

	content, err := readChunks(ctx, io.LimitReader(body, int64(a.maxRead)+1))
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	truncated := len(content) > a.maxRead
	if !truncated {
		if !utf8.Valid(content) {
			return ok("'%s' is a binary file (size: %d bytes)", name, len(content))
		}
		return ok("Content of '%s':\n\n%s", name, content)
	}

	content = content[:a.maxRead]
	if !validTextPrefix(content) {
		if info.SizeKnown {
			return ok("'%s' is a binary file (size: %d bytes)", name, info.Size)
		}
		return ok("'%s' is a binary file (size: more than %d bytes)", name, a.maxRead)
	}
	return ok("Content of '%s':\n\n%s\n\n[content truncated after %d bytes]", name, trimPartialRune(content), a.maxRead)
}

// validTextPrefix reports whether b is valid UTF-8 apart from a rune cut
// off at its end.
func validTextPrefix(b []byte) bool {
	return utf8.Valid(trimPartialRune(b))
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

// readChunks reads r to EOF in fixed-size chunks, stopping early if ctx is
// cancelled between chunks.
func readChunks(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := io.ReadFull(r, chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, &drive.Error{Kind: drive.KindTransport, Err: fmt.Errorf("failed to read file content: %w", err)}
		}
	}
}

// Create uploads content as a new file. fileType is text, google-doc or
// google-sheet; anything else is treated as text.
func (a *Adapter) Create(ctx context.Context, name, content, fileType string) Result {
	const prefix = "Error creating file"
	if a.svc == nil {
		return notAuthenticated()
	}
	if name == "" {
		return invalid(prefix, "file name is required")
	}

	name, opts := uploadFor(name, fileType)
	f, err := a.svc.CreateFile(ctx, name, []byte(content), opts)
	if err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "create", "", r)
		return r
	}

	link := f.WebViewLink
	if link == "" {
		link = "No link available"
	}
	r := ok("Successfully created file '%s'\nFile ID: %s\nView link: %s", f.Name, f.ID, link)
	a.logResult(ctx, "create", f.ID, r)
	return r
}

// Update replaces the content of an existing file with plain text.
func (a *Adapter) Update(ctx context.Context, fileID, content string) Result {
	const prefix = "Error updating file"
	if a.svc == nil {
		return notAuthenticated()
	}
	if fileID == "" {
		return invalid(prefix, "file id is required")
	}

	if _, err := a.svc.GetFile(ctx, fileID); err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "update", fileID, r)
		return r
	}

	f, err := a.svc.UpdateFileContent(ctx, fileID, []byte(content), "text/plain")
	if err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "update", fileID, r)
		return r
	}

	r := ok("Successfully updated '%s'\nModified at: %s", f.Name, f.ModifiedTime)
	a.logResult(ctx, "update", fileID, r)
	return r
}

// Delete permanently deletes a file after looking up its name.
func (a *Adapter) Delete(ctx context.Context, fileID string) Result {
	const prefix = "Error deleting file"
	if a.svc == nil {
		return notAuthenticated()
	}
	if fileID == "" {
		return invalid(prefix, "file id is required")
	}

	info, err := a.svc.GetFile(ctx, fileID)
	if err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "delete", fileID, r)
		return r
	}

	if err := a.svc.DeleteFile(ctx, fileID); err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "delete", fileID, r)
		return r
	}

	r := ok("Successfully deleted '%s'", nameOrUnknown(info.Name))
	a.logResult(ctx, "delete", fileID, r)
	return r
}

// List returns the most recently modified files. maxResults of 0 means
// DefaultListSize; other values are clamped to 1..MaxListSize.
func (a *Adapter) List(ctx context.Context, maxResults int) Result {
	const prefix = "Error listing files"
	if a.svc == nil {
		return notAuthenticated()
	}
	maxResults = clampListSize(maxResults)

	files, err := a.svc.ListFiles(ctx, &drive.ListOptions{
		PageSize: maxResults,
		OrderBy:  "modifiedTime desc",
	})
	if err != nil {
		r := failure(prefix, err)
		a.logResult(ctx, "list", "", r)
		return r
	}
	if len(files) == 0 {
		return empty("No files found in Google Drive.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Recent files in Google Drive (showing up to %d):", maxResults)
	for _, f := range files {
		fmt.Fprintf(&sb, "\n- %s (Modified: %s, Size: %s, ID: %s)",
			f.Name, formatDate(f.ModifiedTime), formatSize(f), f.ID)
	}
	return ok("%s", sb.String())
}

func clampListSize(n int) int {
	switch {
	case n == 0:
		return DefaultListSize
	case n < 1:
		return 1
	case n > MaxListSize:
		return MaxListSize
	default:
		return n
	}
}
