package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/drivetools/internal/instrumentation"
)

// fileFields is the metadata requested for every returned file.
const fileFields = "id, name, mimeType, modifiedTime, size, webViewLink"

// Client wraps the Google Drive API service with rate limiting, retries and
// instrumentation. Safe for concurrent use.
type Client struct {
	service *drive.Service
	limiter *RateLimiter
	retry   RetryPolicy
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	clientOpts []option.ClientOption
}

// Option configures a Client.
type Option func(*Client)

// WithClientOptions passes extra options to the underlying API service,
// e.g. option.WithEndpoint in tests.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a Drive client authenticated by ts. A nil ts is only
// useful together with client options that supply authentication.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	c := &Client{
		limiter: NewRateLimiter(DefaultRequestsPerSecond, DefaultBurst),
		retry:   DefaultRetryPolicy(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var clientOpts []option.ClientOption
	if ts != nil {
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	clientOpts = append(clientOpts, c.clientOpts...)

	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	c.service = svc
	return c, nil
}

// ListFiles lists files matching options.
func (c *Client) ListFiles(ctx context.Context, options *ListOptions) ([]*FileInfo, error) {
	files, err := call(ctx, c, instrumentation.OperationList, "", func(ctx context.Context) ([]*drive.File, error) {
		req := c.service.Files.List().
			Context(ctx).
			Fields(googleapi.Field("files(" + fileFields + ")"))

		if options != nil {
			if options.Query != "" {
				req = req.Q(options.Query)
			}
			if options.PageSize > 0 {
				req = req.PageSize(int64(options.PageSize))
			}
			if options.OrderBy != "" {
				req = req.OrderBy(options.OrderBy)
			}
		}

		list, err := req.Do()
		if err != nil {
			return nil, err
		}
		return list.Files, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	out := make([]*FileInfo, len(files))
	for i, f := range files {
		out[i] = convertToFileInfo(f)
	}
	return out, nil
}

// GetFile retrieves the metadata of a file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if fileID == "" {
		return nil, invalidf("file id is required")
	}

	f, err := call(ctx, c, instrumentation.OperationGet, fileID, func(ctx context.Context) (*drive.File, error) {
		return c.service.Files.Get(fileID).Context(ctx).Fields(fileFields).Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}
	return convertToFileInfo(f), nil
}

// DownloadFile opens the stored bytes of a non-Google-native file.
// The caller must close the returned reader.
func (c *Client) DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if fileID == "" {
		return nil, invalidf("file id is required")
	}

	body, err := call(ctx, c, instrumentation.OperationDownload, fileID, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return body, nil
}

// ExportFile opens a Google-native document converted to mimeType.
// The caller must close the returned reader.
func (c *Client) ExportFile(ctx context.Context, fileID, mimeType string) (io.ReadCloser, error) {
	if fileID == "" {
		return nil, invalidf("file id is required")
	}

	body, err := call(ctx, c, instrumentation.OperationExport, fileID, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := c.service.Files.Export(fileID, mimeType).Context(ctx).Download()
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export file %s as %s: %w", fileID, mimeType, err)
	}
	return body, nil
}

// CreateFile uploads content as a new file. The content is sent again
// unchanged on every retry.
func (c *Client) CreateFile(ctx context.Context, name string, content []byte, options *UploadOptions) (*FileInfo, error) {
	if name == "" {
		return nil, invalidf("file name is required")
	}

	meta := &drive.File{Name: name}
	mediaType := "text/plain"
	if options != nil {
		meta.MimeType = options.MimeType
		if options.MediaType != "" {
			mediaType = options.MediaType
		}
	}

	f, err := call(ctx, c, instrumentation.OperationCreate, "", func(ctx context.Context) (*drive.File, error) {
		return c.service.Files.Create(meta).
			Context(ctx).
			Media(bytes.NewReader(content), googleapi.ContentType(mediaType)).
			Fields(fileFields).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file %q: %w", name, err)
	}
	return convertToFileInfo(f), nil
}

// UpdateFileContent replaces the content of an existing file.
func (c *Client) UpdateFileContent(ctx context.Context, fileID string, content []byte, mediaType string) (*FileInfo, error) {
	if fileID == "" {
		return nil, invalidf("file id is required")
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	f, err := call(ctx, c, instrumentation.OperationUpdate, fileID, func(ctx context.Context) (*drive.File, error) {
		return c.service.Files.Update(fileID, &drive.File{}).
			Context(ctx).
			Media(bytes.NewReader(content), googleapi.ContentType(mediaType)).
			Fields(fileFields).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update file %s: %w", fileID, err)
	}
	return convertToFileInfo(f), nil
}

// DeleteFile permanently deletes a file, bypassing the trash.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return invalidf("file id is required")
	}

	_, err := call(ctx, c, instrumentation.OperationDelete, fileID, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.service.Files.Delete(fileID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Err: fmt.Errorf(format, args...)}
}

func convertToFileInfo(f *drive.File) *FileInfo {
	info := &FileInfo{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
	}
	info.SizeKnown = f.Size > 0 || !info.IsWorkspaceFile()
	return info
}
