package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/drivetools/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), nil,
		WithClientOptions(
			option.WithEndpoint(srv.URL+"/"),
			option.WithHTTPClient(srv.Client()),
		),
		WithRetryPolicy(RetryPolicy{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsed:      2 * time.Second,
		}),
		WithRateLimiter(NewRateLimiter(1000, 100).WithCooldown(time.Millisecond)),
		WithLogger(logging.Discard()),
	)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": http.StatusText(status),
			"errors":  []map[string]any{{"reason": reason, "message": http.StatusText(status)}},
		},
	})
}

type uploadedPart struct {
	metadata    map[string]any
	contentType string
	body        string
}

func readMultipartUpload(t *testing.T, r *http.Request) uploadedPart {
	t.Helper()

	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/related", mediaType)

	mr := multipart.NewReader(r.Body, params["boundary"])

	metaPart, err := mr.NextPart()
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))

	mediaPart, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(mediaPart)
	require.NoError(t, err)

	return uploadedPart{metadata: meta, contentType: mediaPart.Header.Get("Content-Type"), body: string(body)}
}

func TestListFiles(t *testing.T) {
	var query, pageSize, orderBy string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files", r.URL.Path)
		query = r.URL.Query().Get("q")
		pageSize = r.URL.Query().Get("pageSize")
		orderBy = r.URL.Query().Get("orderBy")
		writeJSON(w, http.StatusOK, map[string]any{
			"files": []map[string]any{
				{"id": "1", "name": "big.bin", "mimeType": "application/octet-stream", "size": "2097152", "modifiedTime": "2024-05-01T10:00:00.000Z"},
				{"id": "2", "name": "Notes", "mimeType": DocMimeType},
			},
		})
	})

	files, err := c.ListFiles(context.Background(), &ListOptions{
		Query:    "name contains 'x'",
		PageSize: 10,
		OrderBy:  "modifiedTime desc",
	})
	require.NoError(t, err)

	assert.Equal(t, "name contains 'x'", query)
	assert.Equal(t, "10", pageSize)
	assert.Equal(t, "modifiedTime desc", orderBy)

	require.Len(t, files, 2)
	assert.Equal(t, int64(2097152), files[0].Size)
	assert.True(t, files[0].SizeKnown)
	assert.Equal(t, "2024-05-01T10:00:00.000Z", files[0].ModifiedTime)
	assert.False(t, files[1].SizeKnown, "native docs have no size")
	assert.True(t, files[1].IsWorkspaceFile())
}

func TestGetFile_NotFound(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusNotFound, "notFound")
	})

	_, err := c.GetFile(context.Background(), "missing")
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindNotFound, Classify(err))
	assert.Equal(t, int32(1), calls.Load(), "not found must not be retried")
}

func TestGetFile_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeAPIError(w, http.StatusTooManyRequests, "rateLimitExceeded")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "abc", "name": "report.pdf", "mimeType": "application/pdf"})
	})

	f, err := c.GetFile(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", f.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetFile_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeAPIError(w, http.StatusServiceUnavailable, "backendError")
	})

	_, err := c.GetFile(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, KindTransport, Classify(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetFile_EmptyID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.GetFile(context.Background(), "")
	assert.Equal(t, KindInvalid, Classify(err))
}

func TestDownloadAndExport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/bin":
			assert.Equal(t, "media", r.URL.Query().Get("alt"))
			_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
		case "/files/doc/export":
			assert.Equal(t, "text/csv", r.URL.Query().Get("mimeType"))
			_, _ = io.WriteString(w, "a,b\n1,2\n")
		default:
			http.NotFound(w, r)
		}
	})

	rc, err := c.DownloadFile(context.Background(), "bin")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, []byte{0xff, 0xfe, 0x00}, data)

	rc, err = c.ExportFile(context.Background(), "doc", "text/csv")
	require.NoError(t, err)
	data, err = io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestCreateFile(t *testing.T) {
	var got uploadedPart
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasPrefix(r.URL.Path, "/upload/"), r.URL.Path)
		require.True(t, strings.HasSuffix(r.URL.Path, "/files"), r.URL.Path)
		got = readMultipartUpload(t, r)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":          "new-id",
			"name":        got.metadata["name"],
			"mimeType":    SheetMimeType,
			"webViewLink": "https://docs.google.com/spreadsheets/d/new-id",
		})
	})

	f, err := c.CreateFile(context.Background(), "Budget", []byte("a,b\n"), &UploadOptions{
		MimeType:  SheetMimeType,
		MediaType: "text/csv",
	})
	require.NoError(t, err)

	assert.Equal(t, "Budget", got.metadata["name"])
	assert.Equal(t, SheetMimeType, got.metadata["mimeType"])
	assert.True(t, strings.HasPrefix(got.contentType, "text/csv"))
	assert.Equal(t, "a,b\n", got.body)
	assert.Equal(t, "new-id", f.ID)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/new-id", f.WebViewLink)
}

func TestCreateFile_RetryResendsContent(t *testing.T) {
	var calls atomic.Int32
	var bodies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		bodies = append(bodies, readMultipartUpload(t, r).body)
		if calls.Add(1) == 1 {
			writeAPIError(w, http.StatusInternalServerError, "backendError")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "x", "name": "notes.txt"})
	})

	_, err := c.CreateFile(context.Background(), "notes.txt", []byte("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "hello"}, bodies)
}

func TestUpdateFileContent(t *testing.T) {
	var got uploadedPart
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/files/f1"), r.URL.Path)
		got = readMultipartUpload(t, r)
		writeJSON(w, http.StatusOK, map[string]any{"id": "f1", "name": "notes.txt", "modifiedTime": "2024-06-01T12:00:00.000Z"})
	})

	f, err := c.UpdateFileContent(context.Background(), "f1", []byte("new text"), "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got.contentType, "text/plain"))
	assert.Equal(t, "new text", got.body)
	assert.Equal(t, "2024-06-01T12:00:00.000Z", f.ModifiedTime)
}

func TestDeleteFile(t *testing.T) {
	var method, path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteFile(context.Background(), "f1"))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/files/f1", path)
}

func TestDeleteFile_Forbidden(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusForbidden, "insufficientFilePermissions")
	})

	err := c.DeleteFile(context.Background(), "f1")
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestCall_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusServiceUnavailable, "backendError")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListFiles(ctx, nil)
	assert.Error(t, err)
}
