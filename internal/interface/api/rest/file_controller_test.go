package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"localdrop/internal/domain/media"
	dto "localdrop/internal/interface/api/rest/dto/media"
)

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

func setupRouterFC(t *testing.T, registry *FakeRegistry, opener *FakeOpener) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	NewFileController(r, registry, opener, FakeURLResolver{}, zap.NewNop())
	return r
}

func doGet(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetFilesHandler(t *testing.T) {
	t.Run("lists newest first", func(t *testing.T) {
		registry := &FakeRegistry{
			ListFunc: func(ctx context.Context) (media.Snapshot, error) {
				return media.Snapshot{
					{Identifier: "2-b.mov", DisplayName: "b.mov", Kind: media.KindVideo, CreatedAtMillis: 2000},
					{Identifier: "1-a.txt", DisplayName: "a.txt", Kind: media.KindOther, CreatedAtMillis: 1000},
				}, nil
			},
		}
		w := doGet(setupRouterFC(t, registry, &FakeOpener{}), RouteFiles, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.ResponseData
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.Files{
			{URL: "/uploads/2-b.mov", Name: "b.mov", Type: "video/*", MTime: 2000},
			{URL: "/uploads/1-a.txt", Name: "a.txt", Type: "application/octet-stream", MTime: 1000},
		}, resp.Files)
	})

	t.Run("empty store is an empty array", func(t *testing.T) {
		registry := &FakeRegistry{
			ListFunc: func(ctx context.Context) (media.Snapshot, error) { return media.Snapshot{}, nil },
		}
		w := doGet(setupRouterFC(t, registry, &FakeOpener{}), RouteFiles, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"files":[]}`, w.Body.String())
	})

	t.Run("registry failure is not an empty gallery", func(t *testing.T) {
		registry := &FakeRegistry{
			ListFunc: func(ctx context.Context) (media.Snapshot, error) {
				return nil, &media.StorageError{Op: "list", Err: errors.New("io")}
			},
		}
		w := doGet(setupRouterFC(t, registry, &FakeOpener{}), RouteFiles, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"failed to list files"}`, w.Body.String())
	})
}

func TestGetIPHandler(t *testing.T) {
	w := doGet(setupRouterFC(t, &FakeRegistry{}, &FakeOpener{}), RouteIP, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ip":"192.168.1.23","upload_url":"http://192.168.1.23:3000"}`, w.Body.String())
}

func TestServeFileHandler(t *testing.T) {
	content := []byte("not really a video")
	opener := &FakeOpener{
		OpenFunc: func(ctx context.Context, identifier string) (io.ReadSeekCloser, *media.FileRecord, error) {
			switch identifier {
			case "1-clip.mp4":
				return nopSeekCloser{bytes.NewReader(content)}, &media.FileRecord{
					Identifier:      identifier,
					Kind:            media.KindVideo,
					SizeBytes:       int64(len(content)),
					CreatedAtMillis: 1_700_000_000_000,
				}, nil
			case "2-broken.jpg":
				return nil, nil, &media.StorageError{Op: "open", Err: errors.New("eio")}
			default:
				return nil, nil, &media.StorageError{Op: "open", Err: media.ErrNotFound}
			}
		},
	}
	r := setupRouterFC(t, &FakeRegistry{}, opener)

	t.Run("full body", func(t *testing.T) {
		w := doGet(r, "/uploads/1-clip.mp4", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, content, w.Body.Bytes())
		assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")
	})

	t.Run("range", func(t *testing.T) {
		w := doGet(r, "/uploads/1-clip.mp4", map[string]string{"Range": "bytes=0-2"})
		require.Equal(t, http.StatusPartialContent, w.Code)
		assert.Equal(t, "not", w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, doGet(r, "/uploads/9-nope.png", nil).Code)
	})

	t.Run("dotfile", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, doGet(r, "/uploads/.meta", nil).Code)
	})

	t.Run("read failure", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, doGet(r, "/uploads/2-broken.jpg", nil).Code)
	})
}
