package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	out := filepath.Join(dir, VideoFilename)
	f := NewFetcher()

	n, err := f.Download(context.Background(), srv.URL+"/v1/files/abc:download?alt=media&key=secret", out)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "mp4-bytes", string(data))

	_, err = f.Download(context.Background(), srv.URL+"/v1/files/abc:download?key=wrong", filepath.Join(dir, "other.mp4"))
	assert.ErrorContains(t, err, "status 403")
	assert.NoFileExists(t, filepath.Join(dir, "other.mp4"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRedact(t *testing.T) {
	err := redact(&url.Error{Op: "Get", URL: "https://example.com/v.mp4?key=secret", Err: errors.New("timeout")})
	assert.NotContains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "REDACTED")

	plain := errors.New("boom")
	assert.Equal(t, plain, redact(plain))
}
