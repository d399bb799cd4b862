package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
)

func TestDownloadArtifact(t *testing.T) {
	fx := newFixture(t)
	fx.fake.SetBody(fx.logo.ID, "images/logo.png", []byte("PNG DATA"))
	sess := connect(t, fx.fake)
	dir := t.TempDir()

	res, err := sess.DownloadArtifact(context.Background(), "Demo", "logo.png", dir)
	require.NoError(t, err)
	assert.Equal(t, fx.logo.ID, res.Artifact.ID)
	assert.Equal(t, filepath.Join(dir, "logo.png"), res.Path)
	assert.EqualValues(t, 8, res.Size)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "PNG DATA", string(data))
}

func TestDownloadArtifact_EmptyContent(t *testing.T) {
	fx := newFixture(t)
	sess := connect(t, fx.fake)

	_, err := sess.DownloadArtifact(context.Background(), "Demo", "notes.txt", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty content")
}

func TestDownloadArtifact_NotFound(t *testing.T) {
	fx := newFixture(t)
	sess := connect(t, fx.fake)
	ctx := context.Background()

	_, err := sess.DownloadArtifact(ctx, "Missing", "notes.txt", t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = sess.DownloadArtifact(ctx, "Demo", "missing.txt", t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, fx.fake.Calls("getArtifactBody"))
}

func TestUploadSample(t *testing.T) {
	fx := newFixture(t)
	sess := connect(t, fx.fake)
	now := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

	res, err := sess.UploadSample(context.Background(), "Demo", now)
	require.NoError(t, err)

	assert.Equal(t, "API Uploads at "+now.Format(time.UnixDate), res.Directory.Name)
	assert.True(t, res.Directory.IsDirectory())
	assert.Nil(t, res.Directory.Parent)

	assert.Equal(t, "My Document.txt", res.Document.Name)
	require.NotNil(t, res.Document.Parent)
	assert.Equal(t, res.Directory.ID, res.Document.Parent.ID)
	assert.Equal(t, fx.fake.SessionUser().ID, res.Document.Owner.ID)
	assert.Equal(t, models.ArtifactStatusNew, res.Document.Status.ID)

	assert.Equal(t, []string{"Initial upload", "Second version."}, fx.fake.Revisions(res.Document.ID))
	body := fx.fake.Body(res.Document.ID)
	require.NotNil(t, body)
	assert.True(t, strings.Contains(string(body.Data), "second"))
}

func TestUploadFile(t *testing.T) {
	fx := newFixture(t)
	sess := connect(t, fx.fake)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"), 0o644))

	root, err := sess.UploadFile(ctx, "Demo", 0, path)
	require.NoError(t, err)
	assert.Nil(t, root.Parent)
	assert.Equal(t, "application/pdf", root.MimeType)
	require.NotNil(t, root.FileSize)
	assert.EqualValues(t, 15, *root.FileSize)

	nested, err := sess.UploadFile(ctx, "Demo", fx.docs.ID, path)
	require.NoError(t, err)
	require.NotNil(t, nested.Parent)
	assert.Equal(t, fx.docs.ID, nested.Parent.ID)

	_, err = sess.UploadFile(ctx, "Demo", 0, filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifData  = []byte("GIF89a\x01\x00\x01\x00")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"photo.JPG", jpegData, "image/jpeg"},
		{"photo.jpeg", jpegData, "image/jpeg"},
		{"anim.gif", gifData, "image/gif"},
		{"logo.png", pngData, "image/png"},
		{"renamed.gif", pngData, "image/gif"},
		{"fake.png", []byte("plain text"), "text/plain; charset=utf-8"},
		{"picture", pngData, "image/png"},
		{"notes.txt", []byte("plain text"), "text/plain; charset=utf-8"},
		{"unknown", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMimeType(tt.name, tt.data))
		})
	}
}
