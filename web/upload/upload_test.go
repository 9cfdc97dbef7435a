package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// formFile packs raw bytes into a parsed multipart file header, the shape a
// handler receives from gin.
func formFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))

	fh := req.MultipartForm.File["image"][0]
	return fh
}

func pngBytes(extra int) []byte {
	return append(append([]byte{}, pngHeader...), make([]byte, extra)...)
}

func TestSaveImageStoresUnderGeneratedName(t *testing.T) {
	dir := t.TempDir()

	name, err := SaveImage(formFile(t, "cat.png", pngBytes(100)), dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.NotContains(t, name, "cat", "client filename must not leak into storage")

	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err)
}

func TestSaveImageNilHeader(t *testing.T) {
	name, err := SaveImage(nil, t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, name)
}

func TestSaveImageExtensionFollowsSniffedType(t *testing.T) {
	dir := t.TempDir()

	// a PNG payload with a lying .jpg name is stored as .png
	name, err := SaveImage(formFile(t, "fake.jpg", pngBytes(100)), dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".png"))
}

func TestSaveImageRejectsNonImages(t *testing.T) {
	dir := t.TempDir()

	_, err := SaveImage(formFile(t, "evil.png", []byte("<?php echo 'hi'; ?>")), dir)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "nothing may be written for a rejected upload")
}

func TestSaveImageRejectsOversized(t *testing.T) {
	big := formFile(t, "big.png", pngBytes(1_000_001))
	_, err := SaveImage(big, t.TempDir())
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "stored.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o640))
	Remove(dir, "stored.png")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// missing files are silently ignored
	Remove(dir, "absent.png")
}

func TestRemoveNeverTraverses(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "outside.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o640))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	Remove(sub, "../outside.png")
	_, err := os.Stat(outside)
	assert.NoError(t, err, "a traversal name must not escape the directory")
}

func TestRemoveKeepsPlaceholders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no_image.png")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o640))

	Remove(dir, "no_image.png")
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
