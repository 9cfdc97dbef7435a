// Package upload stores user-submitted images under server-generated names
// after size and content-type checks.
package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cinelog/cinelog/config"

	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("the image file is too large")
	ErrUnsupportedType = errors.New("unsupported image format")
	ErrUnreadable      = errors.New("the file could not be read as an image")
)

// extByMime maps the sniffed content type to the stored file extension.
// Extensions claimed by the client are ignored.
var extByMime = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// protectedNames are placeholder images that must never be deleted.
var protectedNames = map[string]bool{
	"no_image.png": true,
	"default.png":  true,
}

// IsProtected reports whether name is a placeholder image exempt from any
// deletion, including the orphan sweep.
func IsProtected(name string) bool {
	return protectedNames[filepath.Base(name)]
}

// SaveImage validates and stores an uploaded image in dir, returning the
// generated filename. A nil header means no file was selected and yields
// ("", nil). The content type is sniffed from the file bytes, never taken
// from the request.
func SaveImage(fh *multipart.FileHeader, dir string) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", nil
	}

	if fh.Size > config.GetMaxUploadSize() {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		return "", ErrUnreadable
	}
	mime := http.DetectContentType(head[:n])

	ext, ok := extByMime[mime]
	if !ok {
		return "", ErrUnsupportedType
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	filename := strings.ReplaceAll(uuid.New().String(), "-", "") + "." + ext
	dst, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}

	return filename, nil
}

// Remove deletes a stored image by name. The name is reduced to its basename
// before path concatenation so stored values can never traverse directories.
// Placeholder images are left alone. A missing file is not an error.
func Remove(dir, name string) {
	name = filepath.Base(name)
	if name == "" || name == "." || protectedNames[name] {
		return
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
