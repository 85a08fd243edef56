package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nederlearn/cultureclub/config"
)

// Avatars and featured images should stay small.
const maxImageSize = 5 * 1024 * 1024

var ErrImageTooLarge = errors.New("image exceeds 5MB")
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// SaveImageUpload stores an uploaded image under the uploads directory,
// partitioned by date, and returns the public URL for it. Filenames are
// regenerated with a UUID so user input never reaches the filesystem.
func SaveImageUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	defer file.Close()

	if header.Size > maxImageSize {
		return "", ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}

	cfg := config.Get()
	now := time.Now()
	relDir := filepath.Join(now.Format("2006"), now.Format("01"), now.Format("02"))
	baseDir := filepath.Join(cfg.UploadsDir, relDir)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	name := uuid.NewString() + ext
	dstPath := filepath.Join(baseDir, name)

	out, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	// Enforce the cap even when the reported header size lies.
	lr := &io.LimitedReader{R: file, N: maxImageSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if written > maxImageSize {
		_ = os.Remove(dstPath)
		return "", ErrImageTooLarge
	}

	return "/" + filepath.ToSlash(filepath.Join(cfg.UploadsDir, relDir, name)), nil
}
