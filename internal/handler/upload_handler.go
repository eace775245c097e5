package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"foodcourt-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadPathPrefix is where uploaded files are served from
const UploadPathPrefix = "/uploads"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadImage stores a merchant or menu image and returns its public URL
func UploadImage(c echo.Context) error {
	log := logger.FromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		file, err = c.FormFile("image")
	}
	if err != nil {
		log.Warn("Upload without file", zap.Error(err))
		return badRequest(c, "file is required")
	}
	if opts.UploadMaxBytes > 0 && file.Size > opts.UploadMaxBytes {
		return badRequest(c, fmt.Sprintf("file must be at most %d bytes", opts.UploadMaxBytes))
	}

	src, err := file.Open()
	if err != nil {
		return handleError(c, err, "Upload image")
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return badRequest(c, "file is empty")
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return badRequest(c, "only jpeg, png, gif and webp images are allowed")
	}

	if err := os.MkdirAll(opts.UploadDir, 0o755); err != nil {
		return handleError(c, err, "Upload image")
	}
	name := uuid.New().String() + ext
	if err := saveFile(filepath.Join(opts.UploadDir, name), io.MultiReader(bytes.NewReader(head[:n]), src)); err != nil {
		return handleError(c, err, "Upload image")
	}

	path := UploadPathPrefix + "/" + name
	url := path
	if opts.PublicBaseURL != "" {
		url = strings.TrimRight(opts.PublicBaseURL, "/") + path
	}

	log.Info("Image uploaded", zap.String("file", name), zap.Int64("size", file.Size))
	return success(c, http.StatusCreated, echo.Map{"url": url, "path": path, "filename": name})
}

// saveFile writes r to path; a partially written file is removed on failure
func saveFile(path string, r io.Reader) (err error) {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	_, err = io.Copy(dst, r)
	return err
}
