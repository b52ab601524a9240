package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadSizeBytes = 5 * 1024 * 1024

const thumbnailWidth = 200

func uploadsDir() string {
	if dir := os.Getenv("UPLOADS_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// uploadError is a client-side upload rejection, rendered as a 400.
type uploadError struct {
	message string
}

func (e *uploadError) Error() string { return e.message }

// saveUploadedImage stores the optional "image" part of a multipart request
// under the uploads directory with a random filename and returns its public
// URL path. A request without an image part returns (nil, nil).
func saveUploadedImage(c *gin.Context) (*string, error) {

	file, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, err
	}

	if file.Size > maxUploadSizeBytes {
		return nil, &uploadError{"File too large. Maximum size is 5MB."}
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return nil, &uploadError{"Only image files are allowed!"}
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(file.Filename))
	destination := filepath.Join(uploadsDir(), name)
	if err := c.SaveUploadedFile(file, destination); err != nil {
		return nil, err
	}

	writeThumbnail(destination, name)

	url := "/uploads/" + name
	return &url, nil
}

// writeThumbnail renders a fixed-width thumbnail next to the original. A
// failure here never fails the upload; the original is already on disk.
func writeThumbnail(sourcePath, name string) {

	logger := config.GetLogger()

	img, err := imaging.Open(sourcePath)
	if err != nil {
		logger.WithField("file", name).WithError(err).Warn("thumbnail: cannot decode upload")
		return
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	thumbDir := filepath.Join(uploadsDir(), "thumbnails")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		logger.WithField("file", name).WithError(err).Warn("thumbnail: cannot create directory")
		return
	}
	if err := imaging.Save(thumb, filepath.Join(thumbDir, name)); err != nil {
		logger.WithField("file", name).WithError(err).Warn("thumbnail: cannot save")
	}
}
