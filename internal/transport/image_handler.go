package transport

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"compucobano/internal/middleware"
	"compucobano/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxFilesPerUpload = 10
	multipartMemory   = 32 << 20
)

// ImageHandler accepts product image uploads for the admin panel
type ImageHandler struct {
	uploader storage.ImageUploader
	maxBytes int64
	logger   *zap.Logger
}

// NewImageHandler creates a new ImageHandler
func NewImageHandler(uploader storage.ImageUploader, maxBytes int64, logger *zap.Logger) *ImageHandler {
	if maxBytes <= 0 {
		maxBytes = storage.DefaultMaxUploadBytes
	}
	return &ImageHandler{uploader: uploader, maxBytes: maxBytes, logger: logger}
}

// RegisterRoutes registers the upload endpoint on the admin subrouter
func (h *ImageHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/images", h.Upload)
}

// Upload stores the multipart "files" and returns their public URLs in order
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes*maxFilesPerUpload+(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "upload is too large")
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) > maxFilesPerUpload {
		middleware.RespondWithError(w, http.StatusBadRequest, "too many files")
		return
	}

	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, storage.File{
			Name: fh.Filename,
			Size: fh.Size,
			Open: openPart(fh),
		})
	}

	urls, err := h.uploader.Upload(r.Context(), files)
	if err != nil {
		h.respondUploadError(w, err)
		return
	}

	respondWithData(w, http.StatusCreated, map[string][]string{"urls": urls})
}

func openPart(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return fh.Open()
	}
}

func (h *ImageHandler) respondUploadError(w http.ResponseWriter, err error) {
	var fileErr *storage.FileError
	name := ""
	if errors.As(err, &fileErr) {
		name = fileErr.Name
	}

	switch {
	case errors.Is(err, storage.ErrNoFiles):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotAnImage):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, "only image files are allowed", name)
	case errors.Is(err, storage.ErrFileTooLarge):
		middleware.RespondWithErrorDetails(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit", name)
	default:
		h.logger.Error("Image upload failed", zap.String("file", name), zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "image storage is unavailable")
	}
}
