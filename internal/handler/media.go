package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"nisser/internal/httputil"
	"nisser/internal/model"
)

type imageUploader interface {
	UploadReviewImage(ctx context.Context, file io.Reader, header *multipart.FileHeader) (*model.UploadResult, error)
}

// MediaHandler serves review image uploads.
type MediaHandler struct {
	uploader imageUploader
	log      *zap.Logger
}

// NewMediaHandler wires the handler. uploader may be nil when object storage
// is not configured; uploads then fail with 500.
func NewMediaHandler(uploader imageUploader, log *zap.Logger) *MediaHandler {
	return &MediaHandler{
		uploader: uploader,
		log:      log.Named("media"),
	}
}

// Upload stores one review image and returns its public URL.
// POST /upload (multipart field "file")
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if h.uploader == nil {
		h.log.Error("upload requested but object storage is not configured")
		httputil.WriteInternalError(w, "Uploads are not available")
		return
	}

	maxFormSize := int64(model.MaxReviewImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	result, err := h.uploader.UploadReviewImage(r.Context(), file, header)
	if err != nil {
		writeError(w, h.log, err, "upload image")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
