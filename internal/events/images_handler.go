package events

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eventbond/eventbond/internal/authz"
	"github.com/eventbond/eventbond/internal/platform/httpx"
)

const maxUploadBytes = 10 << 20

// ImageHandler exposes event image endpoints.
type ImageHandler struct {
	logger  *slog.Logger
	service *ImageService
	files   *FileStore
	guard   *authz.Authorizer
}

// NewImageHandler builds an ImageHandler instance.
func NewImageHandler(logger *slog.Logger, service *ImageService, files *FileStore, guard *authz.Authorizer) *ImageHandler {
	return &ImageHandler{logger: logger, service: service, files: files, guard: guard}
}

// MountRoutes registers image routes.
func (h *ImageHandler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard("images.upload")).Post("/uploadEventImage/{eventId}", h.upload)
	r.With(h.guard.Guard("images.promote")).Patch("/{imageId}/set-primary", h.promote)
	r.With(h.guard.Guard("images.delete")).Delete("/{imageId}", h.delete)
	r.With(h.guard.Guard("images.list")).Get("/event/{eventId}", h.listByEvent)
	r.Get("/file/{imageId}", h.serveFile)
}

type imageResponse struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"eventId"`
	ImageURL  string    `json:"imageUrl"`
	AltText   string    `json:"altText"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toImageResponse(img *Image) imageResponse {
	return imageResponse{
		ID:        img.ID,
		EventID:   img.EventID,
		ImageURL:  img.ImageURL,
		AltText:   img.AltText,
		IsPrimary: img.IsPrimary,
		CreatedAt: img.CreatedAt,
		UpdatedAt: img.UpdatedAt,
	}
}

func (h *ImageHandler) upload(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid event id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "no file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !h.files.Accepts(contentType) {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "only image files are allowed")
		return
	}

	stored, err := h.files.Save(contentType, file)
	if err != nil {
		h.logger.Error("save image file", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	makePrimary := r.FormValue("isPrimary") == "true"
	altText := filepath.Base(header.Filename)

	image, err := h.service.Upload(r.Context(), eventID, stored, altText, makePrimary)
	if err != nil {
		// The record was not created; drop the orphaned file.
		if removeErr := h.files.Remove(stored); removeErr != nil {
			h.logger.Warn("remove orphaned upload", slog.String("file", stored), slog.Any("error", removeErr))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toImageResponse(image))
}

func (h *ImageHandler) promote(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid image id")
		return
	}
	image, err := h.service.Promote(r.Context(), imageID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toImageResponse(image))
}

func (h *ImageHandler) delete(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid image id")
		return
	}
	if err := h.service.Delete(r.Context(), imageID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ImageHandler) listByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid event id")
		return
	}
	images, err := h.service.ListByEvent(r.Context(), eventID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]imageResponse, 0, len(images))
	for i := range images {
		out = append(out, toImageResponse(&images[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *ImageHandler) serveFile(w http.ResponseWriter, r *http.Request) {
	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageId"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid image id")
		return
	}
	image, err := h.service.Get(r.Context(), imageID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	path, err := h.files.Path(image.ImageURL)
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "image file not found")
		return
	}
	http.ServeFile(w, r, path)
}
