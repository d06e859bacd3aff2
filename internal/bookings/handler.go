package bookings

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eventbond/eventbond/internal/authz"
	"github.com/eventbond/eventbond/internal/platform/httpx"
)

// Handler exposes booking endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    *authz.Authorizer
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard *authz.Authorizer) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(),
	}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard("bookings.create")).Post("/createBooking", h.create)
	r.With(h.guard.Guard("bookings.list")).Get("/getBookings", h.list)
	r.With(h.guard.Guard("bookings.list_own")).Get("/getUserBookings", h.listOwn)
	r.With(h.guard.Guard("bookings.get")).Get("/getBooking/{id}", h.get)
	r.With(h.guard.Guard("bookings.remove")).Delete("/removeBooking/{id}", h.remove)
	r.With(h.guard.Guard("bookings.remove_own")).Delete("/removeOwnBooking/{id}", h.removeOwn)
}

type bookingResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	EventID   int64     `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(b *Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		EventID:   b.EventID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

type createBookingRequest struct {
	EventID int64 `json:"eventId" validate:"required,gt=0"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req createBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	booking, err := h.service.Create(r.Context(), principal.UserID, req.EventID)
	if err != nil {
		h.logger.Error("create booking", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(booking))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(list))
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	list, err := h.service.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(list))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}
	booking, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(booking))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	h.removeByID(w, r)
}

// removeOwn relies on the booking-ownership policy configured for the route;
// by the time this runs the caller is the owner or an admin.
func (h *Handler) removeOwn(w http.ResponseWriter, r *http.Request) {
	h.removeByID(w, r)
}

func (h *Handler) removeByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid booking id")
		return
	}
	if err := h.service.Remove(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func toResponses(list []Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	return out
}
