package events

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

// Handler exposes event CRUD and search endpoints.
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

// MountRoutes registers event routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard("events.list")).Get("/getEvents", h.list)
	r.With(h.guard.Guard("events.search")).Get("/searchEvents", h.search)
	r.With(h.guard.Guard("events.get")).Get("/getEvent/{id}", h.get)
	r.With(h.guard.Guard("events.create")).Post("/createEvent", h.create)
	r.With(h.guard.Guard("events.update")).Patch("/updateEvent/{id}", h.update)
	r.With(h.guard.Guard("events.delete")).Delete("/deleteEvent/{id}", h.delete)
}

type eventResponse struct {
	ID          int64     `json:"id"`
	CreatorID   int64     `json:"creatorId"`
	CategoryID  int64     `json:"categoryId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Venue       string    `json:"venue"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toEventResponse(e *Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		CreatorID:   e.CreatorID,
		CategoryID:  e.CategoryID,
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Venue:       e.Venue,
		Price:       e.Price,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

type pageResponse struct {
	Items      []eventResponse `json:"items"`
	Pagination any             `json:"pagination"`
}

func toPageResponse(p *Page) pageResponse {
	items := make([]eventResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toEventResponse(&p.Items[i]))
	}
	return pageResponse{Items: items, Pagination: p.Pagination}
}

type createEventRequest struct {
	CategoryID  int64     `json:"categoryId" validate:"required,gt=0"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Venue       string    `json:"venue" validate:"required"`
	Price       float64   `json:"price" validate:"gte=0"`
}

type updateEventRequest struct {
	CategoryID  *int64     `json:"categoryId" validate:"omitempty,gt=0"`
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description" validate:"omitempty,min=1"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Venue       *string    `json:"venue" validate:"omitempty,min=1"`
	Price       *float64   `json:"price" validate:"omitempty,gte=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.logger.Error("list events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPageResponse(result))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	categoryID, _ := strconv.ParseInt(q.Get("categoryId"), 10, 64)
	result, err := h.service.Search(r.Context(), SearchParams{
		Text:       q.Get("searchText"),
		CategoryID: categoryID,
		Page:       page,
		PerPage:    limit,
	})
	if err != nil {
		h.logger.Error("search events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPageResponse(result))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid event id")
		return
	}
	event, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := authz.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req createEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event, err := h.service.Create(r.Context(), principal.UserID, CreateParams{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Venue:       req.Venue,
		Price:       req.Price,
	})
	if err != nil {
		h.logger.Error("create event", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid event id")
		return
	}
	var req updateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	event, err := h.service.Update(r.Context(), id, UpdateParams{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Venue:       req.Venue,
		Price:       req.Price,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid event id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
