package drop

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/middleware"
	requestutil "github.com/wearmint/catalog/internal/platform/request"
	"github.com/wearmint/catalog/internal/platform/respond"
	"github.com/wearmint/catalog/internal/platform/sec"
	"github.com/wearmint/catalog/pkg/pagination"
	"github.com/wearmint/catalog/pkg/query"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.listDrops)
	router.Get("/{id}", handler.getDrop)

	// Editors only
	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(middleware.RequireRole(sec.RoleManager))

		editorRoute.Post("/", handler.createDrop)
		editorRoute.Patch("/{id}", handler.updateDrop)
		editorRoute.Post("/{id}/publish", handler.publishDrop)
		editorRoute.Post("/{id}/status", handler.setDropStatus)

		editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteDrop)
	})
}

func parseID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

func (handler *Handler) listDrops(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request, SortableColumns...)

	filter := Filter{
		Keyword: request.URL.Query().Get("q"),
	}
	for _, status := range query.StringSlice(request.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}

	drops, total, err := handler.service.ListDrops(
		request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset(),
		paginationParams.Order, paginationParams.OrderBy,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, drops, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getDrop(writer http.ResponseWriter, request *http.Request) {
	dropID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	drop, err := handler.service.GetDrop(request.Context(), dropID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, drop)
}

func (handler *Handler) createDrop(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Drop
		Editions []EditionItem `json:"editions"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateDrop(request.Context(), &input.Drop, input.Editions); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input.Drop)
}

func (handler *Handler) updateDrop(writer http.ResponseWriter, request *http.Request) {
	dropID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Patch
		// Editions absent leaves the edition lines untouched; present (even
		// empty) reconciles them.
		Editions []EditionItem `json:"editions"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, message, err := handler.service.UpdateDrop(request.Context(), dropID, input.Patch, input.Editions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKWithMessage(writer, updated, message)
}

func (handler *Handler) publishDrop(writer http.ResponseWriter, request *http.Request) {
	dropID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PublishDrop(request.Context(), dropID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	drop, err := handler.service.GetDrop(request.Context(), dropID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, drop)
}

func (handler *Handler) setDropStatus(writer http.ResponseWriter, request *http.Request) {
	dropID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Status Status `json:"status"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.SetDropStatus(request.Context(), dropID, input.Status); err != nil {
		respond.Error(writer, request, err)
		return
	}

	drop, err := handler.service.GetDrop(request.Context(), dropID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, drop)
}

func (handler *Handler) deleteDrop(writer http.ResponseWriter, request *http.Request) {
	dropID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteDrop(request.Context(), dropID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
