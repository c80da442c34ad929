package serie

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
	router.Get("/", handler.listSeries)
	router.Get("/{id}", handler.getSerie)

	// Editors only
	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(middleware.RequireRole(sec.RoleManager))

		editorRoute.Post("/", handler.createSerie)
		editorRoute.Patch("/{id}", handler.updateSerie)
		editorRoute.Post("/{id}/publish", handler.publishSerie)

		editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteSerie)
	})
}

func parseID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

func (handler *Handler) listSeries(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request, SortableColumns...)

	filter := Filter{
		Keyword: request.URL.Query().Get("q"),
	}
	for _, status := range query.StringSlice(request.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}

	series, total, err := handler.service.ListSeries(
		request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset(),
		paginationParams.Order, paginationParams.OrderBy,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, series, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getSerie(writer http.ResponseWriter, request *http.Request) {
	serieID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	serie, err := handler.service.GetSerie(request.Context(), serieID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, serie)
}

func (handler *Handler) createSerie(writer http.ResponseWriter, request *http.Request) {
	var input Serie
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateSerie(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateSerie(writer http.ResponseWriter, request *http.Request) {
	serieID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, message, err := handler.service.UpdateSerie(request.Context(), serieID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKWithMessage(writer, updated, message)
}

func (handler *Handler) publishSerie(writer http.ResponseWriter, request *http.Request) {
	serieID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PublishSerie(request.Context(), serieID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serie, err := handler.service.GetSerie(request.Context(), serieID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, serie)
}

func (handler *Handler) deleteSerie(writer http.ResponseWriter, request *http.Request) {
	serieID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteSerie(request.Context(), serieID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
