package collection

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/middleware"
	requestutil "github.com/wearmint/catalog/internal/platform/request"
	"github.com/wearmint/catalog/internal/platform/respond"
	"github.com/wearmint/catalog/internal/platform/sec"
	"github.com/wearmint/catalog/pkg/convert"
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
	router.Get("/", handler.listCollections)
	router.Get("/{id}", handler.getCollection)

	// Editors only
	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(middleware.RequireRole(sec.RoleManager))

		editorRoute.Post("/", handler.createCollection)
		editorRoute.Patch("/{id}", handler.updateCollection)
		editorRoute.Post("/{id}/publish", handler.publishCollection)

		editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteCollection)
	})
}

func parseID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

func (handler *Handler) listCollections(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request, SortableColumns...)

	filter := Filter{
		Keyword: request.URL.Query().Get("q"),
		SerieID: convert.ToInt64(request.URL.Query().Get("serie_id")),
	}
	for _, status := range query.StringSlice(request.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}

	collections, total, err := handler.service.ListCollections(
		request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset(),
		paginationParams.Order, paginationParams.OrderBy,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, collections, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getCollection(writer http.ResponseWriter, request *http.Request) {
	collectionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection, err := handler.service.GetCollection(request.Context(), collectionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, collection)
}

func (handler *Handler) createCollection(writer http.ResponseWriter, request *http.Request) {
	var input Collection
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateCollection(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateCollection(writer http.ResponseWriter, request *http.Request) {
	collectionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, message, err := handler.service.UpdateCollection(request.Context(), collectionID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKWithMessage(writer, updated, message)
}

func (handler *Handler) publishCollection(writer http.ResponseWriter, request *http.Request) {
	collectionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PublishCollection(request.Context(), collectionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection, err := handler.service.GetCollection(request.Context(), collectionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, collection)
}

func (handler *Handler) deleteCollection(writer http.ResponseWriter, request *http.Request) {
	collectionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteCollection(request.Context(), collectionID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
