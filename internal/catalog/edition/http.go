package edition

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
	router.Get("/", handler.listEditions)
	router.Get("/{id}", handler.getEdition)
	router.Get("/{id}/errors", handler.listErrors)

	// Editors only
	router.Group(func(editorRoute chi.Router) {
		editorRoute.Use(middleware.RequireRole(sec.RoleManager))

		editorRoute.Post("/", handler.createEdition)
		editorRoute.Patch("/{id}", handler.updateEdition)
		editorRoute.Post("/batch", handler.batchUpdateEditions)
		editorRoute.Post("/{id}/publish", handler.publishEdition)
		editorRoute.Post("/{id}/mint", handler.mintEdition)

		editorRoute.With(middleware.RequireRole(sec.RoleAdmin)).Delete("/{id}", handler.deleteEdition)
	})
}

func parseID(request *http.Request) (int64, error) {
	id, err := strconv.ParseInt(requestutil.Param(request, "id"), 10, 64)
	if err != nil {
		return 0, apperr.BadRequest("Invalid id")
	}
	return id, nil
}

func (handler *Handler) listEditions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request, SortableColumns...)

	filter := Filter{
		Keyword:          request.URL.Query().Get("q"),
		CollectionID:     convert.ToInt64(request.URL.Query().Get("collection_id")),
		AvatarWearableID: convert.ToInt64(request.URL.Query().Get("avatar_wearable_id")),
	}
	for _, status := range query.StringSlice(request.URL.Query().Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}

	editions, total, err := handler.service.ListEditions(
		request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset(),
		paginationParams.Order, paginationParams.OrderBy,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, editions, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) getEdition(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	edition, err := handler.service.GetEdition(request.Context(), editionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, edition)
}

func (handler *Handler) listErrors(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	paginationParams := pagination.FromRequest(request, "created_at")

	editionErrors, total, err := handler.service.ListErrors(
		request.Context(), editionID,
		paginationParams.Limit, paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, editionErrors, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

func (handler *Handler) createEdition(writer http.ResponseWriter, request *http.Request) {
	var input Edition
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.CreateEdition(request.Context(), &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, input)
}

func (handler *Handler) updateEdition(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var patch Patch
	if err := requestutil.DecodeJSON(request, &patch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, message, err := handler.service.UpdateEdition(request.Context(), editionID, patch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKWithMessage(writer, updated, message)
}

func (handler *Handler) batchUpdateEditions(writer http.ResponseWriter, request *http.Request) {
	var batch BatchUpdate
	if err := requestutil.DecodeJSON(request, &batch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	message, err := handler.service.BatchUpdateEditions(request.Context(), batch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OKWithMessage(writer, nil, message)
}

func (handler *Handler) publishEdition(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.PublishEdition(request.Context(), editionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	edition, err := handler.service.GetEdition(request.Context(), editionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, edition)
}

func (handler *Handler) mintEdition(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MintEditionNFTs(request.Context(), editionID, input.Quantity); err != nil {
		respond.Error(writer, request, err)
		return
	}

	edition, err := handler.service.GetEdition(request.Context(), editionID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, edition)
}

func (handler *Handler) deleteEdition(writer http.ResponseWriter, request *http.Request) {
	editionID, err := parseID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteEdition(request.Context(), editionID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
