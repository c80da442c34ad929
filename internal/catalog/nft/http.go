package nft

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/wearmint/catalog/internal/platform/respond"
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
	router.Get("/", handler.listNFTs)
}

func (handler *Handler) listNFTs(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	values := request.URL.Query()
	filter := Filter{
		Keyword:      values.Get("q"),
		Rarity:       values.Get("rarity"),
		SerieID:      convert.ToInt64(values.Get("serie_id")),
		CollectionID: convert.ToInt64(values.Get("collection_id")),
	}
	for _, status := range query.StringSlice(values.Get("status")) {
		filter.Statuses = append(filter.Statuses, Status(status))
	}
	if raw := values.Get("reserved"); raw != "" {
		if reserved, err := strconv.ParseBool(raw); err == nil {
			filter.Reserved = &reserved
		}
	}

	nfts, total, err := handler.service.ListNFTs(
		request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, nfts, pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
