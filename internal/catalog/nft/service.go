package nft

import (
	"context"
	"log/slog"

	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/pkg/uuid"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (service *Service) ListNFTs(context context.Context, filter Filter, limit, offset int) ([]*NFT, int, error) {
	return service.repo.ListNFTs(context, filter, limit, offset)
}

// BulkCreate persists the outcome of a mint. Rows whose flow id already
// exists are skipped, so a retried mint doesn't duplicate NFTs. Returns the
// number of rows actually inserted.
func (service *Service) BulkCreate(context context.Context, editionID int64, minted []minting.MintedNFT, reserved map[int]bool) (int, error) {
	stored := 0
	for index, unit := range minted {
		flowID := unit.NFTFlowID
		created, err := service.repo.CreateNFT(context, &NFT{
			UUID:      uuid.New(),
			Reserved:  reserved[index],
			Status:    StatusMinted,
			FlowID:    &flowID,
			EditionID: editionID,
		})
		if err != nil {
			return stored, err
		}
		if created {
			stored++
		}
	}

	service.logger.Info("nfts_stored",
		slog.Int64("edition_id", editionID),
		slog.Int("minted", len(minted)),
		slog.Int("stored", stored),
	)
	return stored, nil
}
