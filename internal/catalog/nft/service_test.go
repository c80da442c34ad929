package nft_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/catalog/nft"
	"github.com/wearmint/catalog/internal/minting"
)

type fakeRepository struct {
	nfts   []*nft.NFT
	byFlow map[int64]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{byFlow: map[int64]bool{}}
}

func (repository *fakeRepository) ListNFTs(_ context.Context, _ nft.Filter, _, _ int) ([]*nft.NFT, int, error) {
	return repository.nfts, len(repository.nfts), nil
}

func (repository *fakeRepository) CreateNFT(_ context.Context, n *nft.NFT) (bool, error) {
	if n.FlowID != nil && repository.byFlow[*n.FlowID] {
		return false, nil
	}
	n.ID = int64(len(repository.nfts) + 1)
	repository.nfts = append(repository.nfts, n)
	if n.FlowID != nil {
		repository.byFlow[*n.FlowID] = true
	}
	return true, nil
}

/*
TestBulkCreate checks minted units are stored with their reservation flags
and that a retried mint doesn't duplicate rows.
*/
func TestBulkCreate(t *testing.T) {
	repository := newFakeRepository()
	service := nft.NewService(repository, slog.Default())

	minted := []minting.MintedNFT{
		{NFTFlowID: 1001},
		{NFTFlowID: 1002},
		{NFTFlowID: 1003},
	}
	reserved := map[int]bool{1: true}

	stored, err := service.BulkCreate(context.Background(), 5, minted, reserved)
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	require.Len(t, repository.nfts, 3)
	assert.False(t, repository.nfts[0].Reserved)
	assert.True(t, repository.nfts[1].Reserved)
	assert.Equal(t, nft.StatusMinted, repository.nfts[0].Status)
	assert.Equal(t, int64(5), repository.nfts[0].EditionID)
	assert.NotEmpty(t, repository.nfts[0].UUID)

	// Re-running the same mint stores nothing new.
	stored, err = service.BulkCreate(context.Background(), 5, minted, reserved)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
	assert.Len(t, repository.nfts, 3)
}
