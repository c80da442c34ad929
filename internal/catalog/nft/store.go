package nft

import "context"

type Repository interface {
	ListNFTs(context context.Context, f Filter, limit, offset int) ([]*NFT, int, error)
	// CreateNFT inserts one NFT. Returns false without error when an NFT with
	// the same flow id already exists, so re-runs of a mint are idempotent.
	CreateNFT(context context.Context, n *NFT) (bool, error)
}
