// Copyright (c) 2026 Wearmint. All rights reserved.

/*
Package minting implements the client for the blockchain minting provider.

The provider exposes a GraphQL API over HTTPS. Every mutation carries an
idempotency key (the catalog row's uuid for first-time pushes, a fresh UUIDv7
for repeatable updates) so retried requests never duplicate on-chain work.

The provider sometimes reports failures inside a 200 response ("errors" array
in the GraphQL envelope), so both transport errors and embedded errors map to
the same upstream error class.
*/
package minting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/constants"
	"github.com/wearmint/catalog/pkg/uuid"
)

const upstreamName = "minting provider"

// Client talks to the minting provider's GraphQL endpoint.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	logger     *slog.Logger

	// Storefront identifiers forwarded on sell mutations.
	nftStorageName string
	ftName         string
	ftStorageName  string
}

// NewClient builds a provider client.
func NewClient(apiURL, apiKey, nftStorageName, ftName, ftStorageName string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: constants.UpstreamRequestTimeout},
		apiURL:         apiURL,
		apiKey:         apiKey,
		logger:         logger,
		nftStorageName: nftStorageName,
		ftName:         ftName,
		ftStorageName:  ftStorageName,
	}
}

// # Wire Types

// envelope is the standard GraphQL response envelope.
type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// successFlowIDResult is the shared shape of create mutations.
type successFlowIDResult struct {
	Success bool  `json:"success"`
	FlowID  int64 `json:"flowID"`
}

// MintedNFT is one minted token reported by the mintNFTs mutation.
type MintedNFT struct {
	NFTFlowID int64 `json:"nftFlowID"`
}

// OffChainMetadata is the mutable, off-chain part of an Edition pushed via
// updateEdition.
type OffChainMetadata struct {
	Description string
	Images      []string
	Videos      []string
}

// EditionOnChainMetadata is the immutable metadata set pushed at creation.
type EditionOnChainMetadata struct {
	Rarity            string
	Artist            string
	Celebrity         string
	EditionType       string
	DesignSlot        string
	Publisher         string
	Trademark         string
	AvatarWearableSKU string
}

// DropEditionInput is one Edition membership row inside an upsertDrop call.
type DropEditionInput struct {
	EditionFlowID int64
	Price         float64
}

// DropInput is the payload for upsertDrop. ExternalID empty means create.
type DropInput struct {
	ExternalID     string
	Title          string
	Description    string
	ImageURL       string
	Editions       []DropEditionInput
	StartTime      *time.Time
	EndTime        *time.Time
	IdempotencyKey string
}

// # Series / Collections

// CreateSerie registers a new Series on-chain. Returns the provider flow id.
func (client *Client) CreateSerie(ctx context.Context, name, idempotencyKey string) (int64, error) {
	mutation := fmt.Sprintf(
		`mutation{advanceSeries(name: %s, idempotencyKey: %s){success flowID}}`,
		strconv.Quote(name), strconv.Quote(idempotencyKey),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "advanceSeries", &result); err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, apperr.Upstream(upstreamName, fmt.Errorf("advanceSeries reported failure"))
	}
	return result.FlowID, nil
}

// CreateCollection registers a new Collection under an on-chain Series and
// immediately pushes its off-chain description, mirroring the provider's
// two-step create contract.
func (client *Client) CreateCollection(ctx context.Context, name string, serieFlowID int64, description, idempotencyKey string) (int64, error) {
	mutation := fmt.Sprintf(
		`mutation{addCollection(name: %s, seriesFlowID: %d, idempotencyKey: %s){success flowID}}`,
		strconv.Quote(name), serieFlowID, strconv.Quote(idempotencyKey),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "addCollection", &result); err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, apperr.Upstream(upstreamName, fmt.Errorf("addCollection reported failure"))
	}

	if err := client.UpdateCollection(ctx, result.FlowID, description); err != nil {
		return 0, err
	}
	return result.FlowID, nil
}

// UpdateCollection pushes the off-chain description of an existing Collection.
func (client *Client) UpdateCollection(ctx context.Context, flowID int64, description string) error {
	if flowID == 0 {
		return apperr.Internal(fmt.Errorf("minting: collection flow id required for update"))
	}

	mutation := fmt.Sprintf(
		`mutation{updateCollection(collectionID: %d, description: %s, idempotencyKey: %s){success}}`,
		flowID, strconv.Quote(description), strconv.Quote(uuid.New()),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "updateCollection", &result); err != nil {
		return err
	}
	if !result.Success {
		return apperr.Upstream(upstreamName, fmt.Errorf("updateCollection reported failure"))
	}
	return nil
}

// # Editions

// CreateEdition registers a new Edition with its immutable on-chain metadata.
// Returns the provider flow id; the provider-side edition id arrives
// asynchronously and must be polled via [Client.EditionByFlowID].
func (client *Client) CreateEdition(ctx context.Context, name string, collectionFlowID int64, metadata EditionOnChainMetadata, idempotencyKey string) (int64, error) {
	mutation := fmt.Sprintf(
		`mutation{addEdition(name: %s, collectionID: %d, onChainMetadata: %s, idempotencyKey: %s){success flowID}}`,
		strconv.Quote(name), collectionFlowID, renderOnChainMetadata(metadata), strconv.Quote(idempotencyKey),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "addEdition", &result); err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, apperr.Upstream(upstreamName, fmt.Errorf("addEdition reported failure"))
	}
	return result.FlowID, nil
}

// UpdateEdition pushes the off-chain metadata of a confirmed Edition.
func (client *Client) UpdateEdition(ctx context.Context, externalID string, metadata OffChainMetadata) error {
	if externalID == "" {
		return apperr.Internal(fmt.Errorf("minting: edition external id required for update"))
	}

	mutation := fmt.Sprintf(
		`mutation{updateEdition(editionID: %s, offChainMetadata: %s, idempotencyKey: %s){success}}`,
		strconv.Quote(externalID), renderOffChainMetadata(metadata), strconv.Quote(uuid.New()),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "updateEdition", &result); err != nil {
		return err
	}
	if !result.Success {
		return apperr.Upstream(upstreamName, fmt.Errorf("updateEdition reported failure"))
	}
	return nil
}

// EditionByFlowID looks up the provider-assigned edition id for a flow id.
// found is false while the provider has not finished creating the Edition.
func (client *Client) EditionByFlowID(ctx context.Context, flowID int64) (externalID string, found bool, err error) {
	query := fmt.Sprintf(
		`query{searchEditions(filters: {flowIDs: [%d]}){count editions{id}}}`,
		flowID,
	)

	var result struct {
		Count    int `json:"count"`
		Editions []struct {
			ID string `json:"id"`
		} `json:"editions"`
	}
	if err := client.exec(ctx, query, "searchEditions", &result); err != nil {
		return "", false, err
	}

	if result.Count == 0 || len(result.Editions) == 0 {
		return "", false, nil
	}
	return result.Editions[0].ID, true, nil
}

// # Drops

// UpsertDrop creates or updates a Drop and its Edition memberships.
// Returns the provider drop id.
func (client *Client) UpsertDrop(ctx context.Context, input DropInput) (string, error) {
	arguments := []string{
		"title: " + strconv.Quote(input.Title),
		"description: " + strconv.Quote(input.Description),
		"imageURL: " + strconv.Quote(input.ImageURL),
		"dropEditions: " + renderDropEditions(input.Editions),
		"idempotencyKey: " + strconv.Quote(input.IdempotencyKey),
	}
	if input.ExternalID != "" {
		arguments = append([]string{"id: " + strconv.Quote(input.ExternalID)}, arguments...)
	}
	if input.StartTime != nil {
		arguments = append(arguments, "startTime: "+strconv.Quote(input.StartTime.UTC().Format(time.RFC3339)))
	}
	if input.EndTime != nil {
		arguments = append(arguments, "endTime: "+strconv.Quote(input.EndTime.UTC().Format(time.RFC3339)))
	}

	mutation := fmt.Sprintf(`mutation{upsertDrop(%s){dropID}}`, strings.Join(arguments, ", "))

	var result struct {
		DropID string `json:"dropID"`
	}
	if err := client.exec(ctx, mutation, "upsertDrop", &result); err != nil {
		return "", err
	}
	if result.DropID == "" {
		return "", apperr.Upstream(upstreamName, fmt.Errorf("upsertDrop returned no drop id"))
	}
	return result.DropID, nil
}

// # Minting & Selling

// MintNFTs mints quantity tokens of the Edition identified by its flow id.
func (client *Client) MintNFTs(ctx context.Context, editionFlowID int64, quantity int) ([]MintedNFT, error) {
	mutation := fmt.Sprintf(
		`mutation{mintNFTs(editionID: %d, quantity: %d, idempotencyKey: %s){success mintedNFTs{nftFlowID}}}`,
		editionFlowID, quantity, strconv.Quote(uuid.New()),
	)

	var result struct {
		Success    bool        `json:"success"`
		MintedNFTs []MintedNFT `json:"mintedNFTs"`
	}
	if err := client.exec(ctx, mutation, "mintNFTs", &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, apperr.Upstream(upstreamName, fmt.Errorf("mintNFTs reported failure"))
	}
	return result.MintedNFTs, nil
}

// SellItems lists minted tokens in the provider storefront at the given price.
func (client *Client) SellItems(ctx context.Context, nftName string, nftFlowIDs []int64, price float64) error {
	ids := make([]string, len(nftFlowIDs))
	for i, id := range nftFlowIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	mutation := fmt.Sprintf(
		`mutation{sellItems(nftName: %s, nftStorageName: %s, nftFlowIDs: [%s], ftName: %s, ftStorageName: %s, price: %s, idempotencyKey: %s){success}}`,
		strconv.Quote(nftName),
		strconv.Quote(client.nftStorageName),
		strings.Join(ids, ","),
		strconv.Quote(client.ftName),
		strconv.Quote(client.ftStorageName),
		strconv.FormatFloat(price, 'f', -1, 64),
		strconv.Quote(uuid.New()),
	)

	var result successFlowIDResult
	if err := client.exec(ctx, mutation, "sellItems", &result); err != nil {
		return err
	}
	if !result.Success {
		return apperr.Upstream(upstreamName, fmt.Errorf("sellItems reported failure"))
	}
	return nil
}

// # Transport

// exec posts a GraphQL document and decodes the named field of the data
// envelope into out.
func (client *Client) exec(ctx context.Context, document, field string, out any) error {
	body, err := json.Marshal(map[string]string{"query": document})
	if err != nil {
		return apperr.Internal(err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, client.apiURL, bytes.NewReader(body))
	if err != nil {
		return apperr.Internal(err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+client.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return apperr.Upstream(upstreamName, err)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	responseBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return apperr.Upstream(upstreamName, err)
	}

	if httpResponse.StatusCode != http.StatusOK {
		client.logger.ErrorContext(ctx, "minting_request_rejected",
			slog.Int("status", httpResponse.StatusCode),
			slog.String("field", field),
		)
		return apperr.Upstream(upstreamName, fmt.Errorf("status %d: %s", httpResponse.StatusCode, responseBody))
	}

	var parsed envelope
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return apperr.Upstream(upstreamName, err)
	}

	// The provider can return errors with a 200 status code.
	if len(parsed.Errors) > 0 {
		messages := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			messages[i] = e.Message
		}
		client.logger.ErrorContext(ctx, "minting_graphql_error",
			slog.String("field", field),
			slog.String("errors", strings.Join(messages, "; ")),
		)
		return apperr.Upstream(upstreamName, fmt.Errorf("graphql errors: %s", strings.Join(messages, "; ")))
	}

	raw, ok := parsed.Data[field]
	if !ok {
		return apperr.Upstream(upstreamName, fmt.Errorf("response missing field %q", field))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Upstream(upstreamName, err)
	}
	return nil
}

// # GraphQL Literal Rendering

// renderOnChainMetadata renders the on-chain metadata object literal.
func renderOnChainMetadata(metadata EditionOnChainMetadata) string {
	return fmt.Sprintf(
		`{rarity: %s, artist: %s, celebrity: %s, editionType: %s, designSlot: %s, publisher: %s, trademark: %s, avatarWearableSKU: %s}`,
		strconv.Quote(metadata.Rarity),
		strconv.Quote(metadata.Artist),
		strconv.Quote(metadata.Celebrity),
		strconv.Quote(metadata.EditionType),
		strconv.Quote(metadata.DesignSlot),
		strconv.Quote(metadata.Publisher),
		strconv.Quote(metadata.Trademark),
		strconv.Quote(metadata.AvatarWearableSKU),
	)
}

// renderOffChainMetadata renders the off-chain metadata object literal.
func renderOffChainMetadata(metadata OffChainMetadata) string {
	return fmt.Sprintf(
		`{description: %s, images: %s, videos: %s}`,
		strconv.Quote(metadata.Description),
		renderStringList(metadata.Images),
		renderStringList(metadata.Videos),
	)
}

// renderDropEditions renders the Edition membership list literal.
func renderDropEditions(editions []DropEditionInput) string {
	parts := make([]string, len(editions))
	for i, e := range editions {
		parts[i] = fmt.Sprintf(
			`{editionFlowID: %d, price: %s}`,
			e.EditionFlowID, strconv.FormatFloat(e.Price, 'f', -1, 64),
		)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// renderStringList renders a GraphQL list of quoted strings.
func renderStringList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
