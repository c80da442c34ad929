// Copyright (c) 2026 Wearmint. All rights reserved.

/*
Package cms implements the client for the upstream CMS asset API.

Editions reference a wearable asset managed in the CMS. At creation time the
catalog resolves the wearable's SKU, owning collection, and media file list
from here; it never stores wearable media itself.
*/
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/constants"
)

const upstreamName = "CMS"

// Wearable is the subset of CMS asset data the catalog needs.
type Wearable struct {
	// SKU is the wearable's {year}-{serie}-{collection}-{asset} token.
	SKU string
	// CollectionID is the catalog collection the wearable belongs to.
	CollectionID int64
	// FileList holds the raw media file URLs attached to the asset.
	FileList []string
}

// Client talks to the CMS asset API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	logger     *slog.Logger
}

// NewClient builds a CMS client.
func NewClient(baseURL, apiToken string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: constants.UpstreamRequestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		logger:     logger,
	}
}

// assetResponse is the CMS asset endpoint envelope.
type assetResponse struct {
	Status int `json:"status"`
	Data   struct {
		Asset struct {
			UUID         string   `json:"uuid"`
			CollectionID int64    `json:"collection_id"`
			FileList     []string `json:"file_list"`
		} `json:"asset"`
	} `json:"data"`
}

// WearableData resolves the SKU, collection id, and file list of a wearable.
// A wearable the CMS doesn't know maps to NotFound with the canonical
// message so the workflow layer can pass it straight through.
func (client *Client) WearableData(ctx context.Context, avatarWearableID int64) (*Wearable, error) {
	url := fmt.Sprintf("%s/api/v1/assets/%d", client.baseURL, avatarWearableID)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	httpRequest.Header.Set("Accept", "application/json")
	if client.apiToken != "" {
		httpRequest.Header.Set("ApiToken", client.apiToken)
	}

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}

	var parsed assetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}

	// The CMS reports lookup failures inside its envelope.
	if parsed.Status != http.StatusOK {
		return nil, apperr.NotFoundMsg(fmt.Sprintf("There is no Avatar Wearable with the ID=%d", avatarWearableID))
	}

	asset := parsed.Data.Asset
	client.logger.DebugContext(ctx, "cms_wearable_resolved",
		slog.Int64("avatar_wearable_id", avatarWearableID),
		slog.String("sku", asset.UUID),
	)

	return &Wearable{
		SKU:          asset.UUID,
		CollectionID: asset.CollectionID,
		FileList:     asset.FileList,
	}, nil
}
