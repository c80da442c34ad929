// Copyright (c) 2026 Wearmint. All rights reserved.

/*
Package scheduler implements the client for the scheduler sidecar.

The sidecar runs date-trigger jobs: at the stored run date it calls back into
this API (publish and drop status-transition endpoints). Jobs are keyed by a
deterministic id derived from the entity, so re-scheduling replaces the
pending job instead of stacking a second one.
*/
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/constants"
)

const upstreamName = "scheduler"

// Job function references understood by the sidecar.
const (
	FuncPublishSerie      = "series:publish"
	FuncPublishCollection = "collections:publish"
	FuncPublishEdition    = "editions:publish"
	FuncPublishDrop       = "drops:publish"
	FuncSetOnSaleDrop     = "drops:set_on_sale"
	FuncSetFinishedDrop   = "drops:set_finished"
)

// Job describes a scheduled one-shot job.
type Job struct {
	ID      string    `json:"id"`
	Func    string    `json:"func"`
	Args    []string  `json:"args"`
	RunDate time.Time `json:"run_date"`
}

// Client talks to the scheduler sidecar's REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient builds a scheduler client.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: constants.UpstreamRequestTimeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// # Job Identifiers

// PublishSerieJobID returns the job id for a Serie's pending publish.
func PublishSerieJobID(serieID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixPublishSerie, serieID)
}

// PublishCollectionJobID returns the job id for a Collection's pending publish.
func PublishCollectionJobID(collectionID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixPublishCollection, collectionID)
}

// PublishEditionJobID returns the job id for an Edition's pending publish.
func PublishEditionJobID(editionID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixPublishEdition, editionID)
}

// PublishDropJobID returns the job id for a Drop's pending publish.
func PublishDropJobID(dropID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixPublishDrop, dropID)
}

// SetOnSaleDropJobID returns the job id for a Drop's ON_SALE transition.
func SetOnSaleDropJobID(dropID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixSetOnSaleDrop, dropID)
}

// SetFinishedDropJobID returns the job id for a Drop's FINISHED transition.
func SetFinishedDropJobID(dropID int64) string {
	return fmt.Sprintf("%s%d", constants.JobPrefixSetFinishedDrop, dropID)
}

// # Operations

// addJobRequest is the sidecar's job creation payload.
type addJobRequest struct {
	ID              string   `json:"id"`
	Func            string   `json:"func"`
	Args            []string `json:"args"`
	RunDate         string   `json:"run_date"`
	Trigger         string   `json:"trigger"`
	ReplaceExisting bool     `json:"replace_existing"`
}

// AddJob schedules (or replaces) a date-trigger job.
func (client *Client) AddJob(ctx context.Context, job Job) error {
	payload := addJobRequest{
		ID:              job.ID,
		Func:            job.Func,
		Args:            job.Args,
		RunDate:         job.RunDate.UTC().Format(time.RFC3339),
		Trigger:         "date",
		ReplaceExisting: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperr.Internal(err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/scheduler/jobs", bytes.NewReader(body))
	if err != nil {
		return apperr.Internal(err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return apperr.Upstream(upstreamName, err)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	if httpResponse.StatusCode >= 300 {
		return apperr.Upstream(upstreamName, fmt.Errorf("add job %s: status %d", job.ID, httpResponse.StatusCode))
	}

	client.logger.InfoContext(ctx, "scheduler_job_added",
		slog.String("job_id", job.ID),
		slog.String("func", job.Func),
		slog.Time("run_date", job.RunDate),
	)
	return nil
}

// GetJob fetches a pending job by id. Returns nil when the job doesn't exist.
func (client *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+"/scheduler/jobs/"+id, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	if httpResponse.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if httpResponse.StatusCode >= 300 {
		return nil, apperr.Upstream(upstreamName, fmt.Errorf("get job %s: status %d", id, httpResponse.StatusCode))
	}

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}

	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, apperr.Upstream(upstreamName, err)
	}
	return &job, nil
}

// RemoveJob cancels a pending job. Missing jobs are ignored: a job that
// already fired leaves nothing to cancel.
func (client *Client) RemoveJob(ctx context.Context, id string) error {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodDelete, client.baseURL+"/scheduler/jobs/"+id, nil)
	if err != nil {
		return apperr.Internal(err)
	}

	httpResponse, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return apperr.Upstream(upstreamName, err)
	}
	defer func() { _ = httpResponse.Body.Close() }()

	if httpResponse.StatusCode >= 300 && httpResponse.StatusCode != http.StatusNotFound {
		return apperr.Upstream(upstreamName, fmt.Errorf("remove job %s: status %d", id, httpResponse.StatusCode))
	}

	client.logger.InfoContext(ctx, "scheduler_job_removed", slog.String("job_id", id))
	return nil
}
