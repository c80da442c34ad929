package serie

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/validate"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/uuid"
)

// Provider is the subset of the minting client the Serie workflow needs.
type Provider interface {
	CreateSerie(context context.Context, name, idempotencyKey string) (int64, error)
}

// Scheduler is the subset of the scheduler client the Serie workflow needs.
type Scheduler interface {
	AddJob(context context.Context, job scheduler.Job) error
	RemoveJob(context context.Context, id string) error
}

// CollectionCascade deactivates a Serie's Collections when the Serie goes
// INACTIVE. Implemented by the collection workflow and injected after
// construction to keep the package graph acyclic.
type CollectionCascade interface {
	DeactivateSerieCollections(context context.Context, serieID int64) error
}

// SKUCascade rewrites the serie segment of draft Edition SKUs when the
// Serie's short_word changes. Implemented by the edition workflow.
type SKUCascade interface {
	ApplySerieShortWord(context context.Context, serieID int64, shortWord string) error
}

type Service struct {
	repo      Repository
	provider  Provider
	scheduler Scheduler
	logger    *slog.Logger

	collections CollectionCascade
	editions    SKUCascade
}

func NewService(repo Repository, provider Provider, jobs Scheduler, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		scheduler: jobs,
		logger:    logger,
	}
}

// SetCollectionCascade wires the collection workflow in after construction.
func (service *Service) SetCollectionCascade(cascade CollectionCascade) {
	service.collections = cascade
}

// SetSKUCascade wires the edition workflow in after construction.
func (service *Service) SetSKUCascade(cascade SKUCascade) {
	service.editions = cascade
}

// # Reads

func (service *Service) ListSeries(context context.Context, filter Filter, limit, offset int, order, orderBy string) ([]*Serie, int, error) {
	return service.repo.ListSeries(context, filter, limit, offset, order, orderBy)
}

func (service *Service) GetSerie(context context.Context, id int64) (*Serie, error) {
	return service.repo.GetSerie(context, id)
}

// # Create

func (service *Service) CreateSerie(context context.Context, input *Serie) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100)
	if err := validator.Err(); err != nil {
		return err
	}
	if err := validate.ShortWord(input.ShortWord); err != nil {
		return err
	}
	if err := service.validatePublishTime(input.PublishTime, nil, nil); err != nil {
		return err
	}

	input.Status = StatusDraft
	input.UUID = uuid.New()

	// Scheduling a publication requires the Serie to already be publishable.
	if input.PublishTime != nil {
		if err := service.validateForPublish(context, input, false); err != nil {
			return err
		}
	}

	if err := service.repo.CreateSerie(context, input); err != nil {
		return err
	}

	if input.PublishTime != nil {
		if err := service.schedulePublish(context, input); err != nil {
			return err
		}
	}

	service.logger.Info("serie_created", slog.Int64("serie_id", input.ID), slog.String("name", input.Name))
	return nil
}

// # Update

// UpdateSerie applies a sparse patch. For published series, attempts to
// change frozen fields are silently reverted and reported through the
// returned message instead of failing the request.
func (service *Service) UpdateSerie(context context.Context, id int64, patch Patch) (*Serie, string, error) {
	current, err := service.repo.GetSerie(context, id)
	if err != nil {
		return nil, "", err
	}

	message := ""
	publishTimeWasUpdated := false

	switch current.Status {
	case StatusDraft:
		if err := service.validatePublishTime(patch.PublishTime, patch.FlowID, current); err != nil {
			return nil, "", err
		}
		publishTimeWasUpdated = patch.FlowID == nil && publishTimeChanged(patch.PublishTime, current.PublishTime)
		if publishTimeWasUpdated {
			if err := service.validateCollectionsBound(context, id, *patch.PublishTime); err != nil {
				return nil, "", err
			}
			candidate := *current
			applyPatch(&candidate, patch)
			if err := service.validateForPublish(context, &candidate, false); err != nil {
				return nil, "", err
			}
		}

	case StatusInactive:
		return nil, "", apperr.Forbidden("Inactive series can't be updated")

	default:
		// ACTIVE freezes the on-chain identity fields.
		reverted := false
		if patch.Name != nil && *patch.Name != current.Name {
			patch.Name = nil
			reverted = true
		}
		if publishTimeChanged(patch.PublishTime, current.PublishTime) {
			patch.PublishTime = nil
			reverted = true
		}
		if reverted {
			message += "The name and publish_time cannot be updated because the Serie has already been published. "
		}
	}

	if patch.ShortWord != nil && *patch.ShortWord != current.ShortWord {
		if err := validate.ShortWord(*patch.ShortWord); err != nil {
			return nil, "", err
		}
		if current.HasPublishedEditions {
			return nil, "", apperr.Conflict("The short_word cannot be updated because the Series has published Editions dependent on it.")
		}
		if err := service.editions.ApplySerieShortWord(context, id, *patch.ShortWord); err != nil {
			return nil, "", err
		}
	}

	// Deactivating a Serie cascades to its Collections.
	if patch.Status != nil && *patch.Status == StatusInactive && current.CollectionsCount > 0 {
		if err := service.collections.DeactivateSerieCollections(context, id); err != nil {
			return nil, "", err
		}
	}

	updated, err := service.repo.UpdateSerie(context, id, patch)
	if err != nil {
		return nil, "", err
	}

	if publishTimeWasUpdated {
		if err := service.schedulePublish(context, updated); err != nil {
			return nil, "", err
		}
	}

	service.logger.Info("serie_updated", slog.Int64("serie_id", id))
	return updated, strings.TrimSpace(message), nil
}

// # Delete

func (service *Service) DeleteSerie(context context.Context, id int64) error {
	current, err := service.repo.GetSerie(context, id)
	if err != nil {
		return err
	}

	if current.Status != StatusDraft {
		return apperr.Forbidden("The Serie cannot be deleted because it has already been published")
	}
	if current.CollectionsCount > 0 {
		return apperr.Conflict("The Serie cannot be deleted because it has Collections dependent on it")
	}

	if current.PublishTime != nil && current.PublishTime.After(time.Now()) {
		if err := service.scheduler.RemoveJob(context, scheduler.PublishSerieJobID(id)); err != nil {
			return err
		}
	}

	if err := service.repo.DeleteSerie(context, id); err != nil {
		return err
	}

	service.logger.Warn("serie_deleted", slog.Int64("serie_id", id))
	return nil
}

// # Publish

// PublishSerie pushes a DRAFT Serie on-chain, promotes it to ACTIVE, and
// demotes any previously ACTIVE Serie (and its Collections) to INACTIVE.
func (service *Service) PublishSerie(context context.Context, id int64) error {
	current, err := service.repo.GetSerie(context, id)
	if err != nil {
		return err
	}

	if err := service.validateForPublish(context, current, true); err != nil {
		return err
	}

	flowID, err := service.provider.CreateSerie(context, current.Name, current.UUID)
	if err != nil {
		return err
	}

	previousActive, err := service.repo.ListActiveSerieIDs(context)
	if err != nil {
		return err
	}

	activeStatus := StatusActive
	patch := Patch{Status: &activeStatus, FlowID: &flowID}

	// A future or missing publish_time collapses to the actual moment of
	// publication.
	if current.PublishTime == nil || current.PublishTime.After(time.Now()) {
		now := time.Now()
		patch.PublishTime = &now
	}

	if _, err := service.repo.UpdateSerie(context, id, patch); err != nil {
		return err
	}

	// Supersede the previously active Serie.
	inactive := StatusInactive
	for _, previousID := range previousActive {
		if err := service.collections.DeactivateSerieCollections(context, previousID); err != nil {
			return err
		}
		if _, err := service.repo.UpdateSerie(context, previousID, Patch{Status: &inactive}); err != nil {
			return err
		}
	}

	service.logger.Info("serie_published",
		slog.Int64("serie_id", id),
		slog.Int64("flow_id", flowID),
		slog.Int("superseded", len(previousActive)),
	)
	return nil
}

// # Counters

// AdjustCollectionsCount applies a signed delta to the Serie's collection
// counter atomically.
func (service *Service) AdjustCollectionsCount(context context.Context, id int64, delta int) error {
	return service.repo.AdjustCollectionsCount(context, id, delta)
}

// MarkHasPublishedEditions permanently freezes the Serie's short_word.
func (service *Service) MarkHasPublishedEditions(context context.Context, id int64) error {
	return service.repo.MarkHasPublishedEditions(context, id)
}

// # Validation

// validatePublishTime enforces the cascade rules on a changed publish_time:
// not in the past, and not after any of the Serie's Collections. Internal
// updates carrying a flow id (the publish path itself) are exempt.
func (service *Service) validatePublishTime(publishTime *time.Time, flowID *int64, current *Serie) error {
	if flowID != nil {
		return nil
	}
	if !publishTimeChangedAgainst(publishTime, current) {
		return nil
	}

	if publishTime.Before(time.Now()) {
		return apperr.BadRequest("The publish_time cannot be in the past")
	}

	return nil
}

// validateForPublish checks the Serie is complete and that no ACTIVE Serie
// still has Collections scheduled after the moment of publication. publishNow
// bounds the check at the current instant instead of the stored publish_time.
func (service *Service) validateForPublish(context context.Context, s *Serie, publishNow bool) error {
	if s.Status != StatusDraft {
		return apperr.BadRequest("The Series has already been published")
	}

	var missing []string
	if s.Name == "" {
		missing = append(missing, FieldName)
	}
	if s.Description == "" {
		missing = append(missing, FieldDescription)
	}
	if s.ShortWord == "" {
		missing = append(missing, FieldShortWord)
	}
	if err := validate.PublishRequired(missing); err != nil {
		return err
	}

	publishTime := time.Now()
	if s.PublishTime != nil && !publishNow {
		publishTime = *s.PublishTime
	}

	blocked, err := service.repo.ActiveSerieHasCollectionAfter(context, publishTime)
	if err != nil {
		return err
	}
	if blocked {
		return apperr.Conflict("There are Collections scheduled to be published in the Series")
	}

	return nil
}

// validateCollectionsBound rejects a publish_time later than any of the
// Serie's own Collections.
func (service *Service) validateCollectionsBound(context context.Context, id int64, publishTime time.Time) error {
	names, err := service.repo.CollectionNamesPublishedBefore(context, id, publishTime)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return apperr.BadRequest(fmt.Sprintf(
			"The Series' publish_time cannot be after the publish_time of its Collections: [%s]",
			strings.Join(names, ", "),
		))
	}
	return nil
}

// # Scheduling

// schedulePublish registers (or replaces) the Serie's publish job at its
// publish_time. Completeness is not checked here; the publish endpoint
// revalidates when the job fires.
func (service *Service) schedulePublish(context context.Context, s *Serie) error {
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.PublishSerieJobID(s.ID),
		Func:    scheduler.FuncPublishSerie,
		Args:    []string{strconv.FormatInt(s.ID, 10)},
		RunDate: *s.PublishTime,
	})
}

// # Helpers

// applyPatch merges a Patch into a Serie value for pre-write validation.
func applyPatch(s *Serie, p Patch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.ShortWord != nil {
		s.ShortWord = *p.ShortWord
	}
	if p.PublishTime != nil {
		s.PublishTime = p.PublishTime
	}
}

// publishTimeChanged reports whether a patched publish_time differs from the
// stored one.
func publishTimeChanged(patched, current *time.Time) bool {
	if patched == nil {
		return false
	}
	return current == nil || !patched.Equal(*current)
}

// publishTimeChangedAgainst is publishTimeChanged against a possibly nil row.
func publishTimeChangedAgainst(patched *time.Time, current *Serie) bool {
	if current == nil {
		return patched != nil
	}
	return publishTimeChanged(patched, current.PublishTime)
}
