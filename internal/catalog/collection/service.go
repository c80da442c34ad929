package collection

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wearmint/catalog/internal/catalog/serie"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/validate"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/uuid"
)

// Provider is the subset of the minting client the Collection workflow needs.
type Provider interface {
	CreateCollection(context context.Context, name string, serieFlowID int64, description, idempotencyKey string) (int64, error)
	UpdateCollection(context context.Context, flowID int64, description string) error
}

// Scheduler is the subset of the scheduler client the Collection workflow
// needs.
type Scheduler interface {
	AddJob(context context.Context, job scheduler.Job) error
	RemoveJob(context context.Context, id string) error
}

// SerieDirectory is the subset of the serie workflow the Collection workflow
// needs. Implemented by *serie.Service.
type SerieDirectory interface {
	GetSerie(context context.Context, id int64) (*serie.Serie, error)
	AdjustCollectionsCount(context context.Context, id int64, delta int) error
}

// SKUCascade rewrites the collection segment of draft Edition SKUs when the
// Collection's short_word changes. Implemented by the edition workflow.
type SKUCascade interface {
	ApplyCollectionShortWord(context context.Context, collectionID int64, shortWord string) error
}

type Service struct {
	repo      Repository
	provider  Provider
	scheduler Scheduler
	series    SerieDirectory
	logger    *slog.Logger

	editions SKUCascade
}

func NewService(repo Repository, provider Provider, jobs Scheduler, series SerieDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		scheduler: jobs,
		series:    series,
		logger:    logger,
	}
}

// SetSKUCascade wires the edition workflow in after construction.
func (service *Service) SetSKUCascade(cascade SKUCascade) {
	service.editions = cascade
}

// # Reads

func (service *Service) ListCollections(context context.Context, filter Filter, limit, offset int, order, orderBy string) ([]*Collection, int, error) {
	return service.repo.ListCollections(context, filter, limit, offset, order, orderBy)
}

func (service *Service) GetCollection(context context.Context, id int64) (*Collection, error) {
	return service.repo.GetCollection(context, id)
}

// # Create

func (service *Service) CreateCollection(context context.Context, input *Collection) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100)
	validator.Custom(FieldSerieID, input.SerieID == 0, "This field is required")
	if err := validator.Err(); err != nil {
		return err
	}
	if err := validate.ShortWord(input.ShortWord); err != nil {
		return err
	}
	if err := service.validatePublishTime(context, input.PublishTime, nil, input.SerieID, nil); err != nil {
		return err
	}

	input.Status = StatusDraft
	input.UUID = uuid.New()

	if input.PublishTime != nil {
		if err := service.validateForPublish(context, input, false); err != nil {
			return err
		}
	}

	if err := service.repo.CreateCollection(context, input); err != nil {
		return err
	}

	if input.PublishTime != nil {
		if err := service.schedulePublish(context, input); err != nil {
			return err
		}
	}

	if err := service.series.AdjustCollectionsCount(context, input.SerieID, 1); err != nil {
		return err
	}

	service.logger.Info("collection_created",
		slog.Int64("collection_id", input.ID),
		slog.Int64("serie_id", input.SerieID),
		slog.String("name", input.Name),
	)
	return nil
}

// # Update

// UpdateCollection applies a sparse patch. For published collections,
// attempts to change frozen fields are silently reverted and reported
// through the returned message; description changes are pushed to the
// minting provider.
func (service *Service) UpdateCollection(context context.Context, id int64, patch Patch) (*Collection, string, error) {
	current, err := service.repo.GetCollection(context, id)
	if err != nil {
		return nil, "", err
	}

	message := ""
	publishTimeWasUpdated := false

	switch current.Status {
	case StatusDraft:
		if err := service.validatePublishTime(context, patch.PublishTime, patch.FlowID, serieIDFor(patch, current), current); err != nil {
			return nil, "", err
		}
		publishTimeWasUpdated = patch.FlowID == nil && publishTimeChanged(patch.PublishTime, current.PublishTime)
		if publishTimeWasUpdated {
			candidate := *current
			applyPatch(&candidate, patch)
			if err := service.validateForPublish(context, &candidate, false); err != nil {
				return nil, "", err
			}
		}

	case StatusInactive:
		return nil, "", apperr.Forbidden("Inactive collections can't be updated")

	default:
		// PUBLISHED freezes the on-chain identity fields.
		reverted := false
		if patch.Name != nil && *patch.Name != current.Name {
			patch.Name = nil
			reverted = true
		}
		if publishTimeChanged(patch.PublishTime, current.PublishTime) {
			patch.PublishTime = nil
			reverted = true
		}
		if patch.SerieID != nil && *patch.SerieID != current.SerieID {
			patch.SerieID = nil
			reverted = true
		}
		if reverted {
			message += "The name, publish_time and serie_id cannot be updated because the Collection has already been published. "
		}
		if patch.Description != nil && *patch.Description != current.Description && current.FlowID != nil {
			if err := service.provider.UpdateCollection(context, *current.FlowID, *patch.Description); err != nil {
				return nil, "", err
			}
		}
	}

	if patch.ShortWord != nil && *patch.ShortWord != current.ShortWord {
		if err := validate.ShortWord(*patch.ShortWord); err != nil {
			return nil, "", err
		}
		if current.HasPublishedEditions {
			return nil, "", apperr.Conflict("The short_word cannot be updated because the Collection has published Editions dependent on it.")
		}
		if err := service.editions.ApplyCollectionShortWord(context, id, *patch.ShortWord); err != nil {
			return nil, "", err
		}
	}

	// Moving a draft between series shifts the counters of both.
	if patch.SerieID != nil && *patch.SerieID != current.SerieID {
		if err := service.series.AdjustCollectionsCount(context, current.SerieID, -1); err != nil {
			return nil, "", err
		}
		if err := service.series.AdjustCollectionsCount(context, *patch.SerieID, 1); err != nil {
			return nil, "", err
		}
	}

	updated, err := service.repo.UpdateCollection(context, id, patch)
	if err != nil {
		return nil, "", err
	}

	if publishTimeWasUpdated {
		if err := service.schedulePublish(context, updated); err != nil {
			return nil, "", err
		}
	}

	service.logger.Info("collection_updated", slog.Int64("collection_id", id))
	return updated, strings.TrimSpace(message), nil
}

// # Delete

func (service *Service) DeleteCollection(context context.Context, id int64) error {
	current, err := service.repo.GetCollection(context, id)
	if err != nil {
		return err
	}

	if current.Status != StatusDraft {
		return apperr.Forbidden("The Collection cannot be deleted because it has already been published")
	}
	if current.WearablesCount > 0 {
		return apperr.Conflict("The Collection cannot be deleted because it has Wearables dependent on it")
	}

	if current.PublishTime != nil && current.PublishTime.After(time.Now()) {
		if err := service.scheduler.RemoveJob(context, scheduler.PublishCollectionJobID(id)); err != nil {
			return err
		}
	}

	if err := service.repo.DeleteCollection(context, id); err != nil {
		return err
	}
	if err := service.series.AdjustCollectionsCount(context, current.SerieID, -1); err != nil {
		return err
	}

	service.logger.Warn("collection_deleted", slog.Int64("collection_id", id))
	return nil
}

// # Publish

// PublishCollection pushes a DRAFT Collection on-chain under its Serie and
// promotes it to PUBLISHED.
func (service *Service) PublishCollection(context context.Context, id int64) error {
	current, err := service.repo.GetCollection(context, id)
	if err != nil {
		return err
	}

	if err := service.validateForPublish(context, current, true); err != nil {
		return err
	}

	owner, err := service.series.GetSerie(context, current.SerieID)
	if err != nil {
		return err
	}

	flowID, err := service.provider.CreateCollection(context, current.Name, *owner.FlowID, current.Description, current.UUID)
	if err != nil {
		return err
	}

	published := StatusPublished
	patch := Patch{Status: &published, FlowID: &flowID}
	if current.PublishTime == nil || current.PublishTime.After(time.Now()) {
		now := time.Now()
		patch.PublishTime = &now
	}

	if _, err := service.repo.UpdateCollection(context, id, patch); err != nil {
		return err
	}

	service.logger.Info("collection_published",
		slog.Int64("collection_id", id),
		slog.Int64("flow_id", flowID),
	)
	return nil
}

// # Cascades and counters

// DeactivateSerieCollections sets all Collections of the Serie INACTIVE.
// Called by the serie workflow when a Serie is deactivated or superseded.
func (service *Service) DeactivateSerieCollections(context context.Context, serieID int64) error {
	affected, err := service.repo.DeactivateBySerie(context, serieID)
	if err != nil {
		return err
	}
	service.logger.Info("serie_collections_deactivated",
		slog.Int64("serie_id", serieID),
		slog.Int64("affected", affected),
	)
	return nil
}

// AdjustWearablesCount applies a signed delta to the Collection's wearables
// counter atomically.
func (service *Service) AdjustWearablesCount(context context.Context, id int64, delta int) error {
	return service.repo.AdjustWearablesCount(context, id, delta)
}

// MarkHasPublishedEditions permanently freezes the Collection's short_word.
func (service *Service) MarkHasPublishedEditions(context context.Context, id int64) error {
	return service.repo.MarkHasPublishedEditions(context, id)
}

// # Validation

// validatePublishTime enforces the scheduling rules on a changed
// publish_time: not in the past, not before the owning Serie's publish_time
// (which must be set), and not after any of the Collection's Editions.
// Internal updates carrying a flow id are exempt.
func (service *Service) validatePublishTime(context context.Context, publishTime *time.Time, flowID *int64, serieID int64, current *Collection) error {
	if flowID != nil {
		return nil
	}

	changed := publishTimeChangedAgainst(publishTime, current)
	serieChanged := current != nil && serieID != current.SerieID

	if !changed && !serieChanged {
		return nil
	}
	if !changed && serieChanged && current.PublishTime == nil {
		return nil
	}

	effective := publishTime
	if !changed {
		effective = current.PublishTime
	}

	if changed && effective.Before(time.Now()) {
		return apperr.BadRequest("The publish_time cannot be in the past")
	}

	owner, err := service.series.GetSerie(context, serieID)
	if err != nil {
		return err
	}
	if owner.PublishTime == nil {
		return apperr.BadRequest("The Collection's publish_time cannot be set until the publish_time of its Series is set")
	}
	if owner.PublishTime.After(*effective) {
		return apperr.BadRequest("The Collection's publish_time cannot be before the publish_time of its Series")
	}

	if changed && current != nil {
		names, err := service.repo.EditionNamesPublishedBefore(context, current.ID, *effective)
		if err != nil {
			return err
		}
		if len(names) > 0 {
			return apperr.BadRequest(fmt.Sprintf(
				"The Collection's publish_time cannot be after the publish_time of its Editions: [%s]",
				strings.Join(names, ", "),
			))
		}
	}

	return nil
}

// validateForPublish checks the Collection is complete and, at actual
// publication, that its Serie is ACTIVE on-chain.
func (service *Service) validateForPublish(context context.Context, c *Collection, publishNow bool) error {
	if c.Status != StatusDraft {
		return apperr.BadRequest("The Collection has already been published")
	}

	var missing []string
	if c.Name == "" {
		missing = append(missing, FieldName)
	}
	if c.Description == "" {
		missing = append(missing, FieldDescription)
	}
	if c.ShortWord == "" {
		missing = append(missing, FieldShortWord)
	}
	if c.SerieID == 0 {
		missing = append(missing, FieldSerieID)
	}
	if err := validate.PublishRequired(missing); err != nil {
		return err
	}

	owner, err := service.series.GetSerie(context, c.SerieID)
	if err != nil {
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
			return apperr.BadRequest("The Collection must belong to an existing Series")
		}
		return err
	}
	if publishNow && (owner.Status != serie.StatusActive || owner.FlowID == nil) {
		return apperr.BadRequest("The Collection must belong to an active Series")
	}

	return nil
}

// # Scheduling

func (service *Service) schedulePublish(context context.Context, c *Collection) error {
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.PublishCollectionJobID(c.ID),
		Func:    scheduler.FuncPublishCollection,
		Args:    []string{strconv.FormatInt(c.ID, 10)},
		RunDate: *c.PublishTime,
	})
}

// # Helpers

func serieIDFor(p Patch, current *Collection) int64 {
	if p.SerieID != nil {
		return *p.SerieID
	}
	return current.SerieID
}

// applyPatch merges a Patch into a Collection value for pre-write validation.
func applyPatch(c *Collection, p Patch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ShortWord != nil {
		c.ShortWord = *p.ShortWord
	}
	if p.SerieID != nil {
		c.SerieID = *p.SerieID
	}
	if p.PublishTime != nil {
		c.PublishTime = p.PublishTime
	}
}

func publishTimeChanged(patched, current *time.Time) bool {
	if patched == nil {
		return false
	}
	return current == nil || !patched.Equal(*current)
}

func publishTimeChangedAgainst(patched *time.Time, current *Collection) bool {
	if current == nil {
		return patched != nil
	}
	return publishTimeChanged(patched, current.PublishTime)
}
