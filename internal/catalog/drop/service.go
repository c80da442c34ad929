package drop

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wearmint/catalog/internal/catalog/edition"
	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/validate"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/uuid"
)

// Provider is the subset of the minting client the Drop workflow needs.
type Provider interface {
	UpsertDrop(context context.Context, input minting.DropInput) (string, error)
}

// Scheduler is the subset of the scheduler client the Drop workflow needs.
type Scheduler interface {
	AddJob(context context.Context, job scheduler.Job) error
	RemoveJob(context context.Context, id string) error
}

// EditionDirectory is the subset of the edition workflow the Drop workflow
// needs. Implemented by *edition.Service.
type EditionDirectory interface {
	GetEdition(context context.Context, id int64) (*edition.Edition, error)
}

type Service struct {
	repo      Repository
	provider  Provider
	scheduler Scheduler
	editions  EditionDirectory
	logger    *slog.Logger
}

func NewService(repo Repository, provider Provider, jobs Scheduler, editions EditionDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		scheduler: jobs,
		editions:  editions,
		logger:    logger,
	}
}

// # Reads

func (service *Service) ListDrops(context context.Context, filter Filter, limit, offset int, order, orderBy string) ([]*Drop, int, error) {
	return service.repo.ListDrops(context, filter, limit, offset, order, orderBy)
}

func (service *Service) GetDrop(context context.Context, id int64) (*Drop, error) {
	return service.repo.GetDrop(context, id)
}

// # Create

// CreateDrop stores a DRAFT Drop with its edition lines. Every referenced
// Edition must already be minted.
func (service *Service) CreateDrop(context context.Context, input *Drop, items []EditionItem) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 100)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.validateStartAndEndTime(startEndTimes(input), nil); err != nil {
		return err
	}
	if err := service.validatePublishTime(input.PublishTime, nil, nil); err != nil {
		return err
	}

	input.Status = StatusDraft
	input.UUID = uuid.New()

	if input.PublishTime != nil {
		candidate := *input
		candidate.Editions = make([]*DropEdition, len(items))
		if err := service.validateForPublish(&candidate); err != nil {
			return err
		}
	}

	if err := service.repo.CreateDrop(context, input); err != nil {
		return err
	}

	for _, item := range items {
		dropEdition, err := service.createDropEdition(context, input.ID, item)
		if err != nil {
			return err
		}
		input.Editions = append(input.Editions, dropEdition)
	}

	if input.PublishTime != nil {
		if err := service.schedulePublish(context, input); err != nil {
			return err
		}
	}

	service.logger.Info("drop_created",
		slog.Int64("drop_id", input.ID),
		slog.Int("editions", len(items)),
	)
	return nil
}

// # Update

// UpdateDrop applies a sparse patch with per-status rules: drafts revalidate
// the schedule, published drops freeze publish_time, on-sale drops freeze
// everything except end_time, and finished drops reject all updates. A nil
// items slice leaves the edition lines untouched.
func (service *Service) UpdateDrop(context context.Context, id int64, patch Patch, items []EditionItem) (*Drop, string, error) {
	current, err := service.repo.GetDrop(context, id)
	if err != nil {
		return nil, "", err
	}

	message := ""
	publishTimeWasUpdated := false
	startTimeWasUpdated := false
	endTimeWasUpdated := false

	switch current.Status {
	case StatusDraft:
		if err := service.validatePublishTime(patch.PublishTime, patch.ExternalID, current); err != nil {
			return nil, "", err
		}
		publishTimeWasUpdated = patch.ExternalID == nil && timeChanged(patch.PublishTime, current.PublishTime)
	case StatusPublished:
		if timeChanged(patch.PublishTime, current.PublishTime) {
			patch.PublishTime = nil
			message += "The publish time cannot be updated because the Drop has already been published."
		}
		startTimeWasUpdated = timeChanged(patch.StartTime, current.StartTime)
		endTimeWasUpdated = timeChanged(patch.EndTime, current.EndTime)
	case StatusOnSale:
		if revertSaleFrozenFields(&patch, current) {
			message += "Only the end time can be updated because the Drop is already on sale. "
		}
		endTimeWasUpdated = timeChanged(patch.EndTime, current.EndTime)
	case StatusFinished:
		return nil, "", apperr.Forbidden("The Drop cannot be updated because it has already finished")
	}

	if err := service.validateStartAndEndTime(patchTimes(patch), current); err != nil {
		return nil, "", err
	}

	if publishTimeWasUpdated {
		candidate := *current
		applyPatch(&candidate, patch)
		if items != nil {
			candidate.Editions = make([]*DropEdition, len(items))
		}
		if err := service.validateForPublish(&candidate); err != nil {
			return nil, "", err
		}
	}

	if items != nil {
		if err := service.updateDropEditions(context, current, items); err != nil {
			return nil, "", err
		}
	}

	updated, err := service.repo.UpdateDrop(context, id, patch)
	if err != nil {
		return nil, "", err
	}

	// Published drops mirror every change to the provider.
	if updated.ExternalID != nil {
		if err := service.pushUpsert(context, updated); err != nil {
			return nil, "", err
		}
	}

	if publishTimeWasUpdated {
		if err := service.schedulePublish(context, updated); err != nil {
			return nil, "", err
		}
	}
	if startTimeWasUpdated {
		if err := service.scheduleSetOnSale(context, updated); err != nil {
			return nil, "", err
		}
	}
	if endTimeWasUpdated {
		if err := service.scheduleSetFinished(context, updated); err != nil {
			return nil, "", err
		}
	}

	service.logger.Info("drop_updated", slog.Int64("drop_id", id))
	return updated, strings.TrimSpace(message), nil
}

// SetDropStatus applies a scheduled status transition.
func (service *Service) SetDropStatus(context context.Context, id int64, status Status) error {
	if status != StatusOnSale && status != StatusFinished {
		return apperr.BadRequest(fmt.Sprintf("Invalid status transition to %s", status))
	}

	if _, err := service.repo.UpdateDrop(context, id, Patch{Status: &status}); err != nil {
		return err
	}

	service.logger.Info("drop_status_changed",
		slog.Int64("drop_id", id),
		slog.String("status", string(status)),
	)
	return nil
}

// # Delete

func (service *Service) DeleteDrop(context context.Context, id int64) error {
	current, err := service.repo.GetDrop(context, id)
	if err != nil {
		return err
	}

	if current.Status != StatusDraft {
		return apperr.Forbidden("The Drop cannot be deleted because it has already been published")
	}

	if current.PublishTime != nil && current.PublishTime.After(time.Now()) {
		if err := service.scheduler.RemoveJob(context, scheduler.PublishDropJobID(id)); err != nil {
			return err
		}
	}

	if err := service.repo.DeleteDrop(context, id); err != nil {
		return err
	}

	service.logger.Warn("drop_deleted", slog.Int64("drop_id", id))
	return nil
}

// # Publish

// PublishDrop pushes a DRAFT Drop to the minting provider. Without a
// start_time the sale opens immediately; otherwise the ON_SALE transition is
// scheduled, as is the FINISHED transition when an end_time is set.
func (service *Service) PublishDrop(context context.Context, id int64) error {
	current, err := service.repo.GetDrop(context, id)
	if err != nil {
		return err
	}

	if err := service.validateForPublish(current); err != nil {
		return err
	}

	input, err := service.dropInput(context, current)
	if err != nil {
		return err
	}
	externalID, err := service.provider.UpsertDrop(context, input)
	if err != nil {
		return err
	}

	published := StatusPublished
	patch := Patch{Status: &published, ExternalID: &externalID}
	if current.PublishTime == nil || current.PublishTime.After(time.Now()) {
		now := time.Now()
		patch.PublishTime = &now
	}
	if current.StartTime == nil {
		// No sale window start: the Drop goes on sale the moment it is
		// published.
		onSale := StatusOnSale
		patch.Status = &onSale
		if patch.PublishTime != nil {
			patch.StartTime = patch.PublishTime
		} else {
			patch.StartTime = current.PublishTime
		}
	}

	updated, err := service.repo.UpdateDrop(context, id, patch)
	if err != nil {
		return err
	}

	if current.StartTime != nil {
		if err := service.scheduleSetOnSale(context, updated); err != nil {
			return err
		}
	}
	if updated.EndTime != nil {
		if err := service.scheduleSetFinished(context, updated); err != nil {
			return err
		}
	}

	service.logger.Info("drop_published",
		slog.Int64("drop_id", id),
		slog.String("external_id", externalID),
		slog.String("status", string(*patch.Status)),
	)
	return nil
}

// # Edition lines

// createDropEdition adds one edition line after checking the Edition has been
// minted and carries a valid price.
func (service *Service) createDropEdition(context context.Context, dropID int64, item EditionItem) (*DropEdition, error) {
	referenced, err := service.editions.GetEdition(context, item.EditionID)
	if err != nil {
		return nil, err
	}
	if referenced.Status != edition.StatusMinted {
		return nil, apperr.BadRequest(fmt.Sprintf(
			"The Edition with ID=%d is not on sale yet, so it cannot be part of a Drop", item.EditionID))
	}
	if err := validate.Price(&item.Price); err != nil {
		return nil, err
	}

	dropEdition := &DropEdition{
		DropID:    dropID,
		EditionID: item.EditionID,
		UUID:      uuid.New(),
		Price:     item.Price,
	}
	if err := service.repo.CreateDropEdition(context, dropEdition); err != nil {
		return nil, err
	}
	return dropEdition, nil
}

// updateDropEditions reconciles the stored edition lines against the
// requested set. Once the Drop is on sale the set and its prices are frozen.
func (service *Service) updateDropEditions(context context.Context, current *Drop, items []EditionItem) error {
	currentByID := make(map[int64]*DropEdition, len(current.Editions))
	for _, dropEdition := range current.Editions {
		currentByID[dropEdition.EditionID] = dropEdition
	}
	requested := make(map[int64]bool, len(items))

	for _, item := range items {
		requested[item.EditionID] = true

		existing, ok := currentByID[item.EditionID]
		if !ok {
			if current.Status == StatusOnSale {
				return apperr.Forbidden(fmt.Sprintf(
					"The edition ID=%d cannot be added to this drop as it is already on sale", item.EditionID))
			}
			if _, err := service.createDropEdition(context, current.ID, item); err != nil {
				return err
			}
			continue
		}

		if existing.Price != item.Price {
			if current.Status == StatusOnSale {
				return apperr.Forbidden(fmt.Sprintf(
					"The price of the edition ID=%d cannot be updated as the Drop is on sale", item.EditionID))
			}
			if err := validate.Price(&item.Price); err != nil {
				return err
			}
			if err := service.repo.UpdateDropEditionPrice(context, current.ID, item.EditionID, item.Price); err != nil {
				return err
			}
		}
	}

	for _, dropEdition := range current.Editions {
		if requested[dropEdition.EditionID] {
			continue
		}
		if current.Status == StatusOnSale {
			return apperr.Forbidden(fmt.Sprintf(
				"The edition ID=%d cannot be removed from this drop as it is already on sale", dropEdition.EditionID))
		}
		if err := service.repo.DeleteDropEdition(context, current.ID, dropEdition.EditionID); err != nil {
			return err
		}
	}

	return nil
}

// # Provider push

// dropInput assembles the provider payload, resolving each edition line to
// its provider flow id.
func (service *Service) dropInput(context context.Context, d *Drop) (minting.DropInput, error) {
	input := minting.DropInput{
		Title:          d.Title,
		Description:    d.Description,
		ImageURL:       d.ImageURL,
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		IdempotencyKey: d.UUID,
	}
	if d.ExternalID != nil {
		input.ExternalID = *d.ExternalID
		input.IdempotencyKey = uuid.New()
	}

	for _, dropEdition := range d.Editions {
		referenced, err := service.editions.GetEdition(context, dropEdition.EditionID)
		if err != nil {
			return input, err
		}
		if referenced.FlowID == nil {
			return input, apperr.Internal(fmt.Errorf("drop %d: edition %d has no flow id", d.ID, dropEdition.EditionID))
		}
		input.Editions = append(input.Editions, minting.DropEditionInput{
			EditionFlowID: *referenced.FlowID,
			Price:         dropEdition.Price,
		})
	}

	return input, nil
}

func (service *Service) pushUpsert(context context.Context, d *Drop) error {
	input, err := service.dropInput(context, d)
	if err != nil {
		return err
	}
	if _, err := service.provider.UpsertDrop(context, input); err != nil {
		return err
	}
	return nil
}

// # Validation

// validateForPublish checks the Drop is a complete draft with at least one
// edition line and a coherent sale window.
func (service *Service) validateForPublish(d *Drop) error {
	if d.Status != StatusDraft {
		return apperr.BadRequest("The Drop has already been published")
	}

	var missing []string
	if d.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if d.Description == "" {
		missing = append(missing, FieldDescription)
	}
	if d.ImageURL == "" {
		missing = append(missing, FieldImageURL)
	}
	if len(d.Editions) == 0 {
		missing = append(missing, FieldEditions)
	}
	if err := validate.PublishRequired(missing); err != nil {
		return err
	}

	return service.validateStartAndEndTime(startEndTimes(d), nil)
}

// validatePublishTime rejects past publish times. Internal updates carrying
// the external id are exempt.
func (service *Service) validatePublishTime(publishTime *time.Time, externalID *string, current *Drop) error {
	if externalID != nil {
		return nil
	}

	changed := publishTime != nil && (current == nil || !timesEqual(publishTime, current.PublishTime))
	if changed && publishTime.Before(time.Now()) {
		return apperr.BadRequest("The publish_time cannot be in the past")
	}
	return nil
}

// times carries the schedule fields of a create or update request.
type times struct {
	start, end, publish *time.Time
	internal            bool
}

func startEndTimes(d *Drop) times {
	return times{start: d.StartTime, end: d.EndTime, publish: d.PublishTime, internal: d.ExternalID != nil}
}

func patchTimes(p Patch) times {
	return times{start: p.StartTime, end: p.EndTime, publish: p.PublishTime, internal: p.ExternalID != nil}
}

// validateStartAndEndTime checks the sale window is coherent: the start_time
// is not in the past and the end_time follows the start (or, lacking one, the
// publish_time, or now).
func (service *Service) validateStartAndEndTime(requested times, current *Drop) error {
	if requested.start != nil && !requested.internal {
		if requested.start.Before(time.Now()) {
			return apperr.BadRequest("The start_time cannot be in the past")
		}
		end := requested.end
		if end == nil && current != nil {
			end = current.EndTime
		}
		if end != nil && requested.start.After(*end) {
			return apperr.BadRequest("The end_time must be after the start_time")
		}
		return nil
	}

	if requested.end == nil {
		return nil
	}

	start := requested.start
	if start == nil && current != nil {
		start = current.StartTime
	}
	if start != nil {
		if requested.end.Before(*start) {
			return apperr.BadRequest("The end_time must be after the start_time")
		}
		return nil
	}

	publish := requested.publish
	if publish == nil && current != nil {
		publish = current.PublishTime
	}
	if publish != nil {
		if requested.end.Before(*publish) {
			return apperr.BadRequest("The end_time must be after the publish_time")
		}
		return nil
	}

	if requested.end.Before(time.Now()) {
		return apperr.BadRequest("The end_time cannot be in the past")
	}
	return nil
}

// # Scheduling

func (service *Service) schedulePublish(context context.Context, d *Drop) error {
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.PublishDropJobID(d.ID),
		Func:    scheduler.FuncPublishDrop,
		Args:    []string{strconv.FormatInt(d.ID, 10)},
		RunDate: *d.PublishTime,
	})
}

func (service *Service) scheduleSetOnSale(context context.Context, d *Drop) error {
	if d.StartTime == nil {
		return nil
	}
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.SetOnSaleDropJobID(d.ID),
		Func:    scheduler.FuncSetOnSaleDrop,
		Args:    []string{strconv.FormatInt(d.ID, 10), string(StatusOnSale)},
		RunDate: *d.StartTime,
	})
}

func (service *Service) scheduleSetFinished(context context.Context, d *Drop) error {
	if d.EndTime == nil {
		return nil
	}
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.SetFinishedDropJobID(d.ID),
		Func:    scheduler.FuncSetFinishedDrop,
		Args:    []string{strconv.FormatInt(d.ID, 10), string(StatusFinished)},
		RunDate: *d.EndTime,
	})
}

// # Helpers

// revertSaleFrozenFields drops everything except end_time from the patch once
// the Drop is on sale. Reports whether anything was reverted.
func revertSaleFrozenFields(patch *Patch, current *Drop) bool {
	reverted := false
	if patch.Title != nil && *patch.Title != current.Title {
		patch.Title = nil
		reverted = true
	}
	if patch.Description != nil && *patch.Description != current.Description {
		patch.Description = nil
		reverted = true
	}
	if patch.ImageURL != nil && *patch.ImageURL != current.ImageURL {
		patch.ImageURL = nil
		reverted = true
	}
	if timeChanged(patch.StartTime, current.StartTime) {
		patch.StartTime = nil
		reverted = true
	}
	if timeChanged(patch.PublishTime, current.PublishTime) {
		patch.PublishTime = nil
		reverted = true
	}
	return reverted
}

func applyPatch(d *Drop, p Patch) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}
	if p.StartTime != nil {
		d.StartTime = p.StartTime
	}
	if p.EndTime != nil {
		d.EndTime = p.EndTime
	}
	if p.PublishTime != nil {
		d.PublishTime = p.PublishTime
	}
}

func timeChanged(patched, current *time.Time) bool {
	if patched == nil {
		return false
	}
	return current == nil || !patched.Equal(*current)
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
