package drop_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/catalog/drop"
	"github.com/wearmint/catalog/internal/catalog/edition"
	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/pointer"
)

type fakeRepository struct {
	drops  map[int64]*drop.Drop
	nextID int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{drops: map[int64]*drop.Drop{}, nextID: 1}
}

func (repository *fakeRepository) ListDrops(_ context.Context, _ drop.Filter, _, _ int, _, _ string) ([]*drop.Drop, int, error) {
	var out []*drop.Drop
	for _, d := range repository.drops {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (repository *fakeRepository) GetDrop(_ context.Context, id int64) (*drop.Drop, error) {
	d, ok := repository.drops[id]
	if !ok {
		return nil, apperr.NotFound("Drop")
	}
	clone := *d
	clone.Editions = append([]*drop.DropEdition(nil), d.Editions...)
	return &clone, nil
}

func (repository *fakeRepository) CreateDrop(_ context.Context, d *drop.Drop) error {
	d.ID = repository.nextID
	repository.nextID++
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	clone := *d
	repository.drops[d.ID] = &clone
	return nil
}

func (repository *fakeRepository) UpdateDrop(_ context.Context, id int64, p drop.Patch) (*drop.Drop, error) {
	d, ok := repository.drops[id]
	if !ok {
		return nil, apperr.NotFound("Drop")
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.ImageURL != nil {
		d.ImageURL = *p.ImageURL
	}
	if p.Status != nil {
		d.Status = *p.Status
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
	if p.ExternalID != nil {
		d.ExternalID = p.ExternalID
	}
	d.UpdatedAt = time.Now()
	clone := *d
	clone.Editions = append([]*drop.DropEdition(nil), d.Editions...)
	return &clone, nil
}

func (repository *fakeRepository) DeleteDrop(_ context.Context, id int64) error {
	if _, ok := repository.drops[id]; !ok {
		return apperr.NotFound("Drop")
	}
	delete(repository.drops, id)
	return nil
}

func (repository *fakeRepository) CreateDropEdition(_ context.Context, de *drop.DropEdition) error {
	de.CreatedAt = time.Now()
	de.UpdatedAt = de.CreatedAt
	d := repository.drops[de.DropID]
	clone := *de
	d.Editions = append(d.Editions, &clone)
	return nil
}

func (repository *fakeRepository) UpdateDropEditionPrice(_ context.Context, dropID, editionID int64, price float64) error {
	for _, de := range repository.drops[dropID].Editions {
		if de.EditionID == editionID {
			de.Price = price
			return nil
		}
	}
	return apperr.NotFound("DropEdition")
}

func (repository *fakeRepository) DeleteDropEdition(_ context.Context, dropID, editionID int64) error {
	d := repository.drops[dropID]
	for i, de := range d.Editions {
		if de.EditionID == editionID {
			d.Editions = append(d.Editions[:i], d.Editions[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("DropEdition")
}

type fakeProvider struct {
	externalID string
	upserts    []minting.DropInput
}

func (provider *fakeProvider) UpsertDrop(_ context.Context, input minting.DropInput) (string, error) {
	provider.upserts = append(provider.upserts, input)
	return provider.externalID, nil
}

type fakeScheduler struct {
	added   []scheduler.Job
	removed []string
}

func (jobs *fakeScheduler) AddJob(_ context.Context, job scheduler.Job) error {
	jobs.added = append(jobs.added, job)
	return nil
}

func (jobs *fakeScheduler) RemoveJob(_ context.Context, id string) error {
	jobs.removed = append(jobs.removed, id)
	return nil
}

type fakeEditionDirectory struct {
	editions map[int64]*edition.Edition
}

func (directory *fakeEditionDirectory) GetEdition(_ context.Context, id int64) (*edition.Edition, error) {
	e, ok := directory.editions[id]
	if !ok {
		return nil, apperr.NotFound("Edition")
	}
	return e, nil
}

func mintedEditions(ids ...int64) *fakeEditionDirectory {
	directory := &fakeEditionDirectory{editions: map[int64]*edition.Edition{}}
	for _, id := range ids {
		flowID := 100 + id
		directory.editions[id] = &edition.Edition{ID: id, Status: edition.StatusMinted, FlowID: &flowID}
	}
	return directory
}

func newTestService(editions *fakeEditionDirectory) (*drop.Service, *fakeRepository, *fakeProvider, *fakeScheduler) {
	repository := newFakeRepository()
	provider := &fakeProvider{externalID: "drop-onchain-1"}
	jobs := &fakeScheduler{}
	service := drop.NewService(repository, provider, jobs, editions, slog.Default())
	return service, repository, provider, jobs
}

func draftDrop() *drop.Drop {
	return &drop.Drop{
		Title: "Holiday Drop", Description: "Seasonal sale", ImageURL: "https://cdn/drop.png",
		Status: drop.StatusDraft,
	}
}

func seedDrop(repository *fakeRepository, d *drop.Drop, editionIDs ...int64) *drop.Drop {
	_ = repository.CreateDrop(context.Background(), d)
	seeded := repository.drops[d.ID]
	seeded.Status = d.Status
	seeded.ExternalID = d.ExternalID
	for _, editionID := range editionIDs {
		seeded.Editions = append(seeded.Editions, &drop.DropEdition{
			DropID: d.ID, EditionID: editionID, Price: 5,
		})
	}
	return seeded
}

/*
TestCreateDrop_Defaults checks a new Drop starts as a draft with its edition
lines attached.
*/
func TestCreateDrop_Defaults(t *testing.T) {
	service, repository, _, jobs := newTestService(mintedEditions(1, 2))

	input := draftDrop()
	require.NoError(t, service.CreateDrop(context.Background(), input, []drop.EditionItem{
		{EditionID: 1, Price: 9.5},
		{EditionID: 2, Price: 12},
	}))

	assert.Equal(t, drop.StatusDraft, input.Status)
	assert.NotEmpty(t, input.UUID)
	assert.Len(t, repository.drops[input.ID].Editions, 2)
	assert.Empty(t, jobs.added)
}

/*
TestCreateDrop_Rejections covers the creation guards.
*/
func TestCreateDrop_Rejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	later := time.Now().Add(2 * time.Hour)

	t.Run("unminted_edition", func(t *testing.T) {
		directory := mintedEditions(1)
		directory.editions[2] = &edition.Edition{ID: 2, Status: edition.StatusDraft}
		service, _, _, _ := newTestService(directory)

		err := service.CreateDrop(context.Background(), draftDrop(), []drop.EditionItem{{EditionID: 2, Price: 5}})
		require.Error(t, err)
		assert.Equal(t, "The Edition with ID=2 is not on sale yet, so it cannot be part of a Drop", apperr.As(err).Message)
	})

	// Eligibility is keyed on MINTED exactly: any other status is rejected.
	t.Run("on_sale_edition", func(t *testing.T) {
		directory := mintedEditions(1)
		directory.editions[3] = &edition.Edition{ID: 3, Status: edition.StatusOnSale}
		service, _, _, _ := newTestService(directory)

		err := service.CreateDrop(context.Background(), draftDrop(), []drop.EditionItem{{EditionID: 3, Price: 5}})
		require.Error(t, err)
		assert.Equal(t, "The Edition with ID=3 is not on sale yet, so it cannot be part of a Drop", apperr.As(err).Message)
	})

	t.Run("start_time_in_past", func(t *testing.T) {
		service, _, _, _ := newTestService(mintedEditions(1))

		input := draftDrop()
		input.StartTime = &past
		err := service.CreateDrop(context.Background(), input, nil)
		require.Error(t, err)
		assert.Equal(t, "The start_time cannot be in the past", apperr.As(err).Message)
	})

	t.Run("end_before_start", func(t *testing.T) {
		service, _, _, _ := newTestService(mintedEditions(1))

		input := draftDrop()
		input.StartTime = &later
		input.EndTime = &future
		err := service.CreateDrop(context.Background(), input, nil)
		require.Error(t, err)
		assert.Equal(t, "The end_time must be after the start_time", apperr.As(err).Message)
	})

	t.Run("end_before_publish", func(t *testing.T) {
		service, _, _, _ := newTestService(mintedEditions(1))

		input := draftDrop()
		input.EndTime = &future
		input.PublishTime = &later
		err := service.CreateDrop(context.Background(), input, nil)
		require.Error(t, err)
		assert.Equal(t, "The end_time must be after the publish_time", apperr.As(err).Message)
	})

	t.Run("past_publish_time", func(t *testing.T) {
		service, _, _, _ := newTestService(mintedEditions(1))

		input := draftDrop()
		input.PublishTime = &past
		err := service.CreateDrop(context.Background(), input, nil)
		require.Error(t, err)
		assert.Equal(t, "The publish_time cannot be in the past", apperr.As(err).Message)
	})
}

/*
TestCreateDrop_SchedulesPublish checks a scheduled Drop queues its publish
job.
*/
func TestCreateDrop_SchedulesPublish(t *testing.T) {
	service, _, _, jobs := newTestService(mintedEditions(1))

	future := time.Now().Add(time.Hour)
	input := draftDrop()
	input.PublishTime = &future

	require.NoError(t, service.CreateDrop(context.Background(), input, []drop.EditionItem{{EditionID: 1, Price: 5}}))

	require.Len(t, jobs.added, 1)
	assert.Equal(t, scheduler.PublishDropJobID(input.ID), jobs.added[0].ID)
	assert.Equal(t, scheduler.FuncPublishDrop, jobs.added[0].Func)
}

/*
TestUpdateDrop_PublishedFreezesPublishTime checks the publish_time of a
published Drop is reverted with a warning and start and end changes reschedule
the transition jobs.
*/
func TestUpdateDrop_PublishedFreezesPublishTime(t *testing.T) {
	service, repository, provider, jobs := newTestService(mintedEditions(1))

	publishTime := time.Now().Add(-time.Hour)
	published := draftDrop()
	published.Status = drop.StatusPublished
	published.ExternalID = pointer.To("drop-onchain-1")
	seeded := seedDrop(repository, published, 1)
	repository.drops[seeded.ID].PublishTime = &publishTime

	newPublish := time.Now().Add(time.Hour)
	newEnd := time.Now().Add(3 * time.Hour)
	updated, message, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{
		PublishTime: &newPublish,
		EndTime:     &newEnd,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "The publish time cannot be updated because the Drop has already been published.", message)
	assert.True(t, updated.PublishTime.Equal(publishTime))
	assert.True(t, updated.EndTime.Equal(newEnd))

	require.Len(t, jobs.added, 1)
	assert.Equal(t, scheduler.SetFinishedDropJobID(seeded.ID), jobs.added[0].ID)
	assert.Equal(t, scheduler.FuncSetFinishedDrop, jobs.added[0].Func)

	// Published drops mirror changes to the provider.
	require.Len(t, provider.upserts, 1)
	assert.Equal(t, "drop-onchain-1", provider.upserts[0].ExternalID)
}

/*
TestUpdateDrop_OnSaleOnlyEndTime checks an on-sale Drop freezes everything
except the end_time.
*/
func TestUpdateDrop_OnSaleOnlyEndTime(t *testing.T) {
	service, repository, _, _ := newTestService(mintedEditions(1))

	onSale := draftDrop()
	onSale.Status = drop.StatusOnSale
	onSale.ExternalID = pointer.To("drop-onchain-1")
	seeded := seedDrop(repository, onSale, 1)

	newEnd := time.Now().Add(2 * time.Hour)
	updated, message, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{
		Title:   pointer.To("Renamed"),
		EndTime: &newEnd,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Only the end time can be updated because the Drop is already on sale.", message)
	assert.Equal(t, "Holiday Drop", updated.Title)
	assert.True(t, updated.EndTime.Equal(newEnd))
}

/*
TestUpdateDrop_FinishedForbidden checks finished drops reject all updates.
*/
func TestUpdateDrop_FinishedForbidden(t *testing.T) {
	service, repository, _, _ := newTestService(mintedEditions(1))

	finished := draftDrop()
	finished.Status = drop.StatusFinished
	seeded := seedDrop(repository, finished)

	_, _, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{Title: pointer.To("X")}, nil)
	require.Error(t, err)
	assert.Equal(t, "The Drop cannot be updated because it has already finished", apperr.As(err).Message)
}

/*
TestUpdateDrop_EditionLines covers the reconciliation of the edition lines
and its on-sale freezes.
*/
func TestUpdateDrop_EditionLines(t *testing.T) {
	t.Run("draft_reconciles_set", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1, 2, 3))

		seeded := seedDrop(repository, draftDrop(), 1, 2)

		_, _, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{}, []drop.EditionItem{
			{EditionID: 1, Price: 7}, // price change
			{EditionID: 3, Price: 5}, // added; 2 removed
		})
		require.NoError(t, err)

		lines := repository.drops[seeded.ID].Editions
		require.Len(t, lines, 2)
		assert.Equal(t, int64(1), lines[0].EditionID)
		assert.Equal(t, 7.0, lines[0].Price)
		assert.Equal(t, int64(3), lines[1].EditionID)
	})

	t.Run("on_sale_price_frozen", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1))

		onSale := draftDrop()
		onSale.Status = drop.StatusOnSale
		onSale.ExternalID = pointer.To("drop-onchain-1")
		seeded := seedDrop(repository, onSale, 1)

		_, _, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{}, []drop.EditionItem{{EditionID: 1, Price: 99}})
		require.Error(t, err)
		assert.Equal(t, "The price of the edition ID=1 cannot be updated as the Drop is on sale", apperr.As(err).Message)
	})

	t.Run("on_sale_add_frozen", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1, 2))

		onSale := draftDrop()
		onSale.Status = drop.StatusOnSale
		onSale.ExternalID = pointer.To("drop-onchain-1")
		seeded := seedDrop(repository, onSale, 1)

		_, _, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{}, []drop.EditionItem{
			{EditionID: 1, Price: 5},
			{EditionID: 2, Price: 5},
		})
		require.Error(t, err)
		assert.Equal(t, "The edition ID=2 cannot be added to this drop as it is already on sale", apperr.As(err).Message)
	})

	t.Run("on_sale_remove_frozen", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1, 2))

		onSale := draftDrop()
		onSale.Status = drop.StatusOnSale
		onSale.ExternalID = pointer.To("drop-onchain-1")
		seeded := seedDrop(repository, onSale, 1, 2)

		_, _, err := service.UpdateDrop(context.Background(), seeded.ID, drop.Patch{}, []drop.EditionItem{{EditionID: 1, Price: 5}})
		require.Error(t, err)
		assert.Equal(t, "The edition ID=2 cannot be removed from this drop as it is already on sale", apperr.As(err).Message)
	})
}

/*
TestDeleteDrop covers the delete guard and the job cleanup.
*/
func TestDeleteDrop(t *testing.T) {
	t.Run("published_forbidden", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1))

		published := draftDrop()
		published.Status = drop.StatusPublished
		seeded := seedDrop(repository, published)

		err := service.DeleteDrop(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Drop cannot be deleted because it has already been published", apperr.As(err).Message)
	})

	t.Run("success_removes_scheduled_job", func(t *testing.T) {
		service, repository, _, jobs := newTestService(mintedEditions(1))

		seeded := seedDrop(repository, draftDrop())
		future := time.Now().Add(time.Hour)
		repository.drops[seeded.ID].PublishTime = &future

		require.NoError(t, service.DeleteDrop(context.Background(), seeded.ID))
		assert.Equal(t, []string{scheduler.PublishDropJobID(seeded.ID)}, jobs.removed)
		assert.Empty(t, repository.drops)
	})
}

/*
TestPublishDrop covers the publish path: the provider push, the immediate
sale open without a start_time, and the scheduled transitions with one.
*/
func TestPublishDrop(t *testing.T) {
	t.Run("no_start_time_opens_sale_immediately", func(t *testing.T) {
		service, repository, provider, jobs := newTestService(mintedEditions(1))

		seeded := seedDrop(repository, draftDrop(), 1)

		require.NoError(t, service.PublishDrop(context.Background(), seeded.ID))

		published := repository.drops[seeded.ID]
		assert.Equal(t, drop.StatusOnSale, published.Status)
		assert.Equal(t, pointer.To("drop-onchain-1"), published.ExternalID)
		require.NotNil(t, published.PublishTime)
		assert.False(t, published.PublishTime.After(time.Now()))
		require.NotNil(t, published.StartTime)
		assert.True(t, published.StartTime.Equal(*published.PublishTime))
		assert.Empty(t, jobs.added)

		require.Len(t, provider.upserts, 1)
		pushed := provider.upserts[0]
		assert.Empty(t, pushed.ExternalID)
		require.Len(t, pushed.Editions, 1)
		assert.Equal(t, int64(101), pushed.Editions[0].EditionFlowID)
		assert.Equal(t, 5.0, pushed.Editions[0].Price)
	})

	t.Run("start_and_end_schedule_transitions", func(t *testing.T) {
		service, repository, _, jobs := newTestService(mintedEditions(1))

		seeded := seedDrop(repository, draftDrop(), 1)
		start := time.Now().Add(time.Hour)
		end := time.Now().Add(2 * time.Hour)
		repository.drops[seeded.ID].StartTime = &start
		repository.drops[seeded.ID].EndTime = &end

		require.NoError(t, service.PublishDrop(context.Background(), seeded.ID))

		published := repository.drops[seeded.ID]
		assert.Equal(t, drop.StatusPublished, published.Status)

		require.Len(t, jobs.added, 2)
		assert.Equal(t, scheduler.SetOnSaleDropJobID(seeded.ID), jobs.added[0].ID)
		assert.Equal(t, scheduler.SetFinishedDropJobID(seeded.ID), jobs.added[1].ID)
	})

	t.Run("already_published", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1))

		published := draftDrop()
		published.Status = drop.StatusPublished
		seeded := seedDrop(repository, published, 1)

		err := service.PublishDrop(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Drop has already been published", apperr.As(err).Message)
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		service, repository, _, _ := newTestService(mintedEditions(1))

		incomplete := &drop.Drop{Title: "Holiday Drop", Status: drop.StatusDraft}
		seeded := seedDrop(repository, incomplete)

		err := service.PublishDrop(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "Some fields required to publish don't have a value: [description, image_url, drop_editions]", apperr.As(err).Message)
	})
}

/*
TestSetDropStatus checks the scheduled transition entry point only accepts
the two timed states.
*/
func TestSetDropStatus(t *testing.T) {
	service, repository, _, _ := newTestService(mintedEditions(1))

	published := draftDrop()
	published.Status = drop.StatusPublished
	seeded := seedDrop(repository, published, 1)

	require.NoError(t, service.SetDropStatus(context.Background(), seeded.ID, drop.StatusOnSale))
	assert.Equal(t, drop.StatusOnSale, repository.drops[seeded.ID].Status)

	err := service.SetDropStatus(context.Background(), seeded.ID, drop.StatusDraft)
	require.Error(t, err)
}
