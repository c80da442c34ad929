package collection_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/catalog/collection"
	"github.com/wearmint/catalog/internal/catalog/serie"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/pointer"
)

type fakeRepository struct {
	collections map[int64]*collection.Collection
	nextID      int64

	editionsBefore []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{collections: map[int64]*collection.Collection{}, nextID: 1}
}

func (repository *fakeRepository) ListCollections(_ context.Context, _ collection.Filter, _, _ int, _, _ string) ([]*collection.Collection, int, error) {
	var out []*collection.Collection
	for _, c := range repository.collections {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (repository *fakeRepository) GetCollection(_ context.Context, id int64) (*collection.Collection, error) {
	c, ok := repository.collections[id]
	if !ok {
		return nil, apperr.NotFound("Collection")
	}
	clone := *c
	return &clone, nil
}

func (repository *fakeRepository) CreateCollection(_ context.Context, c *collection.Collection) error {
	c.ID = repository.nextID
	repository.nextID++
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	clone := *c
	repository.collections[c.ID] = &clone
	return nil
}

func (repository *fakeRepository) UpdateCollection(_ context.Context, id int64, p collection.Patch) (*collection.Collection, error) {
	c, ok := repository.collections[id]
	if !ok {
		return nil, apperr.NotFound("Collection")
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ShortWord != nil {
		c.ShortWord = *p.ShortWord
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.PublishTime != nil {
		c.PublishTime = p.PublishTime
	}
	if p.SerieID != nil {
		c.SerieID = *p.SerieID
	}
	if p.FlowID != nil {
		c.FlowID = p.FlowID
	}
	c.UpdatedAt = time.Now()
	clone := *c
	return &clone, nil
}

func (repository *fakeRepository) DeleteCollection(_ context.Context, id int64) error {
	if _, ok := repository.collections[id]; !ok {
		return apperr.NotFound("Collection")
	}
	delete(repository.collections, id)
	return nil
}

func (repository *fakeRepository) AdjustWearablesCount(_ context.Context, id int64, delta int) error {
	repository.collections[id].WearablesCount += delta
	return nil
}

func (repository *fakeRepository) MarkHasPublishedEditions(_ context.Context, id int64) error {
	repository.collections[id].HasPublishedEditions = true
	return nil
}

func (repository *fakeRepository) DeactivateBySerie(_ context.Context, serieID int64) (int64, error) {
	var affected int64
	for _, c := range repository.collections {
		if c.SerieID == serieID && c.Status != collection.StatusInactive {
			c.Status = collection.StatusInactive
			affected++
		}
	}
	return affected, nil
}

func (repository *fakeRepository) EditionNamesPublishedBefore(_ context.Context, _ int64, _ time.Time) ([]string, error) {
	return repository.editionsBefore, nil
}

type fakeProvider struct {
	flowID      int64
	created     int
	updatedDesc []string
	err         error
}

func (provider *fakeProvider) CreateCollection(_ context.Context, _ string, _ int64, _, _ string) (int64, error) {
	provider.created++
	if provider.err != nil {
		return 0, provider.err
	}
	return provider.flowID, nil
}

func (provider *fakeProvider) UpdateCollection(_ context.Context, _ int64, description string) error {
	provider.updatedDesc = append(provider.updatedDesc, description)
	return nil
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

type fakeSerieDirectory struct {
	series map[int64]*serie.Serie
	deltas map[int64]int
}

func (directory *fakeSerieDirectory) GetSerie(_ context.Context, id int64) (*serie.Serie, error) {
	s, ok := directory.series[id]
	if !ok {
		return nil, apperr.NotFound("Serie")
	}
	return s, nil
}

func (directory *fakeSerieDirectory) AdjustCollectionsCount(_ context.Context, id int64, delta int) error {
	if directory.deltas == nil {
		directory.deltas = map[int64]int{}
	}
	directory.deltas[id] += delta
	return nil
}

type fakeSKUCascade struct {
	applied map[int64]string
}

func (cascade *fakeSKUCascade) ApplyCollectionShortWord(_ context.Context, collectionID int64, shortWord string) error {
	if cascade.applied == nil {
		cascade.applied = map[int64]string{}
	}
	cascade.applied[collectionID] = shortWord
	return nil
}

func newTestService(repository *fakeRepository, series *fakeSerieDirectory) (*collection.Service, *fakeProvider, *fakeScheduler, *fakeSKUCascade) {
	provider := &fakeProvider{flowID: 77}
	jobs := &fakeScheduler{}
	editions := &fakeSKUCascade{}

	service := collection.NewService(repository, provider, jobs, series, slog.Default())
	service.SetSKUCascade(editions)
	return service, provider, jobs, editions
}

func activeSerie(id int64, publishTime *time.Time) *fakeSerieDirectory {
	flowID := int64(9)
	return &fakeSerieDirectory{series: map[int64]*serie.Serie{
		id: {ID: id, Name: "Genesis", Status: serie.StatusActive, PublishTime: publishTime, FlowID: &flowID},
	}}
}

func seedCollection(repository *fakeRepository, c *collection.Collection) *collection.Collection {
	_ = repository.CreateCollection(context.Background(), c)
	seeded := repository.collections[c.ID]
	seeded.Status = c.Status
	seeded.WearablesCount = c.WearablesCount
	seeded.HasPublishedEditions = c.HasPublishedEditions
	seeded.FlowID = c.FlowID
	return seeded
}

/*
TestCreateCollection_Defaults checks a new Collection starts as a draft and
bumps the owning Serie's collection counter.
*/
func TestCreateCollection_Defaults(t *testing.T) {
	repository := newFakeRepository()
	series := activeSerie(1, nil)
	service, _, jobs, _ := newTestService(repository, series)

	input := &collection.Collection{Name: "Winter", ShortWord: "WIN", SerieID: 1}
	require.NoError(t, service.CreateCollection(context.Background(), input))

	assert.Equal(t, collection.StatusDraft, input.Status)
	assert.NotEmpty(t, input.UUID)
	assert.Equal(t, 1, series.deltas[1])
	assert.Empty(t, jobs.added)
}

/*
TestCreateCollection_PublishTimeRules covers the scheduling constraints
against the owning Serie.
*/
func TestCreateCollection_PublishTimeRules(t *testing.T) {
	future := time.Now().Add(2 * time.Hour)
	seriePublish := time.Now().Add(3 * time.Hour)

	t.Run("serie_publish_time_unset", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, activeSerie(1, nil))

		input := &collection.Collection{Name: "Winter", Description: "d", ShortWord: "WIN", SerieID: 1, PublishTime: &future}
		err := service.CreateCollection(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, "The Collection's publish_time cannot be set until the publish_time of its Series is set", apperr.As(err).Message)
	})

	t.Run("before_serie_publish_time", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, activeSerie(1, &seriePublish))

		input := &collection.Collection{Name: "Winter", Description: "d", ShortWord: "WIN", SerieID: 1, PublishTime: &future}
		err := service.CreateCollection(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, "The Collection's publish_time cannot be before the publish_time of its Series", apperr.As(err).Message)
	})

	t.Run("valid_schedules_job", func(t *testing.T) {
		repository := newFakeRepository()
		serieTime := time.Now().Add(time.Hour)
		service, _, jobs, _ := newTestService(repository, activeSerie(1, &serieTime))

		input := &collection.Collection{Name: "Winter", Description: "d", ShortWord: "WIN", SerieID: 1, PublishTime: &future}
		require.NoError(t, service.CreateCollection(context.Background(), input))

		require.Len(t, jobs.added, 1)
		assert.Equal(t, scheduler.PublishCollectionJobID(input.ID), jobs.added[0].ID)
		assert.Equal(t, scheduler.FuncPublishCollection, jobs.added[0].Func)
	})
}

/*
TestUpdateCollection_PublishedRevertsFrozenFields checks name, publish_time
and serie_id are reverted on published collections with a warning, and a
description change is pushed to the minting provider.
*/
func TestUpdateCollection_PublishedRevertsFrozenFields(t *testing.T) {
	repository := newFakeRepository()
	series := activeSerie(1, nil)
	service, provider, _, _ := newTestService(repository, series)

	flowID := int64(77)
	seeded := seedCollection(repository, &collection.Collection{
		Name: "Winter", Description: "old", ShortWord: "WIN", SerieID: 1,
		Status: collection.StatusPublished, FlowID: &flowID,
	})

	newTime := time.Now().Add(time.Hour)
	updated, message, err := service.UpdateCollection(context.Background(), seeded.ID, collection.Patch{
		Name:        pointer.To("Renamed"),
		PublishTime: &newTime,
		SerieID:     pointer.To(int64(2)),
		Description: pointer.To("new"),
	})
	require.NoError(t, err)

	assert.Equal(t, "The name, publish_time and serie_id cannot be updated because the Collection has already been published.", message)
	assert.Equal(t, "Winter", updated.Name)
	assert.Equal(t, int64(1), updated.SerieID)
	assert.Equal(t, []string{"new"}, provider.updatedDesc)
	assert.Equal(t, "new", updated.Description)
}

/*
TestUpdateCollection_InactiveForbidden checks inactive collections reject all
updates.
*/
func TestUpdateCollection_InactiveForbidden(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, _ := newTestService(repository, activeSerie(1, nil))

	seeded := seedCollection(repository, &collection.Collection{Name: "W", ShortWord: "W", SerieID: 1, Status: collection.StatusInactive})

	_, _, err := service.UpdateCollection(context.Background(), seeded.ID, collection.Patch{Name: pointer.To("X")})
	require.Error(t, err)
	assert.Equal(t, "Inactive collections can't be updated", apperr.As(err).Message)
}

/*
TestUpdateCollection_ShortWordCascade checks short_word changes propagate to
draft edition SKUs and are frozen once editions have been published.
*/
func TestUpdateCollection_ShortWordCascade(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, editions := newTestService(repository, activeSerie(1, nil))

	seeded := seedCollection(repository, &collection.Collection{Name: "W", ShortWord: "WIN", SerieID: 1, Status: collection.StatusDraft})

	updated, _, err := service.UpdateCollection(context.Background(), seeded.ID, collection.Patch{ShortWord: pointer.To("SPR")})
	require.NoError(t, err)
	assert.Equal(t, "SPR", updated.ShortWord)
	assert.Equal(t, "SPR", editions.applied[seeded.ID])

	repository.collections[seeded.ID].HasPublishedEditions = true
	_, _, err = service.UpdateCollection(context.Background(), seeded.ID, collection.Patch{ShortWord: pointer.To("SUM")})
	require.Error(t, err)
	assert.Equal(t, "The short_word cannot be updated because the Collection has published Editions dependent on it.", apperr.As(err).Message)
}

/*
TestDeleteCollection covers the delete guards and the serie counter
decrement.
*/
func TestDeleteCollection(t *testing.T) {
	t.Run("published_forbidden", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, activeSerie(1, nil))
		seeded := seedCollection(repository, &collection.Collection{Name: "W", ShortWord: "W", SerieID: 1, Status: collection.StatusPublished})

		err := service.DeleteCollection(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Collection cannot be deleted because it has already been published", apperr.As(err).Message)
	})

	t.Run("has_wearables_conflict", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, activeSerie(1, nil))
		seeded := seedCollection(repository, &collection.Collection{Name: "W", ShortWord: "W", SerieID: 1, Status: collection.StatusDraft, WearablesCount: 2})

		err := service.DeleteCollection(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Collection cannot be deleted because it has Wearables dependent on it", apperr.As(err).Message)
	})

	t.Run("success_decrements_counter", func(t *testing.T) {
		repository := newFakeRepository()
		series := activeSerie(1, nil)
		service, _, jobs, _ := newTestService(repository, series)

		future := time.Now().Add(time.Hour)
		seeded := seedCollection(repository, &collection.Collection{Name: "W", ShortWord: "W", SerieID: 1, Status: collection.StatusDraft})
		repository.collections[seeded.ID].PublishTime = &future

		require.NoError(t, service.DeleteCollection(context.Background(), seeded.ID))
		assert.Equal(t, -1, series.deltas[1])
		assert.Equal(t, []string{scheduler.PublishCollectionJobID(seeded.ID)}, jobs.removed)
	})
}

/*
TestPublishCollection covers the publish path and its guards.
*/
func TestPublishCollection(t *testing.T) {
	t.Run("success_clamps_publish_time", func(t *testing.T) {
		repository := newFakeRepository()
		service, provider, _, _ := newTestService(repository, activeSerie(1, nil))

		future := time.Now().Add(time.Hour)
		seeded := seedCollection(repository, &collection.Collection{Name: "W", Description: "d", ShortWord: "W", SerieID: 1, Status: collection.StatusDraft})
		repository.collections[seeded.ID].PublishTime = &future

		require.NoError(t, service.PublishCollection(context.Background(), seeded.ID))

		published := repository.collections[seeded.ID]
		assert.Equal(t, collection.StatusPublished, published.Status)
		require.NotNil(t, published.FlowID)
		assert.Equal(t, int64(77), *published.FlowID)
		assert.False(t, published.PublishTime.After(time.Now()))
		assert.Equal(t, 1, provider.created)
	})

	t.Run("serie_not_active", func(t *testing.T) {
		repository := newFakeRepository()
		directory := &fakeSerieDirectory{series: map[int64]*serie.Serie{
			1: {ID: 1, Status: serie.StatusDraft},
		}}
		service, _, _, _ := newTestService(repository, directory)

		seeded := seedCollection(repository, &collection.Collection{Name: "W", Description: "d", ShortWord: "W", SerieID: 1, Status: collection.StatusDraft})

		err := service.PublishCollection(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Collection must belong to an active Series", apperr.As(err).Message)
	})

	t.Run("serie_missing", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, &fakeSerieDirectory{series: map[int64]*serie.Serie{}})

		seeded := seedCollection(repository, &collection.Collection{Name: "W", Description: "d", ShortWord: "W", SerieID: 1, Status: collection.StatusDraft})

		err := service.PublishCollection(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Collection must belong to an existing Series", apperr.As(err).Message)
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _ := newTestService(repository, activeSerie(1, nil))

		seeded := seedCollection(repository, &collection.Collection{Name: "W", SerieID: 1, Status: collection.StatusDraft})

		err := service.PublishCollection(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "Some fields required to publish don't have a value: [description, short_word]", apperr.As(err).Message)
	})
}

/*
TestDeactivateSerieCollections checks the cascade marks every collection of
the serie INACTIVE.
*/
func TestDeactivateSerieCollections(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, _ := newTestService(repository, activeSerie(1, nil))

	first := seedCollection(repository, &collection.Collection{Name: "A", ShortWord: "A", SerieID: 1, Status: collection.StatusPublished})
	second := seedCollection(repository, &collection.Collection{Name: "B", ShortWord: "B", SerieID: 1, Status: collection.StatusDraft})
	other := seedCollection(repository, &collection.Collection{Name: "C", ShortWord: "C", SerieID: 2, Status: collection.StatusDraft})

	require.NoError(t, service.DeactivateSerieCollections(context.Background(), 1))

	assert.Equal(t, collection.StatusInactive, repository.collections[first.ID].Status)
	assert.Equal(t, collection.StatusInactive, repository.collections[second.ID].Status)
	assert.Equal(t, collection.StatusDraft, repository.collections[other.ID].Status)
}
