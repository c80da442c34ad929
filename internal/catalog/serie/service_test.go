package serie_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/catalog/serie"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/pointer"
)

type fakeRepository struct {
	series map[int64]*serie.Serie
	nextID int64

	collectionsBefore []string
	activeBlocked     bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{series: map[int64]*serie.Serie{}, nextID: 1}
}

func (repository *fakeRepository) ListSeries(_ context.Context, _ serie.Filter, _, _ int, _, _ string) ([]*serie.Serie, int, error) {
	var out []*serie.Serie
	for _, s := range repository.series {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (repository *fakeRepository) GetSerie(_ context.Context, id int64) (*serie.Serie, error) {
	s, ok := repository.series[id]
	if !ok {
		return nil, apperr.NotFound("Serie")
	}
	clone := *s
	return &clone, nil
}

func (repository *fakeRepository) CreateSerie(_ context.Context, s *serie.Serie) error {
	s.ID = repository.nextID
	repository.nextID++
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	clone := *s
	repository.series[s.ID] = &clone
	return nil
}

func (repository *fakeRepository) UpdateSerie(_ context.Context, id int64, p serie.Patch) (*serie.Serie, error) {
	s, ok := repository.series[id]
	if !ok {
		return nil, apperr.NotFound("Serie")
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.ShortWord != nil {
		s.ShortWord = *p.ShortWord
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.PublishTime != nil {
		s.PublishTime = p.PublishTime
	}
	if p.FlowID != nil {
		s.FlowID = p.FlowID
	}
	s.UpdatedAt = time.Now()
	clone := *s
	return &clone, nil
}

func (repository *fakeRepository) DeleteSerie(_ context.Context, id int64) error {
	if _, ok := repository.series[id]; !ok {
		return apperr.NotFound("Serie")
	}
	delete(repository.series, id)
	return nil
}

func (repository *fakeRepository) AdjustCollectionsCount(_ context.Context, id int64, delta int) error {
	repository.series[id].CollectionsCount += delta
	return nil
}

func (repository *fakeRepository) MarkHasPublishedEditions(_ context.Context, id int64) error {
	repository.series[id].HasPublishedEditions = true
	return nil
}

func (repository *fakeRepository) CollectionNamesPublishedBefore(_ context.Context, _ int64, _ time.Time) ([]string, error) {
	return repository.collectionsBefore, nil
}

func (repository *fakeRepository) ActiveSerieHasCollectionAfter(_ context.Context, _ time.Time) (bool, error) {
	return repository.activeBlocked, nil
}

func (repository *fakeRepository) ListActiveSerieIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for id, s := range repository.series {
		if s.Status == serie.StatusActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeProvider struct {
	flowID int64
	calls  int
	err    error
}

func (provider *fakeProvider) CreateSerie(_ context.Context, _, _ string) (int64, error) {
	provider.calls++
	if provider.err != nil {
		return 0, provider.err
	}
	return provider.flowID, nil
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

type fakeCollectionCascade struct {
	deactivated []int64
}

func (cascade *fakeCollectionCascade) DeactivateSerieCollections(_ context.Context, serieID int64) error {
	cascade.deactivated = append(cascade.deactivated, serieID)
	return nil
}

type fakeSKUCascade struct {
	applied map[int64]string
}

func (cascade *fakeSKUCascade) ApplySerieShortWord(_ context.Context, serieID int64, shortWord string) error {
	if cascade.applied == nil {
		cascade.applied = map[int64]string{}
	}
	cascade.applied[serieID] = shortWord
	return nil
}

func newTestService(repository *fakeRepository) (*serie.Service, *fakeProvider, *fakeScheduler, *fakeCollectionCascade, *fakeSKUCascade) {
	provider := &fakeProvider{flowID: 42}
	jobs := &fakeScheduler{}
	collections := &fakeCollectionCascade{}
	editions := &fakeSKUCascade{}

	service := serie.NewService(repository, provider, jobs, slog.Default())
	service.SetCollectionCascade(collections)
	service.SetSKUCascade(editions)
	return service, provider, jobs, collections, editions
}

func seedSerie(repository *fakeRepository, s *serie.Serie) *serie.Serie {
	_ = repository.CreateSerie(context.Background(), s)
	repository.series[s.ID].Status = s.Status
	repository.series[s.ID].CollectionsCount = s.CollectionsCount
	repository.series[s.ID].HasPublishedEditions = s.HasPublishedEditions
	return repository.series[s.ID]
}

/*
TestCreateSerie_Defaults checks a new Serie starts as a draft with a
correlation uuid assigned.
*/
func TestCreateSerie_Defaults(t *testing.T) {
	repository := newFakeRepository()
	service, _, jobs, _, _ := newTestService(repository)

	input := &serie.Serie{Name: "Genesis", ShortWord: "GEN"}
	require.NoError(t, service.CreateSerie(context.Background(), input))

	assert.Equal(t, serie.StatusDraft, input.Status)
	assert.NotEmpty(t, input.UUID)
	assert.Empty(t, jobs.added)
}

/*
TestCreateSerie_SchedulesPublish checks a future publish_time registers a
publish job keyed on the Serie id.
*/
func TestCreateSerie_SchedulesPublish(t *testing.T) {
	repository := newFakeRepository()
	service, _, jobs, _, _ := newTestService(repository)

	future := time.Now().Add(time.Hour)
	input := &serie.Serie{Name: "Genesis", Description: "First drop", ShortWord: "GEN", PublishTime: &future}
	require.NoError(t, service.CreateSerie(context.Background(), input))

	require.Len(t, jobs.added, 1)
	assert.Equal(t, scheduler.PublishSerieJobID(input.ID), jobs.added[0].ID)
	assert.Equal(t, scheduler.FuncPublishSerie, jobs.added[0].Func)
	assert.True(t, jobs.added[0].RunDate.Equal(future))
}

/*
TestCreateSerie_Rejections covers the format rules enforced at creation.
*/
func TestCreateSerie_Rejections(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		input   *serie.Serie
		message string
	}{
		{
			"short_word_not_alphanumerical",
			&serie.Serie{Name: "S", ShortWord: "not ok!"},
			"The short_word must contain only alphanumerical characters",
		},
		{
			"short_word_too_long",
			&serie.Serie{Name: "S", ShortWord: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"},
			"The short_word must be less than or equal to 30 characters",
		},
		{
			"publish_time_in_past",
			&serie.Serie{Name: "S", ShortWord: "OK", PublishTime: &past},
			"The publish_time cannot be in the past",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := newFakeRepository()
			service, _, _, _, _ := newTestService(repository)

			err := service.CreateSerie(context.Background(), tt.input)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.message, ae.Message)
		})
	}
}

/*
TestUpdateSerie_ActiveRevertsFrozenFields checks that name and publish_time
changes on a published Serie are dropped and surfaced as a warning, while the
rest of the patch still applies.
*/
func TestUpdateSerie_ActiveRevertsFrozenFields(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, _, _ := newTestService(repository)

	seeded := seedSerie(repository, &serie.Serie{Name: "Genesis", ShortWord: "GEN", Status: serie.StatusActive})

	newTime := time.Now().Add(time.Hour)
	updated, message, err := service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{
		Name:        pointer.To("Renamed"),
		Description: pointer.To("New description"),
		PublishTime: &newTime,
	})
	require.NoError(t, err)

	assert.Equal(t, "The name and publish_time cannot be updated because the Serie has already been published.", message)
	assert.Equal(t, "Genesis", updated.Name)
	assert.Nil(t, updated.PublishTime)
	assert.Equal(t, "New description", updated.Description)
}

/*
TestUpdateSerie_InactiveForbidden checks that inactive series reject all
updates.
*/
func TestUpdateSerie_InactiveForbidden(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, _, _ := newTestService(repository)

	seeded := seedSerie(repository, &serie.Serie{Name: "Old", ShortWord: "OLD", Status: serie.StatusInactive})

	_, _, err := service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{Name: pointer.To("New")})
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, 403, ae.HTTPStatus)
	assert.Equal(t, "Inactive series can't be updated", ae.Message)
}

/*
TestUpdateSerie_ShortWordCascade checks the short_word change propagates to
draft edition SKUs, and is refused once editions have been published.
*/
func TestUpdateSerie_ShortWordCascade(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, _, editions := newTestService(repository)

	seeded := seedSerie(repository, &serie.Serie{Name: "Genesis", ShortWord: "GEN", Status: serie.StatusDraft})

	updated, _, err := service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{ShortWord: pointer.To("NEO")})
	require.NoError(t, err)
	assert.Equal(t, "NEO", updated.ShortWord)
	assert.Equal(t, "NEO", editions.applied[seeded.ID])

	// Once any edition has been published the short_word is frozen.
	repository.series[seeded.ID].HasPublishedEditions = true
	_, _, err = service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{ShortWord: pointer.To("XYZ")})
	require.Error(t, err)
	assert.Equal(t, "The short_word cannot be updated because the Series has published Editions dependent on it.", apperr.As(err).Message)
}

/*
TestUpdateSerie_DeactivationCascades checks setting a Serie INACTIVE
deactivates its collections.
*/
func TestUpdateSerie_DeactivationCascades(t *testing.T) {
	repository := newFakeRepository()
	service, _, _, collections, _ := newTestService(repository)

	seeded := seedSerie(repository, &serie.Serie{Name: "Genesis", ShortWord: "GEN", Status: serie.StatusActive, CollectionsCount: 2})

	inactive := serie.StatusInactive
	_, _, err := service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, []int64{seeded.ID}, collections.deactivated)
}

/*
TestUpdateSerie_PublishTimeAfterCollections checks a draft Serie cannot be
scheduled after its own collections.
*/
func TestUpdateSerie_PublishTimeAfterCollections(t *testing.T) {
	repository := newFakeRepository()
	repository.collectionsBefore = []string{"First Drop", "Second Drop"}
	service, _, _, _, _ := newTestService(repository)

	seeded := seedSerie(repository, &serie.Serie{Name: "Genesis", ShortWord: "GEN", Status: serie.StatusDraft})

	future := time.Now().Add(time.Hour)
	_, _, err := service.UpdateSerie(context.Background(), seeded.ID, serie.Patch{PublishTime: &future})
	require.Error(t, err)
	assert.Equal(t,
		"The Series' publish_time cannot be after the publish_time of its Collections: [First Drop, Second Drop]",
		apperr.As(err).Message,
	)
}

/*
TestDeleteSerie covers the delete guards: published series and series with
collections cannot be removed, and a scheduled publish job is cancelled.
*/
func TestDeleteSerie(t *testing.T) {
	t.Run("published_forbidden", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _, _ := newTestService(repository)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", ShortWord: "S", Status: serie.StatusActive})

		err := service.DeleteSerie(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Serie cannot be deleted because it has already been published", apperr.As(err).Message)
		assert.Equal(t, 403, apperr.As(err).HTTPStatus)
	})

	t.Run("has_collections_conflict", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _, _ := newTestService(repository)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", ShortWord: "S", Status: serie.StatusDraft, CollectionsCount: 1})

		err := service.DeleteSerie(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Serie cannot be deleted because it has Collections dependent on it", apperr.As(err).Message)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})

	t.Run("removes_scheduled_job", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, jobs, _, _ := newTestService(repository)

		future := time.Now().Add(time.Hour)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", ShortWord: "S", Status: serie.StatusDraft})
		repository.series[seeded.ID].PublishTime = &future

		require.NoError(t, service.DeleteSerie(context.Background(), seeded.ID))
		assert.Equal(t, []string{scheduler.PublishSerieJobID(seeded.ID)}, jobs.removed)
		assert.Empty(t, repository.series)
	})
}

/*
TestPublishSerie_Success checks a publish promotes the draft, records the
provider flow id, clamps the publish_time to now, and supersedes the
previously active Serie.
*/
func TestPublishSerie_Success(t *testing.T) {
	repository := newFakeRepository()
	service, provider, _, collections, _ := newTestService(repository)

	previous := seedSerie(repository, &serie.Serie{Name: "Old", Description: "d", ShortWord: "OLD", Status: serie.StatusActive})
	future := time.Now().Add(time.Hour)
	draft := seedSerie(repository, &serie.Serie{Name: "New", Description: "d", ShortWord: "NEW", Status: serie.StatusDraft})
	repository.series[draft.ID].PublishTime = &future

	require.NoError(t, service.PublishSerie(context.Background(), draft.ID))

	published := repository.series[draft.ID]
	assert.Equal(t, serie.StatusActive, published.Status)
	require.NotNil(t, published.FlowID)
	assert.Equal(t, int64(42), *published.FlowID)
	require.NotNil(t, published.PublishTime)
	assert.False(t, published.PublishTime.After(time.Now()), "future publish_time should be clamped to now")

	assert.Equal(t, serie.StatusInactive, repository.series[previous.ID].Status)
	assert.Equal(t, []int64{previous.ID}, collections.deactivated)
	assert.Equal(t, 1, provider.calls)
}

/*
TestPublishSerie_Rejections covers the publish guards.
*/
func TestPublishSerie_Rejections(t *testing.T) {
	t.Run("already_published", func(t *testing.T) {
		repository := newFakeRepository()
		service, provider, _, _, _ := newTestService(repository)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", Description: "d", ShortWord: "S", Status: serie.StatusActive})

		err := service.PublishSerie(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "The Series has already been published", apperr.As(err).Message)
		assert.Zero(t, provider.calls)
	})

	t.Run("missing_required_fields", func(t *testing.T) {
		repository := newFakeRepository()
		service, _, _, _, _ := newTestService(repository)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", Status: serie.StatusDraft})

		err := service.PublishSerie(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "Some fields required to publish don't have a value: [description, short_word]", apperr.As(err).Message)
	})

	t.Run("active_serie_has_pending_collections", func(t *testing.T) {
		repository := newFakeRepository()
		repository.activeBlocked = true
		service, _, _, _, _ := newTestService(repository)
		seeded := seedSerie(repository, &serie.Serie{Name: "S", Description: "d", ShortWord: "S", Status: serie.StatusDraft})

		err := service.PublishSerie(context.Background(), seeded.ID)
		require.Error(t, err)
		assert.Equal(t, "There are Collections scheduled to be published in the Series", apperr.As(err).Message)
		assert.Equal(t, 409, apperr.As(err).HTTPStatus)
	})
}
