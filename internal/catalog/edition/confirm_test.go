package edition_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearmint/catalog/internal/catalog/edition"
	"github.com/wearmint/catalog/pkg/pointer"
)

type fakeConfirmProvider struct {
	mu sync.Mutex

	externalID string
	// pollsUntilFound is the number of polls that report not-found before the
	// external id appears. Negative means it never appears.
	pollsUntilFound int
	polls           int
}

func (provider *fakeConfirmProvider) EditionByFlowID(_ context.Context, _ int64) (string, bool, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	provider.polls++
	if provider.pollsUntilFound < 0 || provider.polls <= provider.pollsUntilFound {
		return "", false, nil
	}
	return provider.externalID, true, nil
}

/*
TestConfirmer_Success checks the poller promotes the Edition to CREATED once
the provider reports the external id, and pushes the off-chain metadata.
*/
func TestConfirmer_Success(t *testing.T) {
	service, deps := newTestService(t)

	flowID := int64(42)
	creating := draftEdition()
	creating.Status = edition.StatusCreating
	creating.FlowID = &flowID
	seeded := seedEdition(deps.repository, creating)

	deps.repository.extras[seeded.AvatarWearableID] = &edition.AssetsExtras{
		AvatarWearableID: seeded.AvatarWearableID,
		Images:           []string{"https://cdn/assets/thumbnail.png"},
		Videos:           []string{},
	}

	provider := &fakeConfirmProvider{externalID: "onchain-1", pollsUntilFound: 2}
	confirmer := edition.NewConfirmer(provider, service, 5*time.Millisecond, time.Second, slog.Default())

	confirmer.Start(seeded.ID, flowID)
	confirmer.Wait()

	confirmed := deps.repository.editions[seeded.ID]
	assert.Equal(t, edition.StatusCreated, confirmed.Status)
	assert.Equal(t, pointer.To("onchain-1"), confirmed.ExternalID)

	require.Len(t, deps.provider.updatedMetadata, 1)
	assert.Equal(t, []string{"https://cdn/assets/thumbnail.png"}, deps.provider.updatedMetadata[0].Images)
	assert.Empty(t, deps.repository.editionErrors)
}

/*
TestConfirmer_Timeout checks the poller gives up after the deadline, records
the failure, and leaves the Edition in ERROR so it can be published again.
*/
func TestConfirmer_Timeout(t *testing.T) {
	service, deps := newTestService(t)

	flowID := int64(42)
	creating := draftEdition()
	creating.Status = edition.StatusCreating
	creating.FlowID = &flowID
	seeded := seedEdition(deps.repository, creating)

	provider := &fakeConfirmProvider{pollsUntilFound: -1}
	confirmer := edition.NewConfirmer(provider, service, 5*time.Millisecond, 30*time.Millisecond, slog.Default())

	confirmer.Start(seeded.ID, flowID)
	confirmer.Wait()

	failed := deps.repository.editions[seeded.ID]
	assert.Equal(t, edition.StatusError, failed.Status)

	require.Len(t, deps.repository.editionErrors, 1)
	recorded := deps.repository.editionErrors[0]
	assert.Equal(t, "Timeout", recorded.Type)
	assert.Equal(t, "Timeout creating the Edition in blockchain.", recorded.Error)
	assert.Equal(t, "Try to publish the Edition again.", recorded.SuggestedSolution)
}
