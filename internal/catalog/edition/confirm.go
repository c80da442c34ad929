package edition

import (
	stdctx "context"
	"log/slog"
	"sync"
	"time"
)

// ConfirmProvider is the subset of the minting client the Confirmer needs.
type ConfirmProvider interface {
	EditionByFlowID(context stdctx.Context, flowID int64) (externalID string, found bool, err error)
}

// Confirmer resolves the asynchronous half of an Edition publication: the
// provider assigns the final edition id some time after the creation
// mutation succeeds, so the Confirmer polls until the id appears or the
// timeout elapses (the provider's chain settles within 15 minutes).
//
// On success the Edition becomes CREATED, receives its external id, and its
// off-chain metadata is pushed. On timeout the Edition becomes ERROR with an
// appended failure record. The Confirmer never returns an error to the
// caller; publication already succeeded on-chain.
type Confirmer struct {
	provider ConfirmProvider
	service  *Service
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	wg sync.WaitGroup
}

func NewConfirmer(provider ConfirmProvider, service *Service, interval, timeout time.Duration, logger *slog.Logger) *Confirmer {
	return &Confirmer{
		provider: provider,
		service:  service,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start launches the confirmation poll for one Edition in the background.
func (confirmer *Confirmer) Start(editionID, flowID int64) {
	confirmer.wg.Add(1)
	go func() {
		defer confirmer.wg.Done()
		confirmer.run(editionID, flowID)
	}()
}

// Wait blocks until all in-flight confirmations finish. Used on shutdown
// and in tests.
func (confirmer *Confirmer) Wait() {
	confirmer.wg.Wait()
}

func (confirmer *Confirmer) run(editionID, flowID int64) {
	context, cancel := stdctx.WithTimeout(stdctx.Background(), confirmer.timeout)
	defer cancel()

	logger := confirmer.logger.With(
		slog.Int64("edition_id", editionID),
		slog.Int64("flow_id", flowID),
	)

	ticker := time.NewTicker(confirmer.interval)
	defer ticker.Stop()

	for {
		select {
		case <-context.Done():
			confirmer.fail(editionID, logger)
			return
		case <-ticker.C:
			externalID, found, err := confirmer.provider.EditionByFlowID(context, flowID)
			if err != nil {
				logger.Warn("edition_confirm_poll_failed", slog.String("error", err.Error()))
				continue
			}
			if !found {
				continue
			}
			confirmer.succeed(editionID, externalID, logger)
			return
		}
	}
}

// succeed promotes the Edition to CREATED and pushes its off-chain metadata
// to the provider.
func (confirmer *Confirmer) succeed(editionID int64, externalID string, logger *slog.Logger) {
	// Detached context: the poll deadline must not cut the final writes off.
	context, cancel := stdctx.WithTimeout(stdctx.Background(), time.Minute)
	defer cancel()

	created := StatusCreated
	updated, _, err := confirmer.service.UpdateEdition(context, editionID, Patch{
		Status:     &created,
		ExternalID: &externalID,
	})
	if err != nil {
		logger.Error("edition_confirm_update_failed", slog.String("error", err.Error()))
		return
	}

	metadata, err := confirmer.service.offChainMetadata(context, updated.Description, updated.AvatarWearableID)
	if err == nil {
		err = confirmer.service.provider.UpdateEdition(context, externalID, metadata)
	}
	if err != nil {
		logger.Warn("edition_metadata_push_failed", slog.String("error", err.Error()))
	}

	logger.Info("edition_created_onchain", slog.String("external_id", externalID))
}

// fail records the timeout and moves the Edition to ERROR so it can be
// published again.
func (confirmer *Confirmer) fail(editionID int64, logger *slog.Logger) {
	context, cancel := stdctx.WithTimeout(stdctx.Background(), time.Minute)
	defer cancel()

	if err := confirmer.service.RecordError(context, editionID,
		"Timeout",
		"Timeout creating the Edition in blockchain.",
		"Try to publish the Edition again.",
	); err != nil {
		logger.Error("edition_error_record_failed", slog.String("error", err.Error()))
	}

	errorStatus := StatusError
	if _, _, err := confirmer.service.UpdateEdition(context, editionID, Patch{Status: &errorStatus}); err != nil {
		logger.Error("edition_confirm_update_failed", slog.String("error", err.Error()))
	}

	logger.Error("edition_confirm_timeout")
}
