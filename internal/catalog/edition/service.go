package edition

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/wearmint/catalog/internal/catalog/collection"
	"github.com/wearmint/catalog/internal/cms"
	"github.com/wearmint/catalog/internal/minting"
	"github.com/wearmint/catalog/internal/platform/apperr"
	"github.com/wearmint/catalog/internal/platform/validate"
	"github.com/wearmint/catalog/internal/scheduler"
	"github.com/wearmint/catalog/pkg/slice"
	"github.com/wearmint/catalog/pkg/sku"
	"github.com/wearmint/catalog/pkg/uuid"
)

// Provider is the subset of the minting client the Edition workflow needs.
type Provider interface {
	CreateEdition(context context.Context, name string, collectionFlowID int64, metadata minting.EditionOnChainMetadata, idempotencyKey string) (int64, error)
	UpdateEdition(context context.Context, externalID string, metadata minting.OffChainMetadata) error
	MintNFTs(context context.Context, editionFlowID int64, quantity int) ([]minting.MintedNFT, error)
}

// Wearables resolves wearable asset data from the CMS.
type Wearables interface {
	WearableData(context context.Context, avatarWearableID int64) (*cms.Wearable, error)
}

// Definitions supplies the provider's enumeration values.
type Definitions interface {
	Enumerations(context context.Context) (*minting.Enumerations, error)
}

// Scheduler is the subset of the scheduler client the Edition workflow needs.
type Scheduler interface {
	AddJob(context context.Context, job scheduler.Job) error
	RemoveJob(context context.Context, id string) error
}

// CollectionDirectory is the subset of the collection workflow the Edition
// workflow needs. Implemented by *collection.Service.
type CollectionDirectory interface {
	GetCollection(context context.Context, id int64) (*collection.Collection, error)
	AdjustWearablesCount(context context.Context, id int64, delta int) error
	MarkHasPublishedEditions(context context.Context, id int64) error
}

// SerieMarker freezes a Serie's short_word once one of its Editions has been
// published. Implemented by *serie.Service.
type SerieMarker interface {
	MarkHasPublishedEditions(context context.Context, id int64) error
}

// NFTWriter persists minted NFTs. Implemented by *nft.Service.
type NFTWriter interface {
	BulkCreate(context context.Context, editionID int64, minted []minting.MintedNFT, reserved map[int]bool) (int, error)
}

// Confirmations starts the background confirmation of an on-chain edition
// creation. Implemented by *Confirmer and injected after construction.
type Confirmations interface {
	Start(editionID, flowID int64)
}

type Service struct {
	repo        Repository
	provider    Provider
	wearables   Wearables
	definitions Definitions
	scheduler   Scheduler
	collections CollectionDirectory
	series      SerieMarker
	nfts        NFTWriter
	logger      *slog.Logger

	confirmations Confirmations

	// wearableImages and wearableVideos are the known media file names used
	// to split a wearable's file list into images and videos.
	wearableImages []string
	wearableVideos []string
	mintTryLimit   int
}

func NewService(
	repo Repository,
	provider Provider,
	wearables Wearables,
	definitions Definitions,
	jobs Scheduler,
	collections CollectionDirectory,
	series SerieMarker,
	nfts NFTWriter,
	wearableImages, wearableVideos []string,
	mintTryLimit int,
	logger *slog.Logger,
) *Service {
	if mintTryLimit < 1 {
		mintTryLimit = 1
	}
	return &Service{
		repo:           repo,
		provider:       provider,
		wearables:      wearables,
		definitions:    definitions,
		scheduler:      jobs,
		collections:    collections,
		series:         series,
		nfts:           nfts,
		wearableImages: wearableImages,
		wearableVideos: wearableVideos,
		mintTryLimit:   mintTryLimit,
		logger:         logger,
	}
}

// SetConfirmations wires the confirmation poller in after construction.
func (service *Service) SetConfirmations(confirmations Confirmations) {
	service.confirmations = confirmations
}

// # Reads

func (service *Service) ListEditions(context context.Context, filter Filter, limit, offset int, order, orderBy string) ([]*Edition, int, error) {
	return service.repo.ListEditions(context, filter, limit, offset, order, orderBy)
}

func (service *Service) GetEdition(context context.Context, id int64) (*Edition, error) {
	return service.repo.GetEdition(context, id)
}

// # Create

// CreateEdition validates the enumeration fields against the provider,
// resolves the wearable from the CMS, and stores a DRAFT Edition together
// with the wearable's media partition.
func (service *Service) CreateEdition(context context.Context, input *Edition) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100)
	validator.Custom(FieldAvatarWearableID, input.AvatarWearableID == 0, "This field is required")
	if err := validator.Err(); err != nil {
		return err
	}
	if err := service.validateEnumerations(context, input.DesignSlot, input.Type, input.Rarity); err != nil {
		return err
	}
	if err := validate.Price(input.Price); err != nil {
		return err
	}

	wearable, err := service.wearables.WearableData(context, input.AvatarWearableID)
	if err != nil {
		return err
	}

	input.Status = StatusDraft
	input.AvatarWearableSKU = wearable.SKU
	input.CollectionID = wearable.CollectionID
	input.UUID = uuid.New()

	if err := service.validatePublishTime(context, input.PublishTime, nil, input.CollectionID, nil); err != nil {
		return err
	}
	if input.PublishTime != nil {
		if err := service.validateForPublish(context, input, false); err != nil {
			return err
		}
	}

	if err := service.repo.CreateEdition(context, input); err != nil {
		return err
	}
	if err := service.upsertExtras(context, input.AvatarWearableID, wearable.FileList); err != nil {
		return err
	}

	if input.PublishTime != nil {
		if err := service.schedulePublish(context, input); err != nil {
			return err
		}
	}

	service.logger.Info("edition_created",
		slog.Int64("edition_id", input.ID),
		slog.Int64("collection_id", input.CollectionID),
		slog.String("sku", input.AvatarWearableSKU),
	)
	return nil
}

// # Update

// UpdateEdition applies a sparse patch with per-status rules: editable
// editions revalidate everything, CREATING editions are locked, published
// editions revert frozen fields with a warning, and ON_SALE editions
// additionally freeze the sale parameters.
func (service *Service) UpdateEdition(context context.Context, id int64, patch Patch) (*Edition, string, error) {
	current, err := service.repo.GetEdition(context, id)
	if err != nil {
		return nil, "", err
	}

	if err := validate.Price(patch.Price); err != nil {
		return nil, "", err
	}

	message := ""
	publishTimeWasUpdated := false

	if current.Status.Editable() {
		if patch.AvatarWearableID != nil && *patch.AvatarWearableID != current.AvatarWearableID {
			wearable, err := service.wearables.WearableData(context, *patch.AvatarWearableID)
			if err != nil {
				return nil, "", err
			}
			if err := service.upsertExtras(context, *patch.AvatarWearableID, wearable.FileList); err != nil {
				return nil, "", err
			}
			patch.AvatarWearableSKU = &wearable.SKU
			patch.CollectionID = &wearable.CollectionID
		}
		if err := service.validatePublishTime(context, patch.PublishTime, patch.FlowID, collectionIDFor(patch, current), current); err != nil {
			return nil, "", err
		}
		publishTimeWasUpdated = patch.FlowID == nil && publishTimeChanged(patch.PublishTime, current.PublishTime)
		if err := service.validatePatchEnumerations(context, patch); err != nil {
			return nil, "", err
		}
		if publishTimeWasUpdated {
			candidate := *current
			applyPatch(&candidate, patch)
			if err := service.validateForPublish(context, &candidate, false); err != nil {
				return nil, "", err
			}
		}
	} else {
		// Internal updates during creation carry a status transition or the
		// external id; anything else is locked out until the creation
		// resolves.
		if current.Status == StatusCreating && patch.ExternalID == nil && patch.Status == nil {
			return nil, "", apperr.BadRequest("The Edition cannot be updated during its creation")
		}

		if revertFrozenFields(&patch, current) {
			message += "The name, publish_time, avatar_wearable_id and on_chain_metadata cannot be updated because the Edition has already been published. "
		}
		if current.Status == StatusOnSale && revertSaleFields(&patch, current) {
			message += "The price and reserve_percentage cannot be updated because the Edition is already on sale."
		}
		if patch.Description != nil && *patch.Description != current.Description && current.ExternalID != nil {
			metadata, err := service.offChainMetadata(context, *patch.Description, current.AvatarWearableID)
			if err != nil {
				return nil, "", err
			}
			if err := service.provider.UpdateEdition(context, *current.ExternalID, metadata); err != nil {
				return nil, "", err
			}
		}
	}

	updated, err := service.repo.UpdateEdition(context, id, patch)
	if err != nil {
		return nil, "", err
	}

	if publishTimeWasUpdated {
		if err := service.schedulePublish(context, updated); err != nil {
			return nil, "", err
		}
	}

	service.logger.Info("edition_updated", slog.Int64("edition_id", id))
	return updated, strings.TrimSpace(message), nil
}

// # Batch update

// BatchUpdate is the CMS-driven bulk update applied when a wearable asset
// changes: its media files, owning collection, and SKU asset segment.
type BatchUpdate struct {
	AvatarWearableID int64    `json:"avatar_wearable_id"`
	CollectionID     int64    `json:"collection_id"`
	ShortWord        string   `json:"short_word"`
	FileList         []string `json:"file_list"`
}

// BatchUpdateEditions applies a wearable change to every Edition that
// references it. Fails if any of them has already been published.
func (service *Service) BatchUpdateEditions(context context.Context, batch BatchUpdate) (string, error) {
	editions, _, err := service.repo.ListEditions(context, Filter{AvatarWearableID: batch.AvatarWearableID}, 0, 0, "asc", "created_at")
	if err != nil {
		return "", err
	}

	target, err := service.collections.GetCollection(context, batch.CollectionID)
	if err != nil {
		return "", err
	}

	if err := service.upsertExtras(context, batch.AvatarWearableID, batch.FileList); err != nil {
		return "", err
	}

	for _, current := range editions {
		if !current.Status.Editable() {
			return "", apperr.Forbidden("There are Editions with that avatar_wearable_id that have already been published")
		}
	}

	// A collection move shifts the wearable counters once, not per edition.
	if len(editions) > 0 && editions[0].CollectionID != target.ID {
		if err := service.collections.AdjustWearablesCount(context, editions[0].CollectionID, -1); err != nil {
			return "", err
		}
		if err := service.collections.AdjustWearablesCount(context, target.ID, 1); err != nil {
			return "", err
		}
	}

	for _, current := range editions {
		updatedSKU := sku.Replace(current.AvatarWearableSKU, sku.SegmentCollection, target.ShortWord)
		updatedSKU = sku.Replace(updatedSKU, sku.SegmentAsset, batch.ShortWord)

		patch := Patch{
			AvatarWearableSKU: &updatedSKU,
			CollectionID:      &target.ID,
		}
		if _, err := service.repo.UpdateEdition(context, current.ID, patch); err != nil {
			return "", err
		}
	}

	service.logger.Info("editions_batch_updated",
		slog.Int64("avatar_wearable_id", batch.AvatarWearableID),
		slog.Int("editions", len(editions)),
	)
	return fmt.Sprintf("%d editions successfully updated", len(editions)), nil
}

// # Delete

func (service *Service) DeleteEdition(context context.Context, id int64) error {
	current, err := service.repo.GetEdition(context, id)
	if err != nil {
		return err
	}

	if !current.Status.Editable() {
		return apperr.Forbidden("The Edition cannot be deleted because it has already been published")
	}

	if current.PublishTime != nil && current.PublishTime.After(time.Now()) {
		if err := service.scheduler.RemoveJob(context, scheduler.PublishEditionJobID(id)); err != nil {
			return err
		}
	}

	if err := service.repo.DeleteEdition(context, id); err != nil {
		return err
	}

	service.logger.Warn("edition_deleted", slog.Int64("edition_id", id))
	return nil
}

// # Publish

// PublishEdition pushes a DRAFT or ERROR Edition on-chain. The provider
// confirms the creation asynchronously, so the Edition moves to CREATING and
// a background poller resolves the final state.
func (service *Service) PublishEdition(context context.Context, id int64) error {
	current, err := service.repo.GetEdition(context, id)
	if err != nil {
		return err
	}

	if err := service.validateForPublish(context, current, true); err != nil {
		return err
	}

	owner, err := service.collections.GetCollection(context, current.CollectionID)
	if err != nil {
		return err
	}

	// Publishing the first Edition freezes the short_words upstream.
	if err := service.collections.MarkHasPublishedEditions(context, owner.ID); err != nil {
		return err
	}
	if err := service.series.MarkHasPublishedEditions(context, owner.SerieID); err != nil {
		return err
	}

	flowID, err := service.provider.CreateEdition(context, current.Name, *owner.FlowID, minting.EditionOnChainMetadata{
		Rarity:            current.Rarity,
		Artist:            current.Artist,
		Celebrity:         current.Celebrity,
		EditionType:       current.Type,
		DesignSlot:        current.DesignSlot,
		Publisher:         current.Publisher,
		Trademark:         current.Trademark,
		AvatarWearableSKU: current.AvatarWearableSKU,
	}, current.UUID)
	if err != nil {
		return err
	}

	creating := StatusCreating
	patch := Patch{Status: &creating, FlowID: &flowID}
	if current.PublishTime == nil || current.PublishTime.After(time.Now()) {
		now := time.Now()
		patch.PublishTime = &now
	}

	if _, err := service.repo.UpdateEdition(context, id, patch); err != nil {
		return err
	}

	service.confirmations.Start(id, flowID)

	service.logger.Info("edition_publishing",
		slog.Int64("edition_id", id),
		slog.Int64("flow_id", flowID),
	)
	return nil
}

// # Mint

// MintEditionNFTs mints NFTs for a confirmed Edition, holds back the
// reserved share, and stores the rest. The whole mint-then-persist sequence
// is retried up to the configured limit; a replayed mint is deduplicated by
// NFT flow id. The Edition stays MINTED — selling is a separate step.
func (service *Service) MintEditionNFTs(context context.Context, id int64, quantity int) error {
	if quantity < 1 {
		return validate.RequiredError("quantity", "Must be at least 1")
	}

	current, err := service.repo.GetEdition(context, id)
	if err != nil {
		return err
	}
	if current.Status != StatusCreated && current.Status != StatusMinted {
		return apperr.BadRequest("The Edition must be published")
	}

	reservePct := 0
	if current.ReservePercentage != nil {
		reservePct = *current.ReservePercentage
	}
	reservedAmount := int(math.Ceil(float64(reservePct) / 100 * float64(quantity)))

	stored := 0
	if err := service.withRetries("mint_nfts", func() error {
		minted, mintErr := service.provider.MintNFTs(context, *current.FlowID, quantity)
		if mintErr != nil {
			return mintErr
		}

		reserved := reservedIndexes(len(minted), reservedAmount)
		count, storeErr := service.nfts.BulkCreate(context, id, minted, reserved)
		if storeErr != nil {
			return storeErr
		}
		stored = count

		mintedStatus := StatusMinted
		_, patchErr := service.repo.UpdateEdition(context, id, Patch{Status: &mintedStatus})
		return patchErr
	}); err != nil {
		return err
	}

	service.logger.Info("edition_minted",
		slog.Int64("edition_id", id),
		slog.Int("quantity", quantity),
		slog.Int("reserved", reservedAmount),
		slog.Int("stored", stored),
	)
	return nil
}

// withRetries runs fn up to the configured try limit.
func (service *Service) withRetries(action string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= service.mintTryLimit; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		service.logger.Warn("mint_retry",
			slog.String("action", action),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
	}
	return apperr.Internal(fmt.Errorf("%s: too many tries: %w", action, lastErr))
}

// # SKU cascades

// ApplySerieShortWord rewrites the serie segment of the SKU of every
// editable Edition under the Serie.
func (service *Service) ApplySerieShortWord(context context.Context, serieID int64, shortWord string) error {
	editions, err := service.repo.ListEditableBySerie(context, serieID)
	if err != nil {
		return err
	}
	return service.applySKUSegment(context, editions, sku.SegmentSerie, shortWord)
}

// ApplyCollectionShortWord rewrites the collection segment of the SKU of
// every editable Edition in the Collection.
func (service *Service) ApplyCollectionShortWord(context context.Context, collectionID int64, shortWord string) error {
	editions, err := service.repo.ListEditableByCollection(context, collectionID)
	if err != nil {
		return err
	}
	return service.applySKUSegment(context, editions, sku.SegmentCollection, shortWord)
}

func (service *Service) applySKUSegment(context context.Context, editions []*Edition, segment sku.Segment, shortWord string) error {
	for _, current := range editions {
		updated := sku.Replace(current.AvatarWearableSKU, segment, shortWord)
		if updated == current.AvatarWearableSKU {
			continue
		}
		if err := service.repo.UpdateWearableSKU(context, current.ID, updated); err != nil {
			return err
		}
	}
	return nil
}

// # Errors

func (service *Service) ListErrors(context context.Context, editionID int64, limit, offset int) ([]*EditionError, int, error) {
	return service.repo.ListErrors(context, editionID, limit, offset)
}

// RecordError appends a failure record for the Edition.
func (service *Service) RecordError(context context.Context, editionID int64, errorType, message, suggestedSolution string) error {
	editionError := &EditionError{
		EditionID:         editionID,
		Type:              errorType,
		Error:             message,
		SuggestedSolution: suggestedSolution,
	}
	if err := service.repo.CreateError(context, editionError); err != nil {
		return err
	}
	service.logger.Error("edition_error_recorded",
		slog.Int64("edition_id", editionID),
		slog.String("type", errorType),
		slog.String("error", message),
	)
	return nil
}

// # Validation

func (service *Service) validateEnumerations(context context.Context, designSlot, editionType, rarity string) error {
	enumerations, err := service.definitions.Enumerations(context)
	if err != nil {
		return err
	}

	if designSlot != "" && !slice.Contains(enumerations.DesignSlots, designSlot) {
		return apperr.BadRequest(fmt.Sprintf(
			"Invalid DESIGN_SLOT=%s. Valid ones=[%s]", designSlot, strings.Join(enumerations.DesignSlots, ", ")))
	}
	if editionType != "" && !slice.Contains(enumerations.Types, editionType) {
		return apperr.BadRequest(fmt.Sprintf(
			"Invalid TYPE=%s. Valid ones=[%s]", editionType, strings.Join(enumerations.Types, ", ")))
	}
	if rarity != "" && !slice.Contains(enumerations.Rarities, rarity) {
		return apperr.BadRequest(fmt.Sprintf(
			"Invalid RARITY=%s. Valid ones=[%s]", rarity, strings.Join(enumerations.Rarities, ", ")))
	}
	return nil
}

func (service *Service) validatePatchEnumerations(context context.Context, patch Patch) error {
	if patch.DesignSlot == nil && patch.Type == nil && patch.Rarity == nil {
		return nil
	}
	designSlot, editionType, rarity := "", "", ""
	if patch.DesignSlot != nil {
		designSlot = *patch.DesignSlot
	}
	if patch.Type != nil {
		editionType = *patch.Type
	}
	if patch.Rarity != nil {
		rarity = *patch.Rarity
	}
	return service.validateEnumerations(context, designSlot, editionType, rarity)
}

// validatePublishTime enforces the scheduling rules on a changed
// publish_time: not in the past, not before the owning Collection's
// publish_time (which must be set), and not after any Drop containing the
// Edition. Internal updates carrying a flow id are exempt.
func (service *Service) validatePublishTime(context context.Context, publishTime *time.Time, flowID *int64, collectionID int64, current *Edition) error {
	if flowID != nil {
		return nil
	}

	changed := publishTimeChangedAgainst(publishTime, current)
	collectionChanged := current != nil && collectionID != current.CollectionID

	if !changed && !collectionChanged {
		return nil
	}
	if !changed && collectionChanged && current.PublishTime == nil {
		return nil
	}

	effective := publishTime
	if !changed {
		effective = current.PublishTime
	}

	if changed && effective.Before(time.Now()) {
		return apperr.BadRequest("The publish_time cannot be in the past")
	}

	owner, err := service.collections.GetCollection(context, collectionID)
	if err != nil {
		return err
	}
	if owner.PublishTime == nil {
		return apperr.BadRequest("The Edition's publish_time cannot be set until the publish_time of its Collection is set")
	}
	if owner.PublishTime.After(*effective) {
		return apperr.BadRequest("The Edition's publish_time cannot be before the publish_time of its Collection")
	}

	if changed && current != nil {
		titles, err := service.repo.DropTitlesPublishedBefore(context, current.ID, *effective)
		if err != nil {
			return err
		}
		if len(titles) > 0 {
			return apperr.BadRequest(fmt.Sprintf(
				"The Edition's publish_time cannot be after the publish_time of its Drops: [%s]",
				strings.Join(titles, ", "),
			))
		}
	}

	return nil
}

// validateForPublish checks the Edition is complete and, at actual
// publication, that its Collection is PUBLISHED on-chain and no other
// Edition is mid-creation.
func (service *Service) validateForPublish(context context.Context, e *Edition, publishNow bool) error {
	if !e.Status.Editable() {
		return apperr.BadRequest("The Edition has already been published")
	}

	var missing []string
	require := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}
	require(FieldName, e.Name)
	require(FieldDescription, e.Description)
	require(FieldArtist, e.Artist)
	require(FieldAvatarWearableSKU, e.AvatarWearableSKU)
	require(FieldCelebrity, e.Celebrity)
	require(FieldDesignSlot, e.DesignSlot)
	require(FieldPublisher, e.Publisher)
	require(FieldRarity, e.Rarity)
	require(FieldTrademark, e.Trademark)
	require(FieldType, e.Type)
	if e.Price == nil {
		missing = append(missing, FieldPrice)
	}
	if e.ReservePercentage == nil {
		missing = append(missing, FieldReservePct)
	}
	if e.AvatarWearableID == 0 {
		missing = append(missing, FieldAvatarWearableID)
	}
	if e.CollectionID == 0 {
		missing = append(missing, FieldCollectionID)
	}
	if err := validate.PublishRequired(missing); err != nil {
		return err
	}

	owner, err := service.collections.GetCollection(context, e.CollectionID)
	if err != nil {
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
			return apperr.BadRequest("The Edition must belong to an existing Collection")
		}
		return err
	}

	if publishNow {
		if owner.Status != collection.StatusPublished || owner.FlowID == nil {
			return apperr.BadRequest("The Edition must belong to a published Collection")
		}
		creating, err := service.repo.HasCreating(context)
		if err != nil {
			return err
		}
		if creating {
			return apperr.Conflict("There is another Edition being created")
		}
	}

	return nil
}

// # Scheduling

func (service *Service) schedulePublish(context context.Context, e *Edition) error {
	return service.scheduler.AddJob(context, scheduler.Job{
		ID:      scheduler.PublishEditionJobID(e.ID),
		Func:    scheduler.FuncPublishEdition,
		Args:    []string{strconv.FormatInt(e.ID, 10)},
		RunDate: *e.PublishTime,
	})
}

// # Extras

// upsertExtras partitions the wearable's file list into images and videos by
// file name and stores it keyed by the wearable id.
func (service *Service) upsertExtras(context context.Context, avatarWearableID int64, fileList []string) error {
	images, videos := []string{}, []string{}
	for _, file := range fileList {
		name := path.Base(file)
		switch {
		case slice.Contains(service.wearableImages, name):
			images = append(images, file)
		case slice.Contains(service.wearableVideos, name):
			videos = append(videos, file)
		}
	}

	return service.repo.UpsertAssetsExtras(context, &AssetsExtras{
		AvatarWearableID: avatarWearableID,
		UUID:             uuid.New(),
		Images:           images,
		Videos:           videos,
	})
}

// offChainMetadata assembles the provider's off-chain payload from the
// description and the stored media partition.
func (service *Service) offChainMetadata(context context.Context, description string, avatarWearableID int64) (minting.OffChainMetadata, error) {
	metadata := minting.OffChainMetadata{
		Description: description,
		Images:      []string{},
		Videos:      []string{},
	}

	extras, err := service.repo.GetAssetsExtras(context, avatarWearableID)
	if err != nil {
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
			return metadata, nil
		}
		return metadata, err
	}

	metadata.Images = extras.Images
	metadata.Videos = extras.Videos
	return metadata, nil
}

// # Helpers

// reservedIndexes picks amount random positions out of total.
func reservedIndexes(total, amount int) map[int]bool {
	if amount > total {
		amount = total
	}
	reserved := make(map[int]bool, amount)
	for _, index := range rand.Perm(total)[:amount] {
		reserved[index] = true
	}
	return reserved
}

// revertFrozenFields drops the fields frozen after publication from the
// patch. Reports whether anything was reverted.
func revertFrozenFields(patch *Patch, current *Edition) bool {
	reverted := false
	revertString := func(field **string, value string) {
		if *field != nil && **field != value {
			*field = nil
			reverted = true
		}
	}
	revertString(&patch.Name, current.Name)
	revertString(&patch.Artist, current.Artist)
	revertString(&patch.AvatarWearableSKU, current.AvatarWearableSKU)
	revertString(&patch.Celebrity, current.Celebrity)
	revertString(&patch.DesignSlot, current.DesignSlot)
	revertString(&patch.Publisher, current.Publisher)
	revertString(&patch.Rarity, current.Rarity)
	revertString(&patch.Trademark, current.Trademark)
	revertString(&patch.Type, current.Type)
	if patch.AvatarWearableID != nil && *patch.AvatarWearableID != current.AvatarWearableID {
		patch.AvatarWearableID = nil
		reverted = true
	}
	if publishTimeChanged(patch.PublishTime, current.PublishTime) {
		patch.PublishTime = nil
		reverted = true
	}
	return reverted
}

// revertSaleFields drops price and reserve_percentage changes once the
// Edition is on sale. Reports whether anything was reverted.
func revertSaleFields(patch *Patch, current *Edition) bool {
	reverted := false
	if patch.Price != nil && (current.Price == nil || *patch.Price != *current.Price) {
		patch.Price = nil
		reverted = true
	}
	if patch.ReservePercentage != nil && (current.ReservePercentage == nil || *patch.ReservePercentage != *current.ReservePercentage) {
		patch.ReservePercentage = nil
		reverted = true
	}
	return reverted
}

func collectionIDFor(p Patch, current *Edition) int64 {
	if p.CollectionID != nil {
		return *p.CollectionID
	}
	return current.CollectionID
}

// applyPatch merges a Patch into an Edition value for pre-write validation.
func applyPatch(e *Edition, p Patch) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Artist != nil {
		e.Artist = *p.Artist
	}
	if p.AvatarWearableID != nil {
		e.AvatarWearableID = *p.AvatarWearableID
	}
	if p.AvatarWearableSKU != nil {
		e.AvatarWearableSKU = *p.AvatarWearableSKU
	}
	if p.Celebrity != nil {
		e.Celebrity = *p.Celebrity
	}
	if p.DesignSlot != nil {
		e.DesignSlot = *p.DesignSlot
	}
	if p.Publisher != nil {
		e.Publisher = *p.Publisher
	}
	if p.Rarity != nil {
		e.Rarity = *p.Rarity
	}
	if p.Trademark != nil {
		e.Trademark = *p.Trademark
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Price != nil {
		e.Price = p.Price
	}
	if p.ReservePercentage != nil {
		e.ReservePercentage = p.ReservePercentage
	}
	if p.PublishTime != nil {
		e.PublishTime = p.PublishTime
	}
	if p.CollectionID != nil {
		e.CollectionID = *p.CollectionID
	}
}

func publishTimeChanged(patched, current *time.Time) bool {
	if patched == nil {
		return false
	}
	return current == nil || !patched.Equal(*current)
}

func publishTimeChangedAgainst(patched *time.Time, current *Edition) bool {
	if current == nil {
		return patched != nil
	}
	return publishTimeChanged(patched, current.PublishTime)
}
