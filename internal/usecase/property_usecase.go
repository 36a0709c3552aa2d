package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/cache"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

// ErrPropertyNotFound covers both a missing property and a property owned by
// someone else; the two cases are deliberately indistinguishable so callers
// cannot probe for other owners' resources.
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrOwnerNotFound    = errors.New("owner does not exist")
)

type EventPublisher interface {
	PublishPropertyCreated(ctx context.Context, property *entity.Property) error
	PublishPropertyUpdated(ctx context.Context, property *entity.Property) error
	PublishPropertyDeleted(ctx context.Context, propertyID string) error
}

type ImageArchive interface {
	Store(ctx context.Context, data []byte) (string, error)
}

type PropertyUsecase struct {
	propertyRepo repository.PropertyRepository
	ownerRepo    repository.OwnerRepository
	imageRepo    repository.PropertyImageRepository
	cacheRepo    cache.CacheRepository
	publisher    EventPublisher
	archive      ImageArchive
	logger       *zap.Logger
}

func NewPropertyUsecase(
	pr repository.PropertyRepository,
	or repository.OwnerRepository,
	ir repository.PropertyImageRepository,
	cr cache.CacheRepository,
	pub EventPublisher,
	ar ImageArchive,
	logger *zap.Logger,
) *PropertyUsecase {
	return &PropertyUsecase{
		propertyRepo: pr,
		ownerRepo:    or,
		imageRepo:    ir,
		cacheRepo:    cr,
		publisher:    pub,
		archive:      ar,
		logger:       logger,
	}
}

func propertyCacheKey(propertyID string) string {
	return fmt.Sprintf("property:%s", propertyID)
}

const propertyCacheTTL = 5 * time.Minute

type CatalogPage struct {
	Properties []*entity.PropertyListItem
	TotalCount int64
}

func (uc *PropertyUsecase) ListCatalog(ctx context.Context, filter entity.PropertyFilter) (*CatalogPage, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}

	properties, totalCount, err := uc.propertyRepo.FindFiltered(ctx, filter)
	if err != nil {
		uc.logger.Error("Failed to list properties from repository", zap.Error(err))
		return nil, fmt.Errorf("PropertyUsecase.ListCatalog: failed to list properties from repo: %w", err)
	}

	items := make([]*entity.PropertyListItem, 0, len(properties))
	for _, property := range properties {
		item, err := uc.assembleListItem(ctx, property)
		if err != nil {
			return nil, fmt.Errorf("PropertyUsecase.ListCatalog: failed to assemble catalog row: %w", err)
		}
		items = append(items, item)
	}

	return &CatalogPage{Properties: items, TotalCount: totalCount}, nil
}

// assembleListItem denormalizes one catalog row. A missing owner record yields
// an empty owner name and a missing image yields no payload; only hard store
// failures propagate.
func (uc *PropertyUsecase) assembleListItem(ctx context.Context, property *entity.Property) (*entity.PropertyListItem, error) {
	item := &entity.PropertyListItem{
		ID:      property.ID,
		OwnerID: property.OwnerID,
		Name:    property.Name,
		Address: property.Address,
		Price:   property.Price,
	}

	owner, err := uc.ownerRepo.FindByID(ctx, property.OwnerID)
	switch {
	case err == nil:
		item.OwnerName = owner.Name
	case errors.Is(err, repository.ErrNotFound):
		uc.logger.Warn("Owner record missing for property",
			zap.String("property_id", property.ID),
			zap.String("owner_id", property.OwnerID),
		)
	default:
		return nil, fmt.Errorf("failed to resolve owner %s: %w", property.OwnerID, err)
	}

	image, err := uc.imageRepo.FindFirstEnabled(ctx, property.ID)
	switch {
	case err == nil:
		item.FirstImage = base64.StdEncoding.EncodeToString(image.Data)
	case errors.Is(err, repository.ErrNotFound):
		// No enabled image; the catalog row simply carries none.
	default:
		return nil, fmt.Errorf("failed to resolve image for property %s: %w", property.ID, err)
	}

	return item, nil
}

func (uc *PropertyUsecase) GetPropertyByID(ctx context.Context, id string) (*entity.PropertyListItem, error) {
	if uc.cacheRepo != nil {
		key := propertyCacheKey(id)
		cachedBytes, err := uc.cacheRepo.Get(ctx, key)
		if err == nil {
			var item entity.PropertyListItem
			if unmarshalErr := json.Unmarshal(cachedBytes, &item); unmarshalErr == nil {
				uc.logger.Debug("Property fetched from cache", zap.String("key", key))
				return &item, nil
			}
			uc.logger.Warn("Failed to unmarshal property from cache, dropping entry", zap.String("key", key))
			if delErr := uc.cacheRepo.Delete(ctx, key); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted data from cache", zap.String("key", key), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Failed to get property from cache (not a cache miss)", zap.String("key", key), zap.Error(err))
		}
	}

	property, err := uc.propertyRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		uc.logger.Error("Failed to get property by ID from repository", zap.Error(err), zap.String("property_id", id))
		return nil, fmt.Errorf("PropertyUsecase.GetPropertyByID: failed to get property from repo: %w", err)
	}

	item, err := uc.assembleListItem(ctx, property)
	if err != nil {
		return nil, fmt.Errorf("PropertyUsecase.GetPropertyByID: failed to assemble catalog row: %w", err)
	}

	if uc.cacheRepo != nil {
		itemBytes, marshalErr := json.Marshal(item)
		if marshalErr != nil {
			uc.logger.Warn("Failed to marshal property for caching", zap.Error(marshalErr), zap.String("property_id", id))
		} else {
			key := propertyCacheKey(id)
			if setErr := uc.cacheRepo.Set(ctx, key, itemBytes, propertyCacheTTL); setErr != nil {
				uc.logger.Warn("Failed to set property in cache", zap.String("key", key), zap.Error(setErr))
			}
		}
	}

	return item, nil
}

type CreatePropertyInput struct {
	OwnerID string
	Name    string
	Address string
	Price   float64
	Year    int
	Image   []byte
}

func (uc *PropertyUsecase) CreateProperty(ctx context.Context, input CreatePropertyInput) (string, error) {
	if _, err := uc.ownerRepo.FindByID(ctx, input.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrOwnerNotFound
		}
		uc.logger.Error("Failed to resolve owner for property creation", zap.Error(err), zap.String("owner_id", input.OwnerID))
		return "", fmt.Errorf("PropertyUsecase.CreateProperty: failed to resolve owner: %w", err)
	}

	archiveURL := uc.archiveImage(ctx, input.Image)

	property := &entity.Property{
		Name:    input.Name,
		Address: input.Address,
		Price:   input.Price,
		Year:    input.Year,
		OwnerID: input.OwnerID,
	}

	propertyID, err := uc.propertyRepo.Create(ctx, property, input.Image, archiveURL)
	if err != nil {
		uc.logger.Error("Failed to create property in repository", zap.Error(err), zap.String("owner_id", input.OwnerID))
		return "", fmt.Errorf("PropertyUsecase.CreateProperty: failed to create property in repo: %w", err)
	}
	property.ID = propertyID

	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPropertyCreated(ctx, property); pubErr != nil {
			uc.logger.Warn("Failed to publish property created event",
				zap.Error(pubErr),
				zap.String("property_id", propertyID),
			)
		}
	}

	return propertyID, nil
}

// UpdatePropertyInput carries the partial update: nil pointers leave the
// stored field untouched.
type UpdatePropertyInput struct {
	PropertyID string
	OwnerID    string
	Name       *string
	Address    *string
	Price      *float64
	Year       *int
	Image      []byte
}

func (uc *PropertyUsecase) UpdateProperty(ctx context.Context, input UpdatePropertyInput) error {
	property, err := uc.findOwnedProperty(ctx, input.PropertyID, input.OwnerID)
	if err != nil {
		return err
	}

	// Empty strings are treated the same as absent: this path cannot clear a
	// text field.
	if input.Name != nil && *input.Name != "" {
		property.Name = *input.Name
	}
	if input.Address != nil && *input.Address != "" {
		property.Address = *input.Address
	}
	if input.Price != nil {
		property.Price = *input.Price
	}
	if input.Year != nil {
		property.Year = *input.Year
	}

	if len(input.Image) > 0 {
		if err := uc.imageRepo.DisableAll(ctx, property.ID); err != nil {
			uc.logger.Error("Failed to disable previous images", zap.Error(err), zap.String("property_id", property.ID))
			return fmt.Errorf("PropertyUsecase.UpdateProperty: failed to disable previous images: %w", err)
		}
		archiveURL := uc.archiveImage(ctx, input.Image)
		if _, err := uc.imageRepo.Add(ctx, property.ID, input.Image, archiveURL); err != nil {
			uc.logger.Error("Failed to add new image", zap.Error(err), zap.String("property_id", property.ID))
			return fmt.Errorf("PropertyUsecase.UpdateProperty: failed to add new image: %w", err)
		}
	}

	if err := uc.propertyRepo.Update(ctx, property); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPropertyNotFound
		}
		uc.logger.Error("Failed to update property in repository", zap.Error(err), zap.String("property_id", property.ID))
		return fmt.Errorf("PropertyUsecase.UpdateProperty: failed to update property in repo: %w", err)
	}

	uc.invalidateCache(ctx, property.ID)

	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPropertyUpdated(ctx, property); pubErr != nil {
			uc.logger.Warn("Failed to publish property updated event",
				zap.Error(pubErr),
				zap.String("property_id", property.ID),
			)
		}
	}

	return nil
}

func (uc *PropertyUsecase) DeleteProperty(ctx context.Context, propertyID, ownerID string) error {
	property, err := uc.findOwnedProperty(ctx, propertyID, ownerID)
	if err != nil {
		return err
	}

	// Images go first: an orphaned image row is acceptable after a crash, a
	// deleted property with live images is not.
	if err := uc.imageRepo.DeleteAll(ctx, property.ID); err != nil {
		uc.logger.Error("Failed to delete property images", zap.Error(err), zap.String("property_id", property.ID))
		return fmt.Errorf("PropertyUsecase.DeleteProperty: failed to delete property images: %w", err)
	}

	if err := uc.propertyRepo.Delete(ctx, property.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPropertyNotFound
		}
		uc.logger.Error("Failed to delete property from repository", zap.Error(err), zap.String("property_id", property.ID))
		return fmt.Errorf("PropertyUsecase.DeleteProperty: failed to delete property from repo: %w", err)
	}

	uc.invalidateCache(ctx, property.ID)

	if uc.publisher != nil {
		if pubErr := uc.publisher.PublishPropertyDeleted(ctx, property.ID); pubErr != nil {
			uc.logger.Warn("Failed to publish property deleted event",
				zap.Error(pubErr),
				zap.String("property_id", property.ID),
			)
		}
	}

	return nil
}

// findOwnedProperty is the authorization gate for mutations: it resolves the
// property and checks ownership before anything is written. A missing property
// and a foreign owner produce the same error.
func (uc *PropertyUsecase) findOwnedProperty(ctx context.Context, propertyID, ownerID string) (*entity.Property, error) {
	property, err := uc.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPropertyNotFound
		}
		uc.logger.Error("Failed to get property for mutation", zap.Error(err), zap.String("property_id", propertyID))
		return nil, fmt.Errorf("failed to get property for mutation: %w", err)
	}

	if property.OwnerID != ownerID {
		uc.logger.Warn("Mutation attempt on property by non-owner",
			zap.String("property_id", propertyID),
			zap.String("property_owner_id", property.OwnerID),
			zap.String("requesting_owner_id", ownerID),
		)
		return nil, ErrPropertyNotFound
	}

	return property, nil
}

func (uc *PropertyUsecase) archiveImage(ctx context.Context, data []byte) string {
	if uc.archive == nil || len(data) == 0 {
		return ""
	}
	url, err := uc.archive.Store(ctx, data)
	if err != nil {
		uc.logger.Warn("Failed to archive image to object storage", zap.Error(err))
		return ""
	}
	return url
}

func (uc *PropertyUsecase) invalidateCache(ctx context.Context, propertyID string) {
	if uc.cacheRepo == nil {
		return
	}
	key := propertyCacheKey(propertyID)
	if err := uc.cacheRepo.Delete(ctx, key); err != nil {
		uc.logger.Warn("Failed to delete property from cache", zap.String("key", key), zap.Error(err))
	}
}
