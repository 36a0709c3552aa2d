package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/cache"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

type MockPropertyRepository struct{ mock.Mock }

func (m *MockPropertyRepository) FindFiltered(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*entity.Property), args.Get(1).(int64), args.Error(2)
}
func (m *MockPropertyRepository) FindByID(ctx context.Context, id string) (*entity.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Property), args.Error(1)
}
func (m *MockPropertyRepository) Create(ctx context.Context, property *entity.Property, imageData []byte, archiveURL string) (string, error) {
	args := m.Called(ctx, property, imageData, archiveURL)
	return args.String(0), args.Error(1)
}
func (m *MockPropertyRepository) Update(ctx context.Context, property *entity.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}
func (m *MockPropertyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockOwnerRepository struct{ mock.Mock }

func (m *MockOwnerRepository) FindByID(ctx context.Context, id string) (*entity.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Owner), args.Error(1)
}
func (m *MockOwnerRepository) FindByEmail(ctx context.Context, email string) (*entity.Owner, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Owner), args.Error(1)
}
func (m *MockOwnerRepository) Create(ctx context.Context, owner *entity.Owner) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

type MockPropertyImageRepository struct{ mock.Mock }

func (m *MockPropertyImageRepository) FindFirstEnabled(ctx context.Context, propertyID string) (*entity.PropertyImage, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PropertyImage), args.Error(1)
}
func (m *MockPropertyImageRepository) DisableAll(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}
func (m *MockPropertyImageRepository) Add(ctx context.Context, propertyID string, data []byte, archiveURL string) (string, error) {
	args := m.Called(ctx, propertyID, data, archiveURL)
	return args.String(0), args.Error(1)
}
func (m *MockPropertyImageRepository) DeleteAll(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishPropertyCreated(ctx context.Context, property *entity.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishPropertyUpdated(ctx context.Context, property *entity.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}
func (m *MockEventPublisher) PublishPropertyDeleted(ctx context.Context, propertyID string) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

type MockImageArchive struct{ mock.Mock }

func (m *MockImageArchive) Store(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

type propertyMocks struct {
	propertyRepo *MockPropertyRepository
	ownerRepo    *MockOwnerRepository
	imageRepo    *MockPropertyImageRepository
	cacheRepo    *MockCacheRepository
	publisher    *MockEventPublisher
	archive      *MockImageArchive
}

func newPropertyUsecaseWithMocks(t *testing.T) (*PropertyUsecase, *propertyMocks) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	m := &propertyMocks{
		propertyRepo: new(MockPropertyRepository),
		ownerRepo:    new(MockOwnerRepository),
		imageRepo:    new(MockPropertyImageRepository),
		cacheRepo:    new(MockCacheRepository),
		publisher:    new(MockEventPublisher),
		archive:      new(MockImageArchive),
	}
	uc := NewPropertyUsecase(m.propertyRepo, m.ownerRepo, m.imageRepo, m.cacheRepo, m.publisher, m.archive, logger)
	return uc, m
}

func TestPropertyUsecase_ListCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("AssemblesRowsWithOwnerAndImage", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		properties := []*entity.Property{
			{ID: "prop-1", Name: "Villa", Address: "Calle 1", Price: 100000, OwnerID: "owner-1"},
			{ID: "prop-2", Name: "Flat", Address: "Calle 2", Price: 50000, OwnerID: "owner-2"},
		}
		filter := entity.PropertyFilter{Page: 1, PageSize: 10}

		m.propertyRepo.On("FindFiltered", ctx, filter).Return(properties, int64(42), nil).Once()
		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1", Name: "Alice"}, nil).Once()
		m.ownerRepo.On("FindByID", ctx, "owner-2").Return(&entity.Owner{ID: "owner-2", Name: "Bob"}, nil).Once()
		m.imageRepo.On("FindFirstEnabled", ctx, "prop-1").
			Return(&entity.PropertyImage{ID: "img-1", PropertyID: "prop-1", Data: []byte{1, 2, 3}, Enabled: true}, nil).Once()
		m.imageRepo.On("FindFirstEnabled", ctx, "prop-2").Return(nil, repository.ErrNotFound).Once()

		page, err := uc.ListCatalog(ctx, filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(42), page.TotalCount)
		assert.Len(t, page.Properties, 2)
		assert.Equal(t, "Alice", page.Properties[0].OwnerName)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), page.Properties[0].FirstImage)
		assert.Equal(t, "Bob", page.Properties[1].OwnerName)
		assert.Empty(t, page.Properties[1].FirstImage)
		m.propertyRepo.AssertExpectations(t)
		m.ownerRepo.AssertExpectations(t)
		m.imageRepo.AssertExpectations(t)
	})

	t.Run("NormalizesPagination", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		normalized := entity.PropertyFilter{Page: 1, PageSize: 10}
		m.propertyRepo.On("FindFiltered", ctx, normalized).Return([]*entity.Property{}, int64(0), nil).Once()

		page, err := uc.ListCatalog(ctx, entity.PropertyFilter{Page: 0, PageSize: -5})

		assert.NoError(t, err)
		assert.Equal(t, int64(0), page.TotalCount)
		assert.Empty(t, page.Properties)
		m.propertyRepo.AssertExpectations(t)
	})

	t.Run("MissingOwnerYieldsEmptyOwnerName", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		properties := []*entity.Property{{ID: "prop-1", Name: "Villa", OwnerID: "gone"}}
		filter := entity.PropertyFilter{Page: 1, PageSize: 10}

		m.propertyRepo.On("FindFiltered", ctx, filter).Return(properties, int64(1), nil).Once()
		m.ownerRepo.On("FindByID", ctx, "gone").Return(nil, repository.ErrNotFound).Once()
		m.imageRepo.On("FindFirstEnabled", ctx, "prop-1").Return(nil, repository.ErrNotFound).Once()

		page, err := uc.ListCatalog(ctx, filter)

		assert.NoError(t, err)
		assert.Len(t, page.Properties, 1)
		assert.Empty(t, page.Properties[0].OwnerName)
	})

	t.Run("RepositoryErrorPropagates", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		repoErr := errors.New("db down")
		m.propertyRepo.On("FindFiltered", ctx, mock.Anything).Return(nil, int64(0), repoErr).Once()

		_, err := uc.ListCatalog(ctx, entity.PropertyFilter{})

		assert.ErrorIs(t, err, repoErr)
	})
}

func TestPropertyUsecase_GetPropertyByID(t *testing.T) {
	ctx := context.Background()

	t.Run("CacheHitSkipsRepositories", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		cached := &entity.PropertyListItem{ID: "prop-1", Name: "Villa", OwnerName: "Alice"}
		cachedBytes, _ := json.Marshal(cached)
		m.cacheRepo.On("Get", ctx, propertyCacheKey("prop-1")).Return(cachedBytes, nil).Once()

		item, err := uc.GetPropertyByID(ctx, "prop-1")

		assert.NoError(t, err)
		assert.Equal(t, cached, item)
		m.propertyRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
		m.cacheRepo.AssertExpectations(t)
	})

	t.Run("CacheMissAssemblesAndCaches", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.cacheRepo.On("Get", ctx, propertyCacheKey("prop-1")).Return(nil, cache.ErrNotFound).Once()
		m.propertyRepo.On("FindByID", ctx, "prop-1").
			Return(&entity.Property{ID: "prop-1", Name: "Villa", OwnerID: "owner-1"}, nil).Once()
		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1", Name: "Alice"}, nil).Once()
		m.imageRepo.On("FindFirstEnabled", ctx, "prop-1").Return(nil, repository.ErrNotFound).Once()
		m.cacheRepo.On("Set", ctx, propertyCacheKey("prop-1"), mock.Anything, propertyCacheTTL).Return(nil).Once()

		item, err := uc.GetPropertyByID(ctx, "prop-1")

		assert.NoError(t, err)
		assert.Equal(t, "Villa", item.Name)
		assert.Equal(t, "Alice", item.OwnerName)
		m.cacheRepo.AssertExpectations(t)
	})

	t.Run("UnknownPropertyReturnsNotFound", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.cacheRepo.On("Get", ctx, mock.Anything).Return(nil, cache.ErrNotFound).Once()
		m.propertyRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound).Once()

		_, err := uc.GetPropertyByID(ctx, "missing")

		assert.ErrorIs(t, err, ErrPropertyNotFound)
	})

	t.Run("CorruptedCacheEntryIsDroppedAndReassembled", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.cacheRepo.On("Get", ctx, propertyCacheKey("prop-1")).Return([]byte("{not json"), nil).Once()
		m.cacheRepo.On("Delete", ctx, propertyCacheKey("prop-1")).Return(nil).Once()
		m.propertyRepo.On("FindByID", ctx, "prop-1").
			Return(&entity.Property{ID: "prop-1", OwnerID: "owner-1"}, nil).Once()
		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1", Name: "Alice"}, nil).Once()
		m.imageRepo.On("FindFirstEnabled", ctx, "prop-1").Return(nil, repository.ErrNotFound).Once()
		m.cacheRepo.On("Set", ctx, propertyCacheKey("prop-1"), mock.Anything, propertyCacheTTL).Return(nil).Once()

		item, err := uc.GetPropertyByID(ctx, "prop-1")

		assert.NoError(t, err)
		assert.Equal(t, "prop-1", item.ID)
		m.cacheRepo.AssertExpectations(t)
	})
}

func TestPropertyUsecase_CreateProperty(t *testing.T) {
	ctx := context.Background()
	input := CreatePropertyInput{
		OwnerID: "owner-1",
		Name:    "Villa",
		Address: "Calle 1",
		Price:   100000,
		Year:    2020,
		Image:   []byte{0xFF, 0xD8},
	}

	t.Run("Success", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1", Name: "Alice"}, nil).Once()
		m.archive.On("Store", ctx, input.Image).Return("http://minio/properties/abc", nil).Once()
		m.propertyRepo.On("Create", ctx, mock.AnythingOfType("*entity.Property"), input.Image, "http://minio/properties/abc").
			Return("prop-1", nil).Once()
		m.publisher.On("PublishPropertyCreated", ctx, mock.AnythingOfType("*entity.Property")).Return(nil).Once()

		id, err := uc.CreateProperty(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "prop-1", id)
		m.propertyRepo.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("UnknownOwnerBlocksCreation", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(nil, repository.ErrNotFound).Once()

		_, err := uc.CreateProperty(ctx, input)

		assert.ErrorIs(t, err, ErrOwnerNotFound)
		m.propertyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.archive.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	})

	t.Run("ArchiveFailureIsNotFatal", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1"}, nil).Once()
		m.archive.On("Store", ctx, input.Image).Return("", errors.New("minio down")).Once()
		m.propertyRepo.On("Create", ctx, mock.AnythingOfType("*entity.Property"), input.Image, "").
			Return("prop-1", nil).Once()
		m.publisher.On("PublishPropertyCreated", ctx, mock.AnythingOfType("*entity.Property")).Return(nil).Once()

		id, err := uc.CreateProperty(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "prop-1", id)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.ownerRepo.On("FindByID", ctx, "owner-1").Return(&entity.Owner{ID: "owner-1"}, nil).Once()
		m.archive.On("Store", ctx, input.Image).Return("url", nil).Once()
		m.propertyRepo.On("Create", ctx, mock.AnythingOfType("*entity.Property"), input.Image, "url").
			Return("prop-1", nil).Once()
		m.publisher.On("PublishPropertyCreated", ctx, mock.AnythingOfType("*entity.Property")).
			Return(errors.New("nats down")).Once()

		id, err := uc.CreateProperty(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "prop-1", id)
	})
}

func TestPropertyUsecase_UpdateProperty(t *testing.T) {
	ctx := context.Background()
	stored := func() *entity.Property {
		return &entity.Property{
			ID:      "prop-1",
			Name:    "Villa",
			Address: "Calle 1",
			Price:   100000,
			Year:    2020,
			OwnerID: "owner-1",
		}
	}

	t.Run("PartialUpdateTouchesOnlyProvidedFields", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		newPrice := 120000.0
		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored(), nil).Once()
		m.propertyRepo.On("Update", ctx, mock.MatchedBy(func(p *entity.Property) bool {
			return p.Price == newPrice && p.Name == "Villa" && p.Address == "Calle 1" && p.Year == 2020
		})).Return(nil).Once()
		m.cacheRepo.On("Delete", ctx, propertyCacheKey("prop-1")).Return(nil).Once()
		m.publisher.On("PublishPropertyUpdated", ctx, mock.AnythingOfType("*entity.Property")).Return(nil).Once()

		err := uc.UpdateProperty(ctx, UpdatePropertyInput{
			PropertyID: "prop-1",
			OwnerID:    "owner-1",
			Price:      &newPrice,
		})

		assert.NoError(t, err)
		m.propertyRepo.AssertExpectations(t)
		m.imageRepo.AssertNotCalled(t, "DisableAll", mock.Anything, mock.Anything)
	})

	t.Run("EmptyStringDoesNotClearTextField", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		empty := ""
		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored(), nil).Once()
		m.propertyRepo.On("Update", ctx, mock.MatchedBy(func(p *entity.Property) bool {
			return p.Name == "Villa"
		})).Return(nil).Once()
		m.cacheRepo.On("Delete", ctx, mock.Anything).Return(nil).Once()
		m.publisher.On("PublishPropertyUpdated", ctx, mock.Anything).Return(nil).Once()

		err := uc.UpdateProperty(ctx, UpdatePropertyInput{
			PropertyID: "prop-1",
			OwnerID:    "owner-1",
			Name:       &empty,
		})

		assert.NoError(t, err)
		m.propertyRepo.AssertExpectations(t)
	})

	t.Run("NewImageDisablesPreviousOnesFirst", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		newImage := []byte{0xCA, 0xFE}
		var disabledBeforeAdd bool
		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored(), nil).Once()
		m.imageRepo.On("DisableAll", ctx, "prop-1").Run(func(mock.Arguments) {
			disabledBeforeAdd = true
		}).Return(nil).Once()
		m.archive.On("Store", ctx, newImage).Return("url", nil).Once()
		m.imageRepo.On("Add", ctx, "prop-1", newImage, "url").Run(func(mock.Arguments) {
			assert.True(t, disabledBeforeAdd, "Add must run after DisableAll")
		}).Return("img-2", nil).Once()
		m.propertyRepo.On("Update", ctx, mock.Anything).Return(nil).Once()
		m.cacheRepo.On("Delete", ctx, mock.Anything).Return(nil).Once()
		m.publisher.On("PublishPropertyUpdated", ctx, mock.Anything).Return(nil).Once()

		err := uc.UpdateProperty(ctx, UpdatePropertyInput{
			PropertyID: "prop-1",
			OwnerID:    "owner-1",
			Image:      newImage,
		})

		assert.NoError(t, err)
		m.imageRepo.AssertExpectations(t)
	})

	t.Run("ForeignOwnerLooksLikeNotFound", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored(), nil).Once()

		newName := "Hijacked"
		err := uc.UpdateProperty(ctx, UpdatePropertyInput{
			PropertyID: "prop-1",
			OwnerID:    "intruder",
			Name:       &newName,
		})

		assert.ErrorIs(t, err, ErrPropertyNotFound)
		m.propertyRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		m.imageRepo.AssertNotCalled(t, "DisableAll", mock.Anything, mock.Anything)
	})

	t.Run("UnknownPropertyReturnsNotFound", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.propertyRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound).Once()

		err := uc.UpdateProperty(ctx, UpdatePropertyInput{PropertyID: "missing", OwnerID: "owner-1"})

		assert.ErrorIs(t, err, ErrPropertyNotFound)
	})
}

func TestPropertyUsecase_DeleteProperty(t *testing.T) {
	ctx := context.Background()
	stored := &entity.Property{ID: "prop-1", OwnerID: "owner-1"}

	t.Run("DeletesImagesBeforeProperty", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		var imagesDeleted bool
		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored, nil).Once()
		m.imageRepo.On("DeleteAll", ctx, "prop-1").Run(func(mock.Arguments) {
			imagesDeleted = true
		}).Return(nil).Once()
		m.propertyRepo.On("Delete", ctx, "prop-1").Run(func(mock.Arguments) {
			assert.True(t, imagesDeleted, "images must be deleted before the property record")
		}).Return(nil).Once()
		m.cacheRepo.On("Delete", ctx, propertyCacheKey("prop-1")).Return(nil).Once()
		m.publisher.On("PublishPropertyDeleted", ctx, "prop-1").Return(nil).Once()

		err := uc.DeleteProperty(ctx, "prop-1", "owner-1")

		assert.NoError(t, err)
		m.imageRepo.AssertExpectations(t)
		m.propertyRepo.AssertExpectations(t)
		m.publisher.AssertExpectations(t)
	})

	t.Run("ForeignOwnerLooksLikeNotFound", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored, nil).Once()

		err := uc.DeleteProperty(ctx, "prop-1", "intruder")

		assert.ErrorIs(t, err, ErrPropertyNotFound)
		m.propertyRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.imageRepo.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything)
	})

	t.Run("ImageDeletionFailureAbortsDelete", func(t *testing.T) {
		uc, m := newPropertyUsecaseWithMocks(t)

		imgErr := errors.New("db down")
		m.propertyRepo.On("FindByID", ctx, "prop-1").Return(stored, nil).Once()
		m.imageRepo.On("DeleteAll", ctx, "prop-1").Return(imgErr).Once()

		err := uc.DeleteProperty(ctx, "prop-1", "owner-1")

		assert.ErrorIs(t, err, imgErr)
		m.propertyRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
