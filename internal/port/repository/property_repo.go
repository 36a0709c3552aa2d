package repository

import (
	"context"

	"github.com/realestate-platform/property-service/internal/entity"
)

type PropertyRepository interface {
	// FindFiltered returns one page of matching properties together with the
	// total match count ignoring pagination.
	FindFiltered(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, int64, error)
	FindByID(ctx context.Context, id string) (*entity.Property, error)
	// Create assigns the property's internal code, inserts it and one enabled
	// image row holding imageData, and returns the new property id.
	Create(ctx context.Context, property *entity.Property, imageData []byte, archiveURL string) (string, error)
	Update(ctx context.Context, property *entity.Property) error
	Delete(ctx context.Context, id string) error
}
