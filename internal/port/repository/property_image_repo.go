package repository

import (
	"context"

	"github.com/realestate-platform/property-service/internal/entity"
)

type PropertyImageRepository interface {
	// FindFirstEnabled returns the property's representative image: the first
	// row whose property reference matches and whose enabled flag is set.
	FindFirstEnabled(ctx context.Context, propertyID string) (*entity.PropertyImage, error)
	// DisableAll clears the enabled flag on every image row of the property.
	// Idempotent.
	DisableAll(ctx context.Context, propertyID string) error
	Add(ctx context.Context, propertyID string, data []byte, archiveURL string) (string, error)
	DeleteAll(ctx context.Context, propertyID string) error
}
