package repository

import (
	"context"

	"github.com/realestate-platform/property-service/internal/entity"
)

type OwnerRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Owner, error)
	FindByEmail(ctx context.Context, email string) (*entity.Owner, error)
	Create(ctx context.Context, owner *entity.Owner) error
}
