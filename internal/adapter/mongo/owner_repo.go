package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

const ownerCollectionName = "owners"

type OwnerMongoRepository struct {
	db     *mongo.Database
	logger *zap.Logger
}

// NewOwnerMongoRepository ensures the unique email index before returning;
// duplicate registrations are rejected at the store level.
func NewOwnerMongoRepository(client *mongo.Client, dbName string, logger *zap.Logger) *OwnerMongoRepository {
	db := client.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := db.Collection(ownerCollectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn("Failed to create unique email index for owners collection (may already exist)", zap.Error(err))
	}

	return &OwnerMongoRepository{
		db:     db,
		logger: logger,
	}
}

type ownerDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Address      string    `bson:"address"`
	Photo        string    `bson:"photo"`
	Birthday     time.Time `bson:"birthday"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	PasswordSalt string    `bson:"password_salt"`
}

func toOwnerDocument(o *entity.Owner) *ownerDocument {
	return &ownerDocument{
		ID:           o.ID,
		Name:         o.Name,
		Address:      o.Address,
		Photo:        o.Photo,
		Birthday:     o.Birthday,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		PasswordSalt: o.PasswordSalt,
	}
}

func toOwnerEntity(doc *ownerDocument) *entity.Owner {
	return &entity.Owner{
		ID:           doc.ID,
		Name:         doc.Name,
		Address:      doc.Address,
		Photo:        doc.Photo,
		Birthday:     doc.Birthday,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		PasswordSalt: doc.PasswordSalt,
	}
}

func (r *OwnerMongoRepository) FindByID(ctx context.Context, id string) (*entity.Owner, error) {
	var doc ownerDocument
	err := r.db.Collection(ownerCollectionName).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get owner by id from mongo: %w", err)
	}
	return toOwnerEntity(&doc), nil
}

func (r *OwnerMongoRepository) FindByEmail(ctx context.Context, email string) (*entity.Owner, error) {
	var doc ownerDocument
	err := r.db.Collection(ownerCollectionName).FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get owner by email from mongo: %w", err)
	}
	return toOwnerEntity(&doc), nil
}

func (r *OwnerMongoRepository) Create(ctx context.Context, owner *entity.Owner) error {
	doc := toOwnerDocument(owner)

	_, err := r.db.Collection(ownerCollectionName).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create owner in mongo: %w", err)
	}
	return nil
}
