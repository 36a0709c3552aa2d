package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

const propertyImageCollectionName = "property_images"

type PropertyImageMongoRepository struct {
	db *mongo.Database
}

func NewPropertyImageMongoRepository(client *mongo.Client, dbName string) *PropertyImageMongoRepository {
	return &PropertyImageMongoRepository{
		db: client.Database(dbName),
	}
}

type propertyImageDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	PropertyID string             `bson:"property_id"`
	Data       []byte             `bson:"data"`
	Enabled    bool               `bson:"enabled"`
	ArchiveURL string             `bson:"archive_url,omitempty"`
}

func toPropertyImageEntity(doc *propertyImageDocument) *entity.PropertyImage {
	return &entity.PropertyImage{
		ID:         doc.ID.Hex(),
		PropertyID: doc.PropertyID,
		Data:       doc.Data,
		Enabled:    doc.Enabled,
		ArchiveURL: doc.ArchiveURL,
	}
}

func (r *PropertyImageMongoRepository) FindFirstEnabled(ctx context.Context, propertyID string) (*entity.PropertyImage, error) {
	filter := bson.M{
		"property_id": propertyID,
		"enabled":     true,
	}

	var doc propertyImageDocument
	err := r.db.Collection(propertyImageCollectionName).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get first enabled image from mongo: %w", err)
	}
	return toPropertyImageEntity(&doc), nil
}

func (r *PropertyImageMongoRepository) DisableAll(ctx context.Context, propertyID string) error {
	filter := bson.M{"property_id": propertyID}
	update := bson.M{"$set": bson.M{"enabled": false}}

	_, err := r.db.Collection(propertyImageCollectionName).UpdateMany(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to disable images in mongo: %w", err)
	}
	return nil
}

func (r *PropertyImageMongoRepository) Add(ctx context.Context, propertyID string, data []byte, archiveURL string) (string, error) {
	doc := propertyImageDocument{
		PropertyID: propertyID,
		Data:       data,
		Enabled:    true,
		ArchiveURL: archiveURL,
	}

	res, err := r.db.Collection(propertyImageCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to add property image in mongo: %w", err)
	}

	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	return insertedID.Hex(), nil
}

func (r *PropertyImageMongoRepository) DeleteAll(ctx context.Context, propertyID string) error {
	filter := bson.M{"property_id": propertyID}

	_, err := r.db.Collection(propertyImageCollectionName).DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete images from mongo: %w", err)
	}
	return nil
}
