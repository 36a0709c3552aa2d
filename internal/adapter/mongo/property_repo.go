package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/realestate-platform/property-service/internal/entity"
	"github.com/realestate-platform/property-service/internal/port/repository"
)

const (
	propertyCollectionName = "properties"
	counterCollectionName  = "counters"
	propertyCodeCounterID  = "property_code"
)

type PropertyMongoRepository struct {
	db *mongo.Database
}

func NewPropertyMongoRepository(client *mongo.Client, dbName string) *PropertyMongoRepository {
	return &PropertyMongoRepository{
		db: client.Database(dbName),
	}
}

type propertyDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Address      string             `bson:"address"`
	Price        float64            `bson:"price"`
	CodeInternal string             `bson:"code_internal"`
	Year         int                `bson:"year"`
	OwnerID      string             `bson:"owner_id"`
}

func toPropertyDocument(p *entity.Property) (*propertyDocument, error) {
	doc := &propertyDocument{
		Name:         p.Name,
		Address:      p.Address,
		Price:        p.Price,
		CodeInternal: p.CodeInternal,
		Year:         p.Year,
		OwnerID:      p.OwnerID,
	}
	if p.ID != "" {
		objID, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid property ID format: %w", err)
		}
		doc.ID = objID
	}
	return doc, nil
}

func toPropertyEntity(doc *propertyDocument) *entity.Property {
	return &entity.Property{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Address:      doc.Address,
		Price:        doc.Price,
		CodeInternal: doc.CodeInternal,
		Year:         doc.Year,
		OwnerID:      doc.OwnerID,
	}
}

func buildPropertyFilter(filter entity.PropertyFilter) bson.M {
	mongoFilter := bson.M{}
	if filter.Name != "" {
		mongoFilter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Name), Options: "i"}
	}
	if filter.Address != "" {
		mongoFilter["address"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Address), Options: "i"}
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		mongoFilter["price"] = price
	}

	return mongoFilter
}

func (r *PropertyMongoRepository) FindFiltered(ctx context.Context, filter entity.PropertyFilter) ([]*entity.Property, int64, error) {
	mongoFilter := buildPropertyFilter(filter)

	skip := int64((filter.Page - 1) * filter.PageSize)
	limit := int64(filter.PageSize)

	findOptions := options.Find()
	findOptions.SetSkip(skip)
	findOptions.SetLimit(limit)
	// Stable order keeps pagination deterministic across calls.
	findOptions.SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.db.Collection(propertyCollectionName).Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []propertyDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode property list from mongo: %w", err)
	}

	properties := make([]*entity.Property, len(docs))
	for i, doc := range docs {
		properties[i] = toPropertyEntity(&doc)
	}

	totalCount, err := r.db.Collection(propertyCollectionName).CountDocuments(ctx, mongoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count properties in mongo: %w", err)
	}

	return properties, totalCount, nil
}

func (r *PropertyMongoRepository) FindByID(ctx context.Context, id string) (*entity.Property, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc propertyDocument
	err = r.db.Collection(propertyCollectionName).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property by id from mongo: %w", err)
	}
	return toPropertyEntity(&doc), nil
}

// nextInternalCode allocates the next sequential code from the counter
// document with an atomic increment, so concurrent creates never share a code.
func (r *PropertyMongoRepository) nextInternalCode(ctx context.Context) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := r.db.Collection(counterCollectionName).FindOneAndUpdate(
		ctx,
		bson.M{"_id": propertyCodeCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return "", fmt.Errorf("failed to allocate internal code: %w", err)
	}

	return strconv.FormatInt(counter.Seq, 10), nil
}

func (r *PropertyMongoRepository) Create(ctx context.Context, property *entity.Property, imageData []byte, archiveURL string) (string, error) {
	code, err := r.nextInternalCode(ctx)
	if err != nil {
		return "", err
	}
	property.CodeInternal = code

	doc, err := toPropertyDocument(property)
	if err != nil {
		return "", err
	}

	res, err := r.db.Collection(propertyCollectionName).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to create property in mongo: %w", err)
	}

	insertedID, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("failed to convert inserted_id to ObjectID")
	}
	propertyID := insertedID.Hex()

	imageDoc := propertyImageDocument{
		PropertyID: propertyID,
		Data:       imageData,
		Enabled:    true,
		ArchiveURL: archiveURL,
	}
	if _, err := r.db.Collection(propertyImageCollectionName).InsertOne(ctx, imageDoc); err != nil {
		return "", fmt.Errorf("failed to create property image in mongo: %w", err)
	}

	return propertyID, nil
}

func (r *PropertyMongoRepository) Update(ctx context.Context, property *entity.Property) error {
	doc, err := toPropertyDocument(property)
	if err != nil {
		return err
	}
	if doc.ID.IsZero() {
		return fmt.Errorf("property ID is required for update")
	}

	res, err := r.db.Collection(propertyCollectionName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update property in mongo: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PropertyMongoRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	res, err := r.db.Collection(propertyCollectionName).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete property from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
