package records

import (
	"context"
	"errors"
	"time"

	"github.com/filedrop/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores records as documents of one collection.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return NewMongoRepository(client, client.Database(database).Collection(collection)), nil
}

// NewMongoRepository wraps an existing collection. client may be nil, in
// which case Close is a no-op.
func NewMongoRepository(client *mongo.Client, collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{
		client:     client,
		collection: collection,
	}
}

func (r *MongoRepository) Insert(ctx context.Context, record models.UploadRecord) (models.UploadRecord, error) {
	if err := Validate(record); err != nil {
		return models.UploadRecord{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	record.ID = primitive.NilObjectID
	record.CreatedAt = now
	record.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return models.UploadRecord{}, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.UploadRecord{}, errors.New("unexpected insert id type")
	}
	record.ID = id
	return record, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]models.UploadRecord, error) {
	cur, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := make([]models.UploadRecord, 0)
	for cur.Next(ctx) {
		var doc models.UploadRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(ctx)
}
