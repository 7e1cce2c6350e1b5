package readings

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/pulseox-org/pulseox/store"
)

const (
	readingsCollectionName = "readings"
)

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(readingsCollectionName),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type repository struct {
	collection *mongo.Collection
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "deviceSerialNumber", Value: 1},
				{Key: "timestamp", Value: 1},
			},
			Options: options.Index().
				SetName("DeviceReadingsByTime"),
		},
	})
	return err
}

func (r *repository) List(ctx context.Context, filter *Filter, sort *store.Sort) ([]*Reading, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(bson.D{{Key: sort.Attribute, Value: sort.Order()}})
	}

	cursor, err := r.collection.Find(ctx, readingsSelector(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error listing readings: %w", err)
	}

	var result []*Reading
	if err = cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("error decoding readings list: %w", err)
	}

	return result, nil
}

func (r *repository) EarliestTimestamp(ctx context.Context, deviceSerialNumbers []string) (time.Time, error) {
	return r.extremeTimestamp(ctx, deviceSerialNumbers, &store.Sort{Attribute: "timestamp", Ascending: true})
}

func (r *repository) LatestTimestamp(ctx context.Context, deviceSerialNumbers []string) (time.Time, error) {
	return r.extremeTimestamp(ctx, deviceSerialNumbers, &store.Sort{Attribute: "timestamp", Ascending: false})
}

func (r *repository) extremeTimestamp(ctx context.Context, deviceSerialNumbers []string, sort *store.Sort) (time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: sort.Attribute, Value: sort.Order()}})
	selector := readingsSelector(&Filter{DeviceSerialNumbers: deviceSerialNumbers})

	reading := &Reading{}
	err := r.collection.FindOne(ctx, selector, opts).Decode(reading)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, ErrNotFound
	} else if err != nil {
		return time.Time{}, err
	}

	return reading.Timestamp, nil
}

func (r *repository) Create(ctx context.Context, reading Reading) (*Reading, error) {
	res, err := r.collection.InsertOne(ctx, reading)
	if err != nil {
		return nil, fmt.Errorf("error creating reading: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		reading.Id = &id
	}
	return &reading, nil
}

func (r *repository) CreateMany(ctx context.Context, list []Reading) error {
	if len(list) == 0 {
		return nil
	}
	documents := make([]interface{}, len(list))
	for i, reading := range list {
		documents[i] = reading
	}
	if _, err := r.collection.InsertMany(ctx, documents); err != nil {
		return fmt.Errorf("error creating readings: %w", err)
	}
	return nil
}

func readingsSelector(filter *Filter) bson.M {
	selector := bson.M{
		"deviceSerialNumber": bson.M{
			"$in": filter.DeviceSerialNumbers,
		},
	}
	if filter.Range != nil {
		selector["timestamp"] = bson.M{
			"$gte": filter.Range.Start,
			"$lt":  filter.Range.End,
		}
	}
	return selector
}
