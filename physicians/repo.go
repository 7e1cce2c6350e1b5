package physicians

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/pulseox-org/pulseox/store"
)

const (
	physiciansCollectionName = "physicians"
)

type Repository interface {
	Service
}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(physiciansCollectionName),
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
				{Key: "email", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("UniquePhysicianEmail"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, email string) (*Physician, error) {
	physician := &Physician{}
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(physician)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return physician, nil
}

func (r *repository) GetById(ctx context.Context, id primitive.ObjectID) (*Physician, error) {
	physician := &Physician{}
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(physician)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return physician, nil
}

func (r *repository) List(ctx context.Context, pagination store.Pagination) ([]*Physician, error) {
	opts := options.Find().
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing physicians: %w", err)
	}

	var physicians []*Physician
	if err = cursor.All(ctx, &physicians); err != nil {
		return nil, fmt.Errorf("error decoding physicians list: %w", err)
	}

	return physicians, nil
}

func (r *repository) Create(ctx context.Context, physician Physician) (*Physician, error) {
	if _, err := r.collection.InsertOne(ctx, physician); err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating physician: %w", err)
	}

	return r.Get(ctx, physician.Email)
}

func (r *repository) Update(ctx context.Context, email string, update Update) (*Physician, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Specialty != nil {
		set["specialty"] = *update.Specialty
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if len(set) == 0 {
		return r.Get(ctx, email)
	}

	err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": set}).Err()
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return r.Get(ctx, email)
}

func (r *repository) UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error {
	update := bson.M{
		"$set": bson.M{
			"passwordHash": passwordHash,
		},
	}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": email}, update).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}
