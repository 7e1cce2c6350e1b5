package patients

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/pulseox-org/pulseox/store"
)

const (
	patientsCollectionName = "patients"
)

type Repository interface {
	Service
}

func NewRepository(db *mongo.Database, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(patientsCollectionName),
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
				SetName("UniquePatientEmail"),
		},
		{
			Keys: bson.D{
				{Key: "assignedPhysician", Value: 1},
			},
			Options: options.Index().
				SetName("PatientsByPhysician"),
		},
	})
	return err
}

func (r *repository) Get(ctx context.Context, email string) (*Patient, error) {
	patient := &Patient{}
	err := r.collection.FindOne(ctx, emailSelector(email)).Decode(patient)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	return patient, nil
}

func (r *repository) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	opts := options.Find().
		SetLimit(int64(pagination.Limit)).
		SetSkip(int64(pagination.Offset))

	selector := bson.M{}
	if filter.Email != nil {
		selector["email"] = *filter.Email
	}
	if filter.AssignedPhysician != nil {
		selector["assignedPhysician"] = *filter.AssignedPhysician
	}

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing patients: %w", err)
	}

	var patients []*Patient
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("error decoding patients list: %w", err)
	}

	return patients, nil
}

func (r *repository) Create(ctx context.Context, patient Patient) (*Patient, error) {
	if patient.Devices == nil {
		patient.Devices = []Device{}
	}
	if _, err := r.collection.InsertOne(ctx, patient); err != nil {
		if store.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error creating patient: %w", err)
	}

	return r.Get(ctx, patient.Email)
}

func (r *repository) Update(ctx context.Context, email string, update Update) (*Patient, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.AssignedPhysician != nil {
		set["assignedPhysician"] = *update.AssignedPhysician
	}
	if len(set) == 0 {
		return r.Get(ctx, email)
	}

	err := r.collection.FindOneAndUpdate(ctx, emailSelector(email), bson.M{"$set": set}).Err()
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
	err := r.collection.FindOneAndUpdate(ctx, emailSelector(email), update).Err()
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

func (r *repository) AddDevice(ctx context.Context, email string, device Device) (*Patient, error) {
	selector := emailSelector(email)
	selector["devices.serialNumber"] = bson.M{
		"$ne": device.SerialNumber,
	}

	update := bson.M{
		"$push": bson.M{
			"devices": device,
		},
	}
	err := r.collection.FindOneAndUpdate(ctx, selector, update).Err()
	if err == mongo.ErrNoDocuments {
		// Distinguish a missing patient from an already registered device
		if _, getErr := r.Get(ctx, email); getErr != nil {
			return nil, getErr
		}
		return nil, ErrDuplicateDevice
	} else if err != nil {
		return nil, err
	}

	return r.Get(ctx, email)
}

func (r *repository) UpdateDeviceSettings(ctx context.Context, email string, serialNumber string, settings DeviceSettings) (*Patient, error) {
	selector := emailSelector(email)
	selector["devices.serialNumber"] = strings.TrimSpace(serialNumber)

	update := bson.M{
		"$set": bson.M{
			"devices.$.startTime":          settings.StartTime,
			"devices.$.endTime":            settings.EndTime,
			"devices.$.frequencyOfReading": settings.FrequencyOfReading,
		},
	}
	err := r.collection.FindOneAndUpdate(ctx, selector, update).Err()
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.Get(ctx, email); getErr != nil {
			return nil, getErr
		}
		return nil, ErrDeviceNotFound
	} else if err != nil {
		return nil, err
	}

	return r.Get(ctx, email)
}

func (r *repository) RemoveDevice(ctx context.Context, email string, serialNumber string) (*Patient, error) {
	selector := emailSelector(email)
	selector["devices.serialNumber"] = strings.TrimSpace(serialNumber)

	update := bson.M{
		"$pull": bson.M{
			"devices": bson.M{
				"serialNumber": strings.TrimSpace(serialNumber),
			},
		},
	}
	err := r.collection.FindOneAndUpdate(ctx, selector, update).Err()
	if err == mongo.ErrNoDocuments {
		if _, getErr := r.Get(ctx, email); getErr != nil {
			return nil, getErr
		}
		return nil, ErrDeviceNotFound
	} else if err != nil {
		return nil, err
	}

	return r.Get(ctx, email)
}

func emailSelector(email string) bson.M {
	return bson.M{
		"email": email,
	}
}
