package readings

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pulseox-org/pulseox/store"
)

var ErrNotFound = errors.New("no readings found")

//go:generate mockgen --build_flags=--mod=mod -source=./readings.go -destination=./test/mock_repository.go -package test MockRepository

// Reading is a single vitals sample reported by a device. Readings are
// append-only and are never updated after ingestion. A channel that the
// device did not report is nil.
type Reading struct {
	Id                 *primitive.ObjectID `bson:"_id,omitempty"`
	DeviceSerialNumber string              `bson:"deviceSerialNumber"`
	HeartRate          *float64            `bson:"heart_rate,omitempty"`
	Spo2               *float64            `bson:"spo2,omitempty"`
	Timestamp          time.Time           `bson:"timestamp"`
}

// TimeRange is half-open: Start is inclusive, End is exclusive.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

type Filter struct {
	DeviceSerialNumbers []string
	Range               *TimeRange
}

type Repository interface {
	List(ctx context.Context, filter *Filter, sort *store.Sort) ([]*Reading, error)
	EarliestTimestamp(ctx context.Context, deviceSerialNumbers []string) (time.Time, error)
	LatestTimestamp(ctx context.Context, deviceSerialNumbers []string) (time.Time, error)
	Create(ctx context.Context, reading Reading) (*Reading, error)
	CreateMany(ctx context.Context, readings []Reading) error
}
