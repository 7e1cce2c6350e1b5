package physicians

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pulseox-org/pulseox/store"
)

var (
	ErrNotFound  = errors.New("physician not found")
	ErrDuplicate = errors.New("physician is already registered")
)

type Service interface {
	Get(ctx context.Context, email string) (*Physician, error)
	GetById(ctx context.Context, id primitive.ObjectID) (*Physician, error)
	List(ctx context.Context, pagination store.Pagination) ([]*Physician, error)
	Create(ctx context.Context, physician Physician) (*Physician, error)
	Update(ctx context.Context, email string, update Update) (*Physician, error)
	UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error
}

type Physician struct {
	Id           *primitive.ObjectID `bson:"_id,omitempty"`
	Email        string              `bson:"email"`
	PasswordHash string              `bson:"passwordHash"`
	Name         string              `bson:"name"`
	Specialty    string              `bson:"specialty,omitempty"`
	Phone        string              `bson:"phone"`
}

type Update struct {
	Name      *string
	Specialty *string
	Phone     *string
}
