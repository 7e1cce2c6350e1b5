package physicians

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/pulseox-org/pulseox/store"
)

type service struct {
	repo   Repository
	logger *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repo Repository, logger *zap.SugaredLogger) (Service, error) {
	return &service{
		repo:   repo,
		logger: logger,
	}, nil
}

func (s *service) Get(ctx context.Context, email string) (*Physician, error) {
	return s.repo.Get(ctx, email)
}

func (s *service) GetById(ctx context.Context, id primitive.ObjectID) (*Physician, error) {
	return s.repo.GetById(ctx, id)
}

func (s *service) List(ctx context.Context, pagination store.Pagination) ([]*Physician, error) {
	return s.repo.List(ctx, pagination)
}

func (s *service) Create(ctx context.Context, physician Physician) (*Physician, error) {
	created, err := s.repo.Create(ctx, physician)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("registered new physician", "email", created.Email)
	return created, nil
}

func (s *service) Update(ctx context.Context, email string, update Update) (*Physician, error) {
	return s.repo.Update(ctx, email, update)
}

func (s *service) UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error {
	return s.repo.UpdatePasswordHash(ctx, email, passwordHash)
}
