package patients

import (
	"context"

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

func (s *service) Get(ctx context.Context, email string) (*Patient, error) {
	return s.repo.Get(ctx, email)
}

func (s *service) List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error) {
	return s.repo.List(ctx, filter, pagination)
}

func (s *service) Create(ctx context.Context, patient Patient) (*Patient, error) {
	created, err := s.repo.Create(ctx, patient)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("registered new patient", "email", created.Email)
	return created, nil
}

func (s *service) Update(ctx context.Context, email string, update Update) (*Patient, error) {
	return s.repo.Update(ctx, email, update)
}

func (s *service) UpdatePasswordHash(ctx context.Context, email string, passwordHash string) error {
	return s.repo.UpdatePasswordHash(ctx, email, passwordHash)
}

func (s *service) AddDevice(ctx context.Context, email string, device Device) (*Patient, error) {
	patient, err := s.repo.AddDevice(ctx, email, device)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("registered device", "email", email, "serialNumber", device.SerialNumber)
	return patient, nil
}

func (s *service) UpdateDeviceSettings(ctx context.Context, email string, serialNumber string, settings DeviceSettings) (*Patient, error) {
	return s.repo.UpdateDeviceSettings(ctx, email, serialNumber, settings)
}

func (s *service) RemoveDevice(ctx context.Context, email string, serialNumber string) (*Patient, error) {
	patient, err := s.repo.RemoveDevice(ctx, email, serialNumber)
	if err != nil {
		return nil, err
	}
	s.logger.Infow("removed device", "email", email, "serialNumber", serialNumber)
	return patient, nil
}
