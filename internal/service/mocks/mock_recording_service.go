package mocks

import (
	"context"
	"io"

	"mediaapi/internal/model"
	"mediaapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) Ingest(ctx context.Context, r io.Reader, originalName, contentType string) (*model.Recording, error) {
	args := m.Called(ctx, r, originalName, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingService) List(ctx context.Context) ([]model.Recording, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recording), args.Error(1)
}

func (m *MockRecordingService) Deliver(ctx context.Context, id int64, rangeHeader string) (*service.Delivery, error) {
	args := m.Called(ctx, id, rangeHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Delivery), args.Error(1)
}

func (m *MockRecordingService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordingService) Reconcile(ctx context.Context, opts service.ReconcileOptions) (*service.ReconcileReport, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileReport), args.Error(1)
}
