package mocks

import (
	"context"

	"mediaapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRecordingRepository struct {
	mock.Mock
}

func (m *MockRecordingRepository) Create(ctx context.Context, rec *model.Recording) (*model.Recording, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if f, ok := args.Get(0).(func(context.Context, *model.Recording) *model.Recording); ok {
		return f(ctx, rec), args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) FindByID(ctx context.Context, id int64) (*model.Recording, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) List(ctx context.Context) ([]model.Recording, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recording), args.Error(1)
}

func (m *MockRecordingRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
