package mocks

import (
	"context"
	"time"

	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/stretchr/testify/mock"
)

type RecipientRepository struct {
	mock.Mock
}

func (r *RecipientRepository) CreateBatch(ctx context.Context, recipients []model.Recipient) error {
	args := r.Called(ctx, recipients)
	return args.Error(0)
}

func (r *RecipientRepository) Update(ctx context.Context, recipient *model.Recipient) error {
	args := r.Called(ctx, recipient)
	return args.Error(0)
}

func (r *RecipientRepository) UpdateForSending(ctx context.Context, recipient *model.Recipient, staleThreshold time.Time) error {
	args := r.Called(ctx, recipient, staleThreshold)
	return args.Error(0)
}

func (r *RecipientRepository) GetByID(id string) (*model.Recipient, error) {
	args := r.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (r *RecipientRepository) ListByJob(jobID string, statuses []model.RecipientStatus) ([]model.Recipient, error) {
	args := r.Called(jobID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (r *RecipientRepository) NextForDispatch(jobID string, staleThreshold time.Time) (*model.Recipient, error) {
	args := r.Called(jobID, staleThreshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (r *RecipientRepository) CountInFlight(jobID string, staleThreshold time.Time) (int, error) {
	args := r.Called(jobID, staleThreshold)
	return args.Int(0), args.Error(1)
}

func (r *RecipientRepository) FindByProviderMsgID(providerMsgID string) (*model.Recipient, error) {
	args := r.Called(providerMsgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (r *RecipientRepository) FindActiveByPhone(phone string) (*model.Recipient, error) {
	args := r.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Recipient), args.Error(1)
}

func (r *RecipientRepository) DistinctJobIDsWithUnfinished() ([]string, error) {
	args := r.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
