package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type LedgerService struct {
	mock.Mock
}

func (l *LedgerService) Reserve(ctx context.Context, amount int64, jobID string) error {
	args := l.Called(ctx, amount, jobID)
	return args.Error(0)
}

func (l *LedgerService) Refund(ctx context.Context, amount int64, jobID string) error {
	args := l.Called(ctx, amount, jobID)
	return args.Error(0)
}

func (l *LedgerService) TopUp(ctx context.Context, amount int64) (int64, error) {
	args := l.Called(ctx, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (l *LedgerService) Read(ctx context.Context) (int64, error) {
	args := l.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
