package mocks

import (
	"context"

	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/stretchr/testify/mock"
)

type WalletRepository struct {
	mock.Mock
}

func (w *WalletRepository) Get(ctx context.Context, id string) (model.Wallet, error) {
	args := w.Called(ctx, id)
	return args.Get(0).(model.Wallet), args.Error(1)
}

func (w *WalletRepository) UpdateBalance(ctx context.Context, id string, newBalance int64) error {
	args := w.Called(ctx, id, newBalance)
	return args.Error(0)
}

func (w *WalletRepository) CreateEntry(ctx context.Context, entry *model.WalletEntry) error {
	args := w.Called(ctx, entry)
	return args.Error(0)
}
