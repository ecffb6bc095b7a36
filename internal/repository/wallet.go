package repository

import (
	"context"
	"errors"

	"github.com/smsbulk293/bulksend/internal/model"
	"gorm.io/gorm"
)

var ErrWalletNotFound = errors.New("WALLET_NOT_FOUND")

type WalletRepository interface {
	Get(ctx context.Context, id string) (model.Wallet, error)
	UpdateBalance(ctx context.Context, id string, newBalance int64) error
	CreateEntry(ctx context.Context, entry *model.WalletEntry) error
}

type Wallet struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &Wallet{db: db}
}

func (w *Wallet) Get(ctx context.Context, id string) (model.Wallet, error) {
	db := GetTx(ctx, w.db)

	var wallet model.Wallet
	if err := db.Where("id = ?", id).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Wallet{}, ErrWalletNotFound
		}
		return model.Wallet{}, err
	}

	return wallet, nil
}

func (w *Wallet) UpdateBalance(ctx context.Context, id string, newBalance int64) error {
	db := GetTx(ctx, w.db)
	return db.Model(&model.Wallet{}).
		Where("id = ?", id).
		Update("balance", newBalance).Error
}

func (w *Wallet) CreateEntry(ctx context.Context, entry *model.WalletEntry) error {
	db := GetTx(ctx, w.db)
	return db.Create(entry).Error
}
