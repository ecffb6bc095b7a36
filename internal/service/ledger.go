package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smsbulk293/bulksend/internal/constants"
	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/repository"
	"go.uber.org/zap"
)

var ErrInvalidAmount = errors.New("INVALID_AMOUNT")

// LedgerService guards the single metered balance. Every operation runs
// in its own transaction; the balance never goes negative, and every
// debit is eventually matched by consumption or a refund.
type LedgerService interface {
	Reserve(ctx context.Context, amount int64, jobID string) error
	Refund(ctx context.Context, amount int64, jobID string) error
	TopUp(ctx context.Context, amount int64) (int64, error)
	Read(ctx context.Context) (int64, error)
}

type ledger struct {
	walletRepo repository.WalletRepository
	txManager  repository.TxManager
	logger     *zap.Logger
}

func NewLedgerService(walletRepo repository.WalletRepository, txManager repository.TxManager,
	logger *zap.Logger) LedgerService {
	return &ledger{walletRepo: walletRepo, txManager: txManager, logger: logger}
}

// Reserve debits the whole amount or nothing.
func (l *ledger) Reserve(ctx context.Context, amount int64, jobID string) error {
	if amount < 0 {
		return NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		wallet, err := l.walletRepo.Get(ctx, model.WalletID)
		if err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		if amount > wallet.Balance {
			shortfall := amount - wallet.Balance
			l.logger.Warn("Reservation exceeds balance",
				zap.Int64("amount", amount),
				zap.Int64("balance", wallet.Balance),
				zap.Int64("shortfall", shortfall),
				zap.String("jobID", jobID))
			return NewServiceError(constants.ErrCodeInsufficientFunds,
				fmt.Errorf("%w: short by %d mills", ErrInsufficientFunds, shortfall))
		}

		if err := l.applyChange(ctx, wallet, -amount, model.WalletEntryReserve, &jobID); err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	l.logger.Info("Funds reserved",
		zap.Int64("amount", amount),
		zap.String("jobID", jobID))

	return nil
}

func (l *ledger) Refund(ctx context.Context, amount int64, jobID string) error {
	if amount < 0 {
		return NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	if amount == 0 {
		return nil
	}

	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		wallet, err := l.walletRepo.Get(ctx, model.WalletID)
		if err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		if err := l.applyChange(ctx, wallet, amount, model.WalletEntryRefund, &jobID); err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	l.logger.Info("Reservation refunded",
		zap.Int64("amount", amount),
		zap.String("jobID", jobID))

	return nil
}

// TopUp credits a caller-supplied non-zero amount. Negative amounts are
// corrective debits and may not drive the balance below zero.
func (l *ledger) TopUp(ctx context.Context, amount int64) (int64, error) {
	if amount == 0 {
		return 0, NewServiceError(constants.ErrCodeInvalidAmount, ErrInvalidAmount)
	}

	var newBalance int64
	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		wallet, err := l.walletRepo.Get(ctx, model.WalletID)
		if err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		if wallet.Balance+amount < 0 {
			return NewServiceError(constants.ErrCodeInsufficientFunds,
				fmt.Errorf("%w: short by %d mills", ErrInsufficientFunds, -(wallet.Balance + amount)))
		}

		if err := l.applyChange(ctx, wallet, amount, model.WalletEntryTopUp, nil); err != nil {
			return NewServiceError(ErrCodeDatabase, err)
		}

		newBalance = wallet.Balance + amount
		return nil
	})

	if err != nil {
		return 0, err
	}

	l.logger.Info("Wallet topped up",
		zap.Int64("amount", amount),
		zap.Int64("balance", newBalance))

	return newBalance, nil
}

func (l *ledger) Read(ctx context.Context) (int64, error) {
	wallet, err := l.walletRepo.Get(ctx, model.WalletID)
	if err != nil {
		l.logger.Error("Failed to read wallet balance", zap.Error(err))
		return 0, NewServiceError(ErrCodeDatabase, err)
	}

	return wallet.Balance, nil
}

func (l *ledger) applyChange(ctx context.Context, wallet model.Wallet, delta int64, kind string, jobID *string) error {
	if err := l.walletRepo.UpdateBalance(ctx, wallet.ID, wallet.Balance+delta); err != nil {
		return err
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}

	entry := model.WalletEntry{
		ID:        uuid.NewString(),
		WalletID:  wallet.ID,
		Kind:      kind,
		Amount:    amount,
		JobID:     jobID,
		CreatedAt: time.Now(),
	}

	return l.walletRepo.CreateEntry(ctx, &entry)
}
