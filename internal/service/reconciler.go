package service

import (
	"context"
	"errors"
	"time"

	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/repository"
	"go.uber.org/zap"
)

// ReconcilerService applies asynchronous delivery receipts from the
// carrier onto recipient records. Events that match nothing are dropped:
// receipts may race ahead of record creation or reference unknown sends.
type ReconcilerService interface {
	ReportDeliveryStatus(ctx context.Context, cmd DeliveryStatusCommand) error
}

type reconciler struct {
	recipientRepo repository.RecipientRepository
	txManager     repository.TxManager
	logger        *zap.Logger
}

func NewReconcilerService(recipientRepo repository.RecipientRepository, txManager repository.TxManager,
	logger *zap.Logger) ReconcilerService {
	return &reconciler{recipientRepo: recipientRepo, txManager: txManager, logger: logger}
}

func (r *reconciler) ReportDeliveryStatus(ctx context.Context, cmd DeliveryStatusCommand) error {
	if cmd.ProviderMsgID == "" && cmd.Phone == "" {
		return nil
	}

	recipient, err := r.lookup(cmd)
	if err != nil {
		if errors.Is(err, repository.ErrRecipientNotFound) {
			r.logger.Debug("Delivery status matched no recipient",
				zap.String("providerMessageID", cmd.ProviderMsgID),
				zap.String("to", cmd.Phone),
				zap.String("status", cmd.Status))
			return nil
		}

		return NewServiceError(ErrCodeDatabase, err)
	}

	update := model.Recipient{
		ID:             recipient.ID,
		ProviderStatus: &cmd.Status,
		UpdatedAt:      time.Now(),
	}

	// The mapping only ever sets a status, so replays are idempotent.
	switch cmd.Status {
	case "delivered":
		update.Status = model.RecipientStatusDelivered
	case "failed", "undelivered":
		update.Status = model.RecipientStatusFailed
	case "sent":
		update.Status = model.RecipientStatusSent
	}

	err = r.txManager.WithTx(ctx, func(ctx context.Context) error {
		return r.recipientRepo.Update(ctx, &update)
	})
	if err != nil {
		r.logger.Error("Failed to apply delivery status",
			zap.Error(err),
			zap.String("recipientID", recipient.ID),
			zap.String("status", cmd.Status))
		return NewServiceError(ErrCodeDatabase, err)
	}

	r.logger.Debug("Delivery status applied",
		zap.String("recipientID", recipient.ID),
		zap.String("status", cmd.Status))

	return nil
}

func (r *reconciler) lookup(cmd DeliveryStatusCommand) (*model.Recipient, error) {
	if cmd.ProviderMsgID != "" {
		recipient, err := r.recipientRepo.FindByProviderMsgID(cmd.ProviderMsgID)
		if err == nil {
			return recipient, nil
		}

		if !errors.Is(err, repository.ErrRecipientNotFound) {
			return nil, err
		}
	}

	if cmd.Phone == "" {
		return nil, repository.ErrRecipientNotFound
	}

	return r.recipientRepo.FindActiveByPhone(cmd.Phone)
}
