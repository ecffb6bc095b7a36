package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/repository"
	"github.com/smsbulk293/bulksend/pkg/retry"
	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const errExceededMaxAttempts = "exceeded max attempts"

// DispatcherService drains one job's recipients: oldest queued first,
// one provider call at a time, throttled, with retry and backoff. Launch
// is idempotent per job; Drain runs the loop to finalization.
type DispatcherService interface {
	Launch(jobID string)
	Drain(ctx context.Context, jobID string)
}

type dispatcher struct {
	jobRepo       repository.JobRepository
	recipientRepo repository.RecipientRepository
	txManager     repository.TxManager
	provider      ProviderService
	ledger        LedgerService
	registry      *JobRegistry
	cfg           config.Dispatch
	callbackURL   string
	logger        *zap.Logger
}

func NewDispatcherService(jobRepo repository.JobRepository, recipientRepo repository.RecipientRepository,
	txManager repository.TxManager, provider ProviderService, ledger LedgerService, registry *JobRegistry,
	cfg *config.Config, logger *zap.Logger) DispatcherService {
	return &dispatcher{
		jobRepo:       jobRepo,
		recipientRepo: recipientRepo,
		txManager:     txManager,
		provider:      provider,
		ledger:        ledger,
		registry:      registry,
		cfg:           cfg.Dispatch,
		callbackURL:   callbackURL(cfg.API.PublicCallbackURL),
		logger:        logger,
	}
}

func callbackURL(publicURL string) string {
	if publicURL == "" {
		return ""
	}
	return strings.TrimRight(publicURL, "/") + "/v1/provider/status"
}

// Launch starts a worker goroutine for the job unless one is already
// running in this process.
func (d *dispatcher) Launch(jobID string) {
	if !d.registry.Acquire(jobID) {
		d.logger.Debug("Worker already running for job", zap.String("jobID", jobID))
		return
	}

	go func() {
		defer d.registry.Release(jobID)
		d.Drain(context.Background(), jobID)
	}()
}

func (d *dispatcher) Drain(ctx context.Context, jobID string) {
	d.logger.Info("Worker started", zap.String("jobID", jobID))

	limiter := rate.NewLimiter(rate.Every(d.cfg.Throttle), 1)

	for {
		// One token per completed attempt bounds the outbound call rate
		// uniformly, retries included.
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		staleThreshold := time.Now().Add(-d.cfg.LeaseTimeout)

		recipient, err := d.recipientRepo.NextForDispatch(jobID, staleThreshold)
		if err == nil {
			d.process(ctx, recipient)
			continue
		}

		if !errors.Is(err, repository.ErrRecipientNotFound) {
			d.logger.Error("Failed to select next recipient, will retry",
				zap.Error(err),
				zap.String("jobID", jobID))
			continue
		}

		inFlight, err := d.recipientRepo.CountInFlight(jobID, staleThreshold)
		if err != nil {
			d.logger.Error("Failed to count in-flight recipients, will retry",
				zap.Error(err),
				zap.String("jobID", jobID))
			continue
		}

		// A fresh sending row is evidence of an attempt lost to a crash.
		// Wait for its lease to lapse instead of finalizing around it.
		if inFlight > 0 {
			d.logger.Warn("Waiting for sending lease to lapse",
				zap.Int("inFlight", inFlight),
				zap.String("jobID", jobID))
			select {
			case <-time.After(d.cfg.LeaseTimeout):
			case <-ctx.Done():
				return
			}
			continue
		}

		d.finalize(ctx, jobID)
		return
	}
}

func (d *dispatcher) process(ctx context.Context, recipient *model.Recipient) {
	attempt := recipient.AttemptCount + 1
	if attempt > d.cfg.MaxAttempts {
		d.logger.Warn("Recipient exceeded max attempts",
			zap.String("recipientID", recipient.ID),
			zap.Int("attempts", recipient.AttemptCount))
		d.markFailed(ctx, recipient.ID, errExceededMaxAttempts)
		return
	}

	if !d.markSending(ctx, recipient, attempt) {
		return
	}

	d.logger.Debug("Attempting to send message",
		zap.String("recipientID", recipient.ID),
		zap.String("jobID", recipient.JobID),
		zap.Int("attempt", attempt),
		zap.Int("maxAttempts", d.cfg.MaxAttempts),
		zap.String("to", recipient.Phone))

	var response smsprovider.Response
	policy := retry.Policy{
		MaxAttempts: 1 + d.cfg.TransientRetries,
		Backoff:     retry.ExponentialBackoff(d.cfg.BaseBackoff, d.cfg.MaxBackoff),
		Retryable:   smsprovider.IsTransient,
	}

	sendErr := retry.Do(ctx, policy, func(ctx context.Context) error {
		res, err := d.provider.SendWithRetry(ctx, recipient.Phone, recipient.Message, d.callbackURL)
		if err != nil {
			return err
		}
		response = res
		return nil
	})

	if sendErr == nil {
		d.markSent(ctx, recipient.ID, response)
		return
	}

	d.logger.Warn("Send failed for recipient",
		zap.Error(sendErr),
		zap.String("recipientID", recipient.ID),
		zap.Int("attempt", attempt))

	d.markFailed(ctx, recipient.ID, sendErr.Error())
}

// markSending claims the recipient before the provider call so that a
// crash mid-call leaves it visibly in flight rather than re-queued.
func (d *dispatcher) markSending(ctx context.Context, recipient *model.Recipient, attempt int) bool {
	staleThreshold := time.Now().Add(-d.cfg.LeaseTimeout)

	now := time.Now()
	update := model.Recipient{
		ID:            recipient.ID,
		Status:        model.RecipientStatusSending,
		AttemptCount:  attempt,
		LastAttemptAt: &now,
		UpdatedAt:     now,
	}

	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		return d.recipientRepo.UpdateForSending(ctx, &update, staleThreshold)
	})
	if err == nil {
		return true
	}

	if errors.Is(err, repository.ErrNoRowsAffected) {
		d.logger.Info("Recipient claimed by another worker",
			zap.String("recipientID", recipient.ID))
		return false
	}

	d.logger.Error("Failed to mark recipient as sending, will retry",
		zap.Error(err),
		zap.String("recipientID", recipient.ID))

	return false
}

func (d *dispatcher) markSent(ctx context.Context, recipientID string, response smsprovider.Response) {
	now := time.Now()
	update := model.Recipient{
		ID:             recipientID,
		Status:         model.RecipientStatusSent,
		ProviderMsgID:  &response.MessageID,
		ProviderStatus: &response.Status,
		LastSendAt:     &now,
		UpdatedAt:      now,
	}

	err := d.withStorageRetry(ctx, func(ctx context.Context) error {
		return d.recipientRepo.Update(ctx, &update)
	})
	if err != nil {
		d.logger.Error("Failed to update recipient after successful send",
			zap.Error(err),
			zap.String("recipientID", recipientID),
			zap.String("providerMessageID", response.MessageID))
		return
	}

	d.logger.Info("Message sent",
		zap.String("recipientID", recipientID),
		zap.String("providerMessageID", response.MessageID))
}

func (d *dispatcher) markFailed(ctx context.Context, recipientID string, lastError string) {
	now := time.Now()
	update := model.Recipient{
		ID:        recipientID,
		Status:    model.RecipientStatusFailed,
		LastError: &lastError,
		UpdatedAt: now,
	}

	err := d.withStorageRetry(ctx, func(ctx context.Context) error {
		return d.recipientRepo.Update(ctx, &update)
	})
	if err != nil {
		d.logger.Error("Failed to update recipient after terminal failure",
			zap.Error(err),
			zap.String("recipientID", recipientID))
		return
	}

	d.logger.Warn("Recipient failed",
		zap.String("recipientID", recipientID),
		zap.String("lastError", lastError))
}

// finalize runs once per drain exit: totals from the store, refund of the
// unused reservation, job marked completed. If the refund cannot be
// credited the job is left queued so a restart retries finalization.
func (d *dispatcher) finalize(ctx context.Context, jobID string) {
	job, err := d.jobRepo.GetByID(jobID)
	if err != nil {
		d.logger.Error("Failed to load job for finalization",
			zap.Error(err),
			zap.String("jobID", jobID))
		return
	}

	if job.Status == model.JobStatusCompleted {
		return
	}

	recipients, err := d.recipientRepo.ListByJob(jobID, nil)
	if err != nil {
		d.logger.Error("Failed to list recipients for finalization",
			zap.Error(err),
			zap.String("jobID", jobID))
		return
	}

	var sentSegments, failedSegments int
	for _, r := range recipients {
		switch r.Status {
		case model.RecipientStatusSent, model.RecipientStatusDelivered:
			sentSegments += r.Segments
		case model.RecipientStatusFailed:
			failedSegments += r.Segments
		}
	}

	actualCost := int64(sentSegments) * job.PricePerSegment
	refund := job.ReservedCost - actualCost
	if refund < 0 {
		refund = 0
	}

	if refund > 0 {
		err := d.withStorageRetry(ctx, func(ctx context.Context) error {
			return d.ledger.Refund(ctx, refund, jobID)
		})
		if err != nil {
			d.logger.Error("Failed to refund unused reservation, leaving job open",
				zap.Error(err),
				zap.Int64("refund", refund),
				zap.String("jobID", jobID))
			return
		}
	}

	now := time.Now()
	update := model.Job{
		ID:             jobID,
		Status:         model.JobStatusCompleted,
		SentSegments:   sentSegments,
		FailedSegments: failedSegments,
		ActualCost:     actualCost,
		RefundAmount:   refund,
		CompletedAt:    &now,
	}

	err = d.withStorageRetry(ctx, func(ctx context.Context) error {
		return d.txManager.WithTx(ctx, func(ctx context.Context) error {
			return d.jobRepo.Update(ctx, &update)
		})
	})
	if err != nil {
		d.logger.Error("Failed to mark job completed",
			zap.Error(err),
			zap.String("jobID", jobID))
		return
	}

	d.logger.Info("Job completed",
		zap.String("jobID", jobID),
		zap.Int("sentSegments", sentSegments),
		zap.Int("failedSegments", failedSegments),
		zap.Int64("actualCost", actualCost),
		zap.Int64("refund", refund))
}

// Storage failures must never drop work, so mutations get a small linear
// retry budget before the loop gives up and leaves the row for re-selection.
func (d *dispatcher) withStorageRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, retry.Policy{
		MaxAttempts: 3,
		Backoff:     retry.LinearBackoff(100 * time.Millisecond),
	}, fn)
}
