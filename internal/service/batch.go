package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smsbulk293/bulksend/internal/constants"
	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/repository"
	"go.uber.org/zap"
)

var ErrEmptyBatch = errors.New("EMPTY_BATCH")

// BatchService is the acceptance workflow: price the batch, reserve the
// funds, persist job and recipients, hand the job to a worker.
type BatchService interface {
	Estimate(cmd EstimateBatchCommand) EstimateResult
	Submit(ctx context.Context, cmd SubmitBatchCommand) (SubmitBatchResult, error)
	JobStatus(jobID string) (JobStatusResult, error)
}

type batch struct {
	estimator     EstimatorService
	ledger        LedgerService
	dispatcher    DispatcherService
	jobRepo       repository.JobRepository
	recipientRepo repository.RecipientRepository
	txManager     repository.TxManager
	logger        *zap.Logger
}

func NewBatchService(estimator EstimatorService, ledger LedgerService, dispatcher DispatcherService,
	jobRepo repository.JobRepository, recipientRepo repository.RecipientRepository,
	txManager repository.TxManager, logger *zap.Logger) BatchService {
	return &batch{
		estimator:     estimator,
		ledger:        ledger,
		dispatcher:    dispatcher,
		jobRepo:       jobRepo,
		recipientRepo: recipientRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

func (b *batch) Estimate(cmd EstimateBatchCommand) EstimateResult {
	return b.estimator.Estimate(EstimateBatchCommand{Rows: cmd.Rows, Template: cmd.Template})
}

func (b *batch) Submit(ctx context.Context, cmd SubmitBatchCommand) (SubmitBatchResult, error) {
	estimate := b.estimator.Estimate(EstimateBatchCommand{Rows: cmd.Rows, Template: cmd.Template})
	if len(estimate.Accepted) == 0 {
		return SubmitBatchResult{}, NewServiceError(constants.ErrCodeEmptyBatch, ErrEmptyBatch)
	}

	jobID := uuid.NewString()

	if err := b.ledger.Reserve(ctx, estimate.TotalCost, jobID); err != nil {
		b.logger.Debug("Batch rejected, reservation failed",
			zap.String("jobID", jobID),
			zap.Int64("totalCost", estimate.TotalCost),
			zap.Error(err))
		return SubmitBatchResult{}, err
	}

	now := time.Now()
	job := model.Job{
		ID:              jobID,
		TotalRecipients: len(estimate.Accepted),
		TotalSegments:   estimate.TotalSegments,
		ReservedCost:    estimate.TotalCost,
		PricePerSegment: estimate.PricePerSegment,
		Status:          model.JobStatusQueued,
		CreatedAt:       now,
	}

	recipients := make([]model.Recipient, 0, len(estimate.Accepted))
	for i, row := range estimate.Accepted {
		recipients = append(recipients, model.Recipient{
			ID:        uuid.NewString(),
			JobID:     jobID,
			Seq:       i,
			Phone:     row.Phone,
			Message:   row.Message,
			Segments:  row.Segments,
			Status:    model.RecipientStatusQueued,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err := b.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := b.jobRepo.Create(ctx, &job); err != nil {
			return err
		}

		return b.recipientRepo.CreateBatch(ctx, recipients)
	})
	if err != nil {
		b.logger.Error("Reservation succeeded but job creation failed, refunding",
			zap.Error(err),
			zap.String("jobID", jobID))

		if refundErr := b.ledger.Refund(ctx, estimate.TotalCost, jobID); refundErr != nil {
			b.logger.Error("CRITICAL: funds reserved without job - manual intervention required",
				zap.Error(refundErr),
				zap.String("jobID", jobID),
				zap.Int64("amount", estimate.TotalCost))
		}

		return SubmitBatchResult{}, NewServiceError(ErrCodeDatabase, err)
	}

	b.logger.Info("Batch accepted",
		zap.String("jobID", jobID),
		zap.Int("recipients", len(recipients)),
		zap.Int("totalSegments", estimate.TotalSegments),
		zap.Int64("reservedCost", estimate.TotalCost))

	b.dispatcher.Launch(jobID)

	return SubmitBatchResult{JobID: jobID, Estimate: estimate}, nil
}

func (b *batch) JobStatus(jobID string) (JobStatusResult, error) {
	job, err := b.jobRepo.GetByID(jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return JobStatusResult{}, NewServiceError(constants.ErrCodeJobNotFound, ErrJobNotFound)
		}

		return JobStatusResult{}, NewServiceError(ErrCodeDatabase, err)
	}

	recipients, err := b.recipientRepo.ListByJob(jobID, nil)
	if err != nil {
		return JobStatusResult{}, NewServiceError(ErrCodeDatabase, err)
	}

	return JobStatusResult{Job: *job, Recipients: recipients}, nil
}
