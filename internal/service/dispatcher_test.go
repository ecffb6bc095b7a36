package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/internal/mocks"
	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/smsbulk293/bulksend/internal/repository"
	"github.com/smsbulk293/bulksend/internal/service"
	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type dispatcherFixture struct {
	jobRepo       *mocks.JobRepository
	recipientRepo *mocks.RecipientRepository
	txManager     *mocks.TxManager
	provider      *mocks.ProviderService
	ledger        *mocks.LedgerService
	registry      *service.JobRegistry
	svc           service.DispatcherService
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		jobRepo:       &mocks.JobRepository{},
		recipientRepo: &mocks.RecipientRepository{},
		txManager:     &mocks.TxManager{},
		provider:      &mocks.ProviderService{},
		ledger:        &mocks.LedgerService{},
		registry:      service.NewJobRegistry(),
	}

	cfg := &config.Config{
		API: config.API{PublicCallbackURL: "https://example.com"},
		Dispatch: config.Dispatch{
			Throttle:         time.Millisecond,
			BaseBackoff:      time.Millisecond,
			MaxBackoff:       5 * time.Millisecond,
			MaxAttempts:      4,
			TransientRetries: 2,
			LeaseTimeout:     20 * time.Millisecond,
		},
	}

	f.svc = service.NewDispatcherService(f.jobRepo, f.recipientRepo, f.txManager, f.provider,
		f.ledger, f.registry, cfg, zap.NewNop())
	return f
}

// expectFinalize wires the mocks for a drain that finds nothing left to
// send and closes out the job.
func (f *dispatcherFixture) expectFinalize(job *model.Job, recipients []model.Recipient, refund int64) {
	f.recipientRepo.On("NextForDispatch", job.ID, mock.AnythingOfType("time.Time")).
		Return(nil, repository.ErrRecipientNotFound)
	f.recipientRepo.On("CountInFlight", job.ID, mock.AnythingOfType("time.Time")).Return(0, nil)
	f.jobRepo.On("GetByID", job.ID).Return(job, nil)
	f.recipientRepo.On("ListByJob", job.ID, mock.Anything).Return(recipients, nil)
	if refund > 0 {
		f.ledger.On("Refund", mock.Anything, refund, job.ID).Return(nil)
	}
	f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	f.jobRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)
}

func TestDispatcherService_Drain(t *testing.T) {
	ctx := context.Background()

	t.Run("sends queued recipient and completes the job", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Seq: 0,
			Phone: "+919876543210", Message: "hello", Segments: 2,
			Status: model.RecipientStatusQueued,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 200, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.recipientRepo.On("UpdateForSending", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.ID == "r1" && r.Status == model.RecipientStatusSending && r.AttemptCount == 1
		}), mock.AnythingOfType("time.Time")).Return(nil)
		f.provider.On("SendWithRetry", mock.Anything, "+919876543210", "hello", "https://example.com/v1/provider/status").
			Return(smsprovider.Response{MessageID: "SM1", Status: "queued"}, nil)
		f.recipientRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.ID == "r1" && r.Status == model.RecipientStatusSent &&
				r.ProviderMsgID != nil && *r.ProviderMsgID == "SM1"
		})).Return(nil)

		sent := *recipient
		sent.Status = model.RecipientStatusSent
		f.expectFinalize(job, []model.Recipient{sent}, 100)

		f.svc.Drain(ctx, "job-1")

		f.provider.AssertNumberOfCalls(t, "SendWithRetry", 1)
		f.jobRepo.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(j *model.Job) bool {
			return j.ID == "job-1" && j.Status == model.JobStatusCompleted &&
				j.SentSegments == 2 && j.FailedSegments == 0 &&
				j.ActualCost == 100 && j.RefundAmount == 100
		}))
		f.ledger.AssertCalled(t, "Refund", mock.Anything, int64(100), "job-1")
	})

	t.Run("permanent provider error fails the recipient", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Phone: "+919876543210", Message: "hello", Segments: 1,
			Status: model.RecipientStatusQueued,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.recipientRepo.On("UpdateForSending", mock.Anything, mock.AnythingOfType("*model.Recipient"),
			mock.AnythingOfType("time.Time")).Return(nil)
		f.provider.On("SendWithRetry", mock.Anything, "+919876543210", "hello", mock.Anything).
			Return(smsprovider.Response{}, errors.New(smsprovider.ErrorCodeInvalidNumber))
		f.recipientRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.ID == "r1" && r.Status == model.RecipientStatusFailed &&
				r.LastError != nil && *r.LastError == smsprovider.ErrorCodeInvalidNumber
		})).Return(nil)

		failed := *recipient
		failed.Status = model.RecipientStatusFailed
		f.expectFinalize(job, []model.Recipient{failed}, 50)

		f.svc.Drain(ctx, "job-1")

		// Permanent errors never consume the transient retry budget.
		f.provider.AssertNumberOfCalls(t, "SendWithRetry", 1)
		f.jobRepo.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(j *model.Job) bool {
			return j.Status == model.JobStatusCompleted &&
				j.SentSegments == 0 && j.FailedSegments == 1 && j.ActualCost == 0
		}))
	})

	t.Run("transient provider error is retried with backoff", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Phone: "+919876543210", Message: "hello", Segments: 1,
			Status: model.RecipientStatusQueued,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.recipientRepo.On("UpdateForSending", mock.Anything, mock.AnythingOfType("*model.Recipient"),
			mock.AnythingOfType("time.Time")).Return(nil)
		f.provider.On("SendWithRetry", mock.Anything, "+919876543210", "hello", mock.Anything).
			Return(smsprovider.Response{}, errors.New(smsprovider.ErrorCodeRateLimited)).Once()
		f.provider.On("SendWithRetry", mock.Anything, "+919876543210", "hello", mock.Anything).
			Return(smsprovider.Response{MessageID: "SM2", Status: "queued"}, nil)
		f.recipientRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.Status == model.RecipientStatusSent
		})).Return(nil)

		sent := *recipient
		sent.Status = model.RecipientStatusSent
		f.expectFinalize(job, []model.Recipient{sent}, 0)

		f.svc.Drain(ctx, "job-1")

		f.provider.AssertNumberOfCalls(t, "SendWithRetry", 2)
	})

	t.Run("exhausted transient retries fail the recipient", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Phone: "+919876543210", Message: "hello", Segments: 1,
			Status: model.RecipientStatusQueued,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.recipientRepo.On("UpdateForSending", mock.Anything, mock.AnythingOfType("*model.Recipient"),
			mock.AnythingOfType("time.Time")).Return(nil)
		f.provider.On("SendWithRetry", mock.Anything, "+919876543210", "hello", mock.Anything).
			Return(smsprovider.Response{}, errors.New(smsprovider.ErrorCodeServerError))
		f.recipientRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.Status == model.RecipientStatusFailed &&
				r.LastError != nil && *r.LastError == smsprovider.ErrorCodeServerError
		})).Return(nil)

		failed := *recipient
		failed.Status = model.RecipientStatusFailed
		f.expectFinalize(job, []model.Recipient{failed}, 50)

		f.svc.Drain(ctx, "job-1")

		// 1 initial attempt + 2 transient retries.
		f.provider.AssertNumberOfCalls(t, "SendWithRetry", 3)
	})

	t.Run("recipient over the attempt budget is failed without a send", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Phone: "+919876543210", Segments: 1,
			Status: model.RecipientStatusQueued, AttemptCount: 4,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.recipientRepo.On("Update", mock.Anything, mock.MatchedBy(func(r *model.Recipient) bool {
			return r.Status == model.RecipientStatusFailed &&
				r.LastError != nil && *r.LastError == "exceeded max attempts"
		})).Return(nil)

		failed := *recipient
		failed.Status = model.RecipientStatusFailed
		f.expectFinalize(job, []model.Recipient{failed}, 50)

		f.svc.Drain(ctx, "job-1")

		f.provider.AssertNotCalled(t, "SendWithRetry")
	})

	t.Run("claimed recipient is skipped", func(t *testing.T) {
		f := newDispatcherFixture()

		recipient := &model.Recipient{
			ID: "r1", JobID: "job-1", Phone: "+919876543210", Segments: 1,
			Status: model.RecipientStatusQueued,
		}
		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(recipient, nil).Once()
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.recipientRepo.On("UpdateForSending", mock.Anything, mock.AnythingOfType("*model.Recipient"),
			mock.AnythingOfType("time.Time")).Return(repository.ErrNoRowsAffected)

		f.expectFinalize(job, []model.Recipient{}, 50)

		f.svc.Drain(ctx, "job-1")

		f.provider.AssertNotCalled(t, "SendWithRetry")
	})

	t.Run("waits out a fresh sending lease before finalizing", func(t *testing.T) {
		f := newDispatcherFixture()

		job := &model.Job{ID: "job-1", ReservedCost: 50, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(nil, repository.ErrRecipientNotFound)
		f.recipientRepo.On("CountInFlight", "job-1", mock.AnythingOfType("time.Time")).Return(1, nil).Once()
		f.recipientRepo.On("CountInFlight", "job-1", mock.AnythingOfType("time.Time")).Return(0, nil)
		f.jobRepo.On("GetByID", "job-1").Return(job, nil)
		f.recipientRepo.On("ListByJob", "job-1", mock.Anything).
			Return([]model.Recipient{{ID: "r1", Status: model.RecipientStatusSent, Segments: 1}}, nil)
		f.txManager.On("WithTx", mock.Anything, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		f.jobRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Job")).Return(nil)

		f.svc.Drain(ctx, "job-1")

		f.recipientRepo.AssertNumberOfCalls(t, "CountInFlight", 2)
		f.jobRepo.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(j *model.Job) bool {
			return j.Status == model.JobStatusCompleted
		}))
	})

	t.Run("already completed job is left untouched", func(t *testing.T) {
		f := newDispatcherFixture()

		job := &model.Job{ID: "job-1", Status: model.JobStatusCompleted}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(nil, repository.ErrRecipientNotFound)
		f.recipientRepo.On("CountInFlight", "job-1", mock.AnythingOfType("time.Time")).Return(0, nil)
		f.jobRepo.On("GetByID", "job-1").Return(job, nil)

		f.svc.Drain(ctx, "job-1")

		f.ledger.AssertNotCalled(t, "Refund")
		f.jobRepo.AssertNotCalled(t, "Update")
	})

	t.Run("refund failure leaves the job open", func(t *testing.T) {
		f := newDispatcherFixture()

		job := &model.Job{ID: "job-1", ReservedCost: 100, PricePerSegment: 50, Status: model.JobStatusQueued}

		f.recipientRepo.On("NextForDispatch", "job-1", mock.AnythingOfType("time.Time")).
			Return(nil, repository.ErrRecipientNotFound)
		f.recipientRepo.On("CountInFlight", "job-1", mock.AnythingOfType("time.Time")).Return(0, nil)
		f.jobRepo.On("GetByID", "job-1").Return(job, nil)
		f.recipientRepo.On("ListByJob", "job-1", mock.Anything).
			Return([]model.Recipient{{ID: "r1", Status: model.RecipientStatusFailed, Segments: 2}}, nil)
		f.ledger.On("Refund", mock.Anything, int64(100), "job-1").Return(errors.New("ledger unavailable"))

		f.svc.Drain(ctx, "job-1")

		f.jobRepo.AssertNotCalled(t, "Update")
	})
}

func TestDispatcherService_Launch(t *testing.T) {
	t.Run("second launch for a running job is a no-op", func(t *testing.T) {
		f := newDispatcherFixture()

		assert.True(t, f.registry.Acquire("job-1"))

		f.svc.Launch("job-1")

		time.Sleep(10 * time.Millisecond)
		f.recipientRepo.AssertNotCalled(t, "NextForDispatch")
		assert.True(t, f.registry.Running("job-1"))
	})
}
