package service

import (
	"github.com/smsbulk293/bulksend/internal/repository"
	"go.uber.org/zap"
)

// ResumeService relaunches workers for jobs left unfinished by a previous
// process. Safe to call more than once; Launch is a no-op for running jobs.
type ResumeService interface {
	ResumeJobs() error
}

type resume struct {
	jobRepo       repository.JobRepository
	recipientRepo repository.RecipientRepository
	dispatcher    DispatcherService
	logger        *zap.Logger
}

func NewResumeService(jobRepo repository.JobRepository, recipientRepo repository.RecipientRepository,
	dispatcher DispatcherService, logger *zap.Logger) ResumeService {
	return &resume{jobRepo: jobRepo, recipientRepo: recipientRepo, dispatcher: dispatcher, logger: logger}
}

func (r *resume) ResumeJobs() error {
	jobIDs, err := r.recipientRepo.DistinctJobIDsWithUnfinished()
	if err != nil {
		r.logger.Error("Failed to scan for unfinished recipients", zap.Error(err))
		return err
	}

	// Jobs whose recipients are all terminal but that never finalized
	// (crash between the last send and completion) need a worker too.
	queuedIDs, err := r.jobRepo.ListQueuedIDs()
	if err != nil {
		r.logger.Error("Failed to scan for queued jobs", zap.Error(err))
		return err
	}

	seen := make(map[string]bool, len(jobIDs))
	for _, id := range jobIDs {
		seen[id] = true
	}
	for _, id := range queuedIDs {
		if !seen[id] {
			jobIDs = append(jobIDs, id)
		}
	}

	if len(jobIDs) == 0 {
		r.logger.Info("No jobs to resume")
		return nil
	}

	r.logger.Info("Resuming unfinished jobs", zap.Int("count", len(jobIDs)))

	for _, jobID := range jobIDs {
		r.logger.Info("Relaunching worker", zap.String("jobID", jobID))
		r.dispatcher.Launch(jobID)
	}

	return nil
}
