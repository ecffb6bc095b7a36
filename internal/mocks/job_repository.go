package mocks

import (
	"context"

	"github.com/smsbulk293/bulksend/internal/model"
	"github.com/stretchr/testify/mock"
)

type JobRepository struct {
	mock.Mock
}

func (j *JobRepository) Create(ctx context.Context, job *model.Job) error {
	args := j.Called(ctx, job)
	return args.Error(0)
}

func (j *JobRepository) Update(ctx context.Context, job *model.Job) error {
	args := j.Called(ctx, job)
	return args.Error(0)
}

func (j *JobRepository) GetByID(id string) (*model.Job, error) {
	args := j.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Job), args.Error(1)
}

func (j *JobRepository) ListQueuedIDs() ([]string, error) {
	args := j.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
