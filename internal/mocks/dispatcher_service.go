package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type DispatcherService struct {
	mock.Mock
}

func (d *DispatcherService) Launch(jobID string) {
	d.Called(jobID)
}

func (d *DispatcherService) Drain(ctx context.Context, jobID string) {
	d.Called(ctx, jobID)
}
