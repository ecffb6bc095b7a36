package mocks

import (
	"github.com/stretchr/testify/mock"
)

type Resolver struct {
	mock.Mock
}

func (r *Resolver) Validate(raw string, defaultRegion string) (string, error) {
	args := r.Called(raw, defaultRegion)
	return args.String(0), args.Error(1)
}
