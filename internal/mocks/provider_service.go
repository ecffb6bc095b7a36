package mocks

import (
	"context"

	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"github.com/stretchr/testify/mock"
)

type ProviderService struct {
	mock.Mock
}

func (p *ProviderService) SendWithRetry(ctx context.Context, to, text, callbackURL string) (smsprovider.Response, error) {
	args := p.Called(ctx, to, text, callbackURL)
	return args.Get(0).(smsprovider.Response), args.Error(1)
}
