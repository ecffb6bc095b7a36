package mocks

import (
	"context"

	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"github.com/stretchr/testify/mock"
)

type SMSProvider struct {
	mock.Mock
}

func (p *SMSProvider) Send(ctx context.Context, to string, text string, callbackURL string) (smsprovider.Response, error) {
	args := p.Called(ctx, to, text, callbackURL)
	return args.Get(0).(smsprovider.Response), args.Error(1)
}
