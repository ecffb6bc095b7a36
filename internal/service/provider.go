package service

import (
	"context"
	"time"

	"github.com/smsbulk293/bulksend/internal/config"
	"github.com/smsbulk293/bulksend/pkg/retry"
	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"go.uber.org/zap"
)

// ProviderService wraps the carrier client with the short immediate-retry
// budget. Transient errors are returned to the caller right away; the
// dispatcher owns their exponential backoff.
type ProviderService interface {
	SendWithRetry(ctx context.Context, to, text, callbackURL string) (smsprovider.Response, error)
}

type Provider struct {
	provider smsprovider.Provider
	logger   *zap.Logger
	config   smsprovider.Config
}

func NewProviderService(provider smsprovider.Provider, logger *zap.Logger, cfg *config.Config) ProviderService {
	return &Provider{provider: provider, logger: logger, config: cfg.Provider}
}

func (p *Provider) SendWithRetry(ctx context.Context, to, text, callbackURL string) (smsprovider.Response, error) {
	var response smsprovider.Response

	attempt := 0
	policy := retry.Policy{
		MaxAttempts: p.config.MaxRetry,
		Backoff:     retry.LinearBackoff(100 * time.Millisecond),
		Retryable: func(err error) bool {
			return !smsprovider.IsTransient(err)
		},
	}

	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		attempt++
		p.logger.Debug("Attempting to send SMS",
			zap.Int("attempt", attempt),
			zap.String("to", to))

		providerCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()

		res, err := p.provider.Send(providerCtx, to, text, callbackURL)
		if err != nil {
			p.logger.Warn("SMS send attempt failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.String("to", to))
			return err
		}

		response = res
		return nil
	})

	if err != nil {
		return smsprovider.Response{}, err
	}

	p.logger.Info("SMS sent successfully",
		zap.String("messageId", response.MessageID),
		zap.String("status", response.Status),
		zap.Int("attempt", attempt))

	return response, nil
}
