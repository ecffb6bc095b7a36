package smsprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/smsbulk293/bulksend/pkg/httpclient"
)

type Provider interface {
	Send(ctx context.Context, to string, text string, callbackURL string) (res Response, err error)
}

type Config struct {
	Enable   bool          `mapstructure:"enable"`
	URL      string        `mapstructure:"url"`
	APIKey   string        `mapstructure:"api_key"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxRetry int           `mapstructure:"max_retry"`
}

type Response struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

type sendRequest struct {
	From        string `json:"from,omitempty"`
	To          string `json:"to"`
	Text        string `json:"text"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type SMSProvider struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewSMSProvider(cfg Config, client httpclient.HTTPClient) Provider {
	return &SMSProvider{cfg: cfg, client: client}
}

func (s *SMSProvider) Send(ctx context.Context, to string, text string, callbackURL string) (Response, error) {
	if !s.cfg.Enable || s.cfg.URL == "" {
		return Response{}, errors.New(ErrorCodeNotConfigured)
	}

	payload, err := json.Marshal(sendRequest{
		From:        s.cfg.From,
		To:          to,
		Text:        text,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return Response{}, errors.New(ErrorCodeServerError)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if s.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + s.cfg.APIKey
	}

	resp, err := s.client.Post(ctx, s.cfg.URL, bytes.NewReader(payload), headers)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Response{}, errors.New(ErrorCodeTimeout)
		}

		return Response{}, errors.New(ErrorCodeNetworkError)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return Response{}, errors.New(ErrorCodeRateLimited)
		case resp.StatusCode >= 500:
			return Response{}, errors.New(ErrorCodeServerError)
		case resp.StatusCode == http.StatusBadRequest:
			return Response{}, errors.New(ErrorCodeInvalidNumber)
		default:
			return Response{}, errors.New(ErrorCodeServerError)
		}
	}

	var res Response
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Response{}, errors.New(ErrorCodeServerError)
	}

	return res, nil
}
