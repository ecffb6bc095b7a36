package service

import "errors"

const (
	ErrCodeDatabase = "DATABASE_ERROR"
)

var (
	ErrJobNotFound       = errors.New("JOB_NOT_FOUND")
	ErrRecipientClaimed  = errors.New("RECIPIENT_CLAIMED")
	ErrWalletNotFound    = errors.New("WALLET_NOT_FOUND")
	ErrInsufficientFunds = errors.New("INSUFFICIENT_FUNDS")
	ErrDatabase          = errors.New("DATABASE_ERROR")
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}
