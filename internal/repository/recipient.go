package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smsbulk293/bulksend/internal/model"
	"gorm.io/gorm"
)

var ErrRecipientNotFound = errors.New("RECIPIENT_NOT_FOUND")
var ErrNoRowsAffected = errors.New("NO_ROWS_AFFECTED")

type RecipientRepository interface {
	CreateBatch(ctx context.Context, recipients []model.Recipient) error
	Update(ctx context.Context, recipient *model.Recipient) error
	UpdateForSending(ctx context.Context, recipient *model.Recipient, staleThreshold time.Time) error
	GetByID(id string) (*model.Recipient, error)
	ListByJob(jobID string, statuses []model.RecipientStatus) ([]model.Recipient, error)
	NextForDispatch(jobID string, staleThreshold time.Time) (*model.Recipient, error)
	CountInFlight(jobID string, staleThreshold time.Time) (int, error)
	FindByProviderMsgID(providerMsgID string) (*model.Recipient, error)
	FindActiveByPhone(phone string) (*model.Recipient, error)
	DistinctJobIDsWithUnfinished() ([]string, error)
}

type Recipient struct {
	db *gorm.DB
}

func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &Recipient{db: db}
}

func (r *Recipient) CreateBatch(ctx context.Context, recipients []model.Recipient) error {
	db := GetTx(ctx, r.db)
	return db.Create(&recipients).Error
}

func (r *Recipient) Update(ctx context.Context, recipient *model.Recipient) error {
	db := GetTx(ctx, r.db)
	return db.Model(recipient).Where("id = ?", recipient.ID).Updates(recipient).Error
}

// UpdateForSending claims a recipient for one attempt. The conditional
// guards against a second worker racing on the same row: only queued rows
// and sending rows whose lease lapsed can be claimed.
func (r *Recipient) UpdateForSending(ctx context.Context, recipient *model.Recipient, staleThreshold time.Time) error {
	db := GetTx(ctx, r.db)
	result := db.Model(recipient).Where("id = ? AND (status = ? OR (status = ? AND last_attempt_at < ?))",
		recipient.ID,
		model.RecipientStatusQueued,
		model.RecipientStatusSending,
		staleThreshold).Updates(recipient)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrNoRowsAffected
	}

	return nil
}

func (r *Recipient) GetByID(id string) (*model.Recipient, error) {
	var recipient model.Recipient

	err := r.db.Where("id = ?", id).First(&recipient).Error
	if err == nil {
		return &recipient, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}

	return nil, err
}

func (r *Recipient) ListByJob(jobID string, statuses []model.RecipientStatus) ([]model.Recipient, error) {
	var recipients []model.Recipient

	query := r.db.Where("job_id = ?", jobID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	err := query.Order("seq ASC").Find(&recipients).Error
	if err != nil {
		return nil, err
	}

	return recipients, nil
}

// NextForDispatch returns the oldest recipient eligible for an attempt:
// queued, or sending with a lapsed lease (crash recovery).
func (r *Recipient) NextForDispatch(jobID string, staleThreshold time.Time) (*model.Recipient, error) {
	var recipient model.Recipient

	err := r.db.Where("job_id = ? AND (status = ? OR (status = ? AND last_attempt_at < ?))",
		jobID,
		model.RecipientStatusQueued,
		model.RecipientStatusSending,
		staleThreshold).
		Order("seq ASC").
		First(&recipient).Error
	if err == nil {
		return &recipient, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}

	return nil, err
}

// CountInFlight counts sending recipients whose lease has not lapsed yet.
func (r *Recipient) CountInFlight(jobID string, staleThreshold time.Time) (int, error) {
	var count int64

	err := r.db.Model(&model.Recipient{}).
		Where("job_id = ? AND status = ? AND last_attempt_at >= ?",
			jobID, model.RecipientStatusSending, staleThreshold).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func (r *Recipient) FindByProviderMsgID(providerMsgID string) (*model.Recipient, error) {
	var recipient model.Recipient

	err := r.db.Where("provider_msg_id = ?", providerMsgID).First(&recipient).Error
	if err == nil {
		return &recipient, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}

	return nil, err
}

// FindActiveByPhone backs the delivery callback fallback lookup: earliest
// non-terminal recipient for the destination.
func (r *Recipient) FindActiveByPhone(phone string) (*model.Recipient, error) {
	var recipient model.Recipient

	err := r.db.Where("phone = ? AND status IN ?", phone, []model.RecipientStatus{
		model.RecipientStatusQueued,
		model.RecipientStatusSending,
		model.RecipientStatusSent,
	}).
		Order("created_at ASC, seq ASC").
		First(&recipient).Error
	if err == nil {
		return &recipient, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipientNotFound
	}

	return nil, err
}

func (r *Recipient) DistinctJobIDsWithUnfinished() ([]string, error) {
	var jobIDs []string

	err := r.db.Model(&model.Recipient{}).
		Distinct("job_id").
		Where("status IN ?", []model.RecipientStatus{
			model.RecipientStatusQueued,
			model.RecipientStatusSending,
		}).
		Pluck("job_id", &jobIDs).Error
	if err != nil {
		return nil, err
	}

	return jobIDs, nil
}
