package model

import "time"

type RecipientStatus string

const (
	RecipientStatusQueued    RecipientStatus = "queued"
	RecipientStatusSending   RecipientStatus = "sending"
	RecipientStatusSent      RecipientStatus = "sent"
	RecipientStatusFailed    RecipientStatus = "failed"
	RecipientStatusDelivered RecipientStatus = "delivered"
)

// Recipient is the permanent audit record of one send attempt sequence.
// Rows are never deleted.
type Recipient struct {
	ID             string          `gorm:"primaryKey;column:id;type:char(36);<-:create"`
	JobID          string          `gorm:"column:job_id;type:char(36);index;<-:create"`
	Seq            int             `gorm:"column:seq;<-:create"`
	Phone          string          `gorm:"column:phone;index"`
	Message        string          `gorm:"column:message"`
	Segments       int             `gorm:"column:segments;<-:create"`
	Status         RecipientStatus `gorm:"column:status;index"`
	AttemptCount   int             `gorm:"column:attempt_count"`
	LastAttemptAt  *time.Time      `gorm:"column:last_attempt_at"`
	LastSendAt     *time.Time      `gorm:"column:last_send_at"`
	ProviderMsgID  *string         `gorm:"column:provider_msg_id;index"`
	ProviderStatus *string         `gorm:"column:provider_status"`
	LastError      *string         `gorm:"column:last_error"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (Recipient) TableName() string {
	return "recipients"
}
