package model

import "time"

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusCompleted JobStatus = "completed"
)

// Job is written exactly twice: once at creation and once at completion.
// Progress in between is visible only through its recipients.
type Job struct {
	ID              string     `gorm:"primaryKey;column:id;type:char(36);<-:create"`
	TotalRecipients int        `gorm:"column:total_recipients;<-:create"`
	TotalSegments   int        `gorm:"column:total_segments;<-:create"`
	ReservedCost    int64      `gorm:"column:reserved_cost;<-:create"`
	PricePerSegment int64      `gorm:"column:price_per_segment;<-:create"`
	Status          JobStatus  `gorm:"column:status"`
	SentSegments    int        `gorm:"column:sent_segments"`
	FailedSegments  int        `gorm:"column:failed_segments"`
	ActualCost      int64      `gorm:"column:actual_cost"`
	RefundAmount    int64      `gorm:"column:refund_amount"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
}

func (Job) TableName() string {
	return "jobs"
}
