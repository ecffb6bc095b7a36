package repository

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/smsbulk293/bulksend/internal/model"
	"gorm.io/gorm"
)

var ErrJobNotFound = errors.New("JOB_NOT_FOUND")
var ErrJobDuplicate = errors.New("JOB_DUPLICATE")

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Update(ctx context.Context, job *model.Job) error
	GetByID(id string) (*model.Job, error)
	ListQueuedIDs() ([]string, error)
}

type Job struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &Job{db: db}
}

func (j *Job) Create(ctx context.Context, job *model.Job) error {
	db := GetTx(ctx, j.db)
	err := db.Create(job).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrJobDuplicate
	}

	return err
}

func (j *Job) Update(ctx context.Context, job *model.Job) error {
	db := GetTx(ctx, j.db)
	return db.Model(job).Where("id = ?", job.ID).Updates(job).Error
}

// ListQueuedIDs returns jobs that have not been finalized yet; the resume
// scan relaunches a worker for each.
func (j *Job) ListQueuedIDs() ([]string, error) {
	var jobIDs []string

	err := j.db.Model(&model.Job{}).
		Where("status = ?", model.JobStatusQueued).
		Order("created_at ASC").
		Pluck("id", &jobIDs).Error
	if err != nil {
		return nil, err
	}

	return jobIDs, nil
}

func (j *Job) GetByID(id string) (*model.Job, error) {
	var job model.Job

	err := j.db.Where("id = ?", id).First(&job).Error
	if err == nil {
		return &job, nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}

	return nil, err
}
