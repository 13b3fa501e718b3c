// Package repos provides repository access to the job archive.
package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/banksythequantLab/songtov/internal/db/models"
)

// JobRecordRepository persists terminal job snapshots.
type JobRecordRepository struct {
	db *gorm.DB
}

// NewJobRecordRepository creates a new job record repository instance
func NewJobRecordRepository(db *gorm.DB) *JobRecordRepository {
	return &JobRecordRepository{db: db}
}

// Create inserts or replaces an archive record. Records are keyed by job
// ID; a watchdog-failed job later re-recorded keeps the newest snapshot.
func (r *JobRecordRepository) Create(ctx context.Context, record *models.JobRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(record).Error
}

// GetByID retrieves an archived record by job ID.
func (r *JobRecordRepository) GetByID(ctx context.Context, id string) (*models.JobRecord, error) {
	var record models.JobRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job record not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List retrieves archived records, newest first, optionally filtered by
// status.
func (r *JobRecordRepository) List(ctx context.Context, status string, limit, offset int) ([]models.JobRecord, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []models.JobRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// RecordTerminal implements jobs.Recorder: it flattens a terminal job
// snapshot and stores it.
func (r *JobRecordRepository) RecordTerminal(ctx context.Context, job *models.Job) error {
	record, err := models.NewJobRecord(job)
	if err != nil {
		return fmt.Errorf("building job record: %w", err)
	}
	return r.Create(ctx, record)
}
