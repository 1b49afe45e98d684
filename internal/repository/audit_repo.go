package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// AuditRepository appends to and pages through the immutable audit trail.
// There is intentionally no update or delete method.
type AuditRepository interface {
	Create(ctx context.Context, record *models.AuditRecord) error
	// List returns records newest first; equal timestamps fall back to the
	// insertion sequence.
	List(ctx context.Context, page, pageSize int) ([]models.AuditRecord, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository constructs the audit trail repository.
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, record *models.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *auditRepository) List(ctx context.Context, page, pageSize int) ([]models.AuditRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditRecord{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if pageSize > 0 {
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var records []models.AuditRecord
	if err := query.Order("created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
