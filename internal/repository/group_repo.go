package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// Sentinel errors surfaced by membership mutations.
var (
	// ErrCapacityExceeded is returned when the target group has no free slot
	// at the moment of insertion.
	ErrCapacityExceeded = errors.New("group capacity exceeded")
	// ErrNotAMember is returned when the student is not in the group they
	// were expected to leave.
	ErrNotAMember = errors.New("student is not a member of the expected group")
)

const memberPreload = "Members.Units"

// GroupRepository is the single source of truth for group membership. Every
// mutating method re-checks capacity inside its own transaction and writes
// the paired audit record in that same transaction, so a membership change
// without its audit entry can never be observed.
type GroupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	GetByID(ctx context.Context, id uint) (models.Group, error)
	Count(ctx context.Context) (int64, error)
	// PlaceNew persists a brand-new student into the target group. When
	// createGroup is true the target group row is created first and the
	// capacity check is trivially satisfied.
	PlaceNew(ctx context.Context, student *models.Student, target *models.Group, createGroup bool, capacity int, audit *models.AuditRecord) error
	// Relocate moves an existing student from one group to another.
	Relocate(ctx context.Context, studentID, fromID, toID uint, capacity int, audit *models.AuditRecord) error
	UpdateContactLink(ctx context.Context, id uint, link string) (models.Group, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs the group store.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) List(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).
		Preload(memberPreload).
		Order("id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload(memberPreload).First(&group, id).Error; err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *groupRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Group{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *groupRepository) PlaceNew(ctx context.Context, student *models.Student, target *models.Group, createGroup bool, capacity int, audit *models.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if createGroup {
			if err := tx.Create(target).Error; err != nil {
				return fmt.Errorf("create group: %w", err)
			}
		} else if err := ensureFreeSlot(tx, target.ID, capacity); err != nil {
			return err
		}

		student.GroupID = &target.ID
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("create student: %w", err)
		}

		audit.EntityID = &student.ID
		return tx.Create(audit).Error
	})
}

func (r *groupRepository) Relocate(ctx context.Context, studentID, fromID, toID uint, capacity int, audit *models.AuditRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureFreeSlot(tx, toID, capacity); err != nil {
			return err
		}

		update := tx.Model(&models.Student{}).
			Where("id = ? AND group_id = ?", studentID, fromID).
			Update("group_id", toID)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return ErrNotAMember
		}

		return tx.Create(audit).Error
	})
}

func (r *groupRepository) UpdateContactLink(ctx context.Context, id uint, link string) (models.Group, error) {
	update := r.db.WithContext(ctx).Model(&models.Group{}).
		Where("id = ?", id).
		Update("contact_link", link)
	if update.Error != nil {
		return models.Group{}, update.Error
	}
	if update.RowsAffected == 0 {
		return models.Group{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

// ensureFreeSlot re-counts membership at the moment of insertion. The caller
// already holds the store's critical section; this check additionally covers
// deployments running more than one API process against the same database.
func ensureFreeSlot(tx *gorm.DB, groupID uint, capacity int) error {
	var group models.Group
	if err := tx.First(&group, groupID).Error; err != nil {
		return err
	}

	var members int64
	if err := tx.Model(&models.Student{}).Where("group_id = ?", groupID).Count(&members).Error; err != nil {
		return err
	}
	if members >= int64(capacity) {
		return ErrCapacityExceeded
	}
	return nil
}
