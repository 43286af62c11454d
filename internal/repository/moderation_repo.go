package repository

import (
	"context"
	"errors"
	"time"

	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModerationRepository provides data access for complaints, daily quotas and
// the ban transition.
type ModerationRepository struct {
	db *gorm.DB
}

// NewModerationRepository creates a new repository bound to the given DB connection.
func NewModerationRepository(database *gorm.DB) *ModerationRepository {
	return &ModerationRepository{db: database}
}

// WithTx returns a copy of the repository scoped to the given transaction.
func (r *ModerationRepository) WithTx(tx *gorm.DB) *ModerationRepository {
	return &ModerationRepository{db: tx}
}

// InsertComplaint inserts a pending complaint. Returns false without error
// when a complaint for the same (reporter, target) pair already exists; the
// unique index absorbs the race between two concurrent attempts.
func (r *ModerationRepository) InsertComplaint(ctx context.Context, c *db.Complaint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reporter_id"}, {Name: "target_id"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return false, apperr.Store("insert complaint", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// HasComplaint checks for an existing complaint from reporter against
// target, regardless of status.
func (r *ModerationRepository) HasComplaint(ctx context.Context, reporterID, targetID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Complaint{}).
		Where("reporter_id = ? AND target_id = ?", reporterID, targetID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Store("check complaint", err)
	}
	return count > 0, nil
}

// CountDistinctPendingReporters counts how many different users currently
// have a pending complaint against the target. This, not the raw row count,
// feeds the auto-ban threshold.
func (r *ModerationRepository) CountDistinctPendingReporters(ctx context.Context, targetID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Complaint{}).
		Distinct("reporter_id").
		Where("target_id = ? AND status = ?", targetID, db.ComplaintPending).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Store("count reporters", err)
	}
	return count, nil
}

// Ban flips the target's banned flag. Returns true only for the call that
// performed the transition, so concurrent threshold hits report the ban once.
func (r *ModerationRepository) Ban(ctx context.Context, targetID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ? AND banned = ?", targetID, false).
		Update("banned", true)
	if res.Error != nil {
		return false, apperr.Store("ban profile", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetQuota fetches the reporter's daily quota row, nil when none exists yet.
func (r *ModerationRepository) GetQuota(ctx context.Context, userID uint64) (*db.DailyComplaintQuota, error) {
	var q db.DailyComplaintQuota
	err := r.db.WithContext(ctx).First(&q, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("get quota", err)
	}
	return &q, nil
}

// TryBumpQuota consumes one unit of the reporter's daily quota, rolling a
// stale row over to today in the same statement. Returns false when today's
// quota is exhausted. The bump is a single conditional UPDATE rather than a
// read-modify-write, so concurrent callers at the cap cannot both slip past
// it and increments are never lost.
func (r *ModerationRepository) TryBumpQuota(ctx context.Context, reporterID uint64, today time.Time, limit int) (bool, error) {
	bump := func() (int64, error) {
		res := r.db.WithContext(ctx).
			Model(&db.DailyComplaintQuota{}).
			Where("user_id = ? AND (quota_date < ? OR complaints_today < ?)", reporterID, today, limit).
			Updates(map[string]interface{}{
				"complaints_today": gorm.Expr("CASE WHEN quota_date < ? THEN 1 ELSE complaints_today + 1 END", today),
				"quota_date":       today,
			})
		if res.Error != nil {
			return 0, apperr.Store("bump quota", res.Error)
		}
		return res.RowsAffected, nil
	}

	affected, err := bump()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	// either no row exists yet or the cap is hit; the keyed insert tells
	// them apart
	q := db.DailyComplaintQuota{UserID: reporterID, ComplaintsToday: 1, QuotaDate: today}
	ins := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&q)
	if ins.Error != nil {
		return false, apperr.Store("bump quota", ins.Error)
	}
	if ins.RowsAffected > 0 {
		return true, nil
	}

	// a concurrent caller created the row between the UPDATE and the
	// insert; one more conditional bump settles it
	affected, err = bump()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// PendingComplaints lists pending complaints oldest first for admin review.
func (r *ModerationRepository) PendingComplaints(ctx context.Context, limit int) ([]db.Complaint, error) {
	var complaints []db.Complaint
	err := r.db.WithContext(ctx).
		Where("status = ?", db.ComplaintPending).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&complaints).Error
	if err != nil {
		return nil, apperr.Store("list complaints", err)
	}
	return complaints, nil
}

// Resolve marks a pending complaint resolved. Returns false when the
// reference is unknown or already resolved.
func (r *ModerationRepository) Resolve(ctx context.Context, reference string, adminID uint64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Complaint{}).
		Where("reference = ? AND status = ?", reference, db.ComplaintPending).
		Updates(map[string]interface{}{
			"status":      db.ComplaintResolved,
			"resolved_at": now,
			"resolved_by": adminID,
		})
	if res.Error != nil {
		return false, apperr.Store("resolve complaint", res.Error)
	}
	return res.RowsAffected > 0, nil
}
