package repository

import (
	"context"
	"errors"
	"time"

	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/utils/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository provides data access for likes, matches and view
// records, the edges between profiles.
type EngagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new repository bound to the given DB connection.
func NewEngagementRepository(database *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: database}
}

// WithTx returns a copy of the repository scoped to the given transaction.
func (r *EngagementRepository) WithTx(tx *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: tx}
}

// InsertLike records a directed like edge. Re-inserting an existing pair is
// a no-op, never an error; the composite PK is the dedupe backstop when two
// concurrent calls race.
func (r *EngagementRepository) InsertLike(ctx context.Context, from, to uint64) error {
	like := db.Like{FromUser: from, ToUser: to}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
	if err != nil {
		return apperr.Store("insert like", err)
	}
	return nil
}

// HasLike checks whether from has liked to.
func (r *EngagementRepository) HasLike(ctx context.Context, from, to uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user = ? AND to_user = ?", from, to).
		Count(&count).Error
	if err != nil {
		return false, apperr.Store("check like", err)
	}
	return count > 0, nil
}

// InsertMatch materializes a mutual like exactly once per unordered pair,
// storing the canonical (min,max) ordering. Idempotent under races.
func (r *EngagementRepository) InsertMatch(ctx context.Context, a, b uint64) error {
	low, high := a, b
	if low > high {
		low, high = high, low
	}
	match := db.Match{UserLow: low, UserHigh: high}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&match).Error
	if err != nil {
		return apperr.Store("insert match", err)
	}
	return nil
}

// MatchEntry pairs a counterpart profile with the moment the match happened.
type MatchEntry struct {
	Profile   db.Profile
	MatchedAt time.Time
}

// Matches returns the user's matches newest first, restricted to active,
// non-banned counterparts, with cursor pagination.
func (r *EngagementRepository) Matches(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]MatchEntry, *string, error) {
	cursor, err := pagination.Decode(derefString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	type row struct {
		db.Profile `gorm:"embedded"`
		MatchedAt  time.Time
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("matches m").
		Select("p.*, m.created_at AS matched_at").
		Joins(`JOIN profiles p ON p.user_id = CASE WHEN m.user_low = ? THEN m.user_high ELSE m.user_low END`, userID).
		Where("(m.user_low = ? OR m.user_high = ?)", userID, userID).
		Where("p.active = ? AND p.banned = ?", true, false).
		Order("m.created_at DESC, p.user_id DESC").
		Limit(limit + 1)

	if cursor.UserID > 0 && cursor.MatchedUnix > 0 {
		ts := time.UnixMilli(cursor.MatchedUnix).UTC()
		query = query.Where(
			"(m.created_at < ? OR (m.created_at = ? AND p.user_id < ?))",
			ts, ts, cursor.UserID,
		)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, nil, apperr.Store("list matches", err)
	}

	var nextToken *string
	if len(rows) > limit {
		last := rows[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			UserID:      last.UserID,
			MatchedUnix: last.MatchedAt.UnixMilli(),
		})
		nextToken = &token
		rows = rows[:limit]
	}

	entries := make([]MatchEntry, 0, len(rows))
	for _, rw := range rows {
		entries = append(entries, MatchEntry{Profile: rw.Profile, MatchedAt: rw.MatchedAt})
	}
	return entries, nextToken, nil
}

// CountAdmirers returns how many active, non-banned users have liked the
// given user without being liked back yet. Matched pairs are mutual likes,
// so the reverse-like exclusion covers them too. Used behind the Redis
// cache, DB is the fallback.
func (r *EngagementRepository) CountAdmirers(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("likes l").
		Joins("JOIN profiles p ON p.user_id = l.from_user").
		Where("l.to_user = ?", userID).
		Where("p.active = ? AND p.banned = ?", true, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes r
				WHERE r.from_user = ? AND r.to_user = l.from_user
			)`, userID).
		Count(&count).Error
	if err != nil {
		return 0, apperr.Store("count admirers", err)
	}
	return count, nil
}

// GetView fetches the view record for a (viewer, viewed) pair, nil when the
// pair has never been shown.
func (r *EngagementRepository) GetView(ctx context.Context, viewerID, viewedID uint64) (*db.ViewRecord, error) {
	var v db.ViewRecord
	err := r.db.WithContext(ctx).
		First(&v, "viewer_id = ? AND viewed_id = ?", viewerID, viewedID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store("get view record", err)
	}
	return &v, nil
}

// SaveView upserts a view record with its new count and re-show time.
func (r *EngagementRepository) SaveView(ctx context.Context, v *db.ViewRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "viewer_id"}, {Name: "viewed_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"view_count", "visible_again"}),
		}).
		Create(v).Error
	if err != nil {
		return apperr.Store("save view record", err)
	}
	return nil
}

// derefString safely dereferences a string pointer for pagination tokens.
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
