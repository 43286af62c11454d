package repository

import (
	"context"
	"errors"
	"time"

	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/db"

	"gorm.io/gorm"
)

// ProfileField enumerates the mutable profile fields the edit path accepts.
// Anything outside this allow-list cannot be changed through UpdateField.
type ProfileField string

const (
	FieldName             ProfileField = "name"
	FieldAge              ProfileField = "age"
	FieldBio              ProfileField = "bio"
	FieldDatingGoal       ProfileField = "dating_goal"
	FieldCurrentCity      ProfileField = "current_city"
	FieldCurrentCoords    ProfileField = "current_coords"
	FieldSearchCity       ProfileField = "search_city"
	FieldSearchCoords     ProfileField = "search_coords"
	FieldSearchRadius     ProfileField = "search_radius_km"
	FieldSearchEverywhere ProfileField = "search_everywhere"
)

// Coords carries an optional coordinate pair for the coordinate fields.
type Coords struct {
	Lat *float64
	Lon *float64
}

// IsLocationField reports whether a change to the field counts against the
// location rate limits.
func (f ProfileField) IsLocationField() bool {
	switch f {
	case FieldCurrentCity, FieldCurrentCoords, FieldSearchCity, FieldSearchCoords:
		return true
	}
	return false
}

// ProfileRepository provides data access for profiles and their photos.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new repository bound to the given DB connection.
func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// WithTx returns a copy of the repository scoped to the given transaction.
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: tx}
}

// Get fetches a profile by user id. Missing rows surface as
// apperr.ErrProfileNotFound so callers can treat them as a no-op answer.
func (r *ProfileRepository) Get(ctx context.Context, userID uint64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrProfileNotFound
	}
	if err != nil {
		return nil, apperr.Store("get profile", err)
	}
	return &p, nil
}

// Create inserts a new profile row.
func (r *ProfileRepository) Create(ctx context.Context, p *db.Profile) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperr.Store("create profile", err)
	}
	return nil
}

// UpdateField mutates exactly one allow-listed field, bumping the relevant
// change counters and timestamps in the same UPDATE so the write and its
// bookkeeping cannot diverge.
//
// Counter side effects:
//   - name  → name_changes+1, last_name_change = now
//   - age   → age_changes+1, last_age_change = now
//   - location fields → location_changes_today+1, location_changes_month+1,
//     last_location_change = now
//
// Radius, everywhere-flag, bio and goal carry no counters.
func (r *ProfileRepository) UpdateField(ctx context.Context, userID uint64, field ProfileField, value interface{}, now time.Time) error {
	updates := map[string]interface{}{}

	switch field {
	case FieldName:
		updates["name"] = value
		updates["name_changes"] = gorm.Expr("name_changes + 1")
		updates["last_name_change"] = now
	case FieldAge:
		updates["age"] = value
		updates["age_changes"] = gorm.Expr("age_changes + 1")
		updates["last_age_change"] = now
	case FieldBio:
		updates["bio"] = value
	case FieldDatingGoal:
		updates["dating_goal"] = value
	case FieldCurrentCity:
		updates["current_city"] = value
	case FieldSearchCity:
		updates["search_city"] = value
	case FieldCurrentCoords:
		c, ok := value.(Coords)
		if !ok {
			return apperr.Invalid(string(field), "expected coordinate pair")
		}
		updates["current_lat"] = c.Lat
		updates["current_lon"] = c.Lon
	case FieldSearchCoords:
		c, ok := value.(Coords)
		if !ok {
			return apperr.Invalid(string(field), "expected coordinate pair")
		}
		updates["search_lat"] = c.Lat
		updates["search_lon"] = c.Lon
	case FieldSearchRadius:
		updates["search_radius_km"] = value
	case FieldSearchEverywhere:
		updates["search_everywhere"] = value
	default:
		return apperr.Invalid(string(field), "field is not editable")
	}

	if field.IsLocationField() {
		updates["location_changes_today"] = gorm.Expr("location_changes_today + 1")
		updates["location_changes_month"] = gorm.Expr("location_changes_month + 1")
		updates["last_location_change"] = now
	}

	res := r.db.WithContext(ctx).Model(&db.Profile{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return apperr.Store("update profile field", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProfileNotFound
	}
	return nil
}

// ResetCounters zeroes the requested change counters. Used by the lazy-reset
// path of the rate-limit policy; runs in the caller's transaction.
func (r *ProfileRepository) ResetCounters(ctx context.Context, userID uint64, age, locToday, locMonth bool) error {
	updates := map[string]interface{}{}
	if age {
		updates["age_changes"] = 0
	}
	if locToday {
		updates["location_changes_today"] = 0
	}
	if locMonth {
		updates["location_changes_month"] = 0
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where("user_id = ?", userID).Updates(updates).Error
	if err != nil {
		return apperr.Store("reset counters", err)
	}
	return nil
}

// SetActive toggles the profile's visibility in discovery.
func (r *ProfileRepository) SetActive(ctx context.Context, userID uint64, active bool) error {
	res := r.db.WithContext(ctx).Model(&db.Profile{}).Where("user_id = ?", userID).Update("active", active)
	if res.Error != nil {
		return apperr.Store("set active", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProfileNotFound
	}
	return nil
}

// Touch bumps last_active.
func (r *ProfileRepository) Touch(ctx context.Context, userID uint64, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&db.Profile{}).Where("user_id = ?", userID).Update("last_active", now).Error
	if err != nil {
		return apperr.Store("touch profile", err)
	}
	return nil
}

// CandidatePool returns every active, non-banned profile the viewer may still
// be shown: not themselves, not already liked, not matched, and not inside a
// view cooldown. Locale filtering happens above this layer.
func (r *ProfileRepository) CandidatePool(ctx context.Context, viewerID uint64, now time.Time) ([]db.Profile, error) {
	var candidates []db.Profile

	err := r.db.WithContext(ctx).
		Table("profiles p").
		Where("p.user_id != ?", viewerID).
		Where("p.active = ? AND p.banned = ?", true, false).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l
				WHERE l.from_user = ? AND l.to_user = p.user_id
			)`, viewerID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user_low = ? AND m.user_high = p.user_id)
				   OR (m.user_high = ? AND m.user_low = p.user_id)
			)`, viewerID, viewerID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM view_records v
				WHERE v.viewer_id = ? AND v.viewed_id = p.user_id AND v.visible_again > ?
			)`, viewerID, now).
		Find(&candidates).Error
	if err != nil {
		return nil, apperr.Store("candidate pool", err)
	}
	return candidates, nil
}

// AddPhoto attaches a photo reference; when main is true the previous main
// photo is demoted in the same transaction.
func (r *ProfileRepository) AddPhoto(ctx context.Context, userID uint64, photoID string, main bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if main {
			if err := tx.Model(&db.Photo{}).Where("user_id = ?", userID).Update("main", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&db.Photo{UserID: userID, PhotoID: photoID, Main: main}).Error
	})
	if err != nil {
		return apperr.Store("add photo", err)
	}
	return nil
}

// Photos lists a profile's photos, main first, then oldest first.
func (r *ProfileRepository) Photos(ctx context.Context, userID uint64) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("main DESC, created_at ASC").
		Find(&photos).Error
	if err != nil {
		return nil, apperr.Store("list photos", err)
	}
	return photos, nil
}
