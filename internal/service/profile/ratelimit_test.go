package profile_test

import (
	"testing"
	"time"

	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/repository"
	"github.com/antonkh/kupid/internal/service/profile"

	"github.com/stretchr/testify/assert"
)

func ts(t time.Time) *time.Time { return &t }

func TestCanChangeName_Boundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 30 days minus one second ago: denied
	p := &db.Profile{LastNameChange: ts(now.Add(-30*24*time.Hour + time.Second))}
	d := profile.CanChange(p, repository.FieldName, now)
	assert.False(t, d.Allowed)
	assert.NotEmpty(t, d.Reason)

	// exactly 30 days ago: allowed
	p = &db.Profile{LastNameChange: ts(now.Add(-30 * 24 * time.Hour))}
	d = profile.CanChange(p, repository.FieldName, now)
	assert.True(t, d.Allowed)
}

func TestCanChangeName_NeverChanged(t *testing.T) {
	d := profile.CanChange(&db.Profile{}, repository.FieldName, time.Now())
	assert.True(t, d.Allowed)
}

func TestCanChangeAge_DailyInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p := &db.Profile{AgeChanges: 1, LastAgeChange: ts(now.Add(-23 * time.Hour))}
	d := profile.CanChange(p, repository.FieldAge, now)
	assert.False(t, d.Allowed)

	p = &db.Profile{AgeChanges: 1, LastAgeChange: ts(now.Add(-25 * time.Hour))}
	d = profile.CanChange(p, repository.FieldAge, now)
	assert.True(t, d.Allowed)
}

func TestCanChangeAge_WindowCap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// 3 changes, last one 10 days ago: denied
	p := &db.Profile{AgeChanges: 3, LastAgeChange: ts(now.Add(-10 * 24 * time.Hour))}
	d := profile.CanChange(p, repository.FieldAge, now)
	assert.False(t, d.Allowed)

	// 3 changes, last one 31 days ago: window expired, counter resets
	p = &db.Profile{AgeChanges: 3, LastAgeChange: ts(now.Add(-31 * 24 * time.Hour))}
	d = profile.CanChange(p, repository.FieldAge, now)
	assert.True(t, d.Allowed)
	assert.True(t, d.ResetAgeChanges)
}

func TestCanChangeLocation_DailyCap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p := &db.Profile{
		LocationChangesToday: 5,
		LastLocationChange:   ts(now.Add(-time.Hour)), // same day
	}
	d := profile.CanChange(p, repository.FieldCurrentCity, now)
	assert.False(t, d.Allowed)

	// same count, but the last change was yesterday: daily counter resets
	p = &db.Profile{
		LocationChangesToday: 5,
		LastLocationChange:   ts(now.Add(-24 * time.Hour)),
	}
	d = profile.CanChange(p, repository.FieldCurrentCity, now)
	assert.True(t, d.Allowed)
	assert.True(t, d.ResetLocationToday)
}

func TestCanChangeLocation_MonthlyCap(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// monthly cap hit inside the window: denied even though today is fresh
	p := &db.Profile{
		LocationChangesToday: 0,
		LocationChangesMonth: 15,
		LastLocationChange:   ts(now.Add(-5 * 24 * time.Hour)),
	}
	d := profile.CanChange(p, repository.FieldSearchCity, now)
	assert.False(t, d.Allowed)

	// window expired: monthly counter resets
	p.LastLocationChange = ts(now.Add(-31 * 24 * time.Hour))
	d = profile.CanChange(p, repository.FieldSearchCity, now)
	assert.True(t, d.Allowed)
	assert.True(t, d.ResetLocationMonth)
}

func TestCanChange_BothLocationCapsIndependent(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// daily cap fine, monthly cap hit → denied
	p := &db.Profile{
		LocationChangesToday: 1,
		LocationChangesMonth: 15,
		LastLocationChange:   ts(now.Add(-time.Hour)),
	}
	d := profile.CanChange(p, repository.FieldSearchCoords, now)
	assert.False(t, d.Allowed)
}

func TestCanChange_UnlimitedFields(t *testing.T) {
	now := time.Now()
	p := &db.Profile{
		LocationChangesToday: 5,
		LocationChangesMonth: 15,
		LastLocationChange:   ts(now.Add(-time.Minute)),
	}

	for _, f := range []repository.ProfileField{
		repository.FieldBio,
		repository.FieldDatingGoal,
		repository.FieldSearchRadius,
		repository.FieldSearchEverywhere,
	} {
		d := profile.CanChange(p, f, now)
		assert.True(t, d.Allowed, "field %s should not be rate limited", f)
	}
}
