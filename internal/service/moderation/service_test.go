package moderation_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/config"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/service/moderation"
)

// captureNotifier records notifications instead of sending them.
type captureNotifier struct {
	mu    sync.Mutex
	sent  []int64
	texts []string
}

func (c *captureNotifier) Notify(_ context.Context, chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, chatID)
	c.texts = append(c.texts, text)
	return nil
}

func setupService(t *testing.T) (*moderation.Service, *app.AppContext, *captureNotifier) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	cfg := config.New()
	cfg.Moderation.BanThreshold = 5
	cfg.Moderation.DailyQuota = 5
	cfg.Moderation.AdminIDs = []int64{1001, 1002}

	notifier := &captureNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appCtx := app.New(cfg, dbase, nil, logger, notifier)
	return moderation.NewService(appCtx), appCtx, notifier
}

func seedProfile(t *testing.T, appCtx *app.AppContext, id uint64) {
	t.Helper()
	p := db.Profile{
		UserID:      id,
		Name:        fmt.Sprintf("User %d", id),
		Age:         30,
		Gender:      db.GenderFemale,
		CurrentCity: "Kyiv",
		SearchCity:  "Kyiv",
		DatingGoal:  db.GoalFriendship,
		Bio:         "a bio long enough to pass validation",
		Active:      true,
	}
	require.NoError(t, appCtx.DB.Create(&p).Error)
}

func TestFileDuplicatePair(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	seedProfile(t, appCtx, 2)

	r1, err := svc.File(ctx, 1, 2, "spam")
	require.NoError(t, err)
	assert.Equal(t, moderation.Filed, r1.Outcome)
	assert.NotEmpty(t, r1.Reference)

	// second complaint about the same target is rejected, even with a new reason
	r2, err := svc.File(ctx, 1, 2, "still spam")
	require.NoError(t, err)
	assert.Equal(t, moderation.RejectedDuplicate, r2.Outcome)
	assert.Empty(t, r2.Reference)

	var count int64
	appCtx.DB.Model(&db.Complaint{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// a duplicate does not consume quota
	var q db.DailyComplaintQuota
	require.NoError(t, appCtx.DB.First(&q, "user_id = ?", 1).Error)
	assert.Equal(t, 1, q.ComplaintsToday)
}

func TestFileDuplicateEvenWhenResolved(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	seedProfile(t, appCtx, 2)

	r1, err := svc.File(ctx, 1, 2, "spam")
	require.NoError(t, err)

	ok, err := svc.Resolve(ctx, r1.Reference, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	// the (reporter, target) pair stays used up after resolution
	r2, err := svc.File(ctx, 1, 2, "again")
	require.NoError(t, err)
	assert.Equal(t, moderation.RejectedDuplicate, r2.Outcome)
}

func TestAutoBanAtThreshold(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, notifier := setupService(t)
	seedProfile(t, appCtx, 100)
	for id := uint64(1); id <= 5; id++ {
		seedProfile(t, appCtx, id)
	}

	for id := uint64(1); id <= 4; id++ {
		r, err := svc.File(ctx, id, 100, "abuse")
		require.NoError(t, err)
		assert.False(t, r.AutoBanned)
	}

	var target db.Profile
	require.NoError(t, appCtx.DB.First(&target, "user_id = ?", 100).Error)
	assert.False(t, target.Banned)

	// the fifth distinct reporter trips the ban
	r, err := svc.File(ctx, 5, 100, "abuse")
	require.NoError(t, err)
	assert.True(t, r.AutoBanned)

	require.NoError(t, appCtx.DB.First(&target, "user_id = ?", 100).Error)
	assert.True(t, target.Banned)

	// every configured admin was notified once
	assert.ElementsMatch(t, []int64{1001, 1002}, notifier.sent)
}

func TestNoAutoBanFromSingleReporter(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, notifier := setupService(t)
	seedProfile(t, appCtx, 1)
	for id := uint64(10); id < 15; id++ {
		seedProfile(t, appCtx, id)
	}

	// one reporter spread over five targets never bans anyone
	for id := uint64(10); id < 15; id++ {
		r, err := svc.File(ctx, 1, id, "spam")
		require.NoError(t, err)
		assert.Equal(t, moderation.Filed, r.Outcome)
		assert.False(t, r.AutoBanned)
	}
	assert.Empty(t, notifier.sent)
}

func TestResolvedComplaintsDontCountTowardBan(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 100)
	for id := uint64(1); id <= 5; id++ {
		seedProfile(t, appCtx, id)
	}

	r1, err := svc.File(ctx, 1, 100, "abuse")
	require.NoError(t, err)
	ok, err := svc.Resolve(ctx, r1.Reference, 99)
	require.NoError(t, err)
	assert.True(t, ok)

	// reporters 2..5 bring the pending count to 4, below the threshold
	for id := uint64(2); id <= 5; id++ {
		r, err := svc.File(ctx, id, 100, "abuse")
		require.NoError(t, err)
		assert.False(t, r.AutoBanned)
	}

	var target db.Profile
	require.NoError(t, appCtx.DB.First(&target, "user_id = ?", 100).Error)
	assert.False(t, target.Banned)
}

func TestDailyQuota(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	for id := uint64(10); id < 16; id++ {
		seedProfile(t, appCtx, id)
	}

	for id := uint64(10); id < 15; id++ {
		_, err := svc.File(ctx, 1, id, "spam")
		require.NoError(t, err)
	}

	allowed, reason, err := svc.CanFile(ctx, 1)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.NotEmpty(t, reason)

	_, err = svc.File(ctx, 1, 15, "spam")
	require.Error(t, err)
	_, denied := apperr.IsPolicyDenied(err)
	assert.True(t, denied)

	// the denied complaint was rolled back, not left pending
	var count int64
	appCtx.DB.Model(&db.Complaint{}).Where("reporter_id = ?", 1).Count(&count)
	assert.Equal(t, int64(5), count)

	var q db.DailyComplaintQuota
	require.NoError(t, appCtx.DB.First(&q, "user_id = ?", 1).Error)
	assert.Equal(t, 5, q.ComplaintsToday)
}

func TestDuplicateAfterQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	for id := uint64(10); id < 15; id++ {
		seedProfile(t, appCtx, id)
	}

	for id := uint64(10); id < 15; id++ {
		_, err := svc.File(ctx, 1, id, "spam")
		require.NoError(t, err)
	}

	// a repeated pair is reported as a duplicate even once the quota is gone
	r, err := svc.File(ctx, 1, 10, "spam again")
	require.NoError(t, err)
	assert.Equal(t, moderation.RejectedDuplicate, r.Outcome)
}

func TestQuotaRollsOverAtMidnight(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	seedProfile(t, appCtx, 2)

	// exhausted quota dated yesterday is stale and resets lazily
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	q := db.DailyComplaintQuota{UserID: 1, ComplaintsToday: 5, QuotaDate: yesterday}
	require.NoError(t, appCtx.DB.Create(&q).Error)

	allowed, _, err := svc.CanFile(ctx, 1)
	require.NoError(t, err)
	assert.True(t, allowed)

	r, err := svc.File(ctx, 1, 2, "spam")
	require.NoError(t, err)
	assert.Equal(t, moderation.Filed, r.Outcome)

	var fresh db.DailyComplaintQuota
	require.NoError(t, appCtx.DB.First(&fresh, "user_id = ?", 1).Error)
	assert.Equal(t, 1, fresh.ComplaintsToday)
}

func TestFileSelfReport(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)

	_, err := svc.File(ctx, 1, 1, "why not")
	assert.Error(t, err)
}

func TestFileUnknownTarget(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)

	_, err := svc.File(ctx, 1, 404, "ghost")
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestResolveUnknownReference(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setupService(t)

	ok, err := svc.Resolve(ctx, "no-such-reference", 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingListsOldestFirst(t *testing.T) {
	ctx := context.Background()
	svc, appCtx, _ := setupService(t)
	seedProfile(t, appCtx, 1)
	seedProfile(t, appCtx, 2)
	seedProfile(t, appCtx, 3)

	r1, err := svc.File(ctx, 1, 3, "first")
	require.NoError(t, err)
	r2, err := svc.File(ctx, 2, 3, "second")
	require.NoError(t, err)

	pending, err := svc.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, r1.Reference, pending[0].Reference)
	assert.Equal(t, r2.Reference, pending[1].Reference)
}
