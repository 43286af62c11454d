package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileOutcome classifies what happened to a filed complaint.
type FileOutcome int

const (
	Filed FileOutcome = iota
	RejectedDuplicate
)

// FileResult is returned by File.
type FileResult struct {
	Outcome    FileOutcome
	Reference  string // public complaint handle, empty on duplicates
	AutoBanned bool
}

// Service accepts complaints, enforces the per-reporter daily quota,
// deduplicates per (reporter, target) pair, and bans a target once enough
// distinct reporters have pending complaints against them. Banning is
// monotonic here; unbanning is an administrative action elsewhere.
type Service struct {
	appCtx      *app.AppContext
	modRepo     *repository.ModerationRepository
	profileRepo *repository.ProfileRepository

	banThreshold int
	dailyQuota   int
	adminIDs     []int64

	now func() time.Time
}

// NewService creates a moderation service with dependencies from AppContext.
// Thresholds and the admin notification list come from config, not constants.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		modRepo:      repository.NewModerationRepository(appCtx.DB),
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		banThreshold: appCtx.Cfg.Moderation.BanThreshold,
		dailyQuota:   appCtx.Cfg.Moderation.DailyQuota,
		adminIDs:     appCtx.Cfg.Moderation.AdminIDs,
		now:          time.Now,
	}
}

// CanFile reports whether the reporter still has daily quota left. The quota
// row is created lazily and rolls over lazily on date change. This read is
// advisory, for the shell to grey out the report button; File re-checks the
// quota atomically inside its own transaction.
func (s *Service) CanFile(ctx context.Context, reporterID uint64) (bool, string, error) {
	q, err := s.modRepo.GetQuota(ctx, reporterID)
	if err != nil {
		return false, "", err
	}
	if q == nil {
		return true, "", nil
	}
	if sameDate(q.QuotaDate.UTC(), s.now().UTC()) && q.ComplaintsToday >= s.dailyQuota {
		return false, s.quotaReason(), nil
	}
	return true, "", nil
}

// File processes a complaint, in order:
//
//	(a) reject as duplicate when this reporter already complained about this
//	    target, regardless of status or remaining quota;
//	(b) insert the pending complaint and consume one unit of the reporter's
//	    daily quota; a quota rejection rolls the insert back;
//	(c) count distinct reporters with pending complaints against the target;
//	(d) at the threshold, flip the target's banned flag and notify admins.
//
// All steps run in one transaction. The (reporter,target) unique key, the
// conditional quota UPDATE and the banned-flag conditional update keep
// concurrent calls single-shot.
func (s *Service) File(ctx context.Context, reporterID, targetID uint64, reason string) (FileResult, error) {
	if reporterID == targetID {
		return FileResult{}, apperr.Invalid("target", "cannot report yourself")
	}
	if _, err := s.profileRepo.Get(ctx, targetID); err != nil {
		return FileResult{}, err
	}

	today := quotaDay(s.now())
	var result FileResult
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.modRepo.WithTx(tx)

		complaint := &db.Complaint{
			Reference:  uuid.NewString(),
			ReporterID: reporterID,
			TargetID:   targetID,
			Reason:     reason,
			Status:     db.ComplaintPending,
		}
		inserted, err := repo.InsertComplaint(ctx, complaint)
		if err != nil {
			return err
		}
		if !inserted {
			result = FileResult{Outcome: RejectedDuplicate}
			return nil
		}

		ok, err := repo.TryBumpQuota(ctx, reporterID, today, s.dailyQuota)
		if err != nil {
			return err
		}
		if !ok {
			// the returned error rolls the complaint insert back
			return apperr.Denied(s.quotaReason())
		}
		result = FileResult{Outcome: Filed, Reference: complaint.Reference}

		reporters, err := repo.CountDistinctPendingReporters(ctx, targetID)
		if err != nil {
			return err
		}
		if reporters >= int64(s.banThreshold) {
			banned, err := repo.Ban(ctx, targetID)
			if err != nil {
				return err
			}
			result.AutoBanned = banned
		}
		return nil
	})
	if err != nil {
		return FileResult{}, err
	}

	if result.AutoBanned {
		s.appCtx.Logger.Warn("auto-ban triggered", "target", targetID, "threshold", s.banThreshold)
		s.notifyAdmins(ctx, fmt.Sprintf(
			"User %d was auto-banned after complaints from %d distinct reporters (last complaint %s).",
			targetID, s.banThreshold, result.Reference,
		))
	}
	return result, nil
}

// Pending lists pending complaints for admin review, oldest first.
func (s *Service) Pending(ctx context.Context, limit int) ([]db.Complaint, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.modRepo.PendingComplaints(ctx, limit)
}

// Resolve marks the referenced complaint resolved. Resolved complaints stop
// counting toward the distinct-reporter threshold.
func (s *Service) Resolve(ctx context.Context, reference string, adminID uint64) (bool, error) {
	return s.modRepo.Resolve(ctx, reference, adminID, s.now())
}

func (s *Service) quotaReason() string {
	return fmt.Sprintf("you can file at most %d complaints per day", s.dailyQuota)
}

// notifyAdmins is best-effort; failures are logged, never surfaced.
func (s *Service) notifyAdmins(ctx context.Context, text string) {
	for _, adminID := range s.adminIDs {
		if err := s.appCtx.Notifier.Notify(ctx, adminID, text); err != nil {
			s.appCtx.Logger.Warn("admin notification failed", "admin", adminID, "err", err)
		}
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// quotaDay normalizes a moment to its UTC calendar day. Quota rows always
// store UTC midnights so date comparisons stay zone-independent.
func quotaDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
