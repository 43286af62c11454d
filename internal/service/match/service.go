package match

import (
	"context"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/repository"

	"gorm.io/gorm"
)

// Result of recording a like.
type Result int

const (
	NoMatch Result = iota
	NewMatch
)

// Service implements the like → mutual-like → match pipeline plus match
// listings and the cached admirers count.
type Service struct {
	appCtx      *app.AppContext
	engageRepo  *repository.EngagementRepository
	profileRepo *repository.ProfileRepository
}

// NewService creates a match service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:      appCtx,
		engageRepo:  repository.NewEngagementRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
	}
}

// RecordLike inserts the directed like edge (idempotently) and, when the
// reverse edge already exists, materializes the match. Like insert, reverse
// check and match insert run in one transaction; the unique keys on both
// edge tables make concurrent reciprocal calls converge on a single match.
func (s *Service) RecordLike(ctx context.Context, from, to uint64) (Result, error) {
	if from == to {
		return NoMatch, apperr.Invalid("to", "cannot like yourself")
	}
	if _, err := s.profileRepo.Get(ctx, to); err != nil {
		return NoMatch, err
	}

	var result Result
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.engageRepo.WithTx(tx)

		if err := repo.InsertLike(ctx, from, to); err != nil {
			return err
		}

		mutual, err := repo.HasLike(ctx, to, from)
		if err != nil {
			return err
		}
		if !mutual {
			result = NoMatch
			return nil
		}

		if err := repo.InsertMatch(ctx, from, to); err != nil {
			return err
		}
		result = NewMatch
		return nil
	})
	if err != nil {
		return NoMatch, err
	}

	// the like changes the recipient's admirer count and, when it answers an
	// earlier like, the sender's own; invalidate both, best-effort
	for _, id := range []uint64{to, from} {
		if cacheErr := s.appCtx.RedisCache.Del(ctx, s.appCtx.RedisCache.KeyForAdmirerCount(id)); cacheErr != nil {
			s.appCtx.Logger.Debug("admirer count cache invalidation failed", "user", id, "err", cacheErr)
		}
	}

	if result == NewMatch {
		s.appCtx.Logger.Info("match created", "a", from, "b", to)
	}
	return result, nil
}

// Matches returns the user's matches newest first, active and non-banned
// counterparts only, with cursor pagination.
func (s *Service) Matches(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]repository.MatchEntry, *string, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.engageRepo.Matches(ctx, userID, paginationToken, limit)
}

// CountAdmirers returns how many users have liked the given user.
// Cache-first: Redis with a 1h TTL, DB on miss, cache refill on fetch.
// A cache failure falls through to the DB, never the other way around.
func (s *Service) CountAdmirers(ctx context.Context, userID uint64) (int64, error) {
	if cached, ok, err := s.appCtx.RedisCache.GetAdmirerCount(ctx, userID); err == nil && ok {
		return cached, nil
	}

	count, err := s.engageRepo.CountAdmirers(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.appCtx.RedisCache.UpdateAdmirerCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Debug("admirer count cache set failed", "err", err)
	}
	return count, nil
}
