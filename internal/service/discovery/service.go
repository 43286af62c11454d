package discovery

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/geo"
	"github.com/antonkh/kupid/internal/repository"

	"gorm.io/gorm"
)

// Escalating re-show schedule: 1st view +7d, 2nd +30d, 3rd and later +180d.
const (
	firstViewCooldown  = 7 * 24 * time.Hour
	secondViewCooldown = 30 * 24 * time.Hour
	laterViewCooldown  = 180 * 24 * time.Hour
)

// Service decides who a viewer may see next and tracks view cooldowns. It
// returns plain profile records; rendering belongs to the shell.
type Service struct {
	appCtx      *app.AppContext
	profileRepo *repository.ProfileRepository
	engageRepo  *repository.EngagementRepository

	now func() time.Time

	// rngMu serializes draws; one Service serves every request.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a discovery service with dependencies from AppContext.
// The random source drives candidate selection; pass a fixed-seed source in
// tests for a reproducible pick.
func NewService(appCtx *app.AppContext, src rand.Source) *Service {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		engageRepo:  repository.NewEngagementRepository(appCtx.DB),
		now:         time.Now,
		rng:         rand.New(src),
	}
}

// Next returns at most one candidate for the viewer, chosen uniformly at
// random from the qualifying set, or nil when nobody qualifies.
//
// The qualifying set excludes the viewer, everyone they already liked or
// matched, everyone inside a view cooldown, and (unless the viewer searches
// everywhere) everyone failing the locale filter. "Already shown" across
// calls is entirely the cooldown's job; the selector keeps no state.
func (s *Service) Next(ctx context.Context, viewerID uint64) (*db.Profile, error) {
	viewer, err := s.profileRepo.Get(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	pool, err := s.profileRepo.CandidatePool(ctx, viewerID, s.now())
	if err != nil {
		return nil, err
	}

	var qualifying []db.Profile
	for i := range pool {
		if viewer.SearchEverywhere || localeMatch(viewer, &pool[i]) {
			qualifying = append(qualifying, pool[i])
		}
	}

	if len(qualifying) == 0 {
		s.appCtx.Logger.Debug("no candidates", "viewer", viewerID)
		return nil, nil
	}

	s.rngMu.Lock()
	idx := s.rng.Intn(len(qualifying))
	s.rngMu.Unlock()
	pick := qualifying[idx]
	return &pick, nil
}

// MarkViewed records that the candidate was shown to the viewer and pushes
// the next eligible re-show time down the escalation schedule.
func (s *Service) MarkViewed(ctx context.Context, viewerID, viewedID uint64) error {
	now := s.now()
	return s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.engageRepo.WithTx(tx)

		current, err := repo.GetView(ctx, viewerID, viewedID)
		if err != nil {
			return err
		}

		count := 1
		first := now
		if current != nil {
			count = current.ViewCount + 1
			first = current.FirstView
		}

		return repo.SaveView(ctx, &db.ViewRecord{
			ViewerID:     viewerID,
			ViewedID:     viewedID,
			FirstView:    first,
			ViewCount:    count,
			VisibleAgain: now.Add(cooldownAfter(count)),
		})
	})
}

// IsEligible reports whether the candidate may currently be shown to the
// viewer: no record yet, or the cooldown has elapsed.
func (s *Service) IsEligible(ctx context.Context, viewerID, candidateID uint64, now time.Time) (bool, error) {
	v, err := s.engageRepo.GetView(ctx, viewerID, candidateID)
	if err != nil {
		return false, err
	}
	if v == nil {
		return true, nil
	}
	return !now.Before(v.VisibleAgain), nil
}

// cooldownAfter maps the n-th view to its cooldown. The schedule plateaus at
// 180 days from the third view on.
func cooldownAfter(viewCount int) time.Duration {
	switch {
	case viewCount <= 1:
		return firstViewCooldown
	case viewCount == 2:
		return secondViewCooldown
	default:
		return laterViewCooldown
	}
}

// localeMatch implements the geographic filter for viewers with a bounded
// search scope. A candidate qualifies when:
//   - their current city matches the viewer's search city, or
//   - their own search city matches the viewer's current city, or
//   - both sides have coordinates and the candidate's current position lies
//     within the viewer's search radius of the viewer's search point.
//
// City comparison is case-insensitive substring in either direction.
func localeMatch(viewer, candidate *db.Profile) bool {
	if cityContains(candidate.CurrentCity, viewer.SearchCity) {
		return true
	}
	if cityContains(candidate.SearchCity, viewer.CurrentCity) {
		return true
	}

	if viewer.SearchLat != nil && viewer.SearchLon != nil &&
		candidate.CurrentLat != nil && candidate.CurrentLon != nil &&
		viewer.SearchRadiusKm > 0 {
		d := geo.DistanceKm(*viewer.SearchLat, *viewer.SearchLon, *candidate.CurrentLat, *candidate.CurrentLon)
		if d <= float64(viewer.SearchRadiusKm) {
			return true
		}
	}

	return false
}

func cityContains(haystack, needle string) bool {
	if haystack == "" || needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
