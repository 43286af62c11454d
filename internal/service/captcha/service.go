package captcha

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAttempts is how many wrong answers a user gets before the shell should
// tell them to come back later.
const maxAttempts = 3

// Challenge is a simple arithmetic human check. The shell renders Question
// and sends back the user's raw answer for Check.
type Challenge struct {
	Question string
	Answer   string
}

// Service tracks pre-registration verification state per user id.
type Service struct {
	appCtx *app.AppContext

	// rngMu serializes draws; one Service serves every request.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a captcha service. Pass a fixed-seed source in tests
// for reproducible challenges.
func NewService(appCtx *app.AppContext, src rand.Source) *Service {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Service{appCtx: appCtx, rng: rand.New(src)}
}

// Generate produces a fresh addition/subtraction challenge.
func (s *Service) Generate() Challenge {
	s.rngMu.Lock()
	a := s.rng.Intn(20) + 1
	b := s.rng.Intn(20) + 1
	subtract := s.rng.Intn(2) == 1
	s.rngMu.Unlock()

	if !subtract {
		return Challenge{
			Question: fmt.Sprintf("%d + %d = ?", a, b),
			Answer:   fmt.Sprintf("%d", a+b),
		}
	}
	if a < b {
		a, b = b, a
	}
	return Challenge{
		Question: fmt.Sprintf("%d - %d = ?", a, b),
		Answer:   fmt.Sprintf("%d", a-b),
	}
}

// IsVerified reports whether the user has already passed the check.
func (s *Service) IsVerified(ctx context.Context, userID uint64) (bool, error) {
	var attempt db.CaptchaAttempt
	err := s.appCtx.DB.WithContext(ctx).First(&attempt, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return attempt.Verified, nil
}

// RecordFailure bumps the attempt counter and returns the new total plus
// whether the user is now locked out.
func (s *Service) RecordFailure(ctx context.Context, userID uint64) (int, bool, error) {
	var attempts int
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		var attempt db.CaptchaAttempt
		err := tx.First(&attempt, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			attempt = db.CaptchaAttempt{UserID: userID}
		} else if err != nil {
			return err
		}
		attempt.Attempts++
		attempts = attempt.Attempts
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"attempts", "last_attempt"}),
		}).Create(&attempt).Error
	})
	if err != nil {
		return 0, false, err
	}
	return attempts, attempts >= maxAttempts, nil
}

// Verify marks the user as human. Sticky: once verified, always verified.
func (s *Service) Verify(ctx context.Context, userID uint64) error {
	attempt := db.CaptchaAttempt{UserID: userID, Verified: true}
	return s.appCtx.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"verified": true}),
		}).
		Create(&attempt).Error
}
