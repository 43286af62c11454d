package profile

import (
	"context"
	"time"

	"github.com/antonkh/kupid/internal/app"
	"github.com/antonkh/kupid/internal/apperr"
	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/repository"

	"gorm.io/gorm"
)

// Validation bounds for profile fields.
const (
	minAge  = 16
	maxAge  = 100
	minName = 2
	maxName = 50
	minBio  = 10
	maxBio  = 500
)

// Verifier answers whether a user has passed the pre-registration human
// check. Satisfied by the captcha service.
type Verifier interface {
	IsVerified(ctx context.Context, userID uint64) (bool, error)
}

// Service owns profile lifecycle: registration, rate-limited field edits,
// photos and activity flags. The chat shell hands it already-typed values;
// no free text is parsed here.
type Service struct {
	appCtx   *app.AppContext
	repo     *repository.ProfileRepository
	verifier Verifier

	now func() time.Time
}

// NewService creates a profile service with dependencies from AppContext.
// A nil verifier disables the registration human check.
func NewService(appCtx *app.AppContext, verifier Verifier) *Service {
	return &Service{
		appCtx:   appCtx,
		repo:     repository.NewProfileRepository(appCtx.DB),
		verifier: verifier,
		now:      time.Now,
	}
}

// RegisterInput carries the validated-by-type (not yet by-range) registration
// form collected by the shell.
type RegisterInput struct {
	UserID           uint64
	Username         string
	Name             string
	Age              int
	Gender           string
	CurrentCity      string
	CurrentLat       *float64
	CurrentLon       *float64
	SearchCity       string
	SearchEverywhere bool
	SearchLat        *float64
	SearchLon        *float64
	SearchRadiusKm   int
	DatingGoal       string
	Bio              string
}

// Register validates the input ranges and creates the profile. When a
// verifier is configured the user must have passed the human check first.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.Profile, error) {
	if s.verifier != nil {
		verified, err := s.verifier.IsVerified(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !verified {
			return nil, apperr.ErrNotVerified
		}
	}

	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validateAge(in.Age); err != nil {
		return nil, err
	}
	if err := validateBio(in.Bio); err != nil {
		return nil, err
	}
	if in.Gender != db.GenderMale && in.Gender != db.GenderFemale {
		return nil, apperr.Invalid("gender", "unknown gender")
	}
	if !in.SearchEverywhere && in.SearchRadiusKm <= 0 {
		return nil, apperr.Invalid("search_radius_km", "radius must be positive")
	}

	radius := in.SearchRadiusKm
	if in.SearchEverywhere {
		radius = 0 // radius is meaningless when searching everywhere
	}

	p := &db.Profile{
		UserID:           in.UserID,
		Username:         in.Username,
		Name:             in.Name,
		Age:              in.Age,
		Gender:           in.Gender,
		CurrentCity:      in.CurrentCity,
		CurrentLat:       in.CurrentLat,
		CurrentLon:       in.CurrentLon,
		SearchCity:       in.SearchCity,
		SearchEverywhere: in.SearchEverywhere,
		SearchLat:        in.SearchLat,
		SearchLon:        in.SearchLon,
		SearchRadiusKm:   radius,
		DatingGoal:       in.DatingGoal,
		Bio:              in.Bio,
		Active:           true,
		LastActive:       s.now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("profile registered", "user_id", in.UserID, "city", in.CurrentCity)
	return p, nil
}

// Get returns the profile for the given user id.
func (s *Service) Get(ctx context.Context, userID uint64) (*db.Profile, error) {
	return s.repo.Get(ctx, userID)
}

// CanChange answers the rate-limit question for a field without mutating
// anything. The reason string is safe to show the user.
func (s *Service) CanChange(ctx context.Context, userID uint64, field repository.ProfileField) (bool, string, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return false, "", err
	}
	d := CanChange(p, field, s.now())
	return d.Allowed, d.Reason, nil
}

// UpdateField performs a gated single-field edit: the rate-limit check, any
// lazy counter resets and the mutation with its counter bumps all run inside
// one transaction, so a concurrent double-tap cannot slip past the caps.
func (s *Service) UpdateField(ctx context.Context, userID uint64, field repository.ProfileField, value interface{}) error {
	if err := validateValue(field, value); err != nil {
		return err
	}

	now := s.now()
	return s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		p, err := repo.Get(ctx, userID)
		if err != nil {
			return err
		}

		d := CanChange(p, field, now)
		if !d.Allowed {
			s.appCtx.Logger.Debug("field change denied", "user_id", userID, "field", field, "reason", d.Reason)
			return apperr.Denied(d.Reason)
		}

		if err := repo.ResetCounters(ctx, userID, d.ResetAgeChanges, d.ResetLocationToday, d.ResetLocationMonth); err != nil {
			return err
		}

		return repo.UpdateField(ctx, userID, field, value, now)
	})
}

// Deactivate hides the profile from discovery without deleting anything.
func (s *Service) Deactivate(ctx context.Context, userID uint64) error {
	return s.repo.SetActive(ctx, userID, false)
}

// Reactivate restores a previously deactivated profile.
func (s *Service) Reactivate(ctx context.Context, userID uint64) error {
	return s.repo.SetActive(ctx, userID, true)
}

// Touch records user activity.
func (s *Service) Touch(ctx context.Context, userID uint64) error {
	return s.repo.Touch(ctx, userID, s.now())
}

// AddPhoto stores a chat-platform photo reference.
func (s *Service) AddPhoto(ctx context.Context, userID uint64, photoID string, main bool) error {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return err
	}
	return s.repo.AddPhoto(ctx, userID, photoID, main)
}

// Photos lists the profile's photos, main first.
func (s *Service) Photos(ctx context.Context, userID uint64) ([]db.Photo, error) {
	return s.repo.Photos(ctx, userID)
}

func validateValue(field repository.ProfileField, value interface{}) error {
	switch field {
	case repository.FieldName:
		name, ok := value.(string)
		if !ok {
			return apperr.Invalid("name", "expected a string")
		}
		return validateName(name)
	case repository.FieldAge:
		age, ok := value.(int)
		if !ok {
			return apperr.Invalid("age", "expected an integer")
		}
		return validateAge(age)
	case repository.FieldBio:
		bio, ok := value.(string)
		if !ok {
			return apperr.Invalid("bio", "expected a string")
		}
		return validateBio(bio)
	case repository.FieldSearchRadius:
		radius, ok := value.(int)
		if !ok || radius <= 0 {
			return apperr.Invalid("search_radius_km", "radius must be positive")
		}
	}
	return nil
}

func validateName(name string) error {
	if len([]rune(name)) < minName || len([]rune(name)) > maxName {
		return apperr.Invalid("name", "must be between 2 and 50 characters")
	}
	return nil
}

func validateAge(age int) error {
	if age < minAge || age > maxAge {
		return apperr.Invalid("age", "must be between 16 and 100")
	}
	return nil
}

func validateBio(bio string) error {
	if n := len([]rune(bio)); n < minBio || n > maxBio {
		return apperr.Invalid("bio", "must be between 10 and 500 characters")
	}
	return nil
}
