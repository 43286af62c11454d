package profile

import (
	"time"

	"github.com/antonkh/kupid/internal/db"
	"github.com/antonkh/kupid/internal/repository"
)

// Rate-limit windows and caps for mutable profile fields.
const (
	nameChangeInterval = 30 * 24 * time.Hour
	ageChangeInterval  = 24 * time.Hour
	ageWindow          = 30 * 24 * time.Hour
	ageWindowCap       = 3
	locationDailyCap   = 5
	locationWindow     = 30 * 24 * time.Hour
	locationWindowCap  = 15
)

// Decision is the outcome of a rate-limit check. When a rolling window has
// expired the corresponding Reset* flag tells the caller which counters to
// zero before proceeding. Counters are only ever re-evaluated at the next
// gated check, never by a background job.
type Decision struct {
	Allowed bool
	Reason  string

	ResetAgeChanges    bool
	ResetLocationToday bool
	ResetLocationMonth bool
}

func denied(reason string) Decision {
	return Decision{Reason: reason}
}

// CanChange decides whether the given field of the profile may be changed at
// time now. Pure over its inputs; it never touches storage. The caller is
// expected to apply the Reset* flags and the mutation inside one transaction.
func CanChange(p *db.Profile, field repository.ProfileField, now time.Time) Decision {
	switch field {
	case repository.FieldName:
		return canChangeName(p, now)
	case repository.FieldAge:
		return canChangeAge(p, now)
	default:
		if field.IsLocationField() {
			return canChangeLocation(p, now)
		}
		// bio, goal, radius, everywhere-flag: no limits
		return Decision{Allowed: true}
	}
}

func canChangeName(p *db.Profile, now time.Time) Decision {
	if p.LastNameChange != nil && now.Sub(*p.LastNameChange) < nameChangeInterval {
		return denied("name can only be changed once every 30 days")
	}
	return Decision{Allowed: true}
}

func canChangeAge(p *db.Profile, now time.Time) Decision {
	if p.LastAgeChange != nil && now.Sub(*p.LastAgeChange) < ageChangeInterval {
		return denied("age can only be changed once per day")
	}

	if p.AgeChanges >= ageWindowCap {
		if p.LastAgeChange != nil && now.Sub(*p.LastAgeChange) >= ageWindow {
			// window expired since the last change: counter restarts
			return Decision{Allowed: true, ResetAgeChanges: true}
		}
		return denied("age can be changed at most 3 times per 30 days")
	}

	return Decision{Allowed: true}
}

func canChangeLocation(p *db.Profile, now time.Time) Decision {
	d := Decision{Allowed: true}

	today := p.LocationChangesToday
	if p.LastLocationChange != nil && !sameDate(*p.LastLocationChange, now) {
		// calendar day rolled over since the last change
		d.ResetLocationToday = true
		today = 0
	}
	if today >= locationDailyCap {
		return denied("location can be changed at most 5 times per day")
	}

	if p.LocationChangesMonth >= locationWindowCap {
		if p.LastLocationChange != nil && now.Sub(*p.LastLocationChange) >= locationWindow {
			d.ResetLocationMonth = true
		} else {
			return denied("location can be changed at most 15 times per 30 days")
		}
	}

	return d
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
