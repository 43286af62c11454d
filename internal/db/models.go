package db

import (
	"time"
)

// Gender values stored on a profile. The shell maps its own UI labels onto
// these; the core only ever sees the enum.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Dating goal values, matching the shell's goal picker.
const (
	GoalRelationship = "relationship"
	GoalFriendship   = "friendship"
	GoalOnlineChat   = "online_chat"
	GoalShortRomance = "short_romance"
	GoalGaming       = "gaming"
)

// Complaint statuses.
const (
	ComplaintPending  = "pending"
	ComplaintResolved = "resolved"
)

// Profile is one user's dating profile, keyed by the chat platform's user id.
//
// The change-tracking tail (NameChanges .. LastLocationChange) backs the
// rate-limit policy: counters are bumped in the same transaction as the field
// write and reset lazily on the next gated check, never by a background job.
type Profile struct {
	UserID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	Username string `gorm:"size:64"`

	Name   string `gorm:"size:64;not null"`
	Age    int    `gorm:"not null"`
	Gender string `gorm:"size:16;not null"`

	CurrentCity string   `gorm:"size:128;not null"`
	CurrentLat  *float64 `gorm:"type:double"`
	CurrentLon  *float64 `gorm:"type:double"`

	SearchCity       string   `gorm:"size:128"`
	SearchEverywhere bool     `gorm:"default:false"`
	SearchLat        *float64 `gorm:"type:double"`
	SearchLon        *float64 `gorm:"type:double"`
	SearchRadiusKm   int      `gorm:"default:50"` // meaningful only when SearchEverywhere is false

	DatingGoal string `gorm:"size:32;not null"`
	Bio        string `gorm:"size:500;not null"`

	Active bool `gorm:"default:true"`
	Banned bool `gorm:"default:false"`

	CreatedAt  time.Time `gorm:"autoCreateTime"`
	LastActive time.Time

	NameChanges          int `gorm:"default:0"`
	LastNameChange       *time.Time
	AgeChanges           int `gorm:"default:0"`
	LastAgeChange        *time.Time
	LocationChangesToday int `gorm:"default:0"`
	LocationChangesMonth int `gorm:"default:0"`
	LastLocationChange   *time.Time
}

// Photo is an opaque chat-platform photo reference attached to a profile.
// At most one photo per profile is the main one.
type Photo struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	PhotoID   string    `gorm:"size:255;not null"`
	Main      bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Like is a directed, append-only edge: FromUser liked ToUser.
// The composite PK makes re-inserting the same edge a no-op.
type Like struct {
	FromUser  uint64    `gorm:"primaryKey;autoIncrement:false"`
	ToUser    uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Match stores a mutual like exactly once per unordered pair, with the
// canonical ordering UserLow < UserHigh.
type Match struct {
	UserLow   uint64    `gorm:"primaryKey;autoIncrement:false"`
	UserHigh  uint64    `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// ViewRecord tracks how often a viewer has been shown a candidate and when
// the candidate may resurface. A candidate is withheld from selection while
// now < VisibleAgain.
type ViewRecord struct {
	ViewerID     uint64    `gorm:"primaryKey;autoIncrement:false"`
	ViewedID     uint64    `gorm:"primaryKey;autoIncrement:false"`
	FirstView    time.Time `gorm:"autoCreateTime"`
	ViewCount    int       `gorm:"default:1"`
	VisibleAgain time.Time `gorm:"not null"`
}

// Complaint is a report filed by ReporterID against TargetID. The composite
// unique index rejects a second complaint for the same pair regardless of
// status; Reference is a public handle safe to show admins.
type Complaint struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Reference  string `gorm:"size:36;uniqueIndex"`
	ReporterID uint64 `gorm:"not null;uniqueIndex:idx_reporter_target"`
	TargetID   uint64 `gorm:"not null;uniqueIndex:idx_reporter_target;index"`
	Reason     string `gorm:"size:500;not null"`
	Status     string `gorm:"size:16;default:pending;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	ResolvedAt *time.Time
	ResolvedBy *uint64
}

// DailyComplaintQuota is one row per reporter, rolled over lazily when the
// stored date no longer matches today.
type DailyComplaintQuota struct {
	UserID          uint64    `gorm:"primaryKey;autoIncrement:false"`
	ComplaintsToday int       `gorm:"default:0"`
	QuotaDate       time.Time `gorm:"not null"` // date portion only is significant
}

// CaptchaAttempt tracks the pre-registration human check for a user id.
type CaptchaAttempt struct {
	UserID      uint64    `gorm:"primaryKey;autoIncrement:false"`
	Attempts    int       `gorm:"default:0"`
	Verified    bool      `gorm:"default:false"`
	LastAttempt time.Time `gorm:"autoUpdateTime"`
}
