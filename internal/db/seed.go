package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedCity struct {
	name string
	lat  float64
	lon  float64
}

var seedCities = []seedCity{
	{"Kyiv", 50.4501, 30.5234},
	{"Lviv", 49.8397, 24.0297},
	{"Odesa", 46.4825, 30.7233},
	{"Kharkiv", 49.9935, 36.2304},
	{"Dnipro", 48.4647, 35.0462},
}

// SeedTestData resets the database and populates it with demo profiles plus
// a spread of likes, so a local shell has something to browse immediately.
//
// Behavior:
//  1. Clears profiles, likes, matches, view records.
//  2. Creates 20 profiles (10 male, 10 female) across a few cities.
//  3. Generates likes with ~70% probability per considered pair; every 3rd
//     pair is made reciprocal so matches exist out of the box.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{
		"view_records", "matches", "likes", "photos",
		"complaints", "daily_complaint_quotas", "captcha_attempts", "profiles",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	goals := []string{GoalRelationship, GoalFriendship, GoalOnlineChat, GoalShortRomance, GoalGaming}

	for i := 1; i <= 20; i++ {
		city := seedCities[r.Intn(len(seedCities))]
		// jitter coordinates a little so radius filtering has variety
		lat := city.lat + (r.Float64()-0.5)*0.2
		lon := city.lon + (r.Float64()-0.5)*0.2

		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}

		profile := Profile{
			UserID:         uint64(i),
			Username:       fmt.Sprintf("user%d", i),
			Name:           fmt.Sprintf("Demo User %d", i),
			Age:            18 + r.Intn(30),
			Gender:         gender,
			CurrentCity:    city.name,
			CurrentLat:     &lat,
			CurrentLon:     &lon,
			SearchCity:     city.name,
			SearchLat:      &city.lat,
			SearchLon:      &city.lon,
			SearchRadiusKm: 25 + r.Intn(75),
			DatingGoal:     goals[r.Intn(len(goals))],
			Bio:            fmt.Sprintf("Demo bio for user %d, long enough to pass validation.", i),
			Active:         true,
			LastActive:     time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		// a few profiles search everywhere
		if i%7 == 0 {
			profile.SearchEverywhere = true
			profile.SearchCity = ""
		}

		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
	}
	log.Println("Seeded 20 profiles.")

	// likes, with guaranteed mutual pairs every 3rd edge
	counter := 0
	for from := uint64(1); from <= 20; from++ {
		for j := 0; j < 12; j++ {
			to := uint64(r.Intn(20) + 1)
			if from == to {
				continue
			}
			if r.Intn(100) >= 70 && counter%3 != 0 {
				counter++
				continue
			}

			like := Like{FromUser: from, ToUser: to}
			if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}

			if counter%3 == 0 {
				recip := Like{FromUser: to, ToUser: from}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&recip)

				low, high := from, to
				if low > high {
					low, high = high, low
				}
				match := Match{UserLow: low, UserHigh: high}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match)
			}

			counter++
		}
	}

	return nil
}
