// Package sampledata generates a deterministic population of fake user
// profiles for the local sample API. The same seed always yields the same
// users, so tests and screenshots are stable across runs.
package sampledata

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sakif/user-directory/internal/model"
)

var (
	firstNames = []string{
		"Anna", "Annie", "Brian", "Carla", "Daniel", "Elena", "Felix", "Grace", "Hector", "Irene",
		"James", "Kara", "Liam", "Maria", "Noah", "Olga", "Peter", "Quinn", "Rosa", "Samuel",
		"Tina", "Umar", "Vera", "Walter", "Xenia", "Yusuf", "Zoe",
	}
	lastNames = []string{
		"Anderson", "Baker", "Carter", "Diaz", "Evans", "Fischer", "Garcia", "Hughes", "Ivanova", "Johnson",
		"Kim", "Lopez", "Morgan", "Nguyen", "Olsen", "Patel", "Quintero", "Reyes", "Smith", "Turner",
		"Usman", "Volkov", "Walker", "Young", "Zimmerman",
	}
	jobs = []string{
		"Accountant", "Architect", "Barista", "Civil engineer", "Data analyst", "Dentist", "Electrician",
		"Graphic designer", "Librarian", "Nurse", "Pharmacist", "Pilot", "Software developer",
		"Teacher", "Veterinarian", "Web designer",
	}
	streets = []string{"Maple", "Oak", "Pine", "Cedar", "Elm", "Lake", "Hill", "Park", "River", "Sunset"}

	places = []struct {
		city, state, country string
		lat, lon             float64
	}{
		{"Springfield", "Illinois", "United States", 39.78, -89.65},
		{"Austin", "Texas", "United States", 30.27, -97.74},
		{"Portland", "Oregon", "United States", 45.52, -122.68},
		{"Toronto", "Ontario", "Canada", 43.65, -79.38},
		{"Manchester", "England", "United Kingdom", 53.48, -2.24},
		{"Munich", "Bavaria", "Germany", 48.14, 11.58},
		{"Lyon", "Auvergne-Rhone-Alpes", "France", 45.76, 4.84},
		{"Kazan", "Tatarstan", "Russia", 55.79, 49.12},
		{"Osaka", "Osaka", "Japan", 34.69, 135.50},
		{"Perth", "Western Australia", "Australia", -31.95, 115.86},
	}
)

// Generate returns n users with IDs 1..n.
func Generate(n int, seed uint64) []model.User {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	users := make([]model.User, n)

	for i := range users {
		id := int64(i + 1)
		first := firstNames[r.IntN(len(firstNames))]
		last := lastNames[r.IntN(len(lastNames))]
		place := places[r.IntN(len(places))]

		gender := "female"
		if r.IntN(2) == 0 {
			gender = "male"
		}

		// Born between 1950 and 2004.
		born := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(r.IntN(55), r.IntN(12), r.IntN(28))

		users[i] = model.User{
			ID:             id,
			Gender:         gender,
			DateOfBirth:    born.Format("2006-01-02T15:04:05"),
			Job:            jobs[r.IntN(len(jobs))],
			City:           place.city,
			Zipcode:        fmt.Sprintf("%05d", r.IntN(100000)),
			Latitude:       jitter(r, place.lat),
			Longitude:      jitter(r, place.lon),
			ProfilePicture: fmt.Sprintf("https://api.slingacademy.com/public/sample-users/%d.png", (id-1)%100+1),
			FirstName:      first,
			LastName:       last,
			Email:          fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), id),
			Phone:          fmt.Sprintf("+1-%03d-%03d-%04d", 200+r.IntN(800), r.IntN(1000), r.IntN(10000)),
			Street:         fmt.Sprintf("%d %s Street", 1+r.IntN(9999), streets[r.IntN(len(streets))]),
			State:          place.state,
			Country:        place.country,
		}
	}

	return users
}

// jitter spreads users around a city centre by up to ±0.25° and rounds to
// six decimals, roughly 10cm.
func jitter(r *rand.Rand, v float64) float64 {
	v += (r.Float64() - 0.5) / 2
	return float64(int64(v*1e6)) / 1e6
}
