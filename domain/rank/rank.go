// Package rank generates deterministic demo ranking data.
// Results are a pure function of (domain, keyword, location, day), so
// repeated calls and historical reports stay self-consistent without
// any stored state.
package rank

import (
	"crypto/md5"
	"encoding/binary"
	"math/rand"
	"time"
)

// Ranking is one generated data point (value type).
type Ranking struct {
	Location         string `json:"location"`
	Position         int    `json:"position"`
	EstimatedTraffic int    `json:"estimated_traffic"`
	Trend            string `json:"trend"`
	Change           int    `json:"change"`
	Date             string `json:"date,omitempty"`
}

// Monitor is a registered recurring ranking check.
type Monitor struct {
	ID        string
	Domain    string
	Keywords  []string
	Locations []string
	Status    string
	CreatedAt time.Time
}

// MonitorStatusActive is the only status a freshly created monitor has.
const MonitorStatusActive = "active"

// SupportedLocations is the closed set of locations the demo data
// generator knows about.
var SupportedLocations = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
	"Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose",
	"London", "Manchester", "Birmingham", "Leeds", "Glasgow",
	"Toronto", "Vancouver", "Montreal", "Calgary", "Ottawa",
	"Sydney", "Melbourne", "Brisbane", "Perth", "Adelaide",
	"Tokyo", "Osaka", "Yokohama", "Nagoya", "Sapporo",
	"Berlin", "Munich", "Hamburg", "Frankfurt", "Cologne",
	"Paris", "Marseille", "Lyon", "Toulouse", "Nice",
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata",
	"Sao Paulo", "Rio de Janeiro", "Brasilia", "Salvador", "Fortaleza",
}

// IsSupportedLocation reports whether loc is in SupportedLocations.
func IsSupportedLocation(loc string) bool {
	for _, l := range SupportedLocations {
		if l == loc {
			return true
		}
	}
	return false
}

// seed derives a stable 64-bit seed from the query tuple. MD5 is fine
// here: the digest only has to be stable, not secure.
func seed(domain, keyword, location string, dayOffset int) int64 {
	sum := md5.Sum([]byte(domain + ":" + keyword + ":" + location + ":" + itoa(dayOffset)))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// Generate produces the ranking for one (domain, keyword, location)
// tuple on a given day offset. Deterministic for identical inputs.
func Generate(domain, keyword, location string, dayOffset int) Ranking {
	rng := rand.New(rand.NewSource(seed(domain, keyword, location, dayOffset)))

	position := rng.Intn(100) + 1

	traffic := 5000 - position*45 + rng.Intn(401) - 200
	if traffic < 10 {
		traffic = 10
	}

	// Trend weights: up 0.4, down 0.3, stable 0.3.
	var trend string
	switch roll := rng.Float64(); {
	case roll < 0.4:
		trend = "up"
	case roll < 0.7:
		trend = "down"
	default:
		trend = "stable"
	}

	change := 0
	if trend != "stable" {
		change = rng.Intn(8) + 1
	}

	return Ranking{
		Location:         location,
		Position:         position,
		EstimatedTraffic: traffic,
		Trend:            trend,
		Change:           change,
	}
}

// History generates the trailing days of rankings ending today, each
// entry stamped with its calendar date.
func History(domain, keyword, location string, days int, now time.Time) []Ranking {
	out := make([]Ranking, 0, days)
	for day := 0; day < days; day++ {
		r := Generate(domain, keyword, location, day)
		r.Date = now.AddDate(0, 0, -(days - 1 - day)).Format("2006-01-02")
		out = append(out, r)
	}
	return out
}

func itoa(n int) string {
	if n < 0 {
		return "-" + itoa(-n)
	}
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}
