package roster

import (
	"fmt"
	"strings"
)

// Category is an activity bucket of the report.
type Category string

// Report categories. NoActivity holds members without a recorded activity.
const (
	Walk       Category = "Walk"
	Run        Category = "Run"
	Ride       Category = "Ride"
	Hike       Category = "Hike"
	NoActivity Category = "NoActivity"
)

// Categories lists every category in report order.
var Categories = []Category{Walk, Run, Ride, Hike, NoActivity}

// activityTypes maps lowercase Strava activity and sport types to categories.
var activityTypes = map[string]Category{
	"walk":              Walk,
	"run":               Run,
	"trailrun":          Run,
	"virtualrun":        Run,
	"ride":              Ride,
	"ebikeride":         Ride,
	"virtualride":       Ride,
	"gravelride":        Ride,
	"mountainbikeride":  Ride,
	"emountainbikeride": Ride,
	"hike":              Hike,
}

// ParseCategory maps an activity type such as "TrailRun" to its category.
// Matching ignores case. NoActivity is never returned for an activity type.
func ParseCategory(activityType string) (Category, bool) {
	c, ok := activityTypes[strings.ToLower(strings.TrimSpace(activityType))]
	return c, ok
}

// Title is the column heading of the category.
func (c Category) Title() string {
	if c == NoActivity {
		return "No Activity"
	}
	return string(c)
}

// Valid reports whether c is one of [Categories].
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// UnmarshalText accepts a category name or its title, ignoring case.
func (c *Category) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for _, k := range Categories {
		if strings.EqualFold(s, string(k)) || strings.EqualFold(s, k.Title()) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", s)
}
