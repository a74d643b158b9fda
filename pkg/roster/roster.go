package roster

import (
	"math"
	"strings"
	"time"

	"github.com/matzehuels/clubreport/pkg/errors"
)

// Activity is one recorded club activity.
type Activity struct {
	// OwnerID identifies the athlete. When empty the normalized full name is used.
	OwnerID   string    `json:"owner_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Type      string    `json:"type"`
	Distance  float64   `json:"distance"` // meters
	StartDate time.Time `json:"start_date,omitzero"`
}

// Member is one known club member.
type Member struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Owner returns the identity used to match the activity against members.
func (a Activity) Owner() string {
	if id := strings.TrimSpace(a.OwnerID); id != "" {
		return id
	}
	return NormalizeName(a.FirstName, a.LastName)
}

// Identity returns the identity used to match the member against activities.
func (m Member) Identity() string {
	if id := strings.TrimSpace(m.ID); id != "" {
		return id
	}
	return NormalizeName(m.FirstName, m.LastName)
}

// NormalizeName folds a first and last name into a comparable identity:
// lowercase, single spaced, trimmed.
func NormalizeName(first, last string) string {
	return strings.ToLower(strings.Join(strings.Fields(first+" "+last), " "))
}

// Unit is the display unit for distances.
type Unit string

// Supported units.
const (
	Miles      Unit = "mi"
	Kilometers Unit = "km"
)

// meters per unit
var unitMeters = map[Unit]float64{
	Miles:      1609.34,
	Kilometers: 1000,
}

// Convert returns meters expressed in u.
func (u Unit) Convert(meters float64) float64 {
	return meters / unitMeters[u]
}

// SortKey selects the collation key of report rows.
type SortKey string

// Sort keys.
const (
	BySurname        SortKey = "surname"
	BySurnameInitial SortKey = "surname-initial"
	ByFirstName      SortKey = "first-name"
)

// Options configures [Aggregate].
type Options struct {
	Unit    Unit    `toml:"unit" json:"unit"`
	SortKey SortKey `toml:"sort" json:"sort"`

	// Locale is a BCP 47 tag used for collation, "en" by default.
	Locale string `toml:"locale" json:"locale"`
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	if o.Unit == "" {
		o.Unit = Miles
	}
	if o.SortKey == "" {
		o.SortKey = BySurname
	}
	if o.Locale == "" {
		o.Locale = "en"
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if _, ok := unitMeters[o.Unit]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown distance unit %q (want mi or km)", o.Unit)
	}
	switch o.SortKey {
	case BySurname, BySurnameInitial, ByFirstName:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown sort key %q", o.SortKey)
	}
	return nil
}

// valid reports whether the activity can be counted. Sparse records are normal
// in club feeds and are skipped rather than reported.
func (a Activity) valid() (Category, bool) {
	if a.Owner() == "" {
		return "", false
	}
	if a.Distance <= 0 || math.IsNaN(a.Distance) || math.IsInf(a.Distance, 0) {
		return "", false
	}
	return ParseCategory(a.Type)
}
