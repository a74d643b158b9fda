package strava

import (
	"strconv"
	"time"

	"github.com/matzehuels/clubreport/pkg/roster"
)

// athlete is the athlete summary embedded in club payloads.
type athlete struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// clubActivity is one entry of /clubs/{id}/activities. Some feeds wrap the
// summary in an "activity" object; both shapes decode into this type.
type clubActivity struct {
	Activity  *clubActivity `json:"activity,omitempty"`
	Athlete   athlete       `json:"athlete"`
	Name      string        `json:"name"`
	Distance  float64       `json:"distance"`
	Type      string        `json:"type"`
	SportType string        `json:"sport_type"`
	StartDate time.Time     `json:"start_date,omitzero"`
}

func (a clubActivity) record() roster.Activity {
	if a.Activity != nil {
		inner := *a.Activity
		if inner.Athlete == (athlete{}) {
			inner.Athlete = a.Athlete
		}
		return inner.record()
	}
	typ := a.SportType
	if _, ok := roster.ParseCategory(typ); !ok {
		typ = a.Type
	}
	return roster.Activity{
		OwnerID:   formatID(a.Athlete.ID),
		FirstName: a.Athlete.FirstName,
		LastName:  a.Athlete.LastName,
		Type:      typ,
		Distance:  a.Distance,
		StartDate: a.StartDate,
	}
}

// clubMember is one entry of /clubs/{id}/members.
type clubMember struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

func (m clubMember) record() roster.Member {
	return roster.Member{ID: formatID(m.ID), FirstName: m.FirstName, LastName: m.LastName}
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// matchByID keeps athlete ids only when every activity and every member
// carries one. Otherwise all ids are cleared and matching falls back to names.
func matchByID(activities []roster.Activity, members []roster.Member) {
	complete := true
	for _, a := range activities {
		complete = complete && a.OwnerID != ""
	}
	for _, m := range members {
		complete = complete && m.ID != ""
	}
	if complete {
		return
	}
	for i := range activities {
		activities[i].OwnerID = ""
	}
	for i := range members {
		members[i].ID = ""
	}
}

// Token is an access token issued by the refresh-token grant.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Expiry returns the expiry time, or zero when unknown.
func (t Token) Expiry() time.Time {
	if t.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0)
}

// expiresWithin reports whether t expires before now+d. Tokens without an
// expiry never do.
func (t Token) expiresWithin(now time.Time, d time.Duration) bool {
	exp := t.Expiry()
	return !exp.IsZero() && exp.Before(now.Add(d))
}

func (t Token) header() map[string]string {
	return map[string]string{"Authorization": "Bearer " + t.AccessToken}
}

func pageQuery(page, perPage int) string {
	return "?page=" + strconv.Itoa(page) + "&per_page=" + strconv.Itoa(perPage)
}
