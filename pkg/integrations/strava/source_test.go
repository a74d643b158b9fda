package strava

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/roster"
)

func TestSourceFetch(t *testing.T) {
	var acts []map[string]any
	for i := range 7 {
		acts = append(acts, activity(fmt.Sprintf("A%d", i), "X.", "Walk", 1000, "2025-01-02T08:00:00Z"))
	}
	acts = append(acts,
		activity("Late", "Y.", "Run", 1000, "2025-01-03T00:00:00Z"),
		activity("Early", "Y.", "Run", 1000, "2025-01-01T23:59:59Z"),
		activity("Undated", "Y.", "Ride", 1000, ""),
	)
	var members []map[string]any
	for i := range 5 {
		members = append(members, map[string]any{"firstname": fmt.Sprintf("M%d", i), "lastname": "Z."})
	}

	f := &fakeStrava{activities: acts, members: members}
	s := &Source{Client: newFake(t, f, nil, 0), PerPage: 3, Now: fixedNow(2025, 1, 3)}

	snap, err := s.Fetch(context.Background(), time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if snap.Date != "2025-01-02" || snap.Origin != "strava:club/7" {
		t.Errorf("snapshot header = %s %s", snap.Date, snap.Origin)
	}
	if len(snap.Activities) != 8 {
		t.Errorf("kept %d activities, want 8 (7 on the day + 1 undated)", len(snap.Activities))
	}
	if len(snap.Members) != 5 {
		t.Errorf("got %d members, want 5", len(snap.Members))
	}
	if n := f.tokenCalls.Load(); n != 1 {
		t.Errorf("token endpoint called %d times, want 1", n)
	}
}

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) }
}

func TestSourceFetchUndatedFeed(t *testing.T) {
	acts := []map[string]any{activity("Jane", "D.", "Walk", 1000, "")}
	tests := []struct {
		name    string
		date    time.Time
		wantErr bool
	}{
		{"yesterday", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"older day", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"today", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Source{Client: newFake(t, &fakeStrava{activities: acts}, nil, 0), Now: fixedNow(2025, 1, 3)}
			_, err := s.Fetch(context.Background(), tt.date)
			if tt.wantErr != (err != nil) {
				t.Fatalf("Fetch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, errors.ErrCodeInvalidDate) {
				t.Errorf("Fetch() error = %v, want %s", err, errors.ErrCodeInvalidDate)
			}
		})
	}
}

func TestSourceFetchDatedFeedAnyDay(t *testing.T) {
	acts := []map[string]any{activity("Jane", "D.", "Walk", 1000, "2020-01-01T08:00:00Z")}
	s := &Source{Client: newFake(t, &fakeStrava{activities: acts}, nil, 0), Now: fixedNow(2025, 1, 3)}
	snap, err := s.Fetch(context.Background(), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(snap.Activities) != 1 {
		t.Errorf("kept %d activities, want 1", len(snap.Activities))
	}
}

func TestSourceFetchMatchesByID(t *testing.T) {
	withID := func(a map[string]any, id int) map[string]any {
		a["athlete"].(map[string]any)["id"] = id
		return a
	}
	tests := []struct {
		name       string
		activities []map[string]any
		wantOwner  string
		wantMember string
	}{
		{
			name:       "all ids present",
			activities: []map[string]any{withID(activity("Jane", "D.", "Walk", 1000, ""), 11)},
			wantOwner:  "11",
			wantMember: "11",
		},
		{
			name:       "activity without id",
			activities: []map[string]any{activity("Jane", "D.", "Walk", 1000, "")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeStrava{
				activities: tt.activities,
				members:    []map[string]any{{"id": 11, "firstname": "Jane", "lastname": "D."}},
			}
			s := &Source{Client: newFake(t, f, nil, 0), Now: fixedNow(2025, 1, 3)}
			snap, err := s.Fetch(context.Background(), time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got := snap.Activities[0].OwnerID; got != tt.wantOwner {
				t.Errorf("OwnerID = %q, want %q", got, tt.wantOwner)
			}
			if got := snap.Members[0].ID; got != tt.wantMember {
				t.Errorf("member ID = %q, want %q", got, tt.wantMember)
			}
			if snap.Activities[0].Owner() != snap.Members[0].Identity() {
				t.Errorf("activity owner %q does not match member %q", snap.Activities[0].Owner(), snap.Members[0].Identity())
			}
		})
	}
}

func TestOnDayLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, ny)
	acts := []roster.Activity{
		{FirstName: "a", StartDate: time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)},  // Jan 1 22:00 in NY
		{FirstName: "b", StartDate: time.Date(2025, 1, 3, 3, 0, 0, 0, time.UTC)},  // Jan 2 22:00 in NY
		{FirstName: "c", StartDate: time.Date(2025, 1, 3, 5, 30, 0, 0, time.UTC)}, // Jan 3 00:30 in NY
	}
	got := OnDay(acts, day)
	if len(got) != 1 || got[0].FirstName != "b" {
		t.Errorf("OnDay() = %v, want only b", got)
	}
}
