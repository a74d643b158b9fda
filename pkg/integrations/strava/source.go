package strava

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/roster"
	"github.com/matzehuels/clubreport/pkg/source"
)

// DefaultPerPage is the page size used when draining club endpoints.
const DefaultPerPage = 200

// Source implements [source.Source] on top of a [Client].
type Source struct {
	Client *Client

	// Location defines the report day; nil means UTC.
	Location *time.Location

	// PerPage defaults to DefaultPerPage.
	PerPage int

	// RefreshMembers bypasses cached member pages.
	RefreshMembers bool

	Logger *log.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Fetch drains activities and members concurrently and keeps the activities
// that started on date. Activities without a start time are kept.
//
// The club feed lists recent activities and usually carries no start times.
// An undated feed can only describe yesterday, so any other date is rejected
// with INVALID_DATE when undated activities are present.
func (s *Source) Fetch(ctx context.Context, date time.Time) (*source.Snapshot, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	perPage := s.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}

	// Token first so the two drains share one grant.
	if _, err := s.Client.Token(ctx); err != nil {
		return nil, err
	}

	var activities []roster.Activity
	var members []roster.Member
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activities, err = source.Drain(gctx, perPage, s.Client.Activities)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = source.Drain(gctx, perPage, func(ctx context.Context, page, perPage int) ([]roster.Member, error) {
			return s.Client.Members(ctx, page, perPage, s.RefreshMembers)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if undated(activities) {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		if y := now().In(loc).AddDate(0, 0, -1); y.Year() != day.Year() || y.YearDay() != day.YearDay() {
			return nil, errors.New(errors.ErrCodeInvalidDate,
				"strava: the club feed has no start times, so only yesterday (%s) can be reported, not %s",
				y.Format(errors.DateLayout), day.Format(errors.DateLayout))
		}
	}
	matchByID(activities, members)
	kept := OnDay(activities, day)
	logger.Debug("strava drained", "club", s.Client.cfg.ClubID,
		"activities", len(activities), "on_day", len(kept), "members", len(members))

	return &source.Snapshot{
		Date:       day.Format(errors.DateLayout),
		Activities: kept,
		Members:    members,
		FetchedAt:  time.Now().UTC(),
		Origin:     "strava:club/" + s.Client.cfg.ClubID,
	}, nil
}

// OnDay returns the activities starting within the 24 hours after day, plus
// those without a start time.
func OnDay(activities []roster.Activity, day time.Time) []roster.Activity {
	end := day.AddDate(0, 0, 1)
	out := make([]roster.Activity, 0, len(activities))
	for _, a := range activities {
		if a.StartDate.IsZero() || (!a.StartDate.Before(day) && a.StartDate.Before(end)) {
			out = append(out, a)
		}
	}
	return out
}

func undated(activities []roster.Activity) bool {
	for _, a := range activities {
		if a.StartDate.IsZero() {
			return true
		}
	}
	return false
}

var _ source.Source = (*Source)(nil)
