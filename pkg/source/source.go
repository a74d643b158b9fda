// Package source defines how club data reaches the report pipeline.
//
// A [Source] returns a [Snapshot]: every activity and member for one report
// date, fully materialized. Layout never starts on a partial snapshot.
// Paged remote collections are read with [Drain], which requests pages until
// the first empty one.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/roster"
)

// Snapshot is the complete input of one report run.
type Snapshot struct {
	Date       string            `json:"date"` // YYYY-MM-DD
	Activities []roster.Activity `json:"activities"`
	Members    []roster.Member   `json:"members"`
	FetchedAt  time.Time         `json:"fetched_at"`
	Origin     string            `json:"origin,omitempty"`
}

// Source fetches the snapshot for a report date.
type Source interface {
	Fetch(ctx context.Context, date time.Time) (*Snapshot, error)
}

// PageFunc fetches one page (1-based) of at most perPage items.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// maxPages bounds Drain against servers that never return an empty page.
const maxPages = 1000

// Drain calls fetch for pages 1, 2, ... until it returns an empty page and
// returns every item in page order. Errors from fetch are returned as is.
// Drain keeps no state between calls, so a failed drain can simply be retried.
func Drain[T any](ctx context.Context, perPage int, fetch PageFunc[T]) ([]T, error) {
	if perPage <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "page size must be positive, got %d", perPage)
	}
	var all []T
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, err := fetch(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}
	return nil, errors.New(errors.ErrCodeInternal, "no empty page after %d pages", maxPages)
}

// FileSource reads a snapshot previously written with [WriteFile]. The
// requested date must match the snapshot's date unless AnyDate is set.
type FileSource struct {
	Path    string
	AnyDate bool
}

// Fetch implements [Source].
func (s FileSource) Fetch(ctx context.Context, date time.Time) (*Snapshot, error) {
	snap, err := ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	if want := date.Format(errors.DateLayout); !s.AnyDate && !date.IsZero() && snap.Date != want {
		return nil, errors.New(errors.ErrCodeInvalidDate, "snapshot %s is for %s, not %s", s.Path, snap.Date, want)
	}
	return snap, nil
}

// ReadFile decodes a JSON snapshot.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "snapshot %s", path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode snapshot %s", path)
	}
	if _, err := errors.ValidateDate(snap.Date, time.UTC); err != nil {
		return nil, err
	}
	if snap.Origin == "" {
		snap.Origin = "file:" + filepath.Base(path)
	}
	return &snap, nil
}

// WriteFile encodes snap as indented JSON at path, creating parent directories.
func WriteFile(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Static serves one in-memory snapshot for any date.
type Static struct {
	Snapshot *Snapshot
}

// Fetch implements [Source]. The snapshot's date is set to date.
func (s Static) Fetch(ctx context.Context, date time.Time) (*Snapshot, error) {
	if s.Snapshot == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot")
	}
	snap := *s.Snapshot
	snap.Date = date.Format(errors.DateLayout)
	return &snap, nil
}
