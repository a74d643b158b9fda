package source

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/clubreport/pkg/errors"
	"github.com/matzehuels/clubreport/pkg/roster"
)

func pages(data []int) PageFunc[int] {
	return func(_ context.Context, page, perPage int) ([]int, error) {
		start := (page - 1) * perPage
		if start >= len(data) {
			return nil, nil
		}
		return data[start:min(start+perPage, len(data))], nil
	}
}

func TestDrain(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		perPage int
		calls   int
	}{
		{"empty", 0, 10, 1},
		{"one partial page", 3, 10, 2},
		{"exact pages", 20, 10, 3},
		{"many pages", 95, 10, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]int, tt.n)
			for i := range data {
				data[i] = i
			}
			calls := 0
			fetch := pages(data)
			got, err := Drain(context.Background(), tt.perPage, func(ctx context.Context, page, perPage int) ([]int, error) {
				calls++
				return fetch(ctx, page, perPage)
			})
			if err != nil {
				t.Fatalf("Drain() error = %v", err)
			}
			if len(got) != tt.n {
				t.Fatalf("Drain() returned %d items, want %d", len(got), tt.n)
			}
			for i, v := range got {
				if v != i {
					t.Fatalf("item %d = %d, order broken", i, v)
				}
			}
			if calls != tt.calls {
				t.Errorf("fetch called %d times, want %d", calls, tt.calls)
			}
		})
	}
}

func TestDrainErrors(t *testing.T) {
	boom := stderrors.New("boom")
	_, err := Drain(context.Background(), 10, func(_ context.Context, page, _ int) ([]int, error) {
		if page == 2 {
			return nil, boom
		}
		return []int{1}, nil
	})
	if !stderrors.Is(err, boom) {
		t.Errorf("Drain() error = %v, want %v", err, boom)
	}

	if _, err := Drain(context.Background(), 0, pages(nil)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Drain(perPage=0) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Drain(ctx, 10, pages([]int{1})); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Drain(canceled) error = %v", err)
	}

	endless := func(context.Context, int, int) ([]int, error) { return []int{1}, nil }
	if _, err := Drain(context.Background(), 1, endless); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Drain(endless) error = %v", err)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	want := &Snapshot{
		Date: "2025-01-02",
		Activities: []roster.Activity{
			{FirstName: "Jane", LastName: "D.", Type: "Walk", Distance: 3200},
		},
		Members:   []roster.Member{{FirstName: "Jane", LastName: "D."}},
		FetchedAt: time.Date(2025, 1, 3, 6, 0, 0, 0, time.UTC),
		Origin:    "strava:club/1",
	}
	if err := WriteFile(path, want); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := FileSource{Path: path}.Fetch(context.Background(), day)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot (-want +got):\n%s", diff)
	}

	_, err = FileSource{Path: path}.Fetch(context.Background(), day.AddDate(0, 0, 1))
	if !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Fetch(other date) error = %v, want %s", err, errors.ErrCodeInvalidDate)
	}
	if _, err := (FileSource{Path: path, AnyDate: true}).Fetch(context.Background(), day.AddDate(0, 0, 1)); err != nil {
		t.Errorf("Fetch(AnyDate) error = %v", err)
	}

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.Fetch(context.Background(), day)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Fetch(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestStatic(t *testing.T) {
	s := Static{Snapshot: &Snapshot{Date: "2000-01-01"}}
	got, err := s.Fetch(context.Background(), time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got.Date != "2025-05-06" || s.Snapshot.Date != "2000-01-01" {
		t.Errorf("Fetch() date = %s, original = %s", got.Date, s.Snapshot.Date)
	}
	if _, err := (Static{}).Fetch(context.Background(), time.Now()); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Fetch(nil snapshot) error = %v", err)
	}
}
